package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/playguard/internal/api"
	"example.com/playguard/internal/auth"
	"example.com/playguard/internal/config"
	"example.com/playguard/internal/dispatch"
	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/engine"
	persistence "example.com/playguard/internal/persistence/postgres"
	httptransport "example.com/playguard/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)

	producer := dispatch.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	publisher := dispatch.NewPublisher(producer, dispatch.Topics{
		Actions:     cfg.ActionsTopic,
		Advisories:  cfg.AdvisoriesTopic,
		Revocations: cfg.RevocationsTopic,
		Audit:       cfg.AuditTopic,
	})

	eng := engine.New(repo,
		engine.WithPublisher(publisher),
		engine.WithProximity(cfg.ProximityFraction),
	)

	admin := domain.NewAdmin(repo)

	handler := api.NewHandler(admin, eng)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("playguard api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
