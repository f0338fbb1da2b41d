package engine

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/persistence/memory"
)

// mondayBase is an arbitrary Monday midnight, so calendar-week tests can
// reason about period boundaries directly.
var mondayBase = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

type capturePublisher struct {
	actions     []domain.Action
	advisories  []domain.Advisory
	revocations []domain.Revocation
	audits      []domain.AuditEntry
}

func (p *capturePublisher) PublishAction(_ context.Context, action domain.Action) error {
	p.actions = append(p.actions, action)
	return nil
}

func (p *capturePublisher) PublishAdvisory(_ context.Context, advisory domain.Advisory) error {
	p.advisories = append(p.advisories, advisory)
	return nil
}

func (p *capturePublisher) PublishRevocation(_ context.Context, rev domain.Revocation) error {
	p.revocations = append(p.revocations, rev)
	return nil
}

func (p *capturePublisher) PublishAudit(_ context.Context, entry domain.AuditEntry) error {
	p.audits = append(p.audits, entry)
	return nil
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Repository, *capturePublisher) {
	t.Helper()
	repo := memory.NewRepository()
	publisher := &capturePublisher{}
	base := []Option{
		WithPublisher(publisher),
		WithLogger(log.New(engineTestWriter{t}, "", 0)),
	}
	eng := New(repo, append(base, opts...)...)
	return eng, repo, publisher
}

func seedUser(t *testing.T, repo *memory.Repository, userID string) {
	t.Helper()
	require.NoError(t, repo.UpsertUser(context.Background(), domain.User{
		ID:                 userID,
		OptedIn:            true,
		LeaderboardVisible: true,
		CreatedAt:          mondayBase,
	}))
}

func seedActivity(t *testing.T, repo *memory.Repository, name string) {
	t.Helper()
	require.NoError(t, repo.UpsertActivity(context.Background(), domain.Activity{
		ID:      uuid.NewString(),
		Name:    name,
		Enabled: true,
		AddedAt: mondayBase,
	}))
}

func seedRule(t *testing.T, repo *memory.Repository, rule domain.ThresholdRule) domain.ThresholdRule {
	t.Helper()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	require.NoError(t, repo.AddRule(context.Background(), rule))
	return rule
}

// play drives one full session through the tracker and returns the
// evaluation result from the stop signal.
func play(t *testing.T, eng *Engine, userID, activity string, start, stop time.Time) *Result {
	t.Helper()
	ctx := context.Background()
	_, err := eng.HandleActivityChanged(ctx, userID, activity, true, start)
	require.NoError(t, err)
	result, err := eng.HandleActivityChanged(ctx, userID, activity, false, stop)
	require.NoError(t, err)
	return result
}

type engineTestWriter struct {
	t *testing.T
}

func (w engineTestWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
