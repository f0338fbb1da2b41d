package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/persistence/memory"
)

func newAdmin(t *testing.T) (*domain.Admin, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	return domain.NewAdmin(repo), repo
}

func TestCreateRuleValidation(t *testing.T) {
	ctx := context.Background()
	admin, _ := newAdmin(t)
	_, err := admin.AddActivity(ctx, "skyforge")
	require.NoError(t, err)
	group, err := admin.CreateGroup(ctx, "shooters")
	require.NoError(t, err)

	valid := domain.CreateRuleInput{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	}

	rule, err := admin.CreateRule(ctx, valid)
	require.NoError(t, err)
	require.NotEmpty(t, rule.ID)

	cases := []struct {
		name   string
		mutate func(in *domain.CreateRuleInput)
	}{
		{"non-positive threshold", func(in *domain.CreateRuleInput) { in.Threshold = 0 }},
		{"unknown window", func(in *domain.CreateRuleInput) { in.Window = "fortnight" }},
		{"unknown action", func(in *domain.CreateRuleInput) { in.Action = "ban" }},
		{"timeout without duration", func(in *domain.CreateRuleInput) { in.Action = domain.ActionTimeout }},
		{"warn with duration", func(in *domain.CreateRuleInput) { in.Timeout = time.Hour }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			in.Threshold = 11 * time.Hour
			tc.mutate(&in)
			_, err := admin.CreateRule(ctx, in)
			require.ErrorIs(t, err, domain.ErrInvalidRule)
		})
	}

	t.Run("duplicate threshold in track", func(t *testing.T) {
		_, err := admin.CreateRule(ctx, valid)
		require.ErrorIs(t, err, domain.ErrInvalidRule)
	})

	t.Run("same threshold in a different window is fine", func(t *testing.T) {
		in := valid
		in.Window = domain.WindowRolling24h
		_, err := admin.CreateRule(ctx, in)
		require.NoError(t, err)
	})

	t.Run("unknown activity scope", func(t *testing.T) {
		in := valid
		in.Scope = domain.ActivityScope("missing")
		_, err := admin.CreateRule(ctx, in)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("known activity and group scopes", func(t *testing.T) {
		in := valid
		in.Scope = domain.ActivityScope("skyforge")
		_, err := admin.CreateRule(ctx, in)
		require.NoError(t, err)

		in.Scope = domain.GroupScope(group.ID)
		_, err = admin.CreateRule(ctx, in)
		require.NoError(t, err)
	})

	t.Run("unknown group scope", func(t *testing.T) {
		in := valid
		in.Scope = domain.GroupScope(uuid.NewString())
		_, err := admin.CreateRule(ctx, in)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAddActivityIsIdempotentByName(t *testing.T) {
	ctx := context.Background()
	admin, _ := newAdmin(t)

	first, err := admin.AddActivity(ctx, "skyforge")
	require.NoError(t, err)
	second, err := admin.AddActivity(ctx, "skyforge")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	_, err = admin.AddActivity(ctx, "  ")
	require.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestGroupMembershipRequiresKnownActivity(t *testing.T) {
	ctx := context.Background()
	admin, _ := newAdmin(t)

	group, err := admin.CreateGroup(ctx, "shooters")
	require.NoError(t, err)

	err = admin.AddGroupMember(ctx, group.ID, "skyforge")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = admin.AddActivity(ctx, "skyforge")
	require.NoError(t, err)
	require.NoError(t, admin.AddGroupMember(ctx, group.ID, "skyforge"))

	err = admin.AddGroupMember(ctx, uuid.NewString(), "skyforge")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetOptInCreatesUserOnFirstSight(t *testing.T) {
	ctx := context.Background()
	admin, repo := newAdmin(t)

	require.NoError(t, admin.SetOptIn(ctx, "user-1", true))

	user, err := repo.User(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.True(t, user.OptedIn)
	require.True(t, user.LeaderboardVisible)

	require.NoError(t, admin.SetOptIn(ctx, "user-1", false))
	user, err = repo.User(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, user.OptedIn)
}

func TestSummaryAggregatesClosedSessions(t *testing.T) {
	ctx := context.Background()
	admin, repo := newAdmin(t)
	_, err := admin.AddActivity(ctx, "skyforge")
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, d := range []time.Duration{time.Hour, 3 * time.Hour, 30 * time.Minute} {
		start := now.Add(-d - time.Hour)
		require.NoError(t, repo.SaveSession(ctx, domain.Session{
			ID:       uuid.NewString(),
			UserID:   "user-1",
			Activity: "skyforge",
			Start:    start,
			End:      start.Add(d),
			Duration: d,
		}))
	}

	summary, err := admin.Summary(ctx, "user-1", 7*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 3, summary.SessionCount)
	require.Equal(t, 4*time.Hour+30*time.Minute, summary.Total)
	require.Equal(t, 3*time.Hour, summary.LongestSession)
}
