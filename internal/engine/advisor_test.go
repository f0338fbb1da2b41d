package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/playguard/internal/domain"
)

func TestAdvisoryFiresInProximityBand(t *testing.T) {
	eng, repo, publisher := newTestEngine(t)
	seedUser(t, repo, "user-1")
	seedActivity(t, repo, "skyforge")
	rule := seedRule(t, repo, domain.ThresholdRule{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})

	// 9h of 10h: inside the 90% band but below the threshold.
	result := play(t, eng, "user-1", "skyforge", mondayBase, mondayBase.Add(9*time.Hour))
	require.Nil(t, result.Action)
	require.Len(t, result.Advisories, 1)
	require.Equal(t, rule.ID, result.Advisories[0].RuleID)
	require.Equal(t, time.Hour, result.Advisories[0].Remaining)
	require.Len(t, publisher.advisories, 1)
}

func TestAdvisoryNotRepeatedWithinCycle(t *testing.T) {
	eng, repo, publisher := newTestEngine(t)
	seedUser(t, repo, "user-1")
	seedActivity(t, repo, "skyforge")
	seedRule(t, repo, domain.ThresholdRule{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})

	result := play(t, eng, "user-1", "skyforge", mondayBase, mondayBase.Add(9*time.Hour))
	require.Len(t, result.Advisories, 1)

	// Still in the band: no second nag.
	result = play(t, eng, "user-1", "skyforge", mondayBase.Add(10*time.Hour), mondayBase.Add(10*time.Hour+30*time.Minute))
	require.Empty(t, result.Advisories)
	require.Len(t, publisher.advisories, 1)
}

func TestAdvisoryRearmsAfterLeavingBand(t *testing.T) {
	eng, repo, publisher := newTestEngine(t)
	seedUser(t, repo, "user-1")
	seedActivity(t, repo, "skyforge")
	seedRule(t, repo, domain.ThresholdRule{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})

	result := play(t, eng, "user-1", "skyforge", mondayBase, mondayBase.Add(9*time.Hour))
	require.Len(t, result.Advisories, 1)

	// Eight days on, the 9h session has aged out: 30m is far below the
	// band, which re-arms the advisory.
	later := mondayBase.Add(8 * 24 * time.Hour)
	result = play(t, eng, "user-1", "skyforge", later, later.Add(30*time.Minute))
	require.Empty(t, result.Advisories)

	// Climbing back into the band warns again.
	result = play(t, eng, "user-1", "skyforge", later.Add(time.Hour), later.Add(10*time.Hour))
	require.Len(t, result.Advisories, 1)
	require.Len(t, publisher.advisories, 2)
}

func TestNoAdvisoryWhenRuleFires(t *testing.T) {
	eng, repo, publisher := newTestEngine(t)
	seedUser(t, repo, "user-1")
	seedActivity(t, repo, "skyforge")
	seedRule(t, repo, domain.ThresholdRule{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})

	result := play(t, eng, "user-1", "skyforge", mondayBase, mondayBase.Add(11*time.Hour))
	require.NotNil(t, result.Action)
	require.Empty(t, result.Advisories)
	require.Empty(t, publisher.advisories)
}

func TestAdvisoryTargetsSmallestUpcomingRule(t *testing.T) {
	eng, repo, publisher := newTestEngine(t)
	seedUser(t, repo, "user-1")
	seedActivity(t, repo, "skyforge")
	small := seedRule(t, repo, domain.ThresholdRule{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})
	seedRule(t, repo, domain.ThresholdRule{
		Threshold: 15 * time.Hour,
		Action:    domain.ActionTimeout,
		Timeout:   time.Hour,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})

	result := play(t, eng, "user-1", "skyforge", mondayBase, mondayBase.Add(9*time.Hour))
	require.Nil(t, result.Action)
	require.Len(t, result.Advisories, 1)
	require.Equal(t, small.ID, result.Advisories[0].RuleID)
	require.Len(t, publisher.advisories, 1)
}

func TestProximityOutsideUnitIntervalDisablesAdvisories(t *testing.T) {
	eng, repo, publisher := newTestEngine(t, WithProximity(0))
	seedUser(t, repo, "user-1")
	seedActivity(t, repo, "skyforge")
	seedRule(t, repo, domain.ThresholdRule{
		Threshold: 10 * time.Hour,
		Action:    domain.ActionWarn,
		Window:    domain.WindowRolling7d,
		Scope:     domain.GlobalScope(),
	})

	result := play(t, eng, "user-1", "skyforge", mondayBase, mondayBase.Add(9*time.Hour))
	require.Empty(t, result.Advisories)
	require.Empty(t, publisher.advisories)
}
