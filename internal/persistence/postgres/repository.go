// Package postgres provides the pgx-backed Store implementation.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/playguard/internal/domain"
)

// Repository implements domain.Store on top of a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const sessionColumns = "session_id, user_id, activity, started_at, ended_at, duration_seconds"

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		s       domain.Session
		ended   *time.Time
		seconds int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Activity, &s.Start, &ended, &seconds); err != nil {
		return domain.Session{}, err
	}
	if ended != nil {
		s.End = *ended
	}
	s.Duration = time.Duration(seconds) * time.Second
	return s, nil
}

func (r *Repository) OpenSession(ctx context.Context, userID, activity string) (*domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id=$1 AND activity=$2 AND ended_at IS NULL`

	s, err := scanSession(r.pool.QueryRow(ctx, query, userID, activity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repository) SaveSession(ctx context.Context, session domain.Session) error {
	const stmt = `INSERT INTO sessions (session_id, user_id, activity, started_at, ended_at, duration_seconds)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (session_id) DO UPDATE SET ended_at=EXCLUDED.ended_at, duration_seconds=EXCLUDED.duration_seconds`

	var ended *time.Time
	if !session.End.IsZero() {
		ended = &session.End
	}
	_, err := r.pool.Exec(ctx, stmt, session.ID, session.UserID, session.Activity, session.Start, ended, int64(session.Duration/time.Second))
	return err
}

func (r *Repository) DiscardSession(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE session_id=$1`, sessionID)
	return err
}

func (r *Repository) SessionsOverlapping(ctx context.Context, userID string, activities []string, from, to time.Time) ([]domain.Session, error) {
	if len(activities) == 0 {
		return nil, nil
	}

	const query = `SELECT ` + sessionColumns + ` FROM sessions
        WHERE user_id=$1 AND activity = ANY($2) AND ended_at IS NOT NULL
        AND ended_at >= $3 AND started_at <= $4
        ORDER BY started_at`

	rows, err := r.pool.Query(ctx, query, userID, activities, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) OpenSessionsForUser(ctx context.Context, userID string) ([]domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id=$1 AND ended_at IS NULL ORDER BY started_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) User(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT user_id, opted_in, exempt, leaderboard_visible, created_at FROM users WHERE user_id=$1`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(&u.ID, &u.OptedIn, &u.Exempt, &u.LeaderboardVisible, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) UpsertUser(ctx context.Context, user domain.User) error {
	const stmt = `INSERT INTO users (user_id, opted_in, exempt, leaderboard_visible, created_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id) DO UPDATE SET opted_in=EXCLUDED.opted_in, exempt=EXCLUDED.exempt, leaderboard_visible=EXCLUDED.leaderboard_visible`

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, stmt, user.ID, user.OptedIn, user.Exempt, user.LeaderboardVisible, createdAt)
	return err
}

func (r *Repository) Exclusions(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT activity FROM user_exclusions WHERE user_id=$1 ORDER BY activity`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var activity string
		if err := rows.Scan(&activity); err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	return out, rows.Err()
}

func (r *Repository) SetExclusion(ctx context.Context, userID, activity string, excluded bool) error {
	if excluded {
		_, err := r.pool.Exec(ctx, `INSERT INTO user_exclusions (user_id, activity) VALUES ($1,$2) ON CONFLICT DO NOTHING`, userID, activity)
		return err
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM user_exclusions WHERE user_id=$1 AND activity=$2`, userID, activity)
	return err
}

func (r *Repository) OptedInUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM users WHERE opted_in ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repository) Activities(ctx context.Context) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `SELECT activity_id, name, enabled, added_at FROM activities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Enabled, &a.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) ActivityByName(ctx context.Context, name string) (*domain.Activity, error) {
	const query = `SELECT activity_id, name, enabled, added_at FROM activities WHERE lower(name)=lower($1)`

	var a domain.Activity
	err := r.pool.QueryRow(ctx, query, name).Scan(&a.ID, &a.Name, &a.Enabled, &a.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) UpsertActivity(ctx context.Context, activity domain.Activity) error {
	const stmt = `INSERT INTO activities (activity_id, name, enabled, added_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (activity_id) DO UPDATE SET name=EXCLUDED.name, enabled=EXCLUDED.enabled`

	addedAt := activity.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, stmt, activity.ID, activity.Name, activity.Enabled, addedAt)
	return err
}

func (r *Repository) RemoveActivity(ctx context.Context, name string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE lower(name)=lower($1)`, name)
	return err
}

func (r *Repository) Groups(ctx context.Context) ([]domain.ActivityGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT group_id, name, created_at FROM activity_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityGroup
	for rows.Next() {
		var g domain.ActivityGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := r.groupMembers(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Members = members
	}
	return out, nil
}

func (r *Repository) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT activity FROM activity_group_members WHERE group_id=$1 ORDER BY activity`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var activity string
		if err := rows.Scan(&activity); err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	return out, rows.Err()
}

func (r *Repository) Group(ctx context.Context, id string) (*domain.ActivityGroup, error) {
	var g domain.ActivityGroup
	err := r.pool.QueryRow(ctx, `SELECT group_id, name, created_at FROM activity_groups WHERE group_id=$1`, id).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	g.Members, err = r.groupMembers(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *Repository) CreateGroup(ctx context.Context, group domain.ActivityGroup) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	createdAt := group.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if _, err := tx.Exec(ctx, `INSERT INTO activity_groups (group_id, name, created_at) VALUES ($1,$2,$3)`, group.ID, group.Name, createdAt); err != nil {
		return err
	}
	for _, member := range group.Members {
		if _, err := tx.Exec(ctx, `INSERT INTO activity_group_members (group_id, activity) VALUES ($1,$2)`, group.ID, member); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activity_groups WHERE group_id=$1`, id)
	return err
}

func (r *Repository) AddGroupMember(ctx context.Context, groupID, activity string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO activity_group_members (group_id, activity) VALUES ($1,$2) ON CONFLICT DO NOTHING`, groupID, activity)
	return err
}

func (r *Repository) RemoveGroupMember(ctx context.Context, groupID, activity string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM activity_group_members WHERE group_id=$1 AND activity=$2`, groupID, activity)
	return err
}

func (r *Repository) GroupsContaining(ctx context.Context, activity string) ([]domain.ActivityGroup, error) {
	const query = `SELECT g.group_id, g.name, g.created_at FROM activity_groups g
        JOIN activity_group_members m ON m.group_id = g.group_id
        WHERE m.activity=$1 ORDER BY g.name`

	rows, err := r.pool.Query(ctx, query, activity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActivityGroup
	for rows.Next() {
		var g domain.ActivityGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := r.groupMembers(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Members = members
	}
	return out, nil
}

const ruleColumns = "rule_id, threshold_seconds, action, timeout_seconds, window_kind, scope_kind, scope_activity, scope_group_id"

func scanRule(row pgx.Row) (domain.ThresholdRule, error) {
	var (
		rule               domain.ThresholdRule
		threshold, timeout int64
		action, window     string
		kind               string
	)
	if err := row.Scan(&rule.ID, &threshold, &action, &timeout, &window, &kind, &rule.Scope.Activity, &rule.Scope.GroupID); err != nil {
		return domain.ThresholdRule{}, err
	}
	rule.Threshold = time.Duration(threshold) * time.Second
	rule.Action = domain.ActionKind(action)
	rule.Timeout = time.Duration(timeout) * time.Second
	rule.Window = domain.WindowKind(window)
	rule.Scope.Kind = domain.ScopeKind(kind)
	return rule, nil
}

func (r *Repository) Rules(ctx context.Context) ([]domain.ThresholdRule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ruleColumns+` FROM threshold_rules ORDER BY threshold_seconds`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ThresholdRule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repository) RulesForScope(ctx context.Context, scope domain.Scope) ([]domain.ThresholdRule, error) {
	const query = `SELECT ` + ruleColumns + ` FROM threshold_rules
        WHERE scope_kind=$1 AND scope_activity=$2 AND scope_group_id=$3
        ORDER BY threshold_seconds`

	rows, err := r.pool.Query(ctx, query, string(scope.Kind), scope.Activity, scope.GroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ThresholdRule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repository) AddRule(ctx context.Context, rule domain.ThresholdRule) error {
	const stmt = `INSERT INTO threshold_rules (rule_id, threshold_seconds, action, timeout_seconds, window_kind, scope_kind, scope_activity, scope_group_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, stmt,
		rule.ID,
		int64(rule.Threshold/time.Second),
		string(rule.Action),
		int64(rule.Timeout/time.Second),
		string(rule.Window),
		string(rule.Scope.Kind),
		rule.Scope.Activity,
		rule.Scope.GroupID,
	)
	return err
}

func (r *Repository) DeleteRule(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM threshold_rules WHERE rule_id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) DedupState(ctx context.Context, userID, ruleID string) (*domain.DedupState, error) {
	const query = `SELECT user_id, rule_id, armed, last_fired_period_key, last_fired_at FROM dedup_state WHERE user_id=$1 AND rule_id=$2`

	var (
		state domain.DedupState
		fired *time.Time
	)
	err := r.pool.QueryRow(ctx, query, userID, ruleID).Scan(&state.UserID, &state.RuleID, &state.Armed, &state.LastFiredPeriodKey, &fired)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if fired != nil {
		state.LastFiredAt = *fired
	}
	return &state, nil
}

func (r *Repository) UpdateDedupState(ctx context.Context, state domain.DedupState) error {
	const stmt = `INSERT INTO dedup_state (user_id, rule_id, armed, last_fired_period_key, last_fired_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id, rule_id) DO UPDATE SET armed=EXCLUDED.armed, last_fired_period_key=EXCLUDED.last_fired_period_key, last_fired_at=EXCLUDED.last_fired_at`

	var fired *time.Time
	if !state.LastFiredAt.IsZero() {
		fired = &state.LastFiredAt
	}
	_, err := r.pool.Exec(ctx, stmt, state.UserID, state.RuleID, state.Armed, state.LastFiredPeriodKey, fired)
	return err
}

func (r *Repository) WarningState(ctx context.Context, userID, ruleID string) (*domain.WarningState, error) {
	const query = `SELECT user_id, rule_id, advised, last_advised_period_key, last_advised_at FROM warning_state WHERE user_id=$1 AND rule_id=$2`

	var (
		state   domain.WarningState
		advised *time.Time
	)
	err := r.pool.QueryRow(ctx, query, userID, ruleID).Scan(&state.UserID, &state.RuleID, &state.Advised, &state.LastAdvisedPeriodKey, &advised)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if advised != nil {
		state.LastAdvisedAt = *advised
	}
	return &state, nil
}

func (r *Repository) UpdateWarningState(ctx context.Context, state domain.WarningState) error {
	const stmt = `INSERT INTO warning_state (user_id, rule_id, advised, last_advised_period_key, last_advised_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (user_id, rule_id) DO UPDATE SET advised=EXCLUDED.advised, last_advised_period_key=EXCLUDED.last_advised_period_key, last_advised_at=EXCLUDED.last_advised_at`

	var advised *time.Time
	if !state.LastAdvisedAt.IsZero() {
		advised = &state.LastAdvisedAt
	}
	_, err := r.pool.Exec(ctx, stmt, state.UserID, state.RuleID, state.Advised, state.LastAdvisedPeriodKey, advised)
	return err
}

func (r *Repository) ClearUserState(ctx context.Context, userID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM sessions WHERE user_id=$1`,
		`DELETE FROM dedup_state WHERE user_id=$1`,
		`DELETE FROM warning_state WHERE user_id=$1`,
	} {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) TrackingEnabled(ctx context.Context) (bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key='tracking_enabled'`).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return value == "true", nil
}

func (r *Repository) SetTrackingEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	const stmt = `INSERT INTO settings (key, value) VALUES ('tracking_enabled', $1)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value`
	_, err := r.pool.Exec(ctx, stmt, value)
	return err
}

func (r *Repository) Leaderboard(ctx context.Context, from, to time.Time, limit int) ([]domain.LeaderboardEntry, error) {
	const query = `SELECT s.user_id, SUM(s.duration_seconds)
        FROM sessions s
        JOIN users u ON u.user_id = s.user_id
        WHERE u.leaderboard_visible AND s.ended_at IS NOT NULL AND s.ended_at >= $1 AND s.started_at <= $2
        GROUP BY s.user_id
        ORDER BY SUM(s.duration_seconds) DESC, s.user_id
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var (
			entry   domain.LeaderboardEntry
			seconds int64
		)
		if err := rows.Scan(&entry.UserID, &seconds); err != nil {
			return nil, err
		}
		entry.Total = time.Duration(seconds) * time.Second
		out = append(out, entry)
	}
	return out, rows.Err()
}
