package dispatch

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"example.com/playguard/internal/domain"
	"example.com/playguard/internal/events"
)

// Topics names the destination topic per payload kind.
type Topics struct {
	Actions     string
	Advisories  string
	Revocations string
	Audit       string
}

// DefaultTopics are the conventional topic names.
func DefaultTopics() Topics {
	return Topics{
		Actions:     "enforcement_actions",
		Advisories:  "playtime_advisories",
		Revocations: "enforcement_revocations",
		Audit:       "override_audit",
	}
}

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// Publisher implements the engine's downstream sink. Messages are keyed
// by user ID so per-user ordering survives partitioning.
type Publisher struct {
	producer messageWriter
	topics   Topics
}

// NewPublisher constructs a Publisher.
func NewPublisher(producer messageWriter, topics Topics) *Publisher {
	return &Publisher{producer: producer, topics: topics}
}

// PublishAction delivers a fired action to the enforcement topic.
func (p *Publisher) PublishAction(ctx context.Context, action domain.Action) error {
	payload := events.ActionFired{
		Kind:             string(action.Kind),
		TimeoutSeconds:   int64(action.Timeout.Seconds()),
		RuleID:           action.RuleID,
		UserID:           action.UserID,
		ScopeKind:        string(action.Scope.Kind),
		ScopeActivity:    action.Scope.Activity,
		ScopeGroupID:     action.Scope.GroupID,
		Window:           string(action.Window),
		TotalSeconds:     int64(action.Total.Seconds()),
		ThresholdSeconds: int64(action.Threshold.Seconds()),
		At:               action.At,
	}
	return p.publish(ctx, p.topics.Actions, "enforcement.action_fired", action.UserID, payload)
}

// PublishAdvisory delivers a pre-threshold advisory to the notification
// topic.
func (p *Publisher) PublishAdvisory(ctx context.Context, advisory domain.Advisory) error {
	payload := events.AdvisoryIssued{
		RuleID:           advisory.RuleID,
		UserID:           advisory.UserID,
		ScopeKind:        string(advisory.Scope.Kind),
		ScopeActivity:    advisory.Scope.Activity,
		ScopeGroupID:     advisory.Scope.GroupID,
		Window:           string(advisory.Window),
		TotalSeconds:     int64(advisory.Total.Seconds()),
		ThresholdSeconds: int64(advisory.Threshold.Seconds()),
		RemainingSeconds: int64(advisory.Remaining.Seconds()),
		At:               advisory.At,
	}
	return p.publish(ctx, p.topics.Advisories, "enforcement.advisory_issued", advisory.UserID, payload)
}

// PublishRevocation asks the enforcement collaborator to lift an active
// timeout.
func (p *Publisher) PublishRevocation(ctx context.Context, rev domain.Revocation) error {
	payload := events.EnforcementRevoked{
		UserID:  rev.UserID,
		ActorID: rev.ActorID,
		At:      rev.At,
	}
	return p.publish(ctx, p.topics.Revocations, "enforcement.revoked", rev.UserID, payload)
}

// PublishAudit records an administrative override for the audit
// collaborator.
func (p *Publisher) PublishAudit(ctx context.Context, entry domain.AuditEntry) error {
	payload := events.OverrideAudited{
		ActorID:      entry.ActorID,
		ActionType:   entry.ActionType,
		TargetUserID: entry.TargetUserID,
		Details:      entry.Details,
		At:           entry.At,
	}
	return p.publish(ctx, p.topics.Audit, "override.audited", entry.TargetUserID, payload)
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.producer.WriteMessages(ctx, topic, msg); err != nil {
		recordPublishFailed(topic)
		return err
	}
	recordPublished(topic, eventType)
	return nil
}
