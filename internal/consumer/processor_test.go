package consumer

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/playguard/internal/events"
)

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := kafka.Message{
		Topic:     "presence_events",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Value:     []byte(`{"user_id":"user-1","activity":"skyforge","active":true,"at":"2024-05-01T12:00:00Z"}`),
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "user-1", handler.last.UserID)
	require.Equal(t, "skyforge", handler.last.Activity)
	require.True(t, handler.last.Active)
	require.True(t, handler.last.At.Equal(at))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{
		Topic:     "presence_events",
		Partition: 0,
		Offset:    20,
		Time:      time.Now().UTC(),
		Value:     []byte(`{"user_id":"user-2","activity":"skyforge","active":false,"at":"2024-05-01T14:30:00Z"}`),
	}

	reader := &stubReader{
		messages: []kafka.Message{msg},
		after:    contextCanceled,
	}
	handler := &stubHandler{err: errors.New("boom")}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
}

func TestProcessorCommitsMalformedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	malformed := []kafka.Message{
		{Topic: "presence_events", Offset: 1, Value: []byte(`not json`)},
		{Topic: "presence_events", Offset: 2, Value: []byte(`{"activity":"skyforge","active":true,"at":"2024-05-01T12:00:00Z"}`)},
		{Topic: "presence_events", Offset: 3, Value: []byte(`{"user_id":"user-3","active":true,"at":"2024-05-01T12:00:00Z"}`)},
		{Topic: "presence_events", Offset: 4, Value: []byte(`{"user_id":"user-3","activity":"skyforge","active":true}`)},
	}

	reader := &stubReader{
		messages: malformed,
		after:    contextCanceled,
	}
	handler := &stubHandler{}

	processor := NewProcessor(reader, handler, WithLogger(log.New(testWriter{t}, "", 0)))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// Malformed messages never reach the handler but are still committed so
	// the group can advance past them.
	require.Equal(t, 0, handler.calls)
	require.Equal(t, len(malformed), reader.commitCalls)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  events.PresenceChanged
}

func (h *stubHandler) Handle(_ context.Context, event events.PresenceChanged) error {
	h.calls++
	h.last = event
	return h.err
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
