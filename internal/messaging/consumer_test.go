package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/serroba/link-registry/internal/analytics"
	"github.com/serroba/link-registry/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func noopClickHandler(_ context.Context, _ *analytics.EntryClickedEvent) error { return nil }

// outcome waits for msg to be acked or nacked.
func outcome(t *testing.T, msg *message.Message) string {
	t.Helper()

	select {
	case <-msg.Acked():
		return "ack"
	case <-msg.Nacked():
		return "nack"
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack or nack")

		return ""
	}
}

func clickMessage(t *testing.T, event analytics.EntryClickedEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func TestConsumer_Start(t *testing.T) {
	t.Run("subscribes to its topic", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			newMockSubscriber(),
			analytics.TopicEntryClicked,
			noopClickHandler,
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, analytics.TopicEntryClicked, consumer.Topic())
		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("surfaces subscribe failures", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("stream unavailable")}
		consumer := messaging.NewConsumer(sub, analytics.TopicEntryClicked, noopClickHandler, zap.NewNop())

		assert.EqualError(t, consumer.Start(context.Background()), "stream unavailable")
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	clickedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("decodes the event and acks", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan analytics.EntryClickedEvent, 1)

		consumer := messaging.NewConsumer(
			sub,
			analytics.TopicEntryClicked,
			func(_ context.Context, event *analytics.EntryClickedEvent) error {
				received <- *event

				return nil
			},
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		defer func() { _ = consumer.Shutdown() }()

		msg := clickMessage(t, analytics.EntryClickedEvent{
			Code:      "aB3xY9",
			ClickedAt: clickedAt,
			Referrer:  "https://news.example",
		})
		sub.msgChan <- msg

		require.Equal(t, "ack", outcome(t, msg))

		event := <-received
		assert.Equal(t, "aB3xY9", event.Code)
		assert.Equal(t, "https://news.example", event.Referrer)
		assert.True(t, clickedAt.Equal(event.ClickedAt))
	})

	tests := []struct {
		name    string
		payload []byte
		handler messaging.Handler[analytics.EntryClickedEvent]
	}{
		{
			name:    "nacks undecodable payloads",
			payload: []byte("{not json"),
			handler: noopClickHandler,
		},
		{
			name:    "nacks when the handler fails",
			payload: []byte(`{"code":"promo"}`),
			handler: func(_ context.Context, _ *analytics.EntryClickedEvent) error {
				return errors.New("analytics store down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newMockSubscriber()
			consumer := messaging.NewConsumer(sub, analytics.TopicEntryClicked, tt.handler, zap.NewNop())
			require.NoError(t, consumer.Start(context.Background()))

			defer func() { _ = consumer.Shutdown() }()

			msg := message.NewMessage(uuid.NewString(), tt.payload)
			sub.msgChan <- msg

			assert.Equal(t, "nack", outcome(t, msg))
		})
	}
}

func TestConsumer_GoChannelRoundTrip(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	defer func() { _ = pubSub.Close() }()

	received := make(chan analytics.EntriesPurgedEvent, 1)
	consumer := messaging.NewConsumer(
		pubSub,
		analytics.TopicEntriesPurged,
		func(_ context.Context, event *analytics.EntriesPurgedEvent) error {
			received <- *event

			return nil
		},
		zap.NewNop(),
	)
	require.NoError(t, consumer.Start(context.Background()))

	defer func() { _ = consumer.Shutdown() }()

	publish := messaging.NewPublishFunc[analytics.EntriesPurgedEvent](pubSub, analytics.TopicEntriesPurged)
	require.NoError(t, publish(context.Background(), &analytics.EntriesPurgedEvent{Removed: 3, Trigger: "sweeper"}))

	select {
	case event := <-received:
		assert.Equal(t, 3, event.Removed)
		assert.Equal(t, "sweeper", event.Trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("purge event was not delivered")
	}
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("after start", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), analytics.TopicEntryClicked, noopClickHandler, zap.NewNop())
		require.NoError(t, consumer.Start(context.Background()))

		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("after failed start does not block", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("stream unavailable")}
		consumer := messaging.NewConsumer(sub, analytics.TopicEntryClicked, noopClickHandler, zap.NewNop())
		require.Error(t, consumer.Start(context.Background()))

		done := make(chan error, 1)

		go func() { done <- consumer.Shutdown() }()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("shutdown blocked after failed start")
		}
	})

	t.Run("without start", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), analytics.TopicEntryClicked, noopClickHandler, zap.NewNop())

		assert.NoError(t, consumer.Shutdown())
	})
}
