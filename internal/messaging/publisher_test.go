package messaging_test

import (
	"errors"
	"testing"
	"time"

	"github.com/serroba/shortlink-web/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes event as json on topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[testEvent](mock, "link.created")

		err := publish(&testEvent{ID: "abc123", Name: "test"})

		require.NoError(t, err)
		assert.Equal(t, "link.created", mock.topic)
		require.Len(t, mock.messages, 1)
		assert.JSONEq(t, `{"id":"abc123","name":"test"}`, string(mock.messages[0].Payload))
		assert.NotEmpty(t, mock.messages[0].UUID)
	})

	t.Run("stamps publish time in metadata", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[testEvent](mock, "link.created")

		require.NoError(t, publish(&testEvent{ID: "abc123"}))

		stamp := mock.messages[0].Metadata.Get(messaging.MetadataPublishedAt)
		_, err := time.Parse(time.RFC3339Nano, stamp)
		assert.NoError(t, err)
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		publish := messaging.NewPublishFunc[testEvent](mock, "link.created")

		err := publish(&testEvent{ID: "abc123"})

		assert.Error(t, err)
		assert.Empty(t, mock.messages)
	})
}

func TestDiscard(t *testing.T) {
	publish := messaging.Discard[testEvent]()

	assert.NoError(t, publish(&testEvent{ID: "abc123"}))
}

func TestPublisherGroup(t *testing.T) {
	t.Run("exposes publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Same(t, mock, group.Publisher())
	})

	t.Run("shutdown closes publisher", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		group := messaging.NewPublisherGroup(mock)

		assert.EqualError(t, group.Shutdown(), "close error")
	})
}
