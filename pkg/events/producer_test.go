package events

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherWithoutBrokersLogs(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPublisher(nil, slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	require.IsType(t, &LogPublisher{}, p)

	require.NoError(t, p.PublishEvent(context.Background(), TopicOrders, "42", map[string]any{"type": "order_completed"}))
	assert.Contains(t, buf.String(), "order_completed")
	assert.Contains(t, buf.String(), TopicOrders)
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewPublisher([]string{"localhost:9092"}, nil)
	require.NoError(t, err)
	require.IsType(t, &Producer{}, p)
	require.NoError(t, p.Close())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.PublishEvent(context.Background(), TopicShifts, "1", struct {
		Type string `json:"type"`
	}{Type: "shift_opened"}))
	msgs := r.ByTopic(TopicShifts)
	require.Len(t, msgs, 1)
	assert.Equal(t, "shift_opened", msgs[0].Payload["type"])
	assert.Empty(t, r.ByTopic(TopicOrders))
}
