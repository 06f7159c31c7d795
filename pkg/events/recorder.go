package events

import (
	"context"
	"encoding/json"
	"sync"
)

type Message struct {
	Topic   string
	Key     string
	Payload map[string]any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	if r.Err != nil {
		return r.Err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) ByTopic(topic string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.Messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
