package chatbot

import (
	"context"
	"encoding/json"
	"time"
)

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Message is one transcript line.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ListStore is the Redis list surface used for transcripts.
type ListStore interface {
	AppendCapped(ctx context.Context, key string, limit int64, ttl time.Duration, values ...string) error
	ListAll(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	ChatKey(sessionID string) string
}

// Transcript keeps the newest messages of each session.
type Transcript struct {
	lists ListStore
	limit int64
	ttl   time.Duration
}

func NewTranscript(lists ListStore, limit int, ttl time.Duration) *Transcript {
	if limit <= 0 {
		limit = 30
	}
	return &Transcript{lists: lists, limit: int64(limit), ttl: ttl}
}

func (t *Transcript) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	values := make([]string, 0, len(msgs))
	for _, m := range msgs {
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values = append(values, string(payload))
	}
	return t.lists.AppendCapped(ctx, t.lists.ChatKey(sessionID), t.limit, t.ttl, values...)
}

// History returns messages oldest first. Undecodable entries are skipped.
func (t *Transcript) History(ctx context.Context, sessionID string) ([]Message, error) {
	values, err := t.lists.ListAll(ctx, t.lists.ChatKey(sessionID))
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(values))
	for _, v := range values {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (t *Transcript) Clear(ctx context.Context, sessionID string) error {
	return t.lists.Del(ctx, t.lists.ChatKey(sessionID))
}
