package models

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/store"
)

const (
	FieldUserUID   = "userUID"
	FieldSenderUID = "senderUID"
	FieldTimestamp = "timestamp"
	FieldContent   = "content"
)

// ChatSession is chats/{id}: the conversation between a patient and the
// clinic.
type ChatSession struct {
	ID      string
	UserUID string
}

func (c *ChatSession) Fields() map[string]any {
	return map[string]any{FieldUserUID: c.UserUID}
}

func ChatFromDocument(d *store.Document) *ChatSession {
	return &ChatSession{ID: d.ID(), UserUID: store.String(d.Fields, FieldUserUID)}
}

// Message is chats/{chatId}/messages/{id}.
type Message struct {
	ID        string
	SenderUID string
	Timestamp time.Time
	Content   string
}

// Fields stores the timestamp as milliseconds since the epoch.
func (m *Message) Fields() map[string]any {
	return map[string]any{
		FieldSenderUID: m.SenderUID,
		FieldTimestamp: m.Timestamp.UnixMilli(),
		FieldContent:   m.Content,
	}
}

func MessageFromDocument(d *store.Document) *Message {
	return &Message{
		ID:        d.ID(),
		SenderUID: store.String(d.Fields, FieldSenderUID),
		Timestamp: time.UnixMilli(store.Int(d.Fields, FieldTimestamp)),
		Content:   store.String(d.Fields, FieldContent),
	}
}

// SortMessages orders messages by timestamp, then id.
func SortMessages(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
