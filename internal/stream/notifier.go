package stream

import (
	"encoding/json"
	"time"
)

// Notification is the message pushed to a user's topic.
type Notification struct {
	Type   string    `json:"type"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// Notifier sends fire-and-forget messages to a single user.
type Notifier struct {
	hub *Hub
	now func() time.Time
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: time.Now}
}

func UserTopic(userID string) string {
	return "user:" + userID
}

func (n *Notifier) Notify(userID, title, body string) {
	payload, err := json.Marshal(Notification{
		Type:   "notification",
		Title:  title,
		Body:   body,
		SentAt: n.now().UTC(),
	})
	if err != nil {
		n.hub.log.WithError(err).Warn("notification encode failed")
		return
	}
	n.hub.Broadcast(UserTopic(userID), payload)
}
