package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	client := hub.Register("tracking:session-1")
	defer hub.Unregister(client)

	hub.Broadcast("tracking:session-1", []byte("hello"))

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubIgnoresOtherTopics(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	client := hub.Register("user:a")
	defer hub.Unregister(client)

	hub.Broadcast("user:b", []byte("hello"))

	select {
	case <-client.Send:
		t.Fatalf("message leaked across topics")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("user:abc")
	if ch != "stream:user:abc" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if topicFromChannel(ch) != "user:abc" {
		t.Fatalf("unexpected topic")
	}
	if topicFromChannel("bad") != "" {
		t.Fatalf("expected empty topic")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("topic-2")
	hub.Unregister(client)
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisFanOutAcrossInstances(t *testing.T) {
	s := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbA.Close()
	rdbB := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdbB.Close()

	hubA := NewHub(rdbA, nil)
	defer hubA.Close()
	hubB := NewHub(rdbB, nil)
	defer hubB.Close()

	local := hubA.Register("user:1")
	defer hubA.Unregister(local)
	remote := hubB.Register("user:1")
	defer hubB.Unregister(remote)

	hubA.Broadcast("user:1", []byte("ping"))

	select {
	case msg := <-remote.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected remote message %q", msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}

	select {
	case msg := <-local.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected local message %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for local message")
	}

	select {
	case <-local.Send:
		t.Fatalf("local client received its own broadcast twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client, nil)
	defer hub.Close()
	node := hub.Register("topic-bad")
	defer hub.Unregister(node)

	hub.Broadcast("topic-bad", []byte("ping"))
}

func TestNotifierSendsToUserTopic(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	client := hub.Register(UserTopic("user-1"))
	defer hub.Unregister(client)

	n := NewNotifier(hub)
	n.now = func() time.Time { return time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC) }
	n.Notify("user-1", "Commute tip", "Leave earlier")

	select {
	case raw := <-client.Send:
		var msg Notification
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type != "notification" || msg.Title != "Commute tip" || msg.Body != "Leave earlier" {
			t.Fatalf("unexpected notification %+v", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for notification")
	}
}
