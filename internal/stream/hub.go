package stream

import (
	"bytes"
	"context"
	"strings"
	"sync"

	"backend-commutepro/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	channelPrefix  = "stream:"
	channelPattern = channelPrefix + "*"
	originSep      = '|'
)

// Hub fans payloads out to websocket clients by topic. With Redis attached,
// every broadcast is mirrored so hubs on other instances deliver it too.
type Hub struct {
	id      string
	redis   *redis.Client
	log     *logrus.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client, log *logrus.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if redisClient != nil {
		ready := make(chan struct{})
		go h.subscribeRedis(ctx, ready)
		<-ready
	} else {
		close(h.done)
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		if _, registered := topicClients[client]; !registered {
			return
		}
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
		close(client.Send)
	}
}

// Broadcast delivers payload to local subscribers of topic and publishes it
// for other instances. Slow clients drop messages.
func (h *Hub) Broadcast(topic string, payload []byte) {
	h.deliver(topic, payload)

	if h.redis != nil {
		msg := make([]byte, 0, len(h.id)+1+len(payload))
		msg = append(msg, h.id...)
		msg = append(msg, originSep)
		msg = append(msg, payload...)
		err := h.redis.Publish(context.Background(), redisChannel(topic), msg).Err()
		if err != nil {
			h.log.WithError(err).WithField("topic", topic).Warn("redis publish failed")
		}
	}
}

// Close stops the Redis subscription.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, ready chan<- struct{}) {
	defer close(h.done)

	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.WithError(err).Warn("redis subscribe failed")
	}
	ch := pubsub.Channel()
	close(ready)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			origin, payload, found := bytes.Cut([]byte(msg.Payload), []byte{originSep})
			if !found || string(origin) == h.id {
				continue
			}
			h.deliver(topicFromChannel(msg.Channel), payload)
		}
	}
}

func redisChannel(topic string) string {
	return channelPrefix + topic
}

func topicFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) {
		return ""
	}
	return ch[len(channelPrefix):]
}
