package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lessonfolders/internal/logger"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const FOLDERS_CHANNEL Channel = "folders"

type MessageType string

const (
	FOLDER_CREATED   MessageType = "folder_created"
	FOLDER_RENAMED   MessageType = "folder_renamed"
	FOLDER_MOVED     MessageType = "folder_moved"
	FOLDER_REORDERED MessageType = "folder_reordered"
	FOLDER_ARCHIVED  MessageType = "folder_archived"
	FOLDER_RESTORED  MessageType = "folder_restored"
	FOLDER_DELETED   MessageType = "folder_deleted"
	FOLDER_LINKED    MessageType = "folder_material_linked"
	FOLDER_UNLINKED  MessageType = "folder_material_unlinked"
)

type Event struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Channel   Channel        `json:"channel"`
	Origin    string         `json:"origin"`
	UserID    *uuid.UUID     `json:"userId,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

// EventBus fans events out to local handlers and, when a valkey client is
// configured, to other instances through PUBLISH/SUBSCRIBE.
type EventBus struct {
	client     valkey.Client
	instanceID string
	logger     logger.Logger
	handlers   map[Channel][]EventHandler
	mutex      sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(client valkey.Client) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:     client,
		instanceID: uuid.NewString(),
		logger:     logger.New("EventBus"),
		handlers:   make(map[Channel][]EventHandler),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.logger.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Channel == "" {
		event.Channel = channel
	}

	event.Origin = eb.instanceID

	if eb.client != nil {
		eventData, err := json.Marshal(event)
		if err != nil {
			return log.Err("failed to marshal event", err, "eventID", event.ID)
		}

		ctx, cancel := context.WithTimeout(eb.ctx, 5*time.Second)
		defer cancel()

		err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
			Error()
		if err != nil {
			return log.Err(
				"failed to publish event to valkey",
				err,
				"channel", channel,
				"eventID", event.ID,
			)
		}
	}

	log.Debug("Event published", "channel", channel, "eventID", event.ID, "eventType", event.Type)

	eb.notifyLocalHandlers(channel, event)

	return nil
}

// Subscribe registers handler for channel. The first handler on a channel
// starts a valkey listener that delivers events from other instances.
func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) error {
	log := eb.logger.Function("Subscribe")

	eb.mutex.Lock()
	first := len(eb.handlers[channel]) == 0
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	eb.mutex.Unlock()

	log.Info("Handler subscribed to channel", "channel", channel)

	if first && eb.client != nil {
		go eb.listenToChannel(channel)
	}

	return nil
}

func (eb *EventBus) notifyLocalHandlers(channel Channel, event Event) {
	log := eb.logger.Function("notifyLocalHandlers")

	eb.mutex.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	for i, handler := range handlers {
		if err := handler(event); err != nil {
			log.Er(
				"handler failed",
				err,
				"channel", channel,
				"eventID", event.ID,
				"handlerIndex", i,
			)
		}
	}
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.logger.Function("listenToChannel")

	log.Info("Starting to listen to channel", "channel", channel)

	err := eb.client.Receive(
		eb.ctx,
		eb.client.B().Subscribe().Channel(channel.String()).Build(),
		func(msg valkey.PubSubMessage) {
			var event Event
			if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
				log.Er("failed to unmarshal event", err, "channel", channel)
				return
			}

			if event.Origin == eb.instanceID {
				return
			}

			log.Debug("Received event from valkey", "channel", channel,
				"eventID", event.ID, "eventType", event.Type)
			eb.notifyLocalHandlers(channel, event)
		},
	)
	if err != nil && eb.ctx.Err() == nil {
		log.Er("failed to listen to channel", err, "channel", channel)
	}
}

func (eb *EventBus) Close() error {
	log := eb.logger.Function("Close")

	eb.cancel()

	log.Info("EventBus closed")
	return nil
}
