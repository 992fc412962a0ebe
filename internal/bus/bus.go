// Package bus owns the MQTT connection to the gate device. It publishes
// actuation commands with broker-level delivery confirmation and routes
// inbound device messages to the presence tracker and the ack correlator.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/ack"
	"parking-gate-backend/internal/presence"
)

// Fixed topics of the device protocol.
const (
	TopicGateOpen     = "gate/open"
	TopicDeviceStatus = "device/status"
	TopicAckPrefix    = "device/gate/ack/"
)

// ErrPublish wraps transport-level publish failures. These are local or
// network faults, reported immediately and never retried automatically.
var ErrPublish = errors.New("failed to publish gate command")

const publishTimeout = 10 * time.Second

// GateCommand is the JSON payload published on the gate-open topic.
type GateCommand struct {
	ReservationID string `json:"reservationId"`
	Command       string `json:"command"`
}

// Bus is the process-wide connection to the MQTT broker. It is constructed
// once, started at boot, and injected wherever publishing is needed.
type Bus struct {
	client  mqtt.Client
	tracker *presence.Tracker
	acks    ack.Publisher
}

// New builds the bus from configuration. Start must be called before use.
func New(cfg *config.MQTTConfig, tracker *presence.Tracker, acks ack.Publisher) *Bus {
	b := &Bus{tracker: tracker, acks: acks}

	scheme := "tcp"
	if cfg.UseTLS {
		scheme = "ssl"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		log.Println("Connected to MQTT broker")
		topics := map[string]byte{
			TopicDeviceStatus:    1,
			TopicAckPrefix + "#": 1,
		}
		token := c.SubscribeMultiple(topics, b.handleMessage)
		if token.Wait() && token.Error() != nil {
			log.Printf("Failed to subscribe to device topics: %v", token.Error())
			return
		}
		log.Printf("Subscribed to %s and %s#", TopicDeviceStatus, TopicAckPrefix)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	}

	b.client = mqtt.NewClient(opts)
	return b
}

// Start connects to the broker and blocks until the connection is up or
// fails.
func (b *Bus) Start() error {
	token := b.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (b *Bus) Close() {
	b.client.Disconnect(250)
}

// PublishGateOpen sends the open command for a reservation at QoS 1 and
// waits for the broker's delivery confirmation. This is transport-level
// confirmation only; the device's own answer arrives on the ack channel.
func (b *Bus) PublishGateOpen(ctx context.Context, reservationID string) error {
	payload, err := json.Marshal(GateCommand{ReservationID: reservationID, Command: "open"})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	log.Printf("[gate] publishing open command for reservation %s", reservationID)
	token := b.client.Publish(TopicGateOpen, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: broker confirmation timed out", ErrPublish)
	}
	if token.Error() != nil {
		return fmt.Errorf("%w: %v", ErrPublish, token.Error())
	}
	return nil
}

// handleMessage routes inbound device messages. It must not block the
// receive path, so ack forwarding happens on its own goroutine.
func (b *Bus) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	b.route(msg.Topic(), string(msg.Payload()))
}

func (b *Bus) route(topic, payload string) {
	switch {
	case topic == TopicDeviceStatus:
		if payload == "online" {
			b.tracker.RecordHeartbeat()
		}
	case strings.HasPrefix(topic, TopicAckPrefix):
		reservationID := topic[len(TopicAckPrefix):]
		if reservationID == "" || strings.Contains(reservationID, "/") {
			log.Printf("Ignoring ack on malformed topic %q", topic)
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := b.acks.Publish(ctx, reservationID, payload); err != nil {
				log.Printf("Failed to forward ack for %s: %v", reservationID, err)
			}
		}()
	default:
		log.Printf("Ignoring message on unexpected topic %q", topic)
	}
}
