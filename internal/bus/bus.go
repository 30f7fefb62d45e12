package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Topic names shared by every service.
const (
	TopicHealthUpdates  = "health-updates"
	TopicSensorData     = "sensor-data"
	TopicWeatherData    = "weather-data"
	TopicDeviceCommands = "device-commands"
	TopicDatabaseEvents = "database-events"
)

// Envelope is the wire wrapper for every published message.
type Envelope struct {
	Service   string      `json:"service"`
	Type      string      `json:"type,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Status    string      `json:"status,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Broker is a thin publish/subscribe adapter over a NATS connection.
// Delivery is at-most-once, no replay. A nil or disconnected Broker returns
// errors instead of panicking so callers can run without the bus.
type Broker struct {
	conn *nats.Conn
}

func Connect(url string) (*Broker, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return &Broker{conn: nc}, nil
}

func (b *Broker) Publish(topic string, msg interface{}) error {
	if b == nil || b.conn == nil {
		return fmt.Errorf("not connected to nats")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", topic, err)
	}
	return b.conn.Publish(topic, data)
}

// Subscribe delivers every raw payload on topic to handler. Decoding is the
// handler's job so a malformed message can never tear down the subscription.
func (b *Broker) Subscribe(topic string, handler func(topic string, data []byte)) error {
	if b == nil || b.conn == nil {
		return fmt.Errorf("not connected to nats")
	}
	_, err := b.conn.Subscribe(topic, func(m *nats.Msg) {
		handler(m.Subject, m.Data)
	})
	return err
}

func (b *Broker) Connected() bool {
	return b != nil && b.conn != nil && b.conn.IsConnected()
}

func (b *Broker) Flush() {
	if b != nil && b.conn != nil {
		_ = b.conn.Flush()
	}
}

func (b *Broker) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}
