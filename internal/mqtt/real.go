package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/led-selector/internal/logger"
	"github.com/sweeney/led-selector/internal/logic"
)

// bufferCapacity bounds how many messages are held while the broker is unreachable.
const bufferCapacity = 256

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are buffered and replayed on connect.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool // at least one successful connection so far
}

// NewRealPublisher creates a publisher for the given broker and starts connecting
// in the background. It never blocks on the broker being reachable.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{buffer: newRingBuffer(bufferCapacity)}

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warnf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	pending := p.buffer.drainAll()
	p.mu.Unlock()

	logger.Infof("mqtt: connected (replaying %d buffered messages)", len(pending))

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		c.Publish(TopicSystem, 1, true, payload)
	}
	for _, msg := range pending {
		token := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			logger.Warnf("mqtt: replay to %s timed out", msg.topic)
			continue
		}
		if err := token.Error(); err != nil {
			logger.Warnf("mqtt: replay to %s: %v", msg.topic, err)
		}
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Publish sends a button action event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) so shutdown and startup are delivered
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
