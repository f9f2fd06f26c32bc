package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/irrigation-guard/internal/sensor"
)

var errPublishTimeout = errors.New("timeout")

// Config holds the broker connection settings.
type Config struct {
	Broker     string
	ClientID   string
	Username   string
	Password   string
	BufferSize int // messages held while disconnected
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are held in an outbox and replayed on connect.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	box *outbox
}

// NewRealPublisher prepares a client. It does not touch the network; call Connect.
func NewRealPublisher(cfg Config) *RealPublisher {
	if cfg.ClientID == "" {
		cfg.ClientID = "irrigation-guard"
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	p := &RealPublisher{box: newOutbox(cfg.BufferSize)}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	return p
}

// Connect dials the broker with exponential backoff. maxRetries 0 retries
// until ctx is cancelled. Once connected, paho reconnects on its own.
func (p *RealPublisher) Connect(ctx context.Context, maxRetries uint64) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0

	var b backoff.BackOff = bo
	if maxRetries > 0 {
		b = backoff.WithMaxRetries(b, maxRetries)
	}

	err := backoff.RetryNotify(func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			return errors.New("connection timeout")
		}
		return token.Error()
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		log.Printf("mqtt: connect failed, retrying in %v: %v", next.Round(time.Second), err)
	})
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.box.drain()
	p.mu.Unlock()

	log.Printf("mqtt: connected, replaying %d buffered messages (%d dropped)", len(msgs), dropped)
	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// IsConnected reports whether the broker connection is open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// publishTimeout bounds how long a publish waits for the broker's ack.
const publishTimeout = 5 * time.Second

func (p *RealPublisher) publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.box.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if err := waitToken(ctx, token, publishTimeout); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// waitToken waits for token to complete, for ctx to end or for timeout,
// whichever comes first.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return errPublishTimeout
	}
}

// PublishReading sends one monitor reading (QoS 0, not retained).
// The wait for the broker ends early when ctx does.
func (p *RealPublisher) PublishReading(ctx context.Context, monitor string, r sensor.Reading) error {
	payload, err := FormatReadingPayload(monitor, r)
	if err != nil {
		return fmt.Errorf("format reading payload: %w", err)
	}
	return p.publish(ctx, ReadingTopic(monitor), 0, false, payload)
}

// PublishNotification sends an operator notification (QoS 1).
func (p *RealPublisher) PublishNotification(n Notification) error {
	payload, err := FormatNotificationPayload(n)
	if err != nil {
		return fmt.Errorf("format notification payload: %w", err)
	}
	return p.publish(context.Background(), TopicNotify, 1, false, payload)
}

// PublishScheduler sends the scheduler state (QoS 1, retained).
func (p *RealPublisher) PublishScheduler(enabled bool) error {
	payload, err := FormatSchedulerPayload(enabled, time.Now())
	if err != nil {
		return fmt.Errorf("format scheduler payload: %w", err)
	}
	return p.publish(context.Background(), TopicScheduler, 1, true, payload)
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(context.Background(), TopicSystem, 1, event.Retained, payload)
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
