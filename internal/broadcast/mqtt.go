package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/eclipse/paho.golang/paho"

	"pet_feeder/internal/engine"
	"pet_feeder/internal/logger"
	"pet_feeder/internal/models"
)

// MQTTConfig addresses the telemetry broker.
type MQTTConfig struct {
	Broker         string // host:port
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	KeepAlive      time.Duration
	ReconnectDelay time.Duration
	QueueSize      int
}

func (c MQTTConfig) withDefaults() MQTTConfig {
	if c.ClientID == "" {
		c.ClientID = "pet-feeder"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "feeder"
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 30 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
	return c
}

// mqttClient is the part of *paho.Client the publisher uses.
type mqttClient interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
	Disconnect(d *paho.Disconnect) error
}

type connectFunc func(ctx context.Context, cfg MQTTConfig) (mqttClient, error)

// MQTTPublisher mirrors status frames to an MQTT broker. The current status
// is published retained on <prefix>/status and every event on
// <prefix>/events/<type>.
type MQTTPublisher struct {
	cfg     MQTTConfig
	queue   chan models.StatusFrame
	connect connectFunc
	log     *logger.Logger
}

var _ engine.StatusPublisher = (*MQTTPublisher)(nil)

func NewMQTTPublisher(cfg MQTTConfig, log *logger.Logger) *MQTTPublisher {
	cfg = cfg.withDefaults()
	return &MQTTPublisher{
		cfg:     cfg,
		queue:   make(chan models.StatusFrame, cfg.QueueSize),
		connect: dialPaho,
		log:     log,
	}
}

func dialPaho(ctx context.Context, cfg MQTTConfig) (mqttClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Broker, err)
	}

	c := paho.NewClient(paho.ClientConfig{
		ClientID: cfg.ClientID,
		Conn:     conn,
	})
	ack, err := c.Connect(ctx, &paho.Connect{
		ClientID:     cfg.ClientID,
		CleanStart:   true,
		KeepAlive:    uint16(cfg.KeepAlive.Seconds()),
		Username:     cfg.Username,
		UsernameFlag: cfg.Username != "",
		Password:     []byte(cfg.Password),
		PasswordFlag: cfg.Password != "",
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	if ack.ReasonCode != 0 {
		_ = conn.Close()
		return nil, fmt.Errorf("mqtt connect refused: reason %d", ack.ReasonCode)
	}
	return c, nil
}

// Broadcast queues frame for publishing, dropping it when the queue is full.
func (m *MQTTPublisher) Broadcast(frame models.StatusFrame) {
	select {
	case m.queue <- frame:
	default:
		m.log.Debugw("mqtt_frame_dropped")
	}
}

// Run connects to the broker and publishes queued frames until ctx is
// cancelled, reconnecting after failures.
func (m *MQTTPublisher) Run(ctx context.Context) {
	for {
		client, err := m.connect(ctx, m.cfg)
		if err != nil {
			m.log.Warnw("mqtt_connect_failed", "broker", m.cfg.Broker, "error", err)
			if !sleepCtx(ctx, m.cfg.ReconnectDelay) {
				return
			}
			continue
		}
		m.log.Infow("mqtt_connected", "broker", m.cfg.Broker)

		err = m.pump(ctx, client)
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		m.log.Warnw("mqtt_publish_failed", "error", err)
		if !sleepCtx(ctx, m.cfg.ReconnectDelay) {
			return
		}
	}
}

func (m *MQTTPublisher) pump(ctx context.Context, c mqttClient) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-m.queue:
			if err := m.publishFrame(ctx, c, frame); err != nil {
				return err
			}
		}
	}
}

func (m *MQTTPublisher) publishFrame(ctx context.Context, c mqttClient, frame models.StatusFrame) error {
	status, err := json.Marshal(frame.Status)
	if err != nil {
		return err
	}
	if _, err := c.Publish(ctx, &paho.Publish{
		Topic:   m.cfg.TopicPrefix + "/status",
		QoS:     0,
		Retain:  true,
		Payload: status,
	}); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}

	for _, ev := range frame.Events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := c.Publish(ctx, &paho.Publish{
			Topic:   m.cfg.TopicPrefix + "/events/" + string(ev.Type),
			QoS:     1,
			Payload: payload,
		}); err != nil {
			return fmt.Errorf("publish event %s: %w", ev.ID, err)
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
