package notify

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/npole/herodispatch/core/model"
	"github.com/npole/herodispatch/infra/logger"
)

// MQTTConfig defines the connection parameters for the MQTT notifier.
type MQTTConfig struct {
	Enabled        bool   `json:"enabled"`
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Topic          string `json:"topic"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	QoS            byte   `json:"qos"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "herodispatch-notify"
	}
	if c.Topic == "" {
		c.Topic = "herodispatch/deliveries"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 5
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes completed deliveries to an MQTT topic. Publishing is
// fire-and-forget: broker failures are logged and never surface to the
// delivery flow.
type MQTTNotifier struct {
	cli     pahoClient
	topic   string
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// NewMQTTNotifier connects to the broker described by cfg.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("notify: mqtt broker is required")
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	n := &MQTTNotifier{
		cli:     newMQTTClient(opts),
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		log:     logger.New("mqtt-notify"),
	}
	token := n.cli.Connect()
	if !token.WaitTimeout(n.timeout) {
		return nil, fmt.Errorf("notify: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("notify: mqtt connect: %w", err)
	}
	return n, nil
}

// notification is the wire payload published per completed delivery.
type notification struct {
	Hero        string     `json:"hero"`
	Child       string     `json:"child"`
	City        string     `json:"city"`
	Gift        string     `json:"gift"`
	Price       float64    `json:"price"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}

func (n *MQTTNotifier) DeliveryCompleted(req model.GiftRequest, hero model.Hero) {
	payload, err := json.Marshal(notification{
		Hero:        hero.Name,
		Child:       req.ChildName,
		City:        req.City,
		Gift:        req.Gift,
		Price:       req.GiftPrice,
		DeliveredAt: req.CompletedAt,
	})
	if err != nil {
		n.log.Errorf("marshal notification: %v", err)
		return
	}
	token := n.cli.Publish(n.topic, n.qos, false, payload)
	go func() {
		if !token.WaitTimeout(n.timeout) {
			n.log.Warnf("notification publish timed out for request %s", req.ID)
			return
		}
		if err := token.Error(); err != nil {
			n.log.Errorf("notification publish failed for request %s: %v", req.ID, err)
		}
	}()
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.cli.Disconnect(250)
}
