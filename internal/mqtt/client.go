// Package mqtt is the broker-side alternative to the websocket transport.
// State arrives through Home Assistant's mqtt_statestream integration and
// switch commands leave as plain on/off publishes.
package mqtt

import (
	"fmt"
	"math/rand/v2"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/duostream/duostream-tui/internal/config"
)

const (
	MQTT_PAYLOAD_ON  = "on"
	MQTT_PAYLOAD_OFF = "off"
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 5 * time.Second
	publishTimeout   = 5 * time.Second
	disconnectQuiet  = 250 * time.Millisecond
)

// session is the part of pahomqtt.Client the package uses.
type session interface {
	Connect() pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

var _ session = (pahomqtt.Client)(nil)

// OptsFromConfig builds client options for the broker in cfg. Reconnects
// are driven by the provider's Listen loop, not by paho.
func OptsFromConfig(cfg config.MQTTSettings) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(fmt.Sprintf("duostream_tui_%d", rand.IntN(1000)))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(true)
	return opts
}

// Client wraps a paho session with blocking, timeout-bounded calls.
type Client struct {
	session session
}

func newClient(s session) *Client {
	return &Client{session: s}
}

func wait(token pahomqtt.Token, timeout time.Duration, what string) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("MQTT %s timed out", what)
	}
	return token.Error()
}

// Connect opens the broker connection.
func (c *Client) Connect() error {
	return wait(c.session.Connect(), connectTimeout, "connect")
}

// Subscribe registers handler for topic at QoS 1.
func (c *Client) Subscribe(topic string, handler pahomqtt.MessageHandler) error {
	return wait(c.session.Subscribe(topic, 1, handler), subscribeTimeout, "subscribe")
}

// Unsubscribe drops the subscription for topic.
func (c *Client) Unsubscribe(topic string) error {
	return wait(c.session.Unsubscribe(topic), subscribeTimeout, "unsubscribe")
}

// Publish sends payload to topic, not retained.
func (c *Client) Publish(topic, payload string) error {
	return wait(c.session.Publish(topic, 1, false, payload), publishTimeout, "publish")
}

// Disconnect closes the connection after a short quiesce period.
func (c *Client) Disconnect() {
	c.session.Disconnect(uint(disconnectQuiet.Milliseconds()))
}
