package mqtt

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/duostream/duostream-tui/internal/hass"
)

// Dispatcher publishes switch commands to
// <base>/<domain>/<object_id>/command with an "on" or "off" payload.
type Dispatcher struct {
	client *Client
	base   string
	logger *zap.Logger
}

var _ hass.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher publishes through client under base.
func NewDispatcher(client *Client, base string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client: client,
		base:   strings.TrimSuffix(base, "/"),
		logger: logger.Named("mqtt.dispatch"),
	}
}

// CommandTopic returns the command topic for entityID.
func (d *Dispatcher) CommandTopic(entityID string) (string, error) {
	domain, object, ok := strings.Cut(entityID, ".")
	if !ok || domain == "" || object == "" {
		return "", fmt.Errorf("invalid entity id %q", entityID)
	}
	return fmt.Sprintf("%s/%s/%s/command", d.base, domain, object), nil
}

// Dispatch implements hass.Dispatcher. The domain argument must match the
// entity id's own domain.
func (d *Dispatcher) Dispatch(ctx context.Context, domain, action, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(entityID, domain+".") {
		return fmt.Errorf("entity %q is not in domain %q", entityID, domain)
	}
	var payload string
	switch action {
	case hass.ActionOn:
		payload = MQTT_PAYLOAD_ON
	case hass.ActionOff:
		payload = MQTT_PAYLOAD_OFF
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
	topic, err := d.CommandTopic(entityID)
	if err != nil {
		return err
	}
	d.logger.Debug("publish", zap.String("topic", topic), zap.String("payload", payload))
	if err := d.client.Publish(topic, payload); err != nil {
		return fmt.Errorf("%s %s: %w", action, entityID, err)
	}
	return nil
}
