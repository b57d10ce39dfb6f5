// Package config holds the card configuration (the YAML block a dashboard
// would carry for the widget), the derived entity naming scheme, and the
// runtime settings for the terminal host.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingDeviceName is returned when the card config has no device_name.
var ErrMissingDeviceName = errors.New("you need to define the configuration name of the duostream device")

// Card is the user-supplied card configuration.
type Card struct {
	DeviceName      string `yaml:"device_name"`
	WakeOnLANEntity string `yaml:"wake_on_lan_entity,omitempty"`
}

// Device is the immutable naming context derived from a Card.
type Device struct {
	Name            string
	Key             string
	PCEntity        string
	ServiceEntity   string
	SessionsSensor  string
	WakeOnLANEntity string
}

// Canonicalize maps a display name to its identifier-safe form.
func Canonicalize(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// NewDevice validates the card and derives every entity id from it.
func NewDevice(c Card) (Device, error) {
	if c.DeviceName == "" {
		return Device{}, ErrMissingDeviceName
	}
	key := Canonicalize(c.DeviceName)
	return Device{
		Name:            c.DeviceName,
		Key:             key,
		PCEntity:        fmt.Sprintf("sensor.duostream_%s_computer_status", key),
		ServiceEntity:   fmt.Sprintf("switch.duostream_%s_service_switch", key),
		SessionsSensor:  fmt.Sprintf("sensor.duostream_%s_available_sessions", key),
		WakeOnLANEntity: c.WakeOnLANEntity,
	}, nil
}

// SessionEntity returns the switch entity id controlling the named session.
func (d Device) SessionEntity(session string) string {
	return fmt.Sprintf("switch.duostream_%s_session_%s", d.Key, Canonicalize(session))
}

// HasWakeOnLAN reports whether a wake-on-LAN switch is configured.
func (d Device) HasWakeOnLAN() bool {
	return d.WakeOnLANEntity != ""
}

// LoadCard reads a card YAML file.
func LoadCard(path string) (Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Card{}, err
	}
	return ParseCard(data)
}

// ParseCard decodes a card YAML document. A leading "type:" key, as found in
// dashboard card blocks, is accepted and ignored.
func ParseCard(data []byte) (Card, error) {
	var doc struct {
		Type string `yaml:"type"`
		Card `yaml:",inline"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Card{}, fmt.Errorf("parse card config: %w", err)
	}
	return doc.Card, nil
}
