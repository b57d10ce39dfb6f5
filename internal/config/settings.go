package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Transport names accepted by Settings.Transport.
const (
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

// Settings configures the terminal host: where state comes from, where
// commands go and how the process logs.
type Settings struct {
	Transport string       `mapstructure:"transport"`
	URL       string       `mapstructure:"url"`
	Token     string       `mapstructure:"token"`
	MQTT      MQTTSettings `mapstructure:"mqtt"`
	CardFile  string       `mapstructure:"card_file"`
	LogLevel  string       `mapstructure:"log_level"`
	LogFile   string       `mapstructure:"log_file"`
	Dark      bool         `mapstructure:"dark"`
	Watch     bool         `mapstructure:"watch"`
}

// MQTTSettings configures the statestream provider and the command topics.
type MQTTSettings struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	StateTopic   string `mapstructure:"state_topic"`
	CommandTopic string `mapstructure:"command_topic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportWebSocket)
	v.SetDefault("url", "ws://homeassistant.local:8123/api/websocket")
	v.SetDefault("token", "")
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.state_topic", "homeassistant/statestream")
	v.SetDefault("mqtt.command_topic", "duostream")
	v.SetDefault("card_file", "card.yaml")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "duostream-tui.log")
	v.SetDefault("dark", false)
	v.SetDefault("watch", true)
}

// LoadSettings reads settings from, in increasing precedence: defaults, the
// optional settings file, a .env file in envFile (if it exists) and
// DUOSTREAM_* environment variables.
func LoadSettings(settingsFile, envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("duostream")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", settingsFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cross-field constraints.
func (s *Settings) Validate() error {
	switch s.Transport {
	case TransportWebSocket:
		if s.URL == "" {
			return errors.New("websocket transport requires a url")
		}
	case TransportMQTT:
		if s.MQTT.Host == "" || s.MQTT.Port <= 0 {
			return errors.New("mqtt transport requires mqtt.host and mqtt.port")
		}
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", s.Transport, TransportWebSocket, TransportMQTT)
	}
	return nil
}

// HTTPBase converts the websocket URL into the REST base URL,
// e.g. ws://host:8123/api/websocket becomes http://host:8123.
func (s *Settings) HTTPBase() string {
	u := s.URL
	switch {
	case strings.HasPrefix(u, "wss://"):
		u = "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		u = "http://" + strings.TrimPrefix(u, "ws://")
	}
	if i := strings.Index(u, "/api/"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}
