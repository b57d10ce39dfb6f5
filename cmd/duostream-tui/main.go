package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"go.uber.org/zap"

	"github.com/duostream/duostream-tui/internal/app"
	"github.com/duostream/duostream-tui/internal/card"
	"github.com/duostream/duostream-tui/internal/config"
	"github.com/duostream/duostream-tui/internal/hass"
	"github.com/duostream/duostream-tui/internal/logging"
	"github.com/duostream/duostream-tui/internal/mqtt"
	"github.com/duostream/duostream-tui/internal/registry"
	"github.com/duostream/duostream-tui/internal/theme"
)

func main() {
	settingsFile := flag.String("settings", "", "Settings file (yaml, json or toml)")
	envFile := flag.String("env", ".env", "Dotenv file loaded before the environment is read")
	cardFile := flag.String("card", "", "Card config file (overrides card_file)")
	transport := flag.String("transport", "", "State transport: websocket or mqtt")
	wsURL := flag.String("url", "", "Home Assistant websocket URL")
	token := flag.String("token", "", "Home Assistant long-lived access token")
	dark := flag.Bool("dark", false, "Use the dark palette")
	versioninfo.AddFlag(nil)
	flag.Parse()

	s, err := config.LoadSettings(*settingsFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "card":
			s.CardFile = *cardFile
		case "transport":
			s.Transport = *transport
		case "url":
			s.URL = *wsURL
		case "token":
			s.Token = *token
		case "dark":
			s.Dark = *dark
		}
	})
	if err := s.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(s.LogFile, s.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(s, logger); err != nil {
		logger.Error("exit", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(s *config.Settings, logger *zap.Logger) error {
	cfg, err := config.LoadCard(s.CardFile)
	if err != nil {
		return err
	}
	c, err := card.New(cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", s.CardFile, err)
	}

	catalog := registry.New()
	if err := catalog.Register(card.CatalogEntry); err != nil {
		return err
	}

	var (
		provider   hass.Provider
		dispatcher hass.Dispatcher
	)
	switch s.Transport {
	case config.TransportMQTT:
		stream := mqtt.NewStateStream(s.MQTT, logger)
		defer stream.Close()
		provider = stream
		dispatcher = mqtt.NewDispatcher(stream.Client(), s.MQTT.CommandTopic, logger)
	default:
		provider = hass.NewWSClient(s.URL, s.Token, logger)
		rest := hass.NewHTTPClient(s.HTTPBase(), s.Token, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rest.Ping(ctx); err != nil {
			logger.Warn("REST API check failed; commands may not reach Home Assistant", zap.Error(err))
		}
		cancel()
		dispatcher = rest
	}

	var watcher *config.CardWatcher
	if s.Watch {
		watcher, err = config.NewCardWatcher(s.CardFile)
		if err != nil {
			logger.Warn("card watch disabled", zap.Error(err))
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	logger.Info("starting",
		zap.String("version", versioninfo.Short()),
		zap.String("device", c.Device().Name),
		zap.String("transport", s.Transport),
	)

	zone.NewGlobal()
	m := app.New(c, app.Options{
		Provider:   provider,
		Dispatcher: dispatcher,
		Watcher:    watcher,
		Catalog:    catalog,
		Logger:     logger,
		Theme:      theme.For(s.Dark),
		Transport:  s.Transport,
		Version:    versioninfo.Short(),
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}
