package config

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// CardChangedMsg is sent when the card file was rewritten. Err is set when
// the new contents could not be read or parsed.
type CardChangedMsg struct {
	Card Card
	Err  error
}

// CardWatcher reports changes to a card file. The parent directory is
// watched rather than the file itself so that editors which replace the
// file on save are still picked up.
type CardWatcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewCardWatcher starts watching path.
func NewCardWatcher(path string) (*CardWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &CardWatcher{path: abs, watcher: w}, nil
}

// Next returns a command that blocks until the card file changes. Callers
// issue it again after each CardChangedMsg.
func (c *CardWatcher) Next(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-c.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != c.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				card, err := LoadCard(c.path)
				return CardChangedMsg{Card: card, Err: err}
			case err, ok := <-c.watcher.Errors:
				if !ok {
					return nil
				}
				return CardChangedMsg{Err: err}
			}
		}
	}
}

// Close stops the watcher.
func (c *CardWatcher) Close() error {
	return c.watcher.Close()
}
