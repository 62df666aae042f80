// Package agentconfig loads and hot-reloads the desktop agent's
// ~/.config/cleo.json, the sibling of the server-side pkg/config tree.
package agentconfig

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PrivacyConfig is consulted before every capture and activity record; a
// match against BlockedApps or BlockedWindowPatterns drops the event at
// source rather than persisting and filtering it later.
type PrivacyConfig struct {
	BlockedApps            []string `mapstructure:"blocked_apps" json:"blocked_apps"`
	BlockedWindowPatterns  []string `mapstructure:"blocked_window_patterns" json:"blocked_window_patterns"`
	SecretDetectionEnabled bool     `mapstructure:"secret_detection_enabled" json:"secret_detection_enabled"`
	// KnownApps is a deduplicated list of recently-seen foreground apps,
	// surfaced so a user can add entries to BlockedApps without typing
	// exact process names.
	KnownApps []string `mapstructure:"known_apps" json:"known_apps"`
}

// Config is the full cleo.json document.
type Config struct {
	APIToken string        `mapstructure:"api_token" json:"api_token"`
	APIURL   string        `mapstructure:"api_url" json:"api_url,omitempty"`
	Privacy  PrivacyConfig `mapstructure:"privacy" json:"privacy"`
}

// Loader owns the live cleo.json, watched for changes so a user editing
// blocked_apps takes effect without restarting the agent.
type Loader struct {
	v *viper.Viper

	mu  sync.RWMutex
	cfg Config

	changeMu sync.Mutex
	onChange []func(Config)
}

// NewLoader reads path once and starts watching it for further edits.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	l := &Loader{v: v}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read agent config %s: %w", path, err)
	}
	if err := l.reload(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		if err := l.reload(); err != nil {
			return
		}
		l.notify()
	})
	v.WatchConfig()

	return l, nil
}

func (l *Loader) reload() error {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse agent config: %w", err)
	}
	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return nil
}

func (l *Loader) notify() {
	l.changeMu.Lock()
	handlers := append([]func(Config){}, l.onChange...)
	l.changeMu.Unlock()

	cfg := l.Current()
	for _, h := range handlers {
		h(cfg)
	}
}

// Current returns the most recently loaded config.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// OnChange registers a callback invoked every time the config file is
// edited on disk and successfully reparsed.
func (l *Loader) OnChange(fn func(Config)) {
	l.changeMu.Lock()
	defer l.changeMu.Unlock()
	l.onChange = append(l.onChange, fn)
}
