// Package settings persists Lookout's user configuration as JSON in the user
// config directory.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MaxRecentDumps bounds the recent dump list.
const MaxRecentDumps = 10

// Settings is the persisted form.
type Settings struct {
	LogLevel       string   `json:"logLevel"`
	LogToFile      bool     `json:"logToFile"`
	DBPath         string   `json:"dbPath"`
	ScriptsDir     string   `json:"scriptsDir"`
	DisposeTimeout int64    `json:"disposeTimeoutMs"`
	RecentDumps    []string `json:"recentDumps"`
}

// Service keeps settings in memory and writes them back on Save and Close.
type Service struct {
	configDir    string
	settingsPath string

	mu       sync.RWMutex
	settings Settings

	log zerolog.Logger
}

// Config for creating a new Service
type Config struct {
	ConfigDir string
	Logger    *zerolog.Logger
}

// New loads the settings from cfg.ConfigDir, "<user config>/Lookout" by default.
// A missing or unreadable file yields the defaults.
func New(cfg Config) (*Service, error) {
	configDir := cfg.ConfigDir
	if configDir == "" {
		var err error
		configDir, err = os.UserConfigDir()
		if err != nil {
			configDir = os.TempDir()
		}
		configDir = filepath.Join(configDir, "Lookout")
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	s := &Service{
		configDir:    configDir,
		settingsPath: filepath.Join(configDir, "settings.json"),
		settings:     Defaults(configDir),
		log:          zerolog.Nop(),
	}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("module", "settings").Logger()
	}
	s.load()
	return s, nil
}

// Defaults returns the settings used when nothing is stored yet.
func Defaults(configDir string) Settings {
	return Settings{
		LogLevel:       "info",
		DBPath:         filepath.Join(configDir, "data"),
		ScriptsDir:     filepath.Join(configDir, "scripts"),
		DisposeTimeout: (10 * time.Second).Milliseconds(),
	}
}

func (s *Service) load() {
	data, err := os.ReadFile(s.settingsPath)
	if err != nil {
		return
	}
	stored := s.settings
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Warn().Err(err).Str("path", s.settingsPath).Msg("ignoring unreadable settings")
		return
	}
	if len(stored.RecentDumps) > MaxRecentDumps {
		stored.RecentDumps = stored.RecentDumps[:MaxRecentDumps]
	}
	s.mu.Lock()
	s.settings = stored
	s.mu.Unlock()
}

// Get returns a copy of the current settings.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.RecentDumps = append([]string(nil), s.settings.RecentDumps...)
	return out
}

func (s *Service) LogLevel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.LogLevel
}

func (s *Service) SetLogLevel(level string) {
	s.mu.Lock()
	s.settings.LogLevel = level
	s.mu.Unlock()
}

func (s *Service) LogToFile() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.LogToFile
}

func (s *Service) SetLogToFile(enabled bool) {
	s.mu.Lock()
	s.settings.LogToFile = enabled
	s.mu.Unlock()
}

func (s *Service) DBPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.DBPath
}

func (s *Service) SetDBPath(path string) {
	s.mu.Lock()
	s.settings.DBPath = path
	s.mu.Unlock()
}

func (s *Service) ScriptsDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.ScriptsDir
}

func (s *Service) SetScriptsDir(dir string) {
	s.mu.Lock()
	s.settings.ScriptsDir = dir
	s.mu.Unlock()
}

// DisposeTimeout returns the bounded wait for window disposal.
func (s *Service) DisposeTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.settings.DisposeTimeout) * time.Millisecond
}

func (s *Service) SetDisposeTimeout(d time.Duration) {
	s.mu.Lock()
	s.settings.DisposeTimeout = d.Milliseconds()
	s.mu.Unlock()
}

// ========================================
// Recent dumps
// ========================================

// RecentDumps returns the most recently loaded dump files, newest first.
func (s *Service) RecentDumps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.settings.RecentDumps...)
}

// AddRecentDump moves path to the front of the recent list.
func (s *Service) AddRecentDump(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []string{path}
	for _, p := range s.settings.RecentDumps {
		if p != path {
			list = append(list, p)
		}
	}
	if len(list) > MaxRecentDumps {
		list = list[:MaxRecentDumps]
	}
	s.settings.RecentDumps = list
}

func (s *Service) ClearRecentDumps() {
	s.mu.Lock()
	s.settings.RecentDumps = nil
	s.mu.Unlock()
}

// ========================================
// Persistence
// ========================================

// Save persists settings to disk.
func (s *Service) Save() error {
	data, err := json.MarshalIndent(s.Get(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.settingsPath, data, 0644)
}

// ConfigDir returns the configuration directory path
func (s *Service) ConfigDir() string {
	return s.configDir
}

// SettingsPath returns the settings file path
func (s *Service) SettingsPath() string {
	return s.settingsPath
}

// Close saves settings before shutdown
func (s *Service) Close() error {
	if err := s.Save(); err != nil {
		s.log.Error().Err(err).Msg("Error saving settings on close")
		return err
	}
	return nil
}
