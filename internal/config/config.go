package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"hushdesk/internal/shortcuts"
)

const (
	appDirName = "hushdesk"

	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file locks held by antivirus or indexing usually clear quickly.
	renameRetryBaseDelay = 10 * time.Millisecond

	// DefaultScreenshotMaxWidth keeps captured images small enough for the
	// frontend to forward without resizing again.
	DefaultScreenshotMaxWidth = 1920
	minScreenshotWidth        = 320
	maxScreenshotWidth        = 7680

	DefaultWindowTitle = "hushdesk"
)

// Action ids understood by the app.
const (
	ActionToggleVisibility       = "toggle-visibility"
	ActionCaptureScreenshot      = "capture-screenshot"
	ActionFocusInput             = "focus-input"
	ActionSystemAudio            = "system-audio"
	ActionAudioRecording         = "audio-recording"
	ActionToggleScreenProtection = "toggle-screen-protection"
)

// test seams
var (
	defaultConfigDirFn = defaultConfigDir
	userHomeDirFn      = os.UserHomeDir
)

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears warnings recorded by DefaultPath.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	out := defaultPathWarningState.messages
	defaultPathWarningState.messages = nil
	return out
}

// Config is the persisted hushdesk configuration.
type Config struct {
	// Shortcuts maps action ids to shortcut strings such as "Ctrl+Shift+H".
	Shortcuts        map[string]string `yaml:"shortcuts" json:"shortcuts"`
	ScreenProtection bool              `yaml:"screen_protection" json:"screen_protection"`
	AlwaysOnTop      bool              `yaml:"always_on_top" json:"always_on_top"`
	// AppIconVisible keeps the taskbar and Alt+Tab entry of the window.
	AppIconVisible bool `yaml:"app_icon_visible" json:"app_icon_visible"`
	// ScreenshotMaxWidth downsizes captures wider than this. 0 keeps the
	// native resolution.
	ScreenshotMaxWidth    int    `yaml:"screenshot_max_width" json:"screenshot_max_width"`
	ScreenshotToClipboard bool   `yaml:"screenshot_to_clipboard" json:"screenshot_to_clipboard"`
	WindowTitle           string `yaml:"window_title" json:"window_title"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Shortcuts:          DefaultShortcuts(),
		ScreenProtection:   true,
		AlwaysOnTop:        true,
		AppIconVisible:     true,
		ScreenshotMaxWidth: DefaultScreenshotMaxWidth,
		WindowTitle:        DefaultWindowTitle,
	}
}

// DefaultShortcuts returns the built-in action bindings.
func DefaultShortcuts() map[string]string {
	return map[string]string{
		ActionToggleVisibility:       "CommandOrControl+Shift+H",
		ActionCaptureScreenshot:      "CommandOrControl+Shift+S",
		ActionFocusInput:             "CommandOrControl+Shift+K",
		ActionSystemAudio:            "CommandOrControl+Shift+M",
		ActionAudioRecording:         "CommandOrControl+Shift+R",
		ActionToggleScreenProtection: "CommandOrControl+Shift+P",
	}
}

// KnownActions returns the action ids the app can dispatch, sorted.
func KnownActions() []string {
	return slices.Sorted(maps.Keys(DefaultShortcuts()))
}

// DefaultPath resolves the config file path, preferring LOCALAPPDATA over
// APPDATA, then ~/.config, then the temp dir.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: could not resolve LOCALAPPDATA, APPDATA or the home directory. Settings are stored in the temp directory and may not persist.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, appDirName, "config.yaml")
}

// Load reads the config file. A missing or empty file yields defaults. A file
// that fails to parse yields defaults together with the parse error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return cfg, nil
	}
	// A YAML mapping merges into a non-nil map, so start empty and restore
	// defaults only when the key is absent.
	cfg.Shortcuts = nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), fmt.Errorf("parse config: %w", err)
	}
	if cfg.Shortcuts == nil {
		cfg.Shortcuts = DefaultShortcuts()
	}
	normalize(&cfg)
	return cfg, nil
}

// EnsureFile writes the default config when path does not exist and returns
// the loaded config.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// Save normalizes cfg and writes it atomically. It returns the config that
// was written.
func Save(path string, cfg Config) (Config, error) {
	normalizedPath, err := validateConfigPath(path)
	if err != nil {
		return cfg, err
	}
	cfg = Clone(cfg)
	normalize(&cfg)

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(normalizedPath, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", normalizedPath)
	return cfg, nil
}

// Clone returns a deep copy of cfg.
func Clone(src Config) Config {
	dst := src
	if src.Shortcuts != nil {
		dst.Shortcuts = maps.Clone(src.Shortcuts)
	}
	return dst
}

// normalize drops unusable values and fills defaults. MUTATES cfg.
func normalize(cfg *Config) {
	if cfg.Shortcuts == nil {
		cfg.Shortcuts = map[string]string{}
	}
	for id, shortcut := range cfg.Shortcuts {
		trimmedID := strings.TrimSpace(id)
		if trimmedID == "" {
			slog.Warn("[WARN-CONFIG] dropping shortcut with empty action id", "shortcut", shortcut)
			delete(cfg.Shortcuts, id)
			continue
		}
		if !shortcuts.Validate(shortcut) {
			slog.Warn("[WARN-CONFIG] dropping invalid shortcut", "action", id, "shortcut", shortcut)
			delete(cfg.Shortcuts, id)
			continue
		}
		if trimmedID != id {
			delete(cfg.Shortcuts, id)
			cfg.Shortcuts[trimmedID] = shortcut
		}
	}

	switch {
	case cfg.ScreenshotMaxWidth < 0:
		slog.Warn("[WARN-CONFIG] negative screenshot_max_width, using default", "value", cfg.ScreenshotMaxWidth)
		cfg.ScreenshotMaxWidth = DefaultScreenshotMaxWidth
	case cfg.ScreenshotMaxWidth > 0 && cfg.ScreenshotMaxWidth < minScreenshotWidth:
		cfg.ScreenshotMaxWidth = minScreenshotWidth
	case cfg.ScreenshotMaxWidth > maxScreenshotWidth:
		cfg.ScreenshotMaxWidth = maxScreenshotWidth
	}

	cfg.WindowTitle = strings.TrimSpace(cfg.WindowTitle)
	if cfg.WindowTitle == "" || strings.ContainsRune(cfg.WindowTitle, 0) {
		cfg.WindowTitle = DefaultWindowTitle
	}
}

func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	// Temp file in the same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".config.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

func validateConfigPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("config path required")
	}
	absolutePath, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("save config: resolve path: %w", err)
	}
	expectedDir, err := defaultConfigDirFn()
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	absoluteDir, err := filepath.Abs(expectedDir)
	if err != nil {
		return "", fmt.Errorf("save config: resolve config dir: %w", err)
	}
	if !pathWithinDir(absolutePath, absoluteDir) {
		return "", fmt.Errorf("save config: path outside config directory: %q", absolutePath)
	}
	return absolutePath, nil
}

func defaultConfigDir() (string, error) {
	return filepath.Dir(DefaultPath()), nil
}

// pathWithinDir rejects traversal and, on Windows, cross-drive paths where
// filepath.Rel fails.
func pathWithinDir(path string, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
