package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/navhist/internal/errors"
	"github.com/vango-dev/navhist/pkg/history"
	"go.opentelemetry.io/otel"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "navhist.json"

	// DefaultPort is the default server port.
	DefaultPort = 4000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultBasePath is the URL prefix of the client script and socket.
	DefaultBasePath = "/_navhist"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "navhist"
)

// History modes.
const (
	ModeBrowser = "browser"
	ModeHash    = "hash"
	ModeMemory  = "memory"
)

// Config represents the complete navhist.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Mode selects the history backend: browser, hash or memory.
	// The server accepts browser and hash; memory is for the REPL.
	Mode string `json:"mode,omitempty"`

	// Server contains the bridge server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Memory contains the in-memory history configuration.
	Memory MemoryConfig `json:"memory,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Blocking contains navigation blocking configuration.
	Blocking BlockingConfig `json:"blocking,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains bridge server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// BasePath prefixes the client script and WebSocket endpoint.
	BasePath string `json:"basePath,omitempty"`

	// AllowedOrigins restricts WebSocket origins. Empty allows same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// MemoryConfig contains in-memory history settings.
type MemoryConfig struct {
	// InitialEntries are the starting paths.
	InitialEntries []string `json:"initialEntries,omitempty"`

	// InitialIndex selects the starting entry. Nil selects the last one.
	InitialIndex *int `json:"initialIndex,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves metrics and records history collectors.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Path is where metrics are served.
	Path string `json:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// TracerName names the tracer used for drain spans.
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`
}

// BlockingConfig contains navigation blocking settings.
type BlockingConfig struct {
	// DiscardOnCancel drops queued navigations when a blocker cancels.
	DiscardOnCancel bool `json:"discardOnCancel,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for navhist.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No navhist.json found in " + filepath.Dir(path)).
				WithSuggestion("Create navhist.json or pass flags instead")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse navhist.json: " + err.Error()).
			WithSuggestion("Check that navhist.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeBrowser
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = DefaultBasePath
	}
	c.Server.BasePath = "/" + strings.Trim(c.Server.BasePath, "/")

	if len(c.Memory.InitialEntries) == 0 {
		c.Memory.InitialEntries = []string{"/"}
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "navhist"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBrowser, ModeHash, ModeMemory:
	default:
		return errors.New("E121").
			WithDetail("Unknown mode " + strconv.Quote(c.Mode))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535")
	}

	for _, e := range c.Memory.InitialEntries {
		if e == "" {
			return errors.New("E123").
				WithDetail("Memory entries must not be empty strings")
		}
	}
	if idx := c.Memory.InitialIndex; idx != nil && (*idx < 0 || *idx >= len(c.Memory.InitialEntries)) {
		return errors.New("E123").
			WithDetail("initialIndex " + strconv.Itoa(*idx) + " is outside the entry list")
	}

	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E124").
			WithDetail("Unknown log level " + strconv.Quote(c.Log.Level))
	}

	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// LogLevel returns the configured slog level. Unknown levels map to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// MemoryOptions converts the memory section for history.NewMemory.
func (c *Config) MemoryOptions() history.MemoryOptions {
	opts := history.MemoryOptions{
		InitialEntries: append([]string(nil), c.Memory.InitialEntries...),
	}
	if c.Memory.InitialIndex != nil {
		idx := *c.Memory.InitialIndex
		opts.InitialIndex = &idx
	}
	return opts
}

// HistoryOptions returns the history options implied by the config.
func (c *Config) HistoryOptions() []history.Option {
	opts := []history.Option{history.WithTracer(otel.Tracer(c.Tracing.TracerName))}
	if c.Blocking.DiscardOnCancel {
		opts = append(opts, history.WithDiscardOnCancel())
	}
	return opts
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
