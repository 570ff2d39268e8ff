package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeMCP  = "mcp"
	ModeChat = "chat"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultMinFileSize  = 1024             // 1KB, strict uploads only
	DefaultHistoryLimit = 0 // unbounded
	DefaultChatBaseURL  = "http://localhost:8000/api"
	DefaultChatTimeout  = 30 * time.Second
	DefaultRenderDPI    = 72.0
	DefaultThumbCache   = 64
	DefaultStoreFile    = "docfly.db"
	DefaultHistoryName  = ".docfly_history"

	// Directory permissions
	DefaultDirPerm = 0o750

	// MemoryStore keeps saved documents in memory only
	MemoryStore = ":memory:"
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for Docfly
type Config struct {
	// Front end: MCP stdio server or chat REPL
	Mode string

	// Files
	WorkDir     string
	StorePath   string
	HistoryFile string
	ConfigFile  string

	// Upload validation
	MaxFileSize  int64
	MinFileSize  int64
	StrictUpload bool

	// Editing
	HistoryLimit int

	// Chat backend
	ChatBaseURL    string
	ChatTimeout    time.Duration
	UploadOnExport bool

	// Rendering
	RenderDPI      float64
	ThumbnailCache int

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, DefaultHistoryName)
	}

	return &Config{
		Mode:           ModeMCP,
		WorkDir:        currentDir,
		HistoryFile:    historyFile,
		MaxFileSize:    DefaultMaxFileSize,
		MinFileSize:    DefaultMinFileSize,
		HistoryLimit:   DefaultHistoryLimit,
		ChatBaseURL:    DefaultChatBaseURL,
		ChatTimeout:    DefaultChatTimeout,
		RenderDPI:      DefaultRenderDPI,
		ThumbnailCache: DefaultThumbCache,
		Version:        "1.0.0",
		ServerName:     "docfly",
		LogLevel:       DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
// Precedence from lowest to highest: defaults, config file, DOCFLY_*
// environment variables, flags.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if path := viper.GetString("config"); path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		file.apply()
		cfg.ConfigFile = path
	}

	populateConfigFromViper(cfg)

	if cfg.WorkDir != "" {
		if expandedPath, err := filepath.Abs(cfg.WorkDir); err == nil {
			cfg.WorkDir = expandedPath
		}
	}
	if cfg.StorePath == "" {
		cfg.StorePath = filepath.Join(cfg.WorkDir, DefaultStoreFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("DOCFLY")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("workdir", cfg.WorkDir)
	viper.SetDefault("store", cfg.StorePath)
	viper.SetDefault("historyfile", cfg.HistoryFile)
	viper.SetDefault("config", "")
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("minfilesize", cfg.MinFileSize)
	viper.SetDefault("strict", cfg.StrictUpload)
	viper.SetDefault("historylimit", cfg.HistoryLimit)
	viper.SetDefault("chaturl", cfg.ChatBaseURL)
	viper.SetDefault("chattimeout", cfg.ChatTimeout)
	viper.SetDefault("upload", cfg.UploadOnExport)
	viper.SetDefault("dpi", cfg.RenderDPI)
	viper.SetDefault("thumbcache", cfg.ThumbnailCache)
	viper.SetDefault("servername", cfg.ServerName)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Front end: 'mcp' for the MCP stdio server, 'chat' for the chat REPL")
	pflag.String("workdir", cfg.WorkDir, "Directory PDFs are loaded from and exports are written to")
	pflag.String("store", cfg.StorePath, "SQLite file for saved documents (':memory:' to keep nothing)")
	pflag.String("historyfile", cfg.HistoryFile, "Chat REPL history file")
	pflag.String("config", "", "Optional YAML configuration file")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF upload size in bytes")
	pflag.Int64("minfilesize", cfg.MinFileSize, "Minimum PDF upload size in bytes (strict mode)")
	pflag.Bool("strict", cfg.StrictUpload, "Reject uploads smaller than the minimum size")
	pflag.Int("historylimit", cfg.HistoryLimit, "Undo snapshots kept per document (0 keeps all)")
	pflag.String("chaturl", cfg.ChatBaseURL, "Chat backend base URL")
	pflag.Duration("chattimeout", cfg.ChatTimeout, "Chat backend request timeout")
	pflag.Bool("upload", cfg.UploadOnExport, "Upload Form JSON exports to the chat backend")
	pflag.Float64("dpi", cfg.RenderDPI, "Page render resolution at 100% zoom")
	pflag.Int("thumbcache", cfg.ThumbnailCache, "Rendered pages kept in memory")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "workdir", "store", "historyfile", "config", "loglevel",
		"maxfilesize", "minfilesize", "strict", "historylimit",
		"chaturl", "chattimeout", "upload", "dpi", "thumbcache",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDocfly - build fillable PDF forms and fill them through chat\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # MCP stdio server, current directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --workdir=/path/to/pdfs           # MCP server over another directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=chat --chaturl=http://host/api # chat REPL\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config=docfly.yaml              # settings from a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_MODE         Front end\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_WORKDIR      Work directory\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_STORE        SQLite store path\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_CONFIG       Configuration file\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_MAXFILESIZE  Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  DOCFLY_CHATURL      Chat backend base URL\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.WorkDir = viper.GetString("workdir")
	cfg.StorePath = viper.GetString("store")
	cfg.HistoryFile = viper.GetString("historyfile")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.MinFileSize = viper.GetInt64("minfilesize")
	cfg.StrictUpload = viper.GetBool("strict")
	cfg.HistoryLimit = viper.GetInt("historylimit")
	cfg.ChatBaseURL = viper.GetString("chaturl")
	cfg.ChatTimeout = viper.GetDuration("chattimeout")
	cfg.UploadOnExport = viper.GetBool("upload")
	cfg.RenderDPI = viper.GetFloat64("dpi")
	cfg.ThumbnailCache = viper.GetInt("thumbcache")
	cfg.ServerName = viper.GetString("servername")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeMCP && c.Mode != ModeChat {
		return errors.New("mode must be either 'mcp' or 'chat'")
	}

	if c.WorkDir == "" {
		return errors.New("work directory cannot be empty")
	}

	// Create the work directory on first use
	if _, err := os.Stat(c.WorkDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.WorkDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create work directory %s: %w", c.WorkDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access work directory %s: %w", c.WorkDir, err)
	}

	if c.StorePath == "" {
		return errors.New("store path cannot be empty")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.MinFileSize < 0 {
		return errors.New("minimum file size cannot be negative")
	}
	if c.MinFileSize > c.MaxFileSize {
		return fmt.Errorf("minimum file size %d exceeds maximum %d", c.MinFileSize, c.MaxFileSize)
	}

	if c.HistoryLimit < 0 {
		return errors.New("history limit cannot be negative")
	}

	u, err := url.Parse(c.ChatBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid chat URL: %q (must be an http or https URL)", c.ChatBaseURL)
	}
	if c.ChatTimeout <= 0 {
		return errors.New("chat timeout must be positive")
	}

	if c.RenderDPI <= 0 {
		return errors.New("render DPI must be positive")
	}
	if c.ThumbnailCache <= 0 {
		return errors.New("page cache size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// IsMCPMode returns true when running as an MCP stdio server
func (c *Config) IsMCPMode() bool {
	return c.Mode == ModeMCP
}

// IsChatMode returns true when running the chat REPL
func (c *Config) IsChatMode() bool {
	return c.Mode == ModeChat
}

// InMemoryStore reports whether saved documents are kept in memory only
func (c *Config) InMemoryStore() bool {
	return c.StorePath == MemoryStore
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, WorkDir: %s, StorePath: %s, LogLevel: %s, MaxFileSize: %d, "+
		"MinFileSize: %d, StrictUpload: %t, HistoryLimit: %d, ChatBaseURL: %s, ChatTimeout: %s, "+
		"UploadOnExport: %t, RenderDPI: %g, ThumbnailCache: %d}",
		c.Mode, c.WorkDir, c.StorePath, c.LogLevel, c.MaxFileSize,
		c.MinFileSize, c.StrictUpload, c.HistoryLimit, c.ChatBaseURL, c.ChatTimeout,
		c.UploadOnExport, c.RenderDPI, c.ThumbnailCache)
}
