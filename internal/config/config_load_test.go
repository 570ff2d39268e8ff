package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var docflyEnv = []string{
	"DOCFLY_MODE", "DOCFLY_WORKDIR", "DOCFLY_STORE", "DOCFLY_CONFIG", "DOCFLY_LOGLEVEL",
	"DOCFLY_MAXFILESIZE", "DOCFLY_STRICT", "DOCFLY_HISTORYLIMIT", "DOCFLY_CHATURL",
	"DOCFLY_CHATTIMEOUT",
}

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

func clearEnvVars() {
	for _, name := range docflyEnv {
		os.Unsetenv(name)
	}
}

// prepare resets global flag state and restores it when the test ends
func prepare(t *testing.T, args ...string) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	})
	setArgs(append([]string{"docfly"}, args...))
	resetFlags()
	clearEnvVars()
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	dir := t.TempDir()
	prepare(t, "--workdir="+dir)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeMCP {
		t.Errorf("LoadFromFlags() Mode = %v, want %v", cfg.Mode, ModeMCP)
	}
	if cfg.WorkDir != dir {
		t.Errorf("LoadFromFlags() WorkDir = %v, want %v", cfg.WorkDir, dir)
	}
	if want := filepath.Join(dir, DefaultStoreFile); cfg.StorePath != want {
		t.Errorf("LoadFromFlags() StorePath = %v, want %v", cfg.StorePath, want)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, DefaultMaxFileSize)
	}
	if cfg.ChatBaseURL != DefaultChatBaseURL {
		t.Errorf("LoadFromFlags() ChatBaseURL = %v, want %v", cfg.ChatBaseURL, DefaultChatBaseURL)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("LoadFromFlags() ConfigFile = %v, want empty", cfg.ConfigFile)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	dir := t.TempDir()
	prepare(t,
		"--mode=chat",
		"--workdir="+dir,
		"--store=:memory:",
		"--loglevel=debug",
		"--maxfilesize=2048",
		"--minfilesize=16",
		"--strict",
		"--historylimit=5",
		"--chaturl=https://forms.example.com/api",
		"--chattimeout=5s",
		"--upload",
		"--dpi=144",
		"--thumbcache=8",
	)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeChat {
		t.Errorf("Mode = %v, want chat", cfg.Mode)
	}
	if !cfg.InMemoryStore() {
		t.Errorf("StorePath = %v, want :memory:", cfg.StorePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 2048 || cfg.MinFileSize != 16 || !cfg.StrictUpload {
		t.Errorf("upload limits = %d/%d strict=%t", cfg.MaxFileSize, cfg.MinFileSize, cfg.StrictUpload)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("HistoryLimit = %v, want 5", cfg.HistoryLimit)
	}
	if cfg.ChatBaseURL != "https://forms.example.com/api" || cfg.ChatTimeout != 5*time.Second {
		t.Errorf("chat = %s %s", cfg.ChatBaseURL, cfg.ChatTimeout)
	}
	if !cfg.UploadOnExport {
		t.Error("UploadOnExport should be set")
	}
	if cfg.RenderDPI != 144 || cfg.ThumbnailCache != 8 {
		t.Errorf("render = %g dpi, cache %d", cfg.RenderDPI, cfg.ThumbnailCache)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	prepare(t)

	os.Setenv("DOCFLY_MODE", "chat")
	os.Setenv("DOCFLY_WORKDIR", dir)
	os.Setenv("DOCFLY_LOGLEVEL", "warn")
	os.Setenv("DOCFLY_MAXFILESIZE", "200000")
	os.Setenv("DOCFLY_CHATTIMEOUT", "1m")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeChat {
		t.Errorf("Mode = %v, want chat", cfg.Mode)
	}
	if cfg.WorkDir != dir {
		t.Errorf("WorkDir = %v, want %v", cfg.WorkDir, dir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 200000 {
		t.Errorf("MaxFileSize = %v, want 200000", cfg.MaxFileSize)
	}
	if cfg.ChatTimeout != time.Minute {
		t.Errorf("ChatTimeout = %v, want 1m", cfg.ChatTimeout)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	prepare(t, "--mode=mcp", "--workdir="+dir, "--loglevel=error")

	os.Setenv("DOCFLY_MODE", "chat")
	os.Setenv("DOCFLY_LOGLEVEL", "debug")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != ModeMCP {
		t.Errorf("Mode = %v, want %v (should override env)", cfg.Mode, ModeMCP)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %v, want error (should override env)", cfg.LogLevel)
	}
}

func TestLoadFromFlags_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfly.yaml")
	content := "mode: chat\nlog_level: warn\nhistory_limit: 7\nchat:\n  base_url: https://file.example.com/api\n  timeout: 12s\n  upload_on_export: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	prepare(t, "--config="+path, "--workdir="+dir, "--historylimit=9")
	os.Setenv("DOCFLY_LOGLEVEL", "error")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %v, want %v", cfg.ConfigFile, path)
	}
	if cfg.Mode != ModeChat {
		t.Errorf("Mode = %v, want chat from the file", cfg.Mode)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %v, want error (env beats file)", cfg.LogLevel)
	}
	if cfg.HistoryLimit != 9 {
		t.Errorf("HistoryLimit = %v, want 9 (flag beats file)", cfg.HistoryLimit)
	}
	if cfg.ChatBaseURL != "https://file.example.com/api" || cfg.ChatTimeout != 12*time.Second {
		t.Errorf("chat = %s %s", cfg.ChatBaseURL, cfg.ChatTimeout)
	}
	if !cfg.UploadOnExport {
		t.Error("UploadOnExport should come from the file")
	}
}

func TestLoadFromFlags_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	prepare(t, "--config="+filepath.Join(dir, "nope.yaml"), "--workdir="+dir)

	if _, err := LoadFromFlags(); err == nil {
		t.Error("LoadFromFlags() expected error for a missing config file")
	}
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "mode", args: []string{"--mode=server"}, wantErr: "mode must be either 'mcp' or 'chat'"},
		{name: "log level", args: []string{"--loglevel=trace"}, wantErr: "invalid log level"},
		{name: "chat url", args: []string{"--chaturl=not a url"}, wantErr: "invalid chat URL"},
		{name: "history limit", args: []string{"--historylimit=-2"}, wantErr: "history limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepare(t, append(tt.args, "--workdir="+t.TempDir())...)

			_, err := LoadFromFlags()
			if err == nil {
				t.Fatalf("LoadFromFlags() expected error for invalid %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromFlags() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	prepare(t, "--version")

	_, err := LoadFromFlags()
	if !errors.Is(err, ErrVersionRequested) {
		t.Errorf("LoadFromFlags() error = %v, want ErrVersionRequested", err)
	}
}
