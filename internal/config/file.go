package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// File is the optional YAML configuration file. Keys left out keep their
// defaults; environment variables and flags still win over the file.
type File struct {
	Mode           *string  `yaml:"mode"`
	WorkDir        *string  `yaml:"work_dir"`
	StorePath      *string  `yaml:"store_path"`
	HistoryFile    *string  `yaml:"history_file"`
	LogLevel       *string  `yaml:"log_level"`
	MaxFileSize    *int64   `yaml:"max_file_size"`
	MinFileSize    *int64   `yaml:"min_file_size"`
	StrictUpload   *bool    `yaml:"strict_upload"`
	HistoryLimit   *int     `yaml:"history_limit"`
	ServerName     *string  `yaml:"server_name"`
	RenderDPI      *float64 `yaml:"render_dpi"`
	ThumbnailCache *int     `yaml:"thumbnail_cache"`
	Chat           struct {
		BaseURL        *string `yaml:"base_url"`
		Timeout        *string `yaml:"timeout"`
		UploadOnExport *bool   `yaml:"upload_on_export"`
	} `yaml:"chat"`
}

// LoadFile reads and parses a YAML configuration file. Unknown keys are
// rejected.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file %s: %w", path, err)
	}
	defer f.Close()

	var file File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if file.Chat.Timeout != nil {
		if _, err := time.ParseDuration(*file.Chat.Timeout); err != nil {
			return nil, fmt.Errorf("invalid chat.timeout in %s: %w", path, err)
		}
	}
	return &file, nil
}

// apply layers the file over the defaults registered with viper
func (f *File) apply() {
	set := func(key string, value any) {
		viper.SetDefault(key, value)
	}
	if f.Mode != nil {
		set("mode", *f.Mode)
	}
	if f.WorkDir != nil {
		set("workdir", *f.WorkDir)
	}
	if f.StorePath != nil {
		set("store", *f.StorePath)
	}
	if f.HistoryFile != nil {
		set("historyfile", *f.HistoryFile)
	}
	if f.LogLevel != nil {
		set("loglevel", *f.LogLevel)
	}
	if f.MaxFileSize != nil {
		set("maxfilesize", *f.MaxFileSize)
	}
	if f.MinFileSize != nil {
		set("minfilesize", *f.MinFileSize)
	}
	if f.StrictUpload != nil {
		set("strict", *f.StrictUpload)
	}
	if f.HistoryLimit != nil {
		set("historylimit", *f.HistoryLimit)
	}
	if f.ServerName != nil {
		set("servername", *f.ServerName)
	}
	if f.RenderDPI != nil {
		set("dpi", *f.RenderDPI)
	}
	if f.ThumbnailCache != nil {
		set("thumbcache", *f.ThumbnailCache)
	}
	if f.Chat.BaseURL != nil {
		set("chaturl", *f.Chat.BaseURL)
	}
	if f.Chat.Timeout != nil {
		set("chattimeout", *f.Chat.Timeout)
	}
	if f.Chat.UploadOnExport != nil {
		set("upload", *f.Chat.UploadOnExport)
	}
}
