package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
	"github.com/Shashank-Shivakumar/Docfly/internal/config"
	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/export"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
	"github.com/Shashank-Shivakumar/Docfly/internal/mcp"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/acroform"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/security"
	"github.com/Shashank-Shivakumar/Docfly/internal/placement"
	"github.com/Shashank-Shivakumar/Docfly/internal/render"
	"github.com/Shashank-Shivakumar/Docfly/internal/shell"
	"github.com/Shashank-Shivakumar/Docfly/internal/storage"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the application logger. Logs always go to stderr: in
// MCP mode stdout carries the protocol, in chat mode it carries the REPL.
func setupLogging(cfg *config.Config, w io.Writer) *logger.Logger {
	log.SetOutput(w)

	level := logger.ParseLevel(cfg.LogLevel)
	flags := log.LstdFlags
	if cfg.IsDebug() {
		flags |= log.Lshortfile
	}
	if cfg.IsChatMode() && level < logger.LevelWarn && !cfg.IsDebug() {
		// keep the REPL readable
		level = logger.LevelWarn
	}
	return logger.New(
		logger.WithOutput(w),
		logger.WithPrefix("docfly: "),
		logger.WithFlags(flags),
		logger.WithLevel(level),
	)
}

// app holds the wired services of one process
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *storage.DB
	store    *editor.Store
	mapper   *placement.Mapper
	exporter *export.Exporter
	renderer *render.Renderer
	paths    *security.PathValidator
	client   *chat.Client
	session  *chat.Session
}

// newApp opens the local store and wires every service from cfg
func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	db, err := storage.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store %s: %w", cfg.StorePath, err)
	}

	paths, err := security.NewPathValidator(cfg.WorkDir)
	if err != nil {
		db.Close()
		return nil, err
	}

	store := editor.NewStore(editor.Options{
		MaxFileSize:  cfg.MaxFileSize,
		MinFileSize:  cfg.MinFileSize,
		Strict:       cfg.StrictUpload,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       log,
	})

	client := chat.NewClient(cfg.ChatBaseURL, cfg.ChatTimeout, chat.WithLogger(log))
	exportOpts := []export.Option{export.WithLogger(log)}
	if cfg.UploadOnExport {
		exportOpts = append(exportOpts, export.WithUploader(client))
	}

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		store:    store,
		mapper:   placement.NewMapper(store, placement.WithLogger(log)),
		exporter: export.New(export.NewPDFCPUWriter(log), exportOpts...),
		renderer: render.NewRenderer(cfg.ThumbnailCache, log),
		paths:    paths,
		client:   client,
		session:  chat.NewSession(client, chat.WithSessionLogger(log)),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// mcpServer builds the MCP front end
func (a *app) mcpServer() (*mcp.Server, error) {
	return mcp.NewServer(a.cfg, mcp.Services{
		Store:     a.store,
		Mapper:    a.mapper,
		Exporter:  a.exporter,
		Paths:     a.paths,
		Renderer:  a.renderer,
		Inspector: acroform.New(a.log),
		KV:        a.db,
		Chat:      a.session,
		Logger:    a.log,
	})
}

// run serves the configured front end until ctx is cancelled or input ends
func run(ctx context.Context, a *app) error {
	switch {
	case a.cfg.IsChatMode():
		sh, err := shell.New(a.session, shell.Config{
			HistoryFile: a.cfg.HistoryFile,
			Paths:       a.paths,
			Logger:      a.log,
		})
		if err != nil {
			return err
		}
		if err := a.client.Health(ctx); err != nil {
			a.log.Warn("Chat backend at %s is not answering: %v", a.client.BaseURL(), err)
		}
		return sh.Run(ctx)

	default:
		server, err := a.mcpServer()
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	appLog := setupLogging(cfg, os.Stderr)
	appLog.Debug("Starting with configuration: %s", cfg.String())

	a, err := newApp(cfg, appLog)
	if err != nil {
		appLog.Fatal("%v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, a); err != nil {
		appLog.Error("%v", err)
		a.Close()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Docfly\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
