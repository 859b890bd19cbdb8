package app

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"gentle-ai/client/internal/config"
	"gentle-ai/client/internal/session"
	"gentle-ai/client/internal/transport"
	"gentle-ai/client/internal/ui"
)

// App bundles the wired components so tests can drive the session store
// against a real HTTP gateway without starting the terminal UI.
type App struct {
	Config  *config.Config
	Gateway transport.Gateway
	Store   *session.Store
}

func NewApp(cfg *config.Config) *App {
	gateway := transport.NewClient(cfg.GatewayURL, time.Duration(cfg.RequestTimeout)*time.Second)
	store := session.NewStore(gateway, cfg.DefaultChatTitle, cfg.DefaultModel)
	return &App{Config: cfg, Gateway: gateway, Store: store}
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	logFile, err := setupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		slog.Error("Failed to open log file", "file", cfg.LogFile, "error", err)
		return 1
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			slog.Error("Failed to close log file", "error", err)
		}
	}()

	logConfigSource()

	app := NewApp(cfg)

	// The gateway being down is not fatal: the UI starts anyway and every
	// operation reports its failure through the session state.
	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := app.Gateway.Health(probeCtx); err != nil {
		slog.Warn("Gateway health probe failed", "url", cfg.GatewayURL, "error", err)
	} else {
		slog.Info("Gateway is reachable", "url", cfg.GatewayURL)
	}
	cancel()

	program := tea.NewProgram(ui.New(app.Store), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		slog.Error("Terminal UI failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

// setupLogger routes structured logs to a file. Stdout belongs to the
// terminal UI and must stay clean.
func setupLogger(logLevel, logPath string) (*os.File, error) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return f, nil
}
