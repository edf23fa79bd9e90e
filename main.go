// chatdesk - A terminal chat client for OpenAI-compatible and Ollama models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/jeranaias/chatdesk/internal/bridge"
	"github.com/jeranaias/chatdesk/internal/chat"
	"github.com/jeranaias/chatdesk/internal/cli"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/gateway"
	"github.com/jeranaias/chatdesk/internal/logging"
	"github.com/jeranaias/chatdesk/internal/session"
	chatui "github.com/jeranaias/chatdesk/internal/ui/chat"
	"github.com/jeranaias/chatdesk/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	args, err := cli.Parse(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if args.Version {
		fmt.Printf("chatdesk %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	}

	cfg, err := loadConfig(args.ConfigPath)
	if cfg == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	if err := args.Apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	logger, closeLog := openLog(cfg)
	defer closeLog.Close()
	logger.Info("chatdesk starting",
		"version", Version,
		"provider", cfg.Provider.Kind,
		"model", cfg.Model())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secrets := cli.TerminalSecretReader{In: os.Stdin, Out: os.Stderr}
	gw, err := cli.Connect(ctx, cfg, secrets, os.Stderr, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		fmt.Fprintln(os.Stderr, cli.ExitMessage(err))
		return 1
	}

	svc := chat.NewService(session.NewStore(), gw,
		chat.WithSystemPrompt(cfg.Chat.SystemPrompt),
		chat.WithBudget(cfg.Chat.TrimBudget),
		chat.WithLogger(logger),
		chat.WithStateObserver(func(sessionID string, state chat.State) {
			logger.Debug("turn state", "session", sessionID, "state", state.String())
		}),
	)

	if args.Plain || !cli.Interactive() {
		return runPlain(ctx, cfg, svc, logger)
	}
	return runTUI(ctx, cfg, args.ConfigPath, svc, gw, logger)
}

// loadConfig reads an explicit config file, or the default locations.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// openLog opens the log file. The terminal belongs to the interface, so on
// failure logging is discarded rather than written to stderr.
func openLog(cfg *config.Config) (*slog.Logger, io.Closer) {
	path := cfg.Log.Path
	if path == "" {
		p, err := config.DefaultLogPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
			return logging.Discard(), io.NopCloser(nil)
		}
		path = p
	}

	logger, closer, err := logging.Open(path, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return logging.Discard(), io.NopCloser(nil)
	}
	return logger, closer
}

// runTUI starts the full-screen interface. Theme toggles are saved to
// configPath, or the default config file when it is empty.
func runTUI(ctx context.Context, cfg *config.Config, configPath string, svc *chat.Service, gw *gateway.Gateway, logger *slog.Logger) int {
	mode, err := styles.ParseMode(cfg.UI.Theme)
	if err != nil {
		logger.Warn("invalid theme, detecting", "theme", cfg.UI.Theme)
	}
	theme := styles.NewTheme(mode)

	typing := &bridge.Typing{}
	loop := bridge.NewProgramLoop()
	br := bridge.New(svc, loop,
		bridge.WithIndicator(typing),
		bridge.WithLogger(logger),
	)

	m := chatui.New(svc, br, typing, theme,
		chatui.WithWelcome(cfg.Chat.WelcomeMessage),
		chatui.WithProviderName(gw.Provider().Name()),
		chatui.WithTypingInterval(cfg.TypingInterval()),
		chatui.WithMarkdown(cfg.UI.RenderMarkdown),
		chatui.WithContext(ctx),
		chatui.WithLogger(logger),
		chatui.WithThemeSaver(func(mode styles.Mode) error {
			return config.SaveTheme(configPath, string(mode))
		}),
	)

	p := tea.NewProgram(m, tea.WithAltScreen())
	loop.Attach(p)

	if _, err := p.Run(); err != nil {
		logger.Error("interface stopped", "error", err)
		fmt.Fprintf(os.Stderr, "Error running chatdesk: %v\n", err)
		return 1
	}
	logger.Info("chatdesk exiting", "pending", br.Pending())
	return 0
}

// runPlain starts the line-mode interface.
func runPlain(ctx context.Context, cfg *config.Config, svc *chat.Service, logger *slog.Logger) int {
	queue := bridge.NewQueue(0)
	opts := []bridge.Option{bridge.WithLogger(logger)}
	if cli.IsStdoutTTY() {
		opts = append(opts, bridge.WithIndicator(cli.TextIndicator{Out: os.Stdout}))
	}
	br := bridge.New(svc, queue, opts...)

	editor := cli.NewLineEditor()
	defer editor.Close()

	pc := cli.NewPlainChat(svc, br, queue, editor, os.Stdout, cfg.Chat.WelcomeMessage)
	pc.SetLogger(logger)
	err := pc.Run(ctx)
	if n := queue.Drain(); n > 0 {
		logger.Debug("drained pending results on exit", "count", n)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("plain chat stopped", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
