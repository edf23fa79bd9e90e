// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/jeranaias/chatdesk/internal/config"
)

// Args holds the parsed command-line flags.
type Args struct {
	ConfigPath string
	Model      string
	Provider   string
	Theme      string
	LogLevel   string
	Plain      bool
	Version    bool
}

// Parse parses argv (without the program name). Usage and errors are
// written to stderr. pflag.ErrHelp is returned for -h/--help.
func Parse(argv []string, stderr io.Writer) (Args, error) {
	var a Args

	fs := pflag.NewFlagSet("chatdesk", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&a.ConfigPath, "config", "c", "", "config file (TOML or JSON); default ~/.chatdesk/config.toml")
	fs.StringVarP(&a.Model, "model", "m", "", "model name")
	fs.StringVarP(&a.Provider, "provider", "p", "", "provider: openai or ollama")
	fs.StringVar(&a.Theme, "theme", "", "theme: dark, light or auto")
	fs.StringVar(&a.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&a.Plain, "plain", false, "line mode instead of the full-screen interface")
	fs.BoolVarP(&a.Version, "version", "v", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: chatdesk [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return a, err
	}
	if fs.NArg() > 0 {
		return a, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return a, nil
}

// Apply overlays the flags that were given onto cfg and revalidates it.
func (a Args) Apply(cfg *config.Config) error {
	if a.Provider != "" {
		cfg.Provider.Kind = a.Provider
	}
	if a.Model != "" {
		cfg.Provider.Model = a.Model
	}
	if a.Theme != "" {
		cfg.UI.Theme = a.Theme
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	cfg.Migrate()
	return cfg.Validate()
}
