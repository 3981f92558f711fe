// Mybot is an autonomous group-chat agent.
//
// It runs a reason/act/fold loop against an OpenAI-compatible model
// endpoint, with tools for web search, page scraping, and remote
// server administration. Configuration is loaded from a single YAML
// file discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	mybot serve              Start the API server
//	mybot ask <question>     Ask a single question (for testing)
//	mybot version            Print version and build information
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/weissjeffm/mybot/internal/agent"
	"github.com/weissjeffm/mybot/internal/api"
	"github.com/weissjeffm/mybot/internal/buildinfo"
	"github.com/weissjeffm/mybot/internal/config"
	"github.com/weissjeffm/mybot/internal/events"
	"github.com/weissjeffm/mybot/internal/fetch"
	"github.com/weissjeffm/mybot/internal/llm"
	"github.com/weissjeffm/mybot/internal/memory"
	"github.com/weissjeffm/mybot/internal/remote"
	"github.com/weissjeffm/mybot/internal/search"
	"github.com/weissjeffm/mybot/internal/tools"
)

// shutdownGrace bounds how long in-flight requests get to finish on
// SIGINT/SIGTERM.
const shutdownGrace = 10 * time.Second

// main constructs the OS-level environment and delegates to [run],
// keeping os.Exit and os.Args out of the application logic so the full
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments by hand. The flag package relies on package
// globals, which interfere with calling run concurrently from tests;
// the argument surface is small enough that manual parsing is clearer.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: mybot ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "mybot - Autonomous Chat Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: mybot [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  ask          Ask a single question (for testing)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	return nil
}

func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// buildRegistry assembles the tool suite from the configuration.
// Tools whose backing service is not configured are left out rather
// than registered broken; the model only sees what it can actually use.
func buildRegistry(cfg *config.Config, logger *slog.Logger) *tools.Registry {
	reg := tools.NewRegistry()
	tools.RegisterBuiltins(reg)

	fetch.RegisterTool(reg, fetch.New())

	mgr := search.NewManager(logger)
	if cfg.Search.SearxURL != "" {
		mgr.Register(search.NewSearXNG(cfg.Search.SearxURL))
	}
	mgr.Register(search.NewDuckDuckGo())
	search.RegisterTool(reg, mgr)

	if cfg.Remote.Host != "" {
		sshClient, err := remote.NewClient(cfg.Remote.KeyFile)
		if err != nil {
			logger.Warn("remote tools disabled", "error", err)
		} else {
			remote.RegisterTools(reg, sshClient, remote.Config{
				Host:     cfg.Remote.Host,
				User:     cfg.Remote.User,
				IPMIHost: cfg.Remote.IPMIHost,
			})
		}
	}

	return reg
}

func buildLoop(cfg *config.Config, logger *slog.Logger, bus *events.Bus) *agent.Loop {
	client := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey,
		llm.WithTemperature(cfg.LLM.Temperature),
		llm.WithMaxTokens(cfg.LLM.MaxTokens),
		llm.WithLogger(logger),
	)

	return agent.NewLoop(logger, client, buildRegistry(cfg, logger), bus, agent.Config{
		Model:         cfg.LLM.Model,
		AuxModel:      cfg.LLM.AuxModel,
		MaxCycles:     cfg.Engine.MaxCycles,
		Concurrency:   cfg.Engine.Concurrency,
		FoldThreshold: cfg.Engine.FoldThreshold,
		FoldInputCap:  cfg.Engine.FoldInputCap,
		Timeout:       cfg.Engine.Timeout(),
	})
}

// runAsk boots a minimal agent with no persistence and processes a
// single question, printing the answer to stdout.
func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	loop := buildLoop(cfg, logger, nil)

	resp, err := loop.Run(ctx, &agent.Request{
		Messages: []agent.Message{{Role: agent.RoleHuman, Content: strings.Join(args, " ")}},
		BotName:  cfg.BotName,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, resp.Text)
	return nil
}

func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo)
	logger.Info("starting mybot",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure at the configured level; the Info-level logger above
	// covers only the startup banner.
	if cfg.LogLevel != "" {
		level, err := config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = newLogger(stdout, level)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.LLM.Model,
		"base_url", cfg.LLM.BaseURL,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", cfg.DataDir, err)
	}

	dbPath := filepath.Join(cfg.DataDir, "mybot.db")
	store, err := memory.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open conversation database %s: %w", dbPath, err)
	}
	defer store.Close()
	logger.Info("conversation database opened", "path", dbPath)

	bus := events.New()
	loop := buildLoop(cfg, logger, bus)

	if err := loop.Ping(ctx); err != nil {
		// The model endpoint may simply not be up yet; serving anyway
		// lets it come online without a restart.
		logger.Warn("model endpoint not reachable at startup", "base_url", cfg.LLM.BaseURL, "error", err)
	}

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, loop, store, bus, cfg.BotName, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
