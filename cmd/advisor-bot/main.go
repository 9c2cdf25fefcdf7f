// ABOUTME: Entry point for the advisor-bot Telegram service
// ABOUTME: Wires config, store, remote client, engine, transport, and health server

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/ai4business/advisor-bot/internal/assistant"
	"github.com/ai4business/advisor-bot/internal/config"
	"github.com/ai4business/advisor-bot/internal/engine"
	"github.com/ai4business/advisor-bot/internal/health"
	"github.com/ai4business/advisor-bot/internal/remote"
	"github.com/ai4business/advisor-bot/internal/runs"
	"github.com/ai4business/advisor-bot/internal/session"
	"github.com/ai4business/advisor-bot/internal/store"
	"github.com/ai4business/advisor-bot/internal/telegram"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
           _       _                 _           _
  __ _  __| |_   _(_)___  ___  _ __ | |__   ___ | |_
 / _' |/ _' \ \ / / / __|/ _ \| '__|| '_ \ / _ \| __|
| (_| | (_| |\ V /| \__ \ (_) | |   | |_) | (_) | |_
 \__,_|\__,_| \_/ |_|___/\___/|_|   |_.__/ \___/ \__|
`

// getConfigPath returns the path to the bot config file.
// Priority: ADVISOR_CONFIG env var > XDG_CONFIG_HOME/advisor/bot.yaml > ~/.config/advisor/bot.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ADVISOR_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "bot.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "advisor", "bot.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: advisor-bot <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the Telegram bot")
		fmt.Println("  health  Check bot health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Advisors:  %d\n", len(cfg.Assistants))
	fmt.Println()

	logger.Info("starting advisor-bot",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"advisors", len(cfg.Assistants),
	)

	users, err := store.NewUserStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening user store: %w", err)
	}
	defer users.Close()

	registry, err := assistant.NewRegistry(cfg.Assistants)
	if err != nil {
		return fmt.Errorf("building assistant registry: %w", err)
	}

	client := remote.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, logger)
	poller := runs.NewPoller(client, runs.Options{
		Interval:    cfg.Runs.PollInterval,
		MaxAttempts: cfg.Runs.MaxAttempts,
	}, logger)
	sessions := session.NewManager(client, logger)
	eng := engine.New(registry, client, poller, sessions, cfg.Transport.MaxChunkLen, logger)

	bot, err := telegram.New(cfg.Telegram.Token, eng, users, registry, logger)
	if err != nil {
		return fmt.Errorf("creating telegram bot: %w", err)
	}

	healthSrv := health.NewServer(cfg.Server.HTTPAddr, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthSrv.Start(gctx)
	})
	g.Go(func() error {
		healthSrv.SetReady(true)
		defer healthSrv.SetReady(false)
		return bot.Start(gctx)
	})

	return g.Wait()
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
