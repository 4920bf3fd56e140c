// Package main is the entry point for the BallPoint practice tracker.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/Johnjr1/BallPoint/internal/config"
	"github.com/Johnjr1/BallPoint/internal/feedback"
	"github.com/Johnjr1/BallPoint/internal/guard"
	"github.com/Johnjr1/BallPoint/internal/ipc"
	"github.com/Johnjr1/BallPoint/internal/runner"
	"github.com/Johnjr1/BallPoint/internal/stats"
	"github.com/Johnjr1/BallPoint/internal/store"
	"github.com/Johnjr1/BallPoint/internal/vision"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration JSON file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ballpoint %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	// Resolve config path: --config flag > BALLPOINT_CONFIG env > auto-discover.
	path := *configPath
	if path == "" {
		path = os.Getenv("BALLPOINT_CONFIG")
	}
	if path == "" {
		path = discoverConfig()
	}
	if path == "" {
		fatal("no config found. Place config.json next to the exe, use --config <path>, or set BALLPOINT_CONFIG.")
	}

	cfg, err := config.Load(path)
	if err != nil {
		fatal(fmt.Sprintf("load config: %v", err))
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	archiver := store.NewArchiver(db)
	aggregator := stats.NewAggregator(db)

	// Wire ingress guard.
	g := guard.NewGuard(guard.Config{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		DebounceWindow:     time.Duration(cfg.DebounceMillis) * time.Millisecond,
	})

	// Wire progression feedback hook.
	var notifier runner.Notifier = feedback.Log{}
	if cfg.FeedbackCommand != "" {
		notifier = feedback.Command{Path: cfg.FeedbackCommand}
	}

	// Wire the session manager and its reaper.
	manager := runner.NewManager(archiver, notifier, g, runner.Config{
		IdleMaxAge:    time.Duration(cfg.IdleSessionMaxAgeSec) * time.Second,
		RetainAge:     time.Duration(cfg.RetainAgeSec) * time.Second,
		SweepInterval: time.Duration(cfg.SweepIntervalSec) * time.Second,
	})
	manager.Start()

	// Wire vision provider registry.
	registry := vision.NewProviderRegistry()
	for name, pc := range cfg.Providers {
		if err := registry.Register(vision.ProviderSpec{
			Name:    name,
			Command: pc.Command,
			Args:    pc.Args,
			Env:     pc.Env,
		}); err != nil {
			log.Fatalf("register provider %s: %v", name, err)
		}
	}
	sessions := vision.NewSessionManager(registry)

	// Wire IPC handler.
	handler := &ipc.Handler{
		Manager:  manager,
		Archiver: archiver,
		Stats:    aggregator,
		Vision:   sessions,
	}

	srv := ipc.NewServer(handler, cfg.ListenAddr)

	// Graceful shutdown on interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("shutting down...")

		manager.Stop()
		sessions.StopAll()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	url := ipc.FormatListenURL(cfg.ListenAddr)
	log.Printf("ballpoint tracker listening on %s", url)

	// Auto-open the court display.
	openBrowser(url)

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		fatal(fmt.Sprintf("server error: %v", err))
	}
}

// discoverConfig looks for config.json next to the executable, then in the cwd.
func discoverConfig() string {
	// Next to executable.
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "config.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	// Current working directory.
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return ""
}

// fatal prints an error and, on Windows, waits for a keypress so the user can
// read the message when the exe is launched by double-click.
func fatal(msg string) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	if runtime.GOOS == "windows" {
		fmt.Fprintln(os.Stderr, "\nPress Enter to exit...")
		bufio.NewReader(os.Stdin).ReadBytes('\n')
	}
	os.Exit(1)
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
