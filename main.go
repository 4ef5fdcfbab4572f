// Package main provides the entry point for the eduVPN client core.
// It discovers available server endpoints through a tiered fallback
// chain (cache, bundled snapshot, discovery server), filters them with
// a live search, decodes locale-aware operator messages, and runs the
// cancellable authorization flow against a chosen server.
//
// Usage:
//
//	eduvpn-client [options]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samermassoud/eduvpn-client/cache"
	"github.com/samermassoud/eduvpn-client/cli"
	"github.com/samermassoud/eduvpn-client/common"
	"github.com/samermassoud/eduvpn-client/config"
	"github.com/samermassoud/eduvpn-client/discovery"
	"github.com/samermassoud/eduvpn-client/ui"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z).
var (
	appVersion = "dev"
	buildTime  = "unknown"
)

var (
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")

	listServers  = flag.Bool("list", false, "List available servers and organizations")
	searchQuery  = flag.String("search", "", "List entries matching a search query")
	showMessages = flag.String("messages", "", "Decode and print system messages from a URL, file, or \"-\"")
	authorizeURL = flag.String("authorize", "", "Authorize against a server base URL")
	pickServer   = flag.Bool("pick", false, "Interactive server picker")
)

func main() {
	flag.Parse()

	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("%s v%s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build: %s\n", buildTime)
		}
		os.Exit(0)
	}

	logLevel := common.LevelInfo
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:      logLevel,
		EnableFile: true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *pickServer {
		runPicker(ctx, cfg)
		return
	}

	runCLI(ctx, cfg)
}

// runCLI handles the one-shot command-line operations.
func runCLI(ctx context.Context, cfg *config.Config) {
	app, err := cli.New(cfg, appVersion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	var cliErr error
	switch {
	case *listServers:
		cliErr = app.ListServers(ctx, "")
	case *searchQuery != "":
		cliErr = app.ListServers(ctx, *searchQuery)
	case *showMessages != "":
		cliErr = app.ShowMessages(ctx, *showMessages)
	case *authorizeURL != "":
		cliErr = app.Authorize(ctx, *authorizeURL)
	default:
		cli.PrintHelp()
		return
	}

	if cliErr != nil {
		// User cancellation is a non-error outcome; no alert.
		if errors.Is(cliErr, common.ErrAuthCancelled) {
			common.LogInfo("Authorization cancelled by user")
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", cliErr)
		os.Exit(1)
	}
}

// runPicker starts the interactive server picker and prints the chosen
// server base URL.
func runPicker(ctx context.Context, cfg *config.Config) {
	store, err := cache.OpenDefault()
	if err != nil {
		common.LogWarn("discovery cache unavailable: %v", err)
		store = nil
	} else {
		defer store.Close()
	}

	var cacheReader common.CacheReader
	var writeback common.CacheWriter
	if store != nil {
		cacheReader = store
		writeback = store
	}
	var bundle common.BundleReader
	if cfg.UseBundledDiscovery {
		bundle = discovery.EmbeddedBundle{}
	}

	loader := discovery.NewLoader(discovery.LoaderOptions{
		Cache:  cacheReader,
		Bundle: bundle,
		Remote: discovery.NewHTTPFetcher(cfg.ServerListURL, cfg.OrganizationListURL, cfg.RequestTimeout, appVersion),
	})

	choice, err := ui.NewPicker(loader, writeback).Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if choice != "" {
		fmt.Println(choice)
	}
}

// setupSignalHandler cancels the context on SIGINT/SIGTERM so pending
// loads and authorizations resolve instead of being killed mid-flight.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, shutting down", sig)
		cancel()
	}()
}
