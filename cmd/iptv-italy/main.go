package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/iptv-italy/iptv-italy/builder"
	"github.com/iptv-italy/iptv-italy/config"
	"github.com/iptv-italy/iptv-italy/logging"
	"github.com/iptv-italy/iptv-italy/proxy"
	"github.com/iptv-italy/iptv-italy/registry"
	"github.com/iptv-italy/iptv-italy/resolver"
)

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "", "path to the config file")
		outputPath  = pflag.StringP("output", "o", "", "playlist output path (overrides config)")
		serve       = pflag.Bool("serve", false, "run the redirect proxy instead of a one-shot playlist build")
		policy      = pflag.String("policy", "", "failure policy: skip or abort (overrides config)")
		logLevel    = pflag.String("log-level", "", "log level: DEBUG, INFO, WARN or ERROR (overrides config)")
		concurrency = pflag.Int("concurrency", 0, "maximum concurrent channel resolutions (overrides config)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if *policy != "" {
		cfg.Build.Policy = *policy
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *concurrency > 0 {
		cfg.Build.Concurrency = *concurrency
	}

	logger := logging.New(logging.ParseLogLevel(cfg.LogLevel), "[iptv-italy]")

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		log.Fatalf("Registry error: %v", err)
	}
	log.Printf("Loaded %d channels from %s", reg.Len(), cfg.Registry.Path)

	client := resolver.NewClient(time.Duration(cfg.Upstream.Timeout), cfg.Upstream.RateLimit)

	if *serve {
		runProxy(cfg, reg, client, logger)
		return
	}

	os.Exit(runBuild(cfg, reg, client, logger))
}

// runBuild performs a one-shot playlist build. The exit status reflects
// whether any channel failed, even when a partial playlist was written.
func runBuild(cfg *config.Config, reg *registry.Registry, client *resolver.Client, logger *logging.Logger) int {
	pol, err := builder.ParsePolicy(cfg.Build.Policy)
	if err != nil {
		log.Printf("Configuration error: %v", err)
		return 1
	}

	b := builder.New(reg, client, resolver.Endpoints{
		RaiPlayURL:     cfg.Providers.RaiPlayURL,
		MediasetCDN:    cfg.Providers.MediasetCDN,
		RelinkerURL:    cfg.Providers.RelinkerURL,
		LocalStreamURL: cfg.Providers.LocalStreamURL,
		ProxyURL:       cfg.Providers.ProxyURL,
	}, builder.Options{
		Policy:      pol,
		Concurrency: int64(cfg.Build.Concurrency),
		LogosURL:    cfg.Output.LogosURL,
		UserAgent:   cfg.Output.UserAgent,
		Logger:      logger,
	})

	enc, results, err := b.Build(context.Background())
	if err != nil {
		log.Printf("Build aborted: %v", err)
		return 1
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Printf("FAILED %s/%s: %v", res.Spec.Provider, res.Spec.Name, res.Err)
		} else {
			log.Printf("OK %s/%s", res.Spec.Provider, res.Spec.Name)
		}
	}

	if err := builder.Dump(enc, cfg.Output.Path); err != nil {
		log.Printf("Failed to write playlist: %v", err)
		return 1
	}
	log.Printf("Wrote %d channels to %s", enc.Len(), cfg.Output.Path)

	if failed > 0 {
		log.Printf("%d channel(s) failed to resolve", failed)
		return 1
	}
	return 0
}

// runProxy serves the redirect proxy until interrupted
func runProxy(cfg *config.Config, reg *registry.Registry, client *resolver.Client, logger *logging.Logger) {
	srv := proxy.New(cfg, reg, client, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Proxy server failed: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
}
