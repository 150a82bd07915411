// Command ipfixcollectord runs the IPFIX collector as a standalone daemon:
// it loads a YAML config, binds the UDP listen socket, and serves decode
// metrics over HTTP until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abartolomey/ipfixcollector/internal/collector"
	"github.com/abartolomey/ipfixcollector/internal/config"
	"github.com/abartolomey/ipfixcollector/pkg/ipfix"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file (required)")
	listenAddr  = flag.String("listen-addr", "", "Override config listenAddr")
	listenPort  = flag.Uint("listen-port", 0, "Override config listenPort")
	parserCount = flag.Uint("parsers", 0, "Override config parserCount")
)

func main() {
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *listenPort != 0 {
		cfg.ListenPort = uint16(*listenPort)
	}
	if *parserCount != 0 {
		cfg.ParserCount = uint32(*parserCount)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	log := logr.New(newStdLogSink(cfg.LogLevel))
	ipfix.SetLogger(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(ipfix.AllCollectors()...)
	registry.MustRegister(collector.AllCollectors()...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
		<-sigCh
		os.Exit(1)
	}()

	h, err := collector.Start(ctx, collector.Config{
		ListenAddr:  cfg.ListenAddrPort(),
		ParserCount: cfg.ParserCount,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting collector: %v\n", err)
		os.Exit(1)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(err, "metrics server stopped unexpectedly")
			}
		}()
	}

	<-ctx.Done()

	h.Stop()
	if metricsServer != nil {
		_ = metricsServer.Close()
	}

	log.Info("collector stopped")
}
