package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/intent-router/internal/metrics"
	"github.com/Chative-core-poc-v1/intent-router/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Long: `Serve the assistant over HTTP:

  POST /agent-assistant/   {"messages":[{"source":"user","content":"..."}]}
  GET  /health
  GET  /metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr == "" {
		serveAddr = cfg.ServerAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := buildApp(ctx, cfg, metrics.New(reg))
	if err != nil {
		return err
	}
	defer a.Close()

	return server.Serve(ctx, serveAddr, server.NewRouter(a.runner, reg))
}
