package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"questsync/internal/config"
	"questsync/internal/logging"
	"questsync/internal/notify"
	"questsync/internal/server"
)

var (
	daemonInterval time.Duration
	daemonHTTPAddr string
	daemonNotify   bool
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run reconciliation cycles on an interval",
		Long: `Run reconciliation cycles forever, sleeping between them. A cycle
failure never stops the daemon; the next tick tries again.

With --http (or http_addr in the config), an HTTP server also listens
for manual triggers:
  POST /sync     run a cycle now
  GET  /status   last cycle outcome
  GET  /healthz  liveness probe`,
		RunE: runDaemon,
	}

	cmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Cycle interval (defaults to the configured value)")
	cmd.Flags().StringVar(&daemonHTTPAddr, "http", "", "HTTP listen address, e.g. :8787 (defaults to the configured value)")
	cmd.Flags().BoolVar(&daemonNotify, "notify", false, "Send a desktop notification when a cycle fails")

	return cmd
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log := logging.WithComponent("daemon")

	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	interval := daemonInterval
	if interval <= 0 {
		interval = svc.cfg.Interval.Std()
	}
	if interval <= 0 {
		interval = config.DefaultInterval
	}

	httpAddr := daemonHTTPAddr
	if httpAddr == "" {
		httpAddr = svc.cfg.HTTPAddr
	}

	notifyFailures := daemonNotify || svc.cfg.Notify

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("shutting down")
		cancel()
	}()

	if httpAddr != "" {
		srv := &http.Server{
			Addr:    httpAddr,
			Handler: server.New(server.Config{Runner: svc.runner, Version: Version}),
		}

		go func() {
			log.WithField("addr", httpAddr).Info("http server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("http server failed")
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.WithFields(map[string]interface{}{
		"interval": interval.String(),
		"notify":   notifyFailures,
	}).Info("daemon started")

	runAndReport := func() {
		outcome, err := svc.runner.RunCycle(ctx)
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Error("cycle failed")
		}
		if notifyFailures {
			notify.CycleFailed(outcome, err)
		}
	}

	// First cycle immediately, then on the ticker.
	runAndReport()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("daemon stopped")
			return nil
		case <-ticker.C:
			runAndReport()
		}
	}
}
