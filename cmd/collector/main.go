package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xdrpull/xdrpull/internal/collector"
	"github.com/xdrpull/xdrpull/internal/config"
	"github.com/xdrpull/xdrpull/internal/pkg/logger"
	"github.com/xdrpull/xdrpull/internal/pkg/metrics"
	"github.com/xdrpull/xdrpull/internal/secrets"
	"github.com/xdrpull/xdrpull/internal/storage"
	"github.com/xdrpull/xdrpull/internal/xdr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx := context.Background()
	awsCfg, err := collector.NewAWSConfig(ctx, cfg.AWS)
	if err != nil {
		log.Fatalf("loading AWS configuration: %v", err)
	}

	// Credentials resolve once at startup; a missing parameter aborts
	// before any call to the alert source.
	creds, err := secrets.NewStore(awsCfg).Credentials(ctx, cfg.XDR.ParameterPrefix)
	if err != nil {
		log.Fatalf("resolving credentials: %v", err)
	}
	log.WithFields(map[string]interface{}{
		"host":     creds.Host,
		"key_type": creds.KeyType,
	}).Info("Resolved tenant credentials")

	fetcher := xdr.NewFetcher(creds, xdr.NewSigner(), xdr.FetcherConfig{
		Timeout:   cfg.XDR.RequestTimeout,
		TLSVerify: cfg.XDR.TLSVerify,
	}, log)
	paginator := xdr.NewPaginator(fetcher, xdr.PaginatorConfig{
		PageSize:          cfg.XDR.PageSize,
		MaxPages:          cfg.XDR.MaxPages,
		RequestsPerSecond: cfg.XDR.RequestsPerSecond,
	}, log)
	sink := storage.NewSink(awsCfg, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, log)
	runner := collector.NewRunner(paginator, sink, log)

	scheduler, err := collector.NewScheduler(runner, cfg.Scheduler.Schedule, log)
	if err != nil {
		log.Fatalf("building scheduler: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{Addr: cfg.Scheduler.MetricsAddr, Handler: mux}
	go func() {
		log.Infof("Metrics listening on %s", cfg.Scheduler.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.ErrorWithErr(err, "Metrics server failed")
		}
	}()

	scheduler.Start()
	log.Infof("Collector started, schedule %q", cfg.Scheduler.Schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
}
