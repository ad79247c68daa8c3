package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/local/duplexprint/internal/config"
	"github.com/local/duplexprint/internal/converter"
	logpkg "github.com/local/duplexprint/internal/logger"
	"github.com/local/duplexprint/internal/metrics"
	"github.com/local/duplexprint/internal/printer"
	"github.com/local/duplexprint/internal/session"
	"github.com/local/duplexprint/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Session storage
	store, err := session.NewFileStore(cfg.Storage.TempDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init session store")
	}

	// Print tooling
	loc := printer.NewLocator(cfg.Print.LocateTimeout)
	disc := printer.NewDiscovery(loc, cfg.Print.StatusTimeout)
	client := printer.NewClient(loc, disc, cfg.Print.FallbackLPPath, cfg.Print.SubmitTimeout)
	resolver := printer.NewResolver(loc, cfg.Print.StatusTimeout)
	conv := converter.New(cfg.Print.ConvertTimeout)

	srv := web.New(web.Dependencies{
		Store:    store,
		Submit:   client,
		Queue:    resolver,
		Printers: disc,
		Convert:  conv,
		Split:    web.PDFSplitter{},
		Debug:    cfg.Server.Debug,
	})
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}
