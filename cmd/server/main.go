package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"challenge-harvester/internal/config"
	"challenge-harvester/internal/dataset"
	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/merger"
	"challenge-harvester/internal/pipeline"
	"challenge-harvester/internal/scraper"
	"challenge-harvester/internal/server"
	"challenge-harvester/pkg/logger"
)

func main() {
	cfgPath := flag.String("config", "harvester.yaml", "config file (YAML)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	closer, err := logger.Setup(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}
	defer closer.Close()
	l := logger.For("server")

	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gemini, err := llm.NewGemini(ctx, cfg.GeminiConfig())
	if err != nil {
		l.Fatal().Err(err).Msg("generation client")
	}
	var gen llm.Generator = llm.WithRetry(gemini, cfg.LLM.Retries+1, time.Second, logger.For("llm"))
	// Shared by every section.
	gen = llm.Throttled(gen, llm.NewLimiter(cfg.CallDelay(), cfg.Pipeline.Burst))

	var opts []pipeline.Option
	if cfg.Pipeline.SmartMerge {
		opts = append(opts, pipeline.WithMerger(merger.New(gen, logger.For("merger"))))
	}
	pl := pipeline.New(gen, logger.For("pipeline"), opts...)

	sc, closeScraper := scraper.Build(cfg, logger.For("scraper"))
	defer closeScraper()

	api := server.New(server.Deps{
		Datasets:   dataset.NewRegistry(),
		Pipeline:   pl,
		Scraper:    sc,
		ListingURL: cfg.Scraper.ListingURL,
		Log:        l,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute, // a scrape with analysis runs inside the request
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	l.Info().Msg("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	l.Info().Msg("bye")
}
