package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"spotarb/internal/application/usecase/monitor"
	"spotarb/internal/infrastructure/config"
	"spotarb/internal/infrastructure/httpapi"
	"spotarb/internal/infrastructure/logger"
	"spotarb/internal/infrastructure/svc"
)

func main() {
	logger.Setup("info", false)

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	modeFlag := flag.String("mode", "", "override app.mode: monitor | paper | live | probe")
	initFlag := flag.Bool("init", false, "write a config template to -config and exit")
	flag.Parse()

	if *initFlag {
		if err := config.WriteTemplate(*configPath); err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("write config template failed")
		}
		fmt.Printf("config template written to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	if m := strings.ToLower(strings.TrimSpace(*modeFlag)); m != "" {
		if m != "probe" {
			if _, err := monitor.ParseMode(m); err != nil {
				log.Fatal().Err(err).Msg("invalid -mode")
			}
		}
		cfg.App.Mode = m
	}
	logger.Setup(cfg.App.LogLevel, cfg.App.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}
	defer sc.Close()

	if cfg.App.Mode == "probe" {
		failed := 0
		for _, r := range sc.Probe(ctx) {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			log.Warn().Int("failed", failed).Msg("probe finished with failing venues")
		}
		return
	}

	if sc.Mode == monitor.ModeLive {
		log.Warn().
			Bool("enabled", cfg.Live.Enabled).
			Bool("manual_approval", cfg.Live.ManualApproval).
			Float64("max_trade_size", cfg.Live.MaxTradeSize).
			Float64("daily_loss_limit", cfg.Live.DailyLossLimit).
			Msg("LIVE MODE: real orders will be placed")
	}

	service := monitor.NewService(sc.BuildMonitorServiceDeps())

	log.Info().
		Str("config", *configPath).
		Str("mode", string(sc.Mode)).
		Strs("exchanges", cfg.EnabledExchanges()).
		Int("pairs", len(cfg.Pairs.List)).
		Float64("min_net_profit_pct", cfg.Arbitrage.MinNetProfitPct).
		Msg("spotarb started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return service.Run(gctx)
	})
	if addr := cfg.App.HTTPAddr; addr != "" {
		var history httpapi.HistorySource
		if h := sc.History(); h != nil {
			history = h
		}
		srv := httpapi.New(addr, sc.Metrics.Gatherer(), service, history)
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("spotarb exited")
	}

	ectx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sc.ExportHistory(ectx); err != nil {
		log.Error().Err(err).Msg("history export incomplete")
	}
	log.Info().Msg("spotarb stopped")
}
