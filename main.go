package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wfunc/coinflip/broadcast"
	"github.com/wfunc/coinflip/config"
	"github.com/wfunc/coinflip/game"
	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/monitor"
	"github.com/wfunc/coinflip/outcome"
	"github.com/wfunc/coinflip/persistence"
	"github.com/wfunc/coinflip/rpc"
	"github.com/wfunc/coinflip/server"
	"github.com/wfunc/coinflip/services"
	"github.com/wfunc/coinflip/session"
	"github.com/wfunc/coinflip/timer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init(false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Development)
	defer logger.Sync()

	// Round ledger
	store, err := persistence.Open(cfg.Ledger)
	if err != nil {
		logger.Log.Fatalf("Failed to open %s ledger: %v", cfg.Ledger.Driver, err)
	}
	defer store.Close()
	ledger := services.NewLedgerService(store, cfg.Ledger.BufferSize)
	logger.Log.Infof("Ledger driver: %s", cfg.Ledger.Driver)

	mon := monitor.NewMonitor(cfg.Server.MetricsNamespace)
	sessions := session.NewManager()
	timers := timer.NewTimerManager(cfg.Game.TimerTick)
	defer timers.Stop()

	svc := game.NewService(cfg.Game, timers,
		broadcast.NewSessionBroadcaster(sessions),
		outcome.NewEngine(cfg.Game.Seed),
		game.WithRecorder(ledger),
		game.WithMonitor(mon),
	)

	mon.WatchLedger(ledger.Stats)

	var serverOpts []server.Option
	if history, ok := store.(server.RoundHistory); ok {
		serverOpts = append(serverOpts, server.WithRoundHistory(history))
	}
	gameServer := server.NewGameServer(cfg.Server, sessions, svc, mon, serverOpts...)

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(gameServer.Start)
	g.Go(rpcServer.Start)
	g.Go(func() error { return ledger.Run(context.Background()) })
	g.Go(func() error { return svc.RunStatsLoop(ctx) })

	g.Go(func() error {
		<-ctx.Done()
		logger.Log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		rpcServer.Stop()
		err := gameServer.Shutdown(shutdownCtx)
		ledger.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("Server stopped with error: %v", err)
		return
	}
	logger.Log.Info("Server stopped.")
}
