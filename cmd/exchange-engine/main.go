package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Leyfach/congenialexchangeascii-sub000/conditional"
	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/events"
	"github.com/Leyfach/congenialexchangeascii-sub000/jobs/cron"
	"github.com/Leyfach/congenialexchangeascii-sub000/ledger"
	"github.com/Leyfach/congenialexchangeascii-sub000/margin"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/oracle"
	"github.com/Leyfach/congenialexchangeascii-sub000/persistence"
	"github.com/Leyfach/congenialexchangeascii-sub000/workers/engines"
)

// store is the full persistence surface the daemon wires: order and trade
// recording for the books, position recording for the margin engine and
// order loading for book rebuilds.
type store interface {
	matching.Recorder
	margin.Recorder
	engines.OrderLoader
}

func buildStore() store {
	if os.Getenv("DATABASE_HOST") == "" {
		return persistence.NoopStore{}
	}

	db, err := config.NewDatabase()
	if err != nil {
		config.Logger.Errorf("database unavailable, records disabled: %v", err)
		return persistence.NoopStore{}
	}

	gs, err := persistence.NewGormStore(db)
	if err != nil {
		config.Logger.Errorf("store migration failed, records disabled: %v", err)
		return persistence.NoopStore{}
	}

	return gs
}

func buildSink() events.EventSink {
	sinks := events.MultiSink{events.LogSink{}}

	if os.Getenv("REDIS_HOST") != "" {
		client, err := config.NewRedis()
		if err != nil {
			config.Logger.Errorf("redis unavailable, pub/sub disabled: %v", err)
		} else {
			sinks = append(sinks, events.NewRedisSink(client, "exchange"))
		}
	}

	return sinks
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println("Start exchange-engine")

	balances := ledger.NewMemoryLedger()
	prices := oracle.NewMemoryOracle()
	sink := buildSink()
	records := buildStore()

	worker := engines.NewMatchingWorker(balances, sink, records, prices)

	monitor := conditional.NewMonitor(worker, prices, sink)
	worker.RegisterFillObserver(monitor)

	marginEngine := margin.NewEngine(balances, prices, sink, records, worker, config.Config.Margin)
	liquidations := margin.NewMonitor(marginEngine)

	for _, market := range config.Config.Markets {
		if err := worker.Reload(market.Symbol, records); err != nil {
			config.Logger.Errorf("reload %s: %v", market.Symbol, err)
		}
	}

	monitor.Start(config.Config.ConditionalTickSeconds)
	liquidations.Start(config.Config.LiquidationTickSeconds)

	go cron.NewInterestJob(marginEngine).Process()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	monitor.Stop()
	liquidations.Stop()
	config.Logger.Info("exchange-engine stopped")
}
