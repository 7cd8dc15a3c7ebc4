package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/focusmomo"
	"github.com/benjamonnguyen/focusmomo/broadcast"
	"github.com/benjamonnguyen/focusmomo/dbusipc"
	"github.com/benjamonnguyen/focusmomo/discordgo"
	"github.com/benjamonnguyen/focusmomo/prefs"
	"github.com/benjamonnguyen/focusmomo/sqlite"
)

const (
	RepoURL = "https://github.com/benjamonnguyen/focusmomo"
	Version = "0.1.0"
)

func main() {
	// logger
	log.SetReportCaller(true)
	topCtx, topCtxC := context.WithCancel(context.Background())
	initTimeout, initTimeoutC := context.WithTimeout(topCtx, 10*time.Second)

	// config
	cfg, err := focusmomo.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.LogLevel)
	logger := *log.Default()

	p, err := prefs.Load(cfg.PrefsPath)
	if err != nil {
		log.Warn("using default preferences", "err", err)
	}

	// db
	log.Info("opening db", "url", cfg.DatabaseURL)
	db, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed database open", "err", err)
	}
	if err := db.RunMigrations(); err != nil {
		log.Fatal("failed migration", "err", err)
	}
	defer db.Close() //nolint

	tx, dbGetter := txStdLib.NewTransactor(
		db.DB(),
		txStdLib.NestedTransactionsSavepoints,
	)
	timerRepo := sqlite.NewTimerStateRepo(dbGetter, logger)
	ledgerRepo := sqlite.NewLedgerRepo(dbGetter, logger)
	categoryRepo := sqlite.NewCategoryRepo(dbGetter, logger)
	panicif(seedCategories(initTimeout, tx, categoryRepo, p.Categories))

	// notifications
	notifier := multiNotifier{logNotifier{l: logger}}
	if cfg.DiscordWebhookID != "" {
		webhook, err := discordgo.NewWebhookNotifier(
			cfg.DiscordWebhookID,
			cfg.DiscordWebhookToken,
			fmt.Sprintf("focusmomo (%s, v%s)", RepoURL, Version),
			logger,
		)
		if err != nil {
			log.Fatal("failed webhook setup", "err", err)
		}
		notifier = append(notifier, webhook)
	}

	// managers
	hub := broadcast.NewHub(broadcast.DefaultBuffer, logger)
	categoryManager := NewCategoryManager(categoryRepo, notifier, categorySettings{
		UnifiedMode:     p.UnifiedMode,
		FocusCategoryID: p.FocusCategoryID(),
		BreakCategoryID: p.BreakCategoryID(),
	}, logger)
	ledger := NewAnalyticsLedger(ledgerRepo, tx, logger)
	store := newStateStore(timerRepo, tx, hub, logger)
	timerManager := NewTimerManager(topCtx, store, categoryManager, ledger, notifier, hub, timerManagerConfig{
		Catalog:        p.Catalog(),
		LongBreakEvery: p.LongBreakEvery,
		Watchdog:       true,
	}, logger)

	d := &dispatcher{
		timer:      timerManager,
		ledger:     ledger,
		categories: categoryManager,
		onSettingsChange: func(s categorySettings) error {
			p.UnifiedMode = s.UnifiedMode
			return prefs.Save(cfg.PrefsPath, p)
		},
		l: logger,
	}

	// dbus
	conn, err := dbusipc.Connect(cfg.Bus)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close() //nolint
	stopBridge := dbusipc.Bridge(hub, conn, logger, focusmomo.TopicTimerState, focusmomo.TopicStorageChanged)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- dbusipc.Serve(topCtx, conn, dbusipc.NewService(topCtx, d, logger))
	}()
	log.Info("focusd running. Press CTRL-C to exit.", "bus", cfg.Bus, "service", dbusipc.ServiceName)

	// init done
	initTimeoutC()

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	select {
	case <-sc:
	case err := <-serveErr:
		if err != nil {
			log.Error("dbus service stopped", "err", err)
		}
	}
	log.Info("terminating focusd")
	topCtxC()
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), 30*time.Second)
	go func() {
		timerManager.Shutdown()
		stopBridge()
		hub.Close()
		shutdownTimeoutC()
	}()
	<-shutdownTimeout.Done()
	if shutdownTimeout.Err() != context.Canceled {
		log.Error("failed to shut down gracefully", "err", shutdownTimeout.Err())
	}
}

func panicif(err error) {
	if err != nil {
		panic(err)
	}
}
