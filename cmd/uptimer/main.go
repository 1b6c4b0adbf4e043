package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uptimer-dev/uptimer/internal/config"
	"github.com/uptimer-dev/uptimer/internal/domain/notification"
	"github.com/uptimer-dev/uptimer/internal/engine"
	"github.com/uptimer-dev/uptimer/internal/notifier"
	"github.com/uptimer-dev/uptimer/internal/obs"
	"github.com/uptimer-dev/uptimer/internal/orchestrator"
	kafkarepo "github.com/uptimer-dev/uptimer/internal/repository/kafka"
	pg "github.com/uptimer-dev/uptimer/internal/repository/postgres"
	"github.com/uptimer-dev/uptimer/internal/scheduler"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to yaml config")
	flag.Parse()

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	db, err := pg.New(root, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	producer := kafkarepo.NewProducer(cfg.Broker.Brokers).WithLogger(l)
	defer func() { _ = producer.Close() }()

	monitors := pg.NewMonitorRepo(db)
	sslMonitors := pg.NewSSLMonitorRepo(db)
	heartbeats := pg.NewHeartbeatRepo(db)
	groups := pg.NewNotificationRepo(db)

	sched := scheduler.New(l)
	eng := engine.New(l, monitors, heartbeats, systemClock{})

	orch := orchestrator.New(orchestrator.Deps{
		Log:         l,
		Scheduler:   sched,
		Engine:      eng,
		Tracker:     engine.NewTracker(),
		Monitors:    monitors,
		SSLMonitors: sslMonitors,
		Heartbeats:  heartbeats,
		Groups:      groups,
		Mailer:      notifier.New(cfg.SMTP).WithLogger(l),
		Bus:         kafkarepo.NewBroadcast(producer),
		Timezone:    cfg.App.Timezone,
		Locals: notification.Locals{
			AppName: cfg.App.Name,
			AppLink: cfg.App.Link,
			AppIcon: cfg.App.Icon,
		},
	})

	if err := orch.StartupReplay(root); err != nil {
		l.Error("startup replay", zap.Error(err))
	}

	<-root.Done()

	sched.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
