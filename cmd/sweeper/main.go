package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigplane/gigplane/internal/alerts"
	"github.com/gigplane/gigplane/internal/config"
	"github.com/gigplane/gigplane/internal/db"
	"github.com/gigplane/gigplane/internal/order"
	"github.com/gigplane/gigplane/internal/wallet"
)

// Standalone deadline sweeper. Runs the same sweep the API server runs,
// for deployments that keep background work off the serving path.
func main() {
	cfg := config.Load()

	db.Init(cfg.DB.DSN)
	alerts.Init(cfg.Redis.Addr)
	defer alerts.Close()

	orders := order.NewService(
		order.NewPgStore(db.Conn),
		cfg.Deadlines,
		wallet.NewEscrow(db.Conn),
		alerts.QueueNotifier{},
	)

	ctx, stop := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		stop()
	}()

	log.Printf("sweeper running every %s", cfg.SweepInterval)
	orders.RunSweep(ctx, cfg.SweepInterval)
}
