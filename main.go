package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cryptoledger/cmd"
	"cryptoledger/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	cmd.ConfigureLogging(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT"))

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.WithError(err).Fatal("Migration error")
			}
			return
		case "serve":
		default:
			log.Fatalf("unknown command: %s (usage: ledger [serve|migrate])", os.Args[1])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig).Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: ledger migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
