// main package for the fishaudio-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/fishaudio-service/internal/config"
	"github.com/book-expert/fishaudio-service/internal/fishaudio"
	"github.com/book-expert/fishaudio-service/internal/node"
	"github.com/book-expert/fishaudio-service/internal/objectstore"
	"github.com/book-expert/fishaudio-service/internal/worker"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
)

const (
	bootstrapLogFile = "fishaudio-service-bootstrap.log"
	serviceLogFile   = "fishaudio-service.log"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger %s: %w", fileName, err)
	}

	return log, nil
}

func closeLogger(log *logger.Logger, name string) {
	closeErr := log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing %s logger: %v\n", name, closeErr)
	}
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}
	defer closeLogger(bootstrapLog, "bootstrap")

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	err = cfg.ValidateNATS()
	if err != nil {
		bootstrapLog.Error("Invalid NATS configuration: %v", err)

		return fmt.Errorf("invalid NATS configuration: %w", err)
	}

	apiKey, err := cfg.FishAudio.APIKey()
	if err != nil {
		bootstrapLog.Error("Missing credentials: %v", err)

		return err
	}

	log, err := setupLogger(cfg.Paths.BaseLogsDir, serviceLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return err
	}

	defer closeLogger(log, "final")

	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name("fishaudio-service"))
	if err != nil {
		log.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		log.Error("Failed to get JetStream context: %v", err)

		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.BinaryObjectStoreBucket)
	if err != nil {
		log.Error("Failed to open object store: %v", err)

		return err
	}

	client := fishaudio.NewClient(cfg.FishAudio.BaseURL, apiKey, cfg.FishAudio.Timeout())
	dispatcher := node.NewDispatcher(client, log)

	jobWorker, err := worker.NewNatsWorker(natsConnection, cfg.NATS.JobSubject, store, dispatcher, log)
	if err != nil {
		log.Error("Failed to create worker: %v", err)

		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.System("fishaudio-service initialized. Listening for jobs on subject: %s", cfg.NATS.JobSubject)

	err = jobWorker.Run(ctx)
	if err != nil {
		log.Error("Worker stopped with error: %v", err)

		return err
	}

	log.System("fishaudio-service shut down.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
