package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"ib-batch-trader-go/internal/audit"
	"ib-batch-trader-go/internal/config"
	"ib-batch-trader-go/internal/database"
	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/logger"
	"ib-batch-trader-go/internal/session"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.File)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open the append-only audit log
	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		log.Fatal("Failed to open audit log", zap.Error(err))
	}
	defer auditLog.Close()

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Setup context for graceful shutdown. An interrupt during the batch
	// stops further submissions; already-submitted orders stay live.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	gw := gateway.NewClient(&cfg.Gateway, log)
	runner := session.NewRunner(&cfg, gw, db, log, auditLog)

	if err := runner.Connect(ctx); err != nil {
		log.Fatal("Failed to initialize trading session", zap.Error(err))
	}
	defer runner.Shutdown(context.Background())

	instructions, err := runner.Load()
	if err != nil {
		log.Error("Failed to load instructions", zap.Error(err))
		return
	}

	// Operator confirmation gate before anything is submitted.
	if !cfg.Trading.AutoConfirm {
		fmt.Printf("\nSession %s: %d instruction(s) from %s\n",
			runner.SessionID(), len(instructions), cfg.Trading.InstructionFile)
		for i, inst := range instructions {
			fmt.Printf("  %d. %s\n", i+1, inst.Describe())
		}
		if !confirm("Do you want to proceed? (yes/no): ") {
			log.Info("Trading cancelled by user")
			return
		}
	}

	summary, err := runner.Execute(ctx, instructions)
	if err != nil {
		log.Error("Session finished with errors", zap.Error(err))
	}
	log.Info("Session complete",
		zap.String("session", summary.SessionID),
		zap.Int("attempted", summary.OrdersAttempted),
		zap.Int("accepted", summary.OrdersAccepted),
		zap.Int("rejected_by_safety", summary.OrdersRejectedBySafety),
		zap.Int("failed_at_gateway", summary.OrdersFailedAtGateway),
	)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(line)) == "yes"
}
