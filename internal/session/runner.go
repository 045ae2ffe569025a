// Package session orchestrates one end-to-end batch run: connect, snapshot,
// submit, settle, snapshot again, summarize, disconnect.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ib-batch-trader-go/internal/audit"
	"ib-batch-trader-go/internal/config"
	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/instruction"
	"ib-batch-trader-go/internal/report"
	"ib-batch-trader-go/internal/safety"
	"ib-batch-trader-go/internal/sequencer"
	"ib-batch-trader-go/internal/snapshot"
)

// Runner owns the gateway connection for the lifetime of one session.
type Runner struct {
	cfg       *config.Config
	gw        gateway.API
	loader    *instruction.Loader
	seq       *sequencer.Sequencer
	snapshots *snapshot.Service
	reporter  *report.Reporter
	logger    *zap.Logger
	audit     *audit.Log

	sessionID string
	startedAt time.Time
	accounts  []string
}

// NewRunner wires a session from its collaborators.
func NewRunner(cfg *config.Config, gw gateway.API, db *gorm.DB, logger *zap.Logger, auditLog *audit.Log) *Runner {
	validator := safety.NewValidator(safety.Limits{MaxOrderSize: cfg.Safety.MaxOrderSize})
	seq := sequencer.NewSequencer(gw, validator, sequencer.Options{
		OrderDelay: cfg.Trading.OrderDelay,
		AckWait:    cfg.Trading.AckWait,
		AckPoll:    cfg.Trading.AckPoll,
	}, logger, auditLog)

	return &Runner{
		cfg:       cfg,
		gw:        gw,
		loader:    instruction.NewLoader(logger, cfg.Trading.DataDir),
		seq:       seq,
		snapshots: snapshot.NewService(gw, logger, auditLog),
		reporter:  report.NewReporter(db, logger, auditLog),
		logger:    logger,
		audit:     auditLog,
		sessionID: uuid.NewString(),
		startedAt: time.Now(),
	}
}

// SessionID returns the identifier written to every persisted record.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Connect establishes the gateway session and applies the session-level
// paper-account check. Connection failure is fatal for the whole run.
func (r *Runner) Connect(ctx context.Context) error {
	r.audit.Section(fmt.Sprintf("NEW TRADING SESSION STARTED - %s", r.sessionID))
	if r.cfg.Safety.PaperTradingOnly {
		r.audit.Printf("[SAFETY MODE] Paper trading only")
	} else {
		r.audit.Printf("[WARNING] Live trading mode enabled!")
	}

	accounts, err := r.gw.Connect(ctx)
	if err != nil {
		return err
	}
	r.accounts = accounts
	r.audit.Printf("Connected accounts: %v", accounts)

	if r.cfg.Safety.PaperTradingOnly {
		check := safety.CheckAccounts(accounts)
		if !check.Paper {
			r.logger.Warn("Paper-account check failed", zap.Strings("accounts", accounts))
			r.audit.Printf("[WARNING] %s", check.Warning)
			if r.cfg.Safety.EnforcePaperAccount {
				return fmt.Errorf("paper trading enforced but %s", check.Warning)
			}
		}
	}
	return nil
}

// Load reads the instruction batch and writes a preview to the audit log.
// Loader errors are fatal: no valid instructions exist to submit.
func (r *Runner) Load() ([]instruction.TradeInstruction, error) {
	instructions, err := r.loader.Load(r.cfg.Trading.InstructionFile)
	if err != nil {
		return nil, err
	}

	if len(instructions) == 0 {
		r.audit.Printf("[NO TRADES] No trades found in source to process")
		return instructions, nil
	}

	r.audit.Section(fmt.Sprintf("TRADES TO PROCESS: %d order(s)", len(instructions)))
	for i, inst := range instructions {
		r.audit.Printf("  %d. %s", i+1, inst.Describe())
	}
	return instructions, nil
}

// Execute runs the submission phase bracketed by snapshots and persists the
// summary. Snapshot failures degrade the summary but never block submission.
func (r *Runner) Execute(ctx context.Context, instructions []instruction.TradeInstruction) (report.SessionSummary, error) {
	r.audit.Printf("--- BEFORE TRADING ---")
	before := r.takeSnapshots(ctx)

	r.audit.Printf("--- PROCESSING ORDERS ---")
	orders := r.seq.Run(ctx, instructions)

	// Let submitted orders reach a stable status before the after snapshot.
	if anySubmitted(orders) && r.cfg.Trading.SettleWait > 0 {
		r.logger.Info("Waiting for orders to settle",
			zap.Duration("settle_wait", r.cfg.Trading.SettleWait))
		select {
		case <-ctx.Done():
		case <-time.After(r.cfg.Trading.SettleWait):
		}
		r.seq.RefreshStatuses(ctx, orders)
	}

	r.audit.Printf("--- AFTER TRADING ---")
	after := r.takeSnapshots(ctx)

	summary := report.Summarize(r.sessionID, r.startedAt, before, after, orders)
	if err := r.reporter.Persist(summary, orders); err != nil {
		r.logger.Error("Failed to persist session summary", zap.Error(err))
		return summary, err
	}
	return summary, nil
}

// Shutdown releases the gateway connection.
func (r *Runner) Shutdown(ctx context.Context) {
	r.audit.Printf("Shutting down...")
	if err := r.gw.Disconnect(ctx); err != nil {
		r.logger.Error("Error disconnecting from gateway", zap.Error(err))
	}
	r.audit.Printf("[COMPLETE] System shutdown complete")
}

func (r *Runner) takeSnapshots(ctx context.Context) report.Snapshots {
	snaps := report.Snapshots{}

	positions, err := r.snapshots.Positions(ctx)
	if err == nil {
		snaps.Positions = positions
	}
	account, err := r.snapshots.Account(ctx)
	if err == nil {
		snaps.Account = account
	}
	return snaps
}

func anySubmitted(orders []*sequencer.SubmittedOrder) bool {
	for _, order := range orders {
		if order.GatewayOrderID != 0 {
			return true
		}
	}
	return false
}
