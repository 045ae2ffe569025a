// Package report assembles and persists the end-of-session summary.
package report

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ib-batch-trader-go/internal/audit"
	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/models"
	"ib-batch-trader-go/internal/sequencer"
	"ib-batch-trader-go/internal/snapshot"
)

// SessionSummary aggregates one batch run. Built once at the end of the run
// and immutable thereafter.
type SessionSummary struct {
	SessionID  string
	StartedAt  time.Time
	FinishedAt time.Time

	OrdersAttempted        int
	OrdersAccepted         int
	OrdersRejectedBySafety int
	OrdersFailedAtGateway  int

	PositionsBefore []gateway.Position
	PositionsAfter  []gateway.Position
	AccountBefore   *snapshot.AccountSnapshot
	AccountAfter    *snapshot.AccountSnapshot
}

// Summarize counts the batch outcomes. Every order record counts exactly
// once: safety rejections and gateway rejections are distinguished by who
// turned the order down; everything that reached Submitted or beyond counts
// as accepted.
func Summarize(sessionID string, startedAt time.Time, before, after Snapshots, orders []*sequencer.SubmittedOrder) SessionSummary {
	summary := SessionSummary{
		SessionID:       sessionID,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
		OrdersAttempted: len(orders),
		PositionsBefore: before.Positions,
		PositionsAfter:  after.Positions,
		AccountBefore:   before.Account,
		AccountAfter:    after.Account,
	}

	for _, order := range orders {
		if order.State == sequencer.StateRejected {
			switch order.RejectedBy {
			case sequencer.RejectedBySafety:
				summary.OrdersRejectedBySafety++
			default:
				summary.OrdersFailedAtGateway++
			}
			continue
		}
		summary.OrdersAccepted++
	}

	return summary
}

// Snapshots bundles the position and account snapshots taken at one point.
// Either part may be nil when the corresponding query failed.
type Snapshots struct {
	Positions []gateway.Position
	Account   *snapshot.AccountSnapshot
}

// Reporter persists session summaries to the audit log and the database.
type Reporter struct {
	db     *gorm.DB
	logger *zap.Logger
	audit  *audit.Log
}

// NewReporter creates a reporter. db may be nil, in which case only the
// audit log is written.
func NewReporter(db *gorm.DB, logger *zap.Logger, auditLog *audit.Log) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{db: db, logger: logger, audit: auditLog}
}

// Persist appends the summary to the audit log and stores the session and
// order records. Prior sessions are never rewritten.
func (r *Reporter) Persist(summary SessionSummary, orders []*sequencer.SubmittedOrder) error {
	r.audit.Section("TRADING SESSION SUMMARY")
	r.audit.Printf("Session: %s", summary.SessionID)
	r.audit.Printf("Orders attempted: %d", summary.OrdersAttempted)
	r.audit.Printf("Orders accepted: %d", summary.OrdersAccepted)
	r.audit.Printf("Orders rejected by safety: %d", summary.OrdersRejectedBySafety)
	r.audit.Printf("Orders failed at gateway: %d", summary.OrdersFailedAtGateway)

	if r.db == nil {
		return nil
	}

	record := models.SessionRecord{
		SessionUUID:            summary.SessionID,
		StartedAt:              summary.StartedAt,
		FinishedAt:             summary.FinishedAt,
		OrdersAttempted:        summary.OrdersAttempted,
		OrdersAccepted:         summary.OrdersAccepted,
		OrdersRejectedBySafety: summary.OrdersRejectedBySafety,
		OrdersFailedAtGateway:  summary.OrdersFailedAtGateway,
	}
	if err := r.db.Create(&record).Error; err != nil {
		return err
	}

	for _, order := range orders {
		orderRecord := models.OrderRecord{
			SessionUUID:    summary.SessionID,
			Symbol:         order.Instruction.Symbol,
			Action:         order.Instruction.Action,
			Quantity:       order.Instruction.Quantity,
			OrderType:      order.Instruction.OrderType,
			GatewayOrderID: order.GatewayOrderID,
			State:          string(order.State),
			RejectedBy:     string(order.RejectedBy),
			RejectReason:   order.RejectReason,
			SubmittedAt:    order.SubmittedAt,
		}
		if err := r.db.Create(&orderRecord).Error; err != nil {
			return err
		}
	}

	r.logger.Info("Session summary persisted",
		zap.String("session", summary.SessionID),
		zap.Int("orders", len(orders)),
	)
	return nil
}
