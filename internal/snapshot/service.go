// Package snapshot captures read-only position and account snapshots,
// taken before and after the submission phase for drift reporting.
package snapshot

import (
	"context"

	"go.uber.org/zap"

	"ib-batch-trader-go/internal/audit"
	"ib-batch-trader-go/internal/gateway"
)

// queryGateway is the slice of the gateway API the snapshot service needs.
type queryGateway interface {
	Positions(ctx context.Context) ([]gateway.Position, error)
	AccountSummary(ctx context.Context) ([]gateway.AccountValue, error)
}

// Metric is one account figure with its currency.
type Metric struct {
	Value    string
	Currency string
}

// AccountSnapshot is a point-in-time copy of the account metrics.
type AccountSnapshot struct {
	Metrics map[string]Metric
}

// The metrics worth surfacing in the audit log.
var keyMetrics = []string{"NetLiquidation", "TotalCashValue", "BuyingPower", "GrossPositionValue"}

// Service queries positions and account metrics from the gateway.
// Query failures degrade observability, not order placement: callers treat
// a returned error as non-fatal.
type Service struct {
	gw     queryGateway
	logger *zap.Logger
	audit  *audit.Log
}

// NewService creates a snapshot service.
func NewService(gw queryGateway, logger *zap.Logger, auditLog *audit.Log) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gw: gw, logger: logger, audit: auditLog}
}

// Positions fetches the open positions and writes a table to the audit log.
func (s *Service) Positions(ctx context.Context) ([]gateway.Position, error) {
	positions, err := s.gw.Positions(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch positions", zap.Error(err))
		s.audit.Printf("[ERROR] Fetching positions failed: %v", err)
		return nil, err
	}

	if len(positions) == 0 {
		s.audit.Printf("No open positions found")
		return positions, nil
	}

	// Unrealized P&L is omitted: computing it needs a market price this
	// system does not fetch.
	s.audit.Printf("%-10s %12s %14s %16s", "Symbol", "Quantity", "Avg Cost", "Market Value")
	for _, pos := range positions {
		marketValue := pos.Quantity.Mul(pos.AvgCost)
		s.audit.Printf("%-10s %12s %14s %16s",
			pos.Symbol,
			pos.Quantity.StringFixed(0),
			"$"+pos.AvgCost.StringFixed(2),
			"$"+marketValue.StringFixed(2),
		)
	}

	s.logger.Info("Fetched positions", zap.Int("count", len(positions)))
	return positions, nil
}

// Account fetches the account summary, keeping all metrics and auditing the
// key ones.
func (s *Service) Account(ctx context.Context) (*AccountSnapshot, error) {
	values, err := s.gw.AccountSummary(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch account summary", zap.Error(err))
		s.audit.Printf("[ERROR] Fetching account summary failed: %v", err)
		return nil, err
	}

	snap := &AccountSnapshot{Metrics: make(map[string]Metric, len(values))}
	for _, v := range values {
		snap.Metrics[v.Tag] = Metric{Value: v.Value, Currency: v.Currency}
	}

	s.audit.Printf("Account summary:")
	for _, tag := range keyMetrics {
		if m, ok := snap.Metrics[tag]; ok {
			s.audit.Printf("  %s: %s %s", tag, m.Value, m.Currency)
		}
	}

	return snap, nil
}
