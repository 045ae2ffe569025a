// Package sequencer submits translated orders to the gateway one at a time,
// tracking each order's lifecycle and aggregating outcomes. One order's
// failure never aborts the batch.
package sequencer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ib-batch-trader-go/internal/audit"
	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/instruction"
	"ib-batch-trader-go/internal/safety"
	"ib-batch-trader-go/internal/translate"
)

// orderGateway is the slice of the gateway API the sequencer needs.
type orderGateway interface {
	PlaceOrder(ctx context.Context, contract gateway.ContractSpec, order gateway.OrderSpec) (*gateway.PlaceOrderResponse, error)
	OrderStatus(ctx context.Context, orderID int64) (*gateway.OrderStatusResponse, error)
}

// Options control the pacing of a batch run.
type Options struct {
	// OrderDelay is the fixed delay between submissions, keeping the
	// audit log strictly ordered and respecting gateway throughput limits.
	OrderDelay time.Duration
	// AckWait bounds how long to wait for an order acknowledgment before
	// moving on. A timeout is non-fatal: the order stays Submitted.
	AckWait time.Duration
	// AckPoll is the status polling interval within AckWait.
	AckPoll time.Duration
}

// Sequencer runs a validated instruction batch against the gateway.
type Sequencer struct {
	gw        orderGateway
	validator *safety.Validator
	logger    *zap.Logger
	audit     *audit.Log
	opts      Options
}

// NewSequencer creates a sequencer.
func NewSequencer(gw orderGateway, validator *safety.Validator, opts Options, logger *zap.Logger, auditLog *audit.Log) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		gw:        gw,
		validator: validator,
		logger:    logger,
		audit:     auditLog,
		opts:      opts,
	}
}

// Run submits the instructions strictly in input order, one at a time.
// Every attempted instruction yields exactly one SubmittedOrder record;
// a cancelled context stops further submissions and leaves already-submitted
// orders live at the gateway.
func (s *Sequencer) Run(ctx context.Context, instructions []instruction.TradeInstruction) []*SubmittedOrder {
	orders := make([]*SubmittedOrder, 0, len(instructions))

	for i, inst := range instructions {
		select {
		case <-ctx.Done():
			s.logger.Warn("Batch interrupted, stopping further submissions",
				zap.Int("submitted", len(orders)),
				zap.Int("remaining", len(instructions)-i),
			)
			s.audit.Printf("[INTERRUPTED] Batch stopped after %d of %d instructions", i, len(instructions))
			return orders
		default:
		}

		s.logger.Info("Processing instruction",
			zap.Int("index", i+1),
			zap.Int("total", len(instructions)),
			zap.String("instruction", inst.Describe()),
		)
		s.audit.Printf("Processing order %d/%d...", i+1, len(instructions))

		order := &SubmittedOrder{Instruction: inst, State: StateCreated, LastUpdatedAt: time.Now()}
		orders = append(orders, order)

		result := s.validator.Validate(inst)
		if !result.Accepted {
			order.reject(RejectedBySafety, result.Reason, time.Now())
			s.logger.Warn("Instruction rejected by safety guardrail",
				zap.String("symbol", inst.Symbol),
				zap.String("reason", result.Reason),
			)
			s.audit.Printf("[REJECTED] %s: %s", inst.Describe(), result.Reason)
			continue
		}
		order.transition(StateValidated, time.Now())

		s.submit(ctx, order)

		// Fixed pacing delay between gateway submissions.
		if s.opts.OrderDelay > 0 && i < len(instructions)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(s.opts.OrderDelay):
			}
		}
	}

	return orders
}

// submit places a single order and waits (bounded) for its acknowledgment.
func (s *Sequencer) submit(ctx context.Context, order *SubmittedOrder) {
	inst := order.Instruction
	contract, spec := translate.Translate(inst)

	s.audit.Printf("Placing %s order: %s", spec.Action, inst.Describe())

	resp, err := s.gw.PlaceOrder(ctx, contract, spec)
	if err != nil {
		// Continue-on-error: record the failure, no retry, move on.
		order.reject(RejectedByGateway, err.Error(), time.Now())
		s.logger.Error("Order placement failed",
			zap.String("symbol", inst.Symbol),
			zap.Error(err),
		)
		s.audit.Printf("[ERROR] Placing order for %s failed: %v", inst.Symbol, err)
		return
	}

	now := time.Now()
	order.GatewayOrderID = resp.OrderID
	order.SubmittedAt = now
	order.transition(StateSubmitted, now)
	s.audit.Printf("Order placed - ID: %d, status: %s", resp.OrderID, resp.Status)

	s.applyStatus(order, resp.Status)
	if order.State == StateSubmitted {
		s.awaitAck(ctx, order)
	}
}

// awaitAck polls the order status until the gateway acknowledges it or the
// bounded wait expires. On timeout the order simply remains Submitted with
// unknown final status.
func (s *Sequencer) awaitAck(ctx context.Context, order *SubmittedOrder) {
	if s.opts.AckWait <= 0 {
		return
	}
	poll := s.opts.AckPoll
	if poll <= 0 {
		poll = 200 * time.Millisecond
	}

	deadline := time.NewTimer(s.opts.AckWait)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			s.logger.Warn("Acknowledgment wait timed out",
				zap.Int64("order_id", order.GatewayOrderID),
			)
			return
		case <-ticker.C:
			status, err := s.gw.OrderStatus(ctx, order.GatewayOrderID)
			if err != nil {
				s.logger.Debug("Order status poll failed", zap.Error(err))
				continue
			}
			s.applyStatus(order, status.Status)
			if order.State != StateSubmitted {
				return
			}
		}
	}
}

// RefreshStatuses makes one best-effort status pass over non-terminal
// submitted orders, recording whatever terminal state has been reached by
// session end. It never blocks waiting for fills.
func (s *Sequencer) RefreshStatuses(ctx context.Context, orders []*SubmittedOrder) {
	for _, order := range orders {
		if order.GatewayOrderID == 0 || order.State.Terminal() {
			continue
		}
		status, err := s.gw.OrderStatus(ctx, order.GatewayOrderID)
		if err != nil {
			s.logger.Warn("Final status refresh failed",
				zap.Int64("order_id", order.GatewayOrderID),
				zap.Error(err),
			)
			continue
		}
		s.applyStatus(order, status.Status)
	}
}

func (s *Sequencer) applyStatus(order *SubmittedOrder, status string) {
	state, ok := stateForStatus(status)
	if !ok || state == order.State {
		return
	}
	if state == StateRejected {
		order.reject(RejectedByGateway, "gateway reported status "+status, time.Now())
		s.audit.Printf("[ERROR] Order %d rejected by gateway (status %s)", order.GatewayOrderID, status)
		return
	}
	order.transition(state, time.Now())
	s.logger.Info("Order status updated",
		zap.Int64("order_id", order.GatewayOrderID),
		zap.String("state", string(state)),
	)
}
