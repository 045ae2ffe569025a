package sequencer

import (
	"time"

	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/instruction"
)

// OrderState is one step of the per-order lifecycle:
// Created -> Validated -> Submitted -> Acknowledged -> {Filled, Cancelled, Rejected}.
type OrderState string

const (
	StateCreated      OrderState = "Created"
	StateValidated    OrderState = "Validated"
	StateSubmitted    OrderState = "Submitted"
	StateAcknowledged OrderState = "Acknowledged"
	StateFilled       OrderState = "Filled"
	StateCancelled    OrderState = "Cancelled"
	StateRejected     OrderState = "Rejected"
)

// Terminal reports whether no further transition happens within the session.
func (s OrderState) Terminal() bool {
	return s == StateFilled || s == StateCancelled || s == StateRejected
}

// RejectionSource distinguishes who turned an order down.
type RejectionSource string

const (
	RejectedBySafety  RejectionSource = "safety"
	RejectedByGateway RejectionSource = "gateway"
)

// SubmittedOrder is the lifecycle record for one instruction. It is created
// and updated only by the Sequencer.
type SubmittedOrder struct {
	Instruction    instruction.TradeInstruction
	GatewayOrderID int64 // 0 until the gateway assigns one
	State          OrderState
	RejectedBy     RejectionSource
	RejectReason   string
	SubmittedAt    time.Time
	LastUpdatedAt  time.Time
}

func (o *SubmittedOrder) transition(state OrderState, now time.Time) {
	o.State = state
	o.LastUpdatedAt = now
}

func (o *SubmittedOrder) reject(by RejectionSource, reason string, now time.Time) {
	o.RejectedBy = by
	o.RejectReason = reason
	o.transition(StateRejected, now)
}

// stateForStatus maps a gateway order status onto the lifecycle.
// Unknown statuses leave the order where it is.
func stateForStatus(status string) (OrderState, bool) {
	switch status {
	case gateway.StatusSubmitted, gateway.StatusPreSubmitted:
		return StateAcknowledged, true
	case gateway.StatusFilled:
		return StateFilled, true
	case gateway.StatusCancelled:
		return StateCancelled, true
	case gateway.StatusRejected, gateway.StatusInactive:
		return StateRejected, true
	default:
		return "", false
	}
}
