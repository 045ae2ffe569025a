package gateway

import "github.com/shopspring/decimal"

// ContractSpec identifies the instrument an order trades.
type ContractSpec struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// OrderSpec is the gateway-native order request.
type OrderSpec struct {
	Action      string              `json:"action"`
	Quantity    int64               `json:"totalQuantity"`
	OrderType   string              `json:"orderType"`
	LimitPrice  decimal.NullDecimal `json:"lmtPrice"`
	StopPrice   decimal.NullDecimal `json:"auxPrice"`
	TimeInForce string              `json:"tif"`
	Account     string              `json:"account,omitempty"`
}

// PlaceOrderResponse is the gateway's reply to an order placement.
type PlaceOrderResponse struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

// OrderStatusResponse reports the current lifecycle status of an order.
type OrderStatusResponse struct {
	OrderID   int64           `json:"orderId"`
	Status    string          `json:"status"`
	Filled    decimal.Decimal `json:"filled"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Gateway order statuses this client distinguishes.
const (
	StatusPendingSubmit = "PendingSubmit"
	StatusPreSubmitted  = "PreSubmitted"
	StatusSubmitted     = "Submitted"
	StatusFilled        = "Filled"
	StatusCancelled     = "Cancelled"
	StatusRejected      = "Rejected"
	StatusInactive      = "Inactive"
)

// Position is a read-only copy of one open position.
type Position struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"position"`
	AvgCost  decimal.Decimal `json:"avgCost"`
}

// AccountValue is one tagged account metric, e.g. NetLiquidation.
type AccountValue struct {
	Tag      string `json:"tag"`
	Value    string `json:"value"`
	Currency string `json:"currency"`
}
