package instruction

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Order actions accepted in the instruction source.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Order types accepted in the instruction source.
const (
	OrderTypeMarket    = "MKT"
	OrderTypeLimit     = "LMT"
	OrderTypeStop      = "STP"
	OrderTypeStopLimit = "STP LMT"
)

// Defaults applied when an optional column is absent or unparseable.
const (
	DefaultExchange    = "SMART"
	DefaultCurrency    = "USD"
	DefaultTimeInForce = "DAY"
)

// TradeInstruction is one validated row of the instruction source.
// It is immutable once parsed; downstream components operate on it as-is.
type TradeInstruction struct {
	Symbol      string
	Exchange    string
	Currency    string
	Action      string
	Quantity    int64
	OrderType   string
	LimitPrice  decimal.NullDecimal
	StopPrice   decimal.NullDecimal
	TimeInForce string
	Account     string
}

// Describe renders the instruction for preview and audit lines,
// e.g. "BUY 100 shares of AAPL @ LMT (Limit: $189.50)".
func (t TradeInstruction) Describe() string {
	s := fmt.Sprintf("%s %d shares of %s @ %s", t.Action, t.Quantity, t.Symbol, t.OrderType)
	if t.OrderType == OrderTypeLimit && t.LimitPrice.Valid {
		s += fmt.Sprintf(" (Limit: $%s)", t.LimitPrice.Decimal.StringFixed(2))
	}
	return s
}
