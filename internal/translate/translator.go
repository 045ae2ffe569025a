// Package translate maps validated trade instructions to gateway-native
// contract/order pairs. Translation is pure and never fails: malformed
// instructions are the loader's and validator's problem upstream, and a
// request the gateway cannot accept is the gateway's to reject.
package translate

import (
	"strings"

	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/instruction"
)

// Translate builds the gateway contract and order specs for one instruction.
func Translate(inst instruction.TradeInstruction) (gateway.ContractSpec, gateway.OrderSpec) {
	contract := gateway.ContractSpec{
		Symbol: inst.Symbol,
		// Some sources list several venues, e.g. "ISLAND/NYSE"; the
		// gateway wants a single routing destination.
		Exchange: firstExchange(inst.Exchange),
		Currency: inst.Currency,
	}

	order := gateway.OrderSpec{
		Action:      inst.Action,
		Quantity:    inst.Quantity,
		OrderType:   inst.OrderType,
		TimeInForce: inst.TimeInForce,
		Account:     inst.Account,
	}

	// Prices pass through only for the order types that use them. An LMT
	// instruction missing its limit price still translates without one;
	// rejecting it is the gateway's call, not silent correction here.
	if inst.OrderType == instruction.OrderTypeLimit {
		order.LimitPrice = inst.LimitPrice
	}
	if inst.OrderType == instruction.OrderTypeStop || inst.OrderType == instruction.OrderTypeStopLimit {
		order.StopPrice = inst.StopPrice
	}

	return contract, order
}

func firstExchange(exchange string) string {
	if exchange == "" {
		return instruction.DefaultExchange
	}
	if i := strings.Index(exchange, "/"); i >= 0 {
		return exchange[:i]
	}
	return exchange
}
