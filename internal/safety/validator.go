// Package safety applies the pre-submission guardrails. Validation is a
// pure function of the instruction and the configured limits; it never
// touches the gateway.
package safety

import (
	"fmt"
	"strings"

	"ib-batch-trader-go/internal/instruction"
)

// Limits are the session-wide guardrail settings.
type Limits struct {
	// MaxOrderSize is the largest quantity a single order may carry.
	// The boundary is inclusive: quantity == MaxOrderSize is accepted.
	MaxOrderSize int64
}

// ValidationResult is the outcome of validating one instruction.
// It is created once and never mutated afterwards.
type ValidationResult struct {
	Instruction instruction.TradeInstruction
	Accepted    bool
	Reason      string
}

// Validator checks instructions against the configured limits.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator with the given limits.
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate applies the per-instruction guardrails.
func (v *Validator) Validate(inst instruction.TradeInstruction) ValidationResult {
	if inst.Quantity > v.limits.MaxOrderSize {
		return ValidationResult{
			Instruction: inst,
			Accepted:    false,
			Reason: fmt.Sprintf("order size %d exceeds maximum %d",
				inst.Quantity, v.limits.MaxOrderSize),
		}
	}
	return ValidationResult{Instruction: inst, Accepted: true}
}

// Substrings that mark an account identifier as a paper-trading account.
var paperAccountMarkers = []string{"paper", "df", "du"}

// AccountCheck is the session-level paper-trading assessment.
type AccountCheck struct {
	Paper   bool
	Warning string
}

// CheckAccounts inspects the connected account identifiers for the known
// paper-trading naming patterns. The result is advisory: whether it blocks
// the session is the caller's configuration choice, since real enforcement
// of paper-only mode belongs to the gateway connection itself.
func CheckAccounts(accounts []string) AccountCheck {
	if len(accounts) == 0 {
		return AccountCheck{Paper: true}
	}
	for _, acc := range accounts {
		lower := strings.ToLower(acc)
		for _, marker := range paperAccountMarkers {
			if strings.Contains(lower, marker) {
				return AccountCheck{Paper: true}
			}
		}
	}
	return AccountCheck{
		Paper:   false,
		Warning: fmt.Sprintf("accounts %v do not match any paper-trading pattern; this may be a live account", accounts),
	}
}
