package instruction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSourceNotFound is returned when the instruction source cannot be located.
var ErrSourceNotFound = errors.New("instruction source not found")

// SchemaError describes a structural problem in the instruction source:
// a missing required column, or a row whose quantity is not a positive integer.
type SchemaError struct {
	Row    int    // 1-based data row, 0 when the header itself is bad
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("instruction schema error: column %s: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("instruction schema error: row %d, column %s: %s", e.Row, e.Column, e.Reason)
}

// Columns that must be present in the source header.
var requiredColumns = []string{"Symbol", "Action", "Quantity", "OrderType"}

// Loader reads trade instructions from a CSV source.
type Loader struct {
	logger *zap.Logger
	// dataDir is searched when the source path itself does not exist.
	dataDir string
}

// NewLoader creates an instruction loader. dataDir may be empty.
func NewLoader(logger *zap.Logger, dataDir string) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger, dataDir: dataDir}
}

// Load parses the source into an ordered instruction sequence.
// Row order is preserved: it determines submission order downstream.
func (l *Loader) Load(path string) ([]TradeInstruction, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open instruction source %s: %w", resolved, err)
	}
	defer f.Close()

	l.logger.Info("Reading instructions", zap.String("source", resolved))
	instructions, err := l.parse(f)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Instruction source loaded", zap.Int("count", len(instructions)))
	return instructions, nil
}

// resolve locates the source file, falling back to the configured data
// directory when the path alone does not exist.
func (l *Loader) resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if l.dataDir != "" {
		candidate := filepath.Join(l.dataDir, filepath.Base(path))
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSourceNotFound, path)
}

func (l *Loader) parse(r io.Reader) ([]TradeInstruction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &SchemaError{Column: name, Reason: "required column missing"}
		}
	}

	var instructions []TradeInstruction
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read instruction row: %w", err)
		}
		row++

		inst, err := parseRow(cols, record, row)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inst)
	}

	return instructions, nil
}

func parseRow(cols map[string]int, record []string, row int) (TradeInstruction, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	quantity, err := strconv.ParseInt(field("Quantity"), 10, 64)
	if err != nil {
		return TradeInstruction{}, &SchemaError{Row: row, Column: "Quantity", Reason: "quantity is not numeric"}
	}
	if quantity <= 0 {
		return TradeInstruction{}, &SchemaError{Row: row, Column: "Quantity", Reason: "quantity must be positive"}
	}

	inst := TradeInstruction{
		Symbol:      field("Symbol"),
		Action:      strings.ToUpper(field("Action")),
		Quantity:    quantity,
		OrderType:   normalizeOrderType(field("OrderType")),
		Exchange:    orDefault(field("Exchange"), DefaultExchange),
		Currency:    orDefault(field("Currency"), DefaultCurrency),
		TimeInForce: orDefault(field("TimeInForce"), DefaultTimeInForce),
		Account:     field("Account"),
	}

	// Unparseable optional prices fall back to "absent" rather than
	// failing the whole load.
	if inst.OrderType == OrderTypeLimit {
		inst.LimitPrice = parseOptionalPrice(field("LmtPrice"))
	}
	if inst.OrderType == OrderTypeStop || inst.OrderType == OrderTypeStopLimit {
		inst.StopPrice = parseOptionalPrice(field("AuxPrice"))
	}

	return inst, nil
}

func normalizeOrderType(s string) string {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return OrderTypeMarket
	}
	if t == "STP_LMT" {
		return OrderTypeStopLimit
	}
	return t
}

func parseOptionalPrice(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
