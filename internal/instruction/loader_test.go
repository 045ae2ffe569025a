package instruction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeCSV drops a source file into a temp dir and returns its path.
func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_RequiredColumnsAndDefaults(t *testing.T) {
	path := writeCSV(t,
		"Symbol,Action,Quantity,OrderType\n"+
			"AAPL,BUY,100,MKT\n"+
			"MSFT,sell,50,LMT\n",
	)

	loader := NewLoader(zap.NewNop(), "")
	instructions, err := loader.Load(path)

	assert.NoError(t, err)
	require.Len(t, instructions, 2)

	assert.Equal(t, "AAPL", instructions[0].Symbol)
	assert.Equal(t, ActionBuy, instructions[0].Action)
	assert.Equal(t, int64(100), instructions[0].Quantity)
	assert.Equal(t, DefaultExchange, instructions[0].Exchange)
	assert.Equal(t, DefaultCurrency, instructions[0].Currency)
	assert.Equal(t, DefaultTimeInForce, instructions[0].TimeInForce)

	// Action is normalized to upper case.
	assert.Equal(t, ActionSell, instructions[1].Action)
	// No LmtPrice column: the limit price is simply absent.
	assert.False(t, instructions[1].LimitPrice.Valid)
}

func TestLoad_OptionalColumns(t *testing.T) {
	path := writeCSV(t,
		"Symbol,Action,Quantity,OrderType,Exchange,Currency,LmtPrice,AuxPrice,TimeInForce,Account\n"+
			"SPY,BUY,10,LMT,ISLAND/NYSE,USD,450.25,,GTC,DU1234567\n"+
			"QQQ,SELL,5,STP,,,,380.10,,\n",
	)

	loader := NewLoader(zap.NewNop(), "")
	instructions, err := loader.Load(path)

	assert.NoError(t, err)
	require.Len(t, instructions, 2)

	lmt := instructions[0]
	assert.Equal(t, "ISLAND/NYSE", lmt.Exchange)
	assert.Equal(t, "GTC", lmt.TimeInForce)
	assert.Equal(t, "DU1234567", lmt.Account)
	require.True(t, lmt.LimitPrice.Valid)
	assert.Equal(t, "450.25", lmt.LimitPrice.Decimal.String())
	assert.False(t, lmt.StopPrice.Valid)

	stp := instructions[1]
	assert.Equal(t, DefaultExchange, stp.Exchange)
	require.True(t, stp.StopPrice.Valid)
	assert.Equal(t, "380.1", stp.StopPrice.Decimal.String())
}

func TestLoad_UnparseableOptionalFallsBack(t *testing.T) {
	path := writeCSV(t,
		"Symbol,Action,Quantity,OrderType,LmtPrice\n"+
			"AAPL,BUY,100,LMT,not-a-price\n",
	)

	loader := NewLoader(zap.NewNop(), "")
	instructions, err := loader.Load(path)

	// A bad optional field never fails the whole load.
	assert.NoError(t, err)
	require.Len(t, instructions, 1)
	assert.False(t, instructions[0].LimitPrice.Valid)
}

func TestLoad_SchemaErrors(t *testing.T) {
	loader := NewLoader(zap.NewNop(), "")

	t.Run("MissingRequiredColumn", func(t *testing.T) {
		path := writeCSV(t, "Symbol,Action,OrderType\nAAPL,BUY,MKT\n")
		_, err := loader.Load(path)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, "Quantity", schemaErr.Column)
	})

	t.Run("NonNumericQuantity", func(t *testing.T) {
		path := writeCSV(t, "Symbol,Action,Quantity,OrderType\nAAPL,BUY,lots,MKT\n")
		_, err := loader.Load(path)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, 1, schemaErr.Row)
	})

	t.Run("NonPositiveQuantity", func(t *testing.T) {
		path := writeCSV(t, "Symbol,Action,Quantity,OrderType\nAAPL,BUY,0,MKT\n")
		_, err := loader.Load(path)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
	})
}

func TestLoad_SourceNotFound(t *testing.T) {
	loader := NewLoader(zap.NewNop(), "")
	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoad_DataDirFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.csv"),
		[]byte("Symbol,Action,Quantity,OrderType\nAAPL,BUY,1,MKT\n"), 0o644))

	loader := NewLoader(zap.NewNop(), dir)
	instructions, err := loader.Load("orders.csv")

	assert.NoError(t, err)
	assert.Len(t, instructions, 1)
}

func TestLoad_PreservesRowOrderAndIsIdempotent(t *testing.T) {
	path := writeCSV(t,
		"Symbol,Action,Quantity,OrderType\n"+
			"MSFT,SELL,1,MKT\n"+
			"AAPL,BUY,2,MKT\n"+
			"SPY,BUY,3,MKT\n",
	)

	loader := NewLoader(zap.NewNop(), "")
	first, err := loader.Load(path)
	require.NoError(t, err)
	second, err := loader.Load(path)
	require.NoError(t, err)

	// Row order is submission order downstream, so it must be preserved,
	// and reloading the same source must yield the identical sequence.
	symbols := []string{"MSFT", "AAPL", "SPY"}
	for i, inst := range first {
		assert.Equal(t, symbols[i], inst.Symbol)
	}
	assert.Equal(t, first, second)
}
