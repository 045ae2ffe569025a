package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ib-batch-trader-go/internal/audit"
	"ib-batch-trader-go/internal/gateway"
	"ib-batch-trader-go/internal/instruction"
	"ib-batch-trader-go/internal/models"
	"ib-batch-trader-go/internal/sequencer"
	"ib-batch-trader-go/internal/snapshot"
)

// setupDB creates a non-shared in-memory database for each test.
func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SessionRecord{}, &models.OrderRecord{}))
	return db
}

func order(symbol string, state sequencer.OrderState, by sequencer.RejectionSource) *sequencer.SubmittedOrder {
	return &sequencer.SubmittedOrder{
		Instruction: instruction.TradeInstruction{Symbol: symbol, Action: instruction.ActionBuy, Quantity: 1},
		State:       state,
		RejectedBy:  by,
	}
}

func TestSummarize_CountingRules(t *testing.T) {
	orders := []*sequencer.SubmittedOrder{
		order("AAPL", sequencer.StateAcknowledged, ""),
		order("MSFT", sequencer.StateRejected, sequencer.RejectedBySafety),
		order("SPY", sequencer.StateRejected, sequencer.RejectedByGateway),
		order("QQQ", sequencer.StateFilled, ""),
		order("IWM", sequencer.StateSubmitted, ""),
	}

	summary := Summarize("s-1", time.Now(), Snapshots{}, Snapshots{}, orders)

	assert.Equal(t, 5, summary.OrdersAttempted)
	assert.Equal(t, 1, summary.OrdersRejectedBySafety)
	assert.Equal(t, 1, summary.OrdersFailedAtGateway)
	// Everything that reached Submitted or beyond counts as accepted.
	assert.Equal(t, 3, summary.OrdersAccepted)
}

func TestSummarize_AllRejectedBatchStillCarriesSnapshots(t *testing.T) {
	before := Snapshots{
		Positions: []gateway.Position{{Symbol: "AAPL"}},
		Account:   &snapshot.AccountSnapshot{Metrics: map[string]snapshot.Metric{}},
	}
	after := Snapshots{
		Positions: []gateway.Position{{Symbol: "AAPL"}},
		Account:   &snapshot.AccountSnapshot{Metrics: map[string]snapshot.Metric{}},
	}
	orders := []*sequencer.SubmittedOrder{
		order("MSFT", sequencer.StateRejected, sequencer.RejectedBySafety),
	}

	summary := Summarize("s-2", time.Now(), before, after, orders)

	assert.Equal(t, 1, summary.OrdersAttempted)
	assert.Equal(t, 0, summary.OrdersAccepted)
	assert.NotNil(t, summary.AccountBefore)
	assert.NotNil(t, summary.AccountAfter)
	assert.Len(t, summary.PositionsBefore, 1)
	assert.Len(t, summary.PositionsAfter, 1)
}

func TestPersist_AppendsWithoutRewriting(t *testing.T) {
	db := setupDB(t)
	var buf bytes.Buffer
	reporter := NewReporter(db, zap.NewNop(), audit.NewWriter(&buf))

	first := Summarize("s-1", time.Now(), Snapshots{}, Snapshots{}, []*sequencer.SubmittedOrder{
		order("AAPL", sequencer.StateFilled, ""),
	})
	require.NoError(t, reporter.Persist(first, []*sequencer.SubmittedOrder{
		order("AAPL", sequencer.StateFilled, ""),
	}))

	second := Summarize("s-2", time.Now(), Snapshots{}, Snapshots{}, nil)
	require.NoError(t, reporter.Persist(second, nil))

	var sessions []models.SessionRecord
	require.NoError(t, db.Order("id").Find(&sessions).Error)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-1", sessions[0].SessionUUID)
	assert.Equal(t, "s-2", sessions[1].SessionUUID)

	var orderRecords []models.OrderRecord
	require.NoError(t, db.Where("session_uuid = ?", "s-1").Find(&orderRecords).Error)
	require.Len(t, orderRecords, 1)
	assert.Equal(t, "AAPL", orderRecords[0].Symbol)
	assert.Equal(t, string(sequencer.StateFilled), orderRecords[0].State)

	// Both summaries appear in the audit log, in order.
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("s-1")), bytes.Index(buf.Bytes(), []byte("s-2")))
	assert.Contains(t, out, "TRADING SESSION SUMMARY")
}

func TestPersist_NilDatabaseWritesAuditOnly(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(nil, zap.NewNop(), audit.NewWriter(&buf))

	summary := Summarize("s-3", time.Now(), Snapshots{}, Snapshots{}, nil)
	assert.NoError(t, reporter.Persist(summary, nil))
	assert.Contains(t, buf.String(), "Orders attempted: 0")
}
