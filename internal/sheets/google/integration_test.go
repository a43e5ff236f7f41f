//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfiance/internal/amqp"
	"myfiance/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendLedgerRows(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewFromEnv(ctx, spreadsheetID, "LedgerIntegration")
	if err != nil {
		t.Skipf("credentials not configured: %v", err)
	}

	tx := core.Transaction{
		ID:          time.Now().Unix(),
		Description: "Integration test row",
		Date:        core.NewDate(2026, 1, 1),
		Amount:      core.NewAmount(1),
		Type:        core.Expense,
		Category:    core.Category{ID: 1, Name: "Test"},
	}

	ref, err := client.AppendEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionCreated, tx))
	require.NoError(t, err)
	assert.Contains(t, ref, "LedgerIntegration!")

	ref, err = client.AppendEvent(ctx, amqp.NewDeletedEvent(tx.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
}
