package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
)

func TestFormatProgress(t *testing.T) {
	cat := model.DefaultCatalog()
	st := model.NewDailyState("2026-10-17")
	st.Events = []model.CheckinEvent{
		{FacilityKey: "outdoor", SubKey: "tennis"},
		{FacilityKey: "pool"},
	}

	text := FormatProgress(st.Date, progress.Summarize(cat, st))
	assert.Contains(t, text, "2026-10-17")
	assert.Contains(t, text, "🟨 Outdoor courts (1/7)")
	assert.Contains(t, text, "missing: Basketball")
	assert.Contains(t, text, "✅ Swimming pool · feedback due")
	assert.Contains(t, text, "⬜ Track and field")
}

func TestFormatCart(t *testing.T) {
	assert.Contains(t, FormatCart(nil, model.Borrower{}, false), "empty")

	lines := []model.BorrowLine{{EquipmentName: "Ball", Qty: 5}}
	text := FormatCart(lines, model.Borrower{StudentID: "61234567", Faculty: "Science"}, true)
	assert.Contains(t, text, "Ball × 5")
	assert.Contains(t, text, "61234567")
}

func TestFormatPendingAndLedger(t *testing.T) {
	assert.Contains(t, FormatPending(nil), "Nothing pending")
	text := FormatPending([]model.PendingReturn{{
		StudentID: "61234567", EquipmentName: "Ball", Faculty: "Science",
		BorrowDate: "2026-10-17", BorrowedQty: 3, PendingQty: 1,
	}})
	assert.Contains(t, text, "2026-10-17 61234567: Ball 1/3 (Science)")

	text = FormatLedger([]model.LedgerDay{{
		Date: "2026-10-17", Total: 2,
		Rows: []model.LedgerRow{
			{Time: "09:00", StudentID: "61234567", EquipmentName: "Ball", Action: model.LedgerBorrow, Qty: 2},
			{Time: "11:30", StudentID: "61234567", EquipmentName: "Ball", Action: model.LedgerReturn, Qty: 2},
		},
	}})
	assert.Contains(t, text, "09:00 61234567 Ball +2")
	assert.Contains(t, text, "11:30 61234567 Ball -2")
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation",
			err:  apperr.New(apperr.CodeValidation, "cart is empty"),
			want: "❌ Cart is empty",
		},
		{
			name: "over stock",
			err: apperr.WithMetadata(apperr.CodeOverStock, "x", map[string]string{
				"item": "Ball", "available": "3", "requested": "5",
			}),
			want: "❌ Only 3 × Ball available, cart would hold 5.",
		},
		{
			name: "over return",
			err: apperr.WithMetadata(apperr.CodeOverReturn, "x", map[string]string{
				"pending": "2", "requested": "3",
			}),
			want: "❌ Return quantity must be between 1 and 2 (requested 3).",
		},
		{
			name: "network",
			err:  apperr.Wrap(apperr.CodeNetwork, "post", assert.AnError),
			want: "📡 The backend is unreachable right now. Please try again later.",
		},
		{
			name: "in progress",
			err:  apperr.ErrSubmissionInProgress,
			want: "⏳ A submission is already in progress, please wait.",
		},
		{
			name: "plain error",
			err:  assert.AnError,
			want: "❌ Something went wrong. Please try again later.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestAccess(t *testing.T) {
	open := NewAccess(nil, []int64{9})
	assert.True(t, open.Permits(1))
	assert.False(t, open.IsStaff(1))
	assert.True(t, open.IsStaff(9))

	closed := NewAccess([]int64{1}, []int64{9})
	assert.True(t, closed.Permits(1))
	assert.True(t, closed.Permits(9))
	assert.False(t, closed.Permits(2))
}

func TestStockLevelsFromMirror(t *testing.T) {
	items := []model.EquipmentItem{
		{ID: 1, Name: "Ball", Stock: 3, Total: 5},
		{ID: 2, Name: "Net", Stock: 0, Total: 2},
	}
	levels := StockLevels(items)
	assert.Equal(t, []model.StockLevel{{Name: "Ball", Stock: 3}, {Name: "Net", Stock: 0}}, levels)
	assert.Contains(t, FormatStock(levels), "• Ball: 3")
}
