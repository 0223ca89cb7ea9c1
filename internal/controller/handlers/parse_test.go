package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
)

func TestIsCommand(t *testing.T) {
	tests := []struct {
		text string
		name string
		want bool
	}{
		{"/add ball 2", "add", true},
		{"/add", "add", true},
		{"/add@desk_bot ball 2", "add", true},
		{"/add\nball 2", "add", true},
		{"/addx ball", "add", false},
		{"/item_add ball 2", "add", false},
		{"add ball", "add", false},
		{"", "add", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCommand(tt.text, tt.name))
		})
	}
}

func TestParseCheckin(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    progress.Intent
		wantErr bool
	}{
		{
			name: "simple facility",
			text: "/checkin pool 12 2",
			want: progress.Intent{Facility: "pool", Counts: model.Counts{Students: 12, Staff: 2}},
		},
		{
			name: "compound with note",
			text: "/checkin Outdoor Tennis 4 1 lights broken",
			want: progress.Intent{Facility: "outdoor", Sub: "tennis", Counts: model.Counts{Students: 4, Staff: 1}, Note: "lights broken"},
		},
		{name: "too few", text: "/checkin pool 3", wantErr: true},
		{name: "sub without counts", text: "/checkin outdoor tennis 3", wantErr: true},
		{name: "bad staff", text: "/checkin pool 3 x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCheckin(commandArgs(tt.text))
			if tt.wantErr {
				assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFeedback(t *testing.T) {
	fac, payload, err := ParseFeedback(commandArgs("/feedback POOL drain is clogged"))
	require.NoError(t, err)
	assert.Equal(t, "pool", fac)
	assert.Equal(t, "drain is clogged", payload.Problems)

	_, _, err = ParseFeedback(nil)
	assert.Error(t, err)
}

func TestParseItemQty(t *testing.T) {
	name, qty, err := ParseItemQty(commandArgs("/add table tennis bat 3"), usageAdd)
	require.NoError(t, err)
	assert.Equal(t, "table tennis bat", name)
	assert.Equal(t, 3, qty)

	_, _, err = ParseItemQty(commandArgs("/add ball"), usageAdd)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, _, err = ParseItemQty(commandArgs("/add ball many"), usageAdd)
	assert.Error(t, err)
}

func TestParseBorrower(t *testing.T) {
	prefill := model.Borrower{StudentID: "61234567", Phone: "0812345678", Faculty: "Science"}

	got, err := ParseBorrower(nil, prefill, true)
	require.NoError(t, err)
	assert.Equal(t, prefill, got)

	_, err = ParseBorrower(nil, model.Borrower{}, false)
	assert.Error(t, err)

	got, err = ParseBorrower([]string{"65000001", "0899999999", "Fine", "Arts"}, prefill, true)
	require.NoError(t, err)
	assert.Equal(t, model.Borrower{StudentID: "65000001", Phone: "0899999999", Faculty: "Fine Arts"}, got)

	_, err = ParseBorrower([]string{"65000001"}, prefill, true)
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"2026-10-17", "6123"})
	require.NoError(t, err)
	assert.Equal(t, model.PendingFilter{StudentID: "6123", Date: "2026-10-17"}, f)

	f, err = ParseFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, model.PendingFilter{}, f)

	_, err = ParseFilter([]string{"a", "b", "c"})
	assert.Error(t, err)
}

func TestParseReturn(t *testing.T) {
	r, err := ParseReturn(commandArgs("/return 61234567 table tennis bat 2 2026-10-16"))
	require.NoError(t, err)
	assert.Equal(t, ReturnArgs{StudentID: "61234567", EquipmentName: "table tennis bat", Qty: 2, BorrowDate: "2026-10-16"}, r)

	r, err = ParseReturn(commandArgs("/return 61234567 ball 1"))
	require.NoError(t, err)
	assert.Equal(t, ReturnArgs{StudentID: "61234567", EquipmentName: "ball", Qty: 1}, r)

	_, err = ParseReturn(commandArgs("/return 61234567 ball"))
	assert.Error(t, err)
}

func TestResolveReturn(t *testing.T) {
	rows := []model.PendingReturn{
		{StudentID: "61234567", EquipmentName: "Ball", BorrowDate: "2026-10-16", BorrowedQty: 2, PendingQty: 2},
		{StudentID: "61234567", EquipmentName: "Ball", BorrowDate: "2026-10-17", BorrowedQty: 1, PendingQty: 1},
		{StudentID: "61234567", EquipmentName: "Net", BorrowDate: "2026-10-17", BorrowedQty: 1, PendingQty: 1},
		{StudentID: "612345678", EquipmentName: "Net", BorrowDate: "2026-10-15", BorrowedQty: 1, PendingQty: 1},
	}

	t.Run("single match without date", func(t *testing.T) {
		key, err := ResolveReturn(rows, ReturnArgs{StudentID: "61234567", EquipmentName: "net", Qty: 1})
		require.NoError(t, err)
		assert.Equal(t, model.PendingKey{StudentID: "61234567", EquipmentName: "Net", BorrowDate: "2026-10-17"}, key)
	})

	t.Run("ambiguous without date", func(t *testing.T) {
		_, err := ResolveReturn(rows, ReturnArgs{StudentID: "61234567", EquipmentName: "ball", Qty: 1})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		assert.Contains(t, err.Error(), "2026-10-16")
	})

	t.Run("date picks the row", func(t *testing.T) {
		key, err := ResolveReturn(rows, ReturnArgs{StudentID: "61234567", EquipmentName: "ball", Qty: 1, BorrowDate: "2026-10-16"})
		require.NoError(t, err)
		assert.Equal(t, model.Day("2026-10-16"), key.BorrowDate)
	})

	t.Run("unknown without date", func(t *testing.T) {
		_, err := ResolveReturn(rows, ReturnArgs{StudentID: "61234567", EquipmentName: "racket", Qty: 1})
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("unknown with date passes through", func(t *testing.T) {
		key, err := ResolveReturn(nil, ReturnArgs{StudentID: "6123-4567", EquipmentName: "racket", Qty: 1, BorrowDate: "2026-10-01"})
		require.NoError(t, err)
		assert.Equal(t, model.PendingKey{StudentID: "61234567", EquipmentName: "racket", BorrowDate: "2026-10-01"}, key)
	})
}

func TestParseStaffArgs(t *testing.T) {
	id, stock, name, err := ParseItemSet(commandArgs("/item_set 4 10 Volley ball"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, 10, stock)
	assert.Equal(t, "Volley ball", name)

	id, stock, name, err = ParseItemSet(commandArgs("/item_set 4 3"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
	assert.Equal(t, 3, stock)
	assert.Empty(t, name)

	id, delta, err := ParseItemAdjust(commandArgs("/item_adjust 7 -2"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, -2, delta)

	_, _, err = ParseItemAdjust(commandArgs("/item_adjust 7"))
	assert.Error(t, err)

	id, err = ParseID(commandArgs("/item_delete 9"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	_, err = ParseID(commandArgs("/item_delete x"))
	assert.Error(t, err)
}
