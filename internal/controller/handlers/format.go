package handlers

import (
	"fmt"
	"strings"

	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
)

var statusEmoji = map[progress.Status]string{
	progress.NotStarted: "⬜",
	progress.InProgress: "🟨",
	progress.Complete:   "✅",
}

// FormatProgress renders today's per-facility check-in summary.
func FormatProgress(day model.Day, items []progress.FacilityProgress) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Check-in progress for %s\n", day)
	for _, p := range items {
		fmt.Fprintf(&sb, "\n%s %s", statusEmoji[p.Status], p.Facility.DisplayName)
		if p.Facility.IsCompound() {
			fmt.Fprintf(&sb, " (%d/%d)", len(p.Done), len(p.Done)+len(p.Missing))
		}
		if p.Status == progress.Complete {
			if p.Feedback {
				sb.WriteString(" · feedback sent")
			} else {
				sb.WriteString(" · feedback due")
			}
		}
		if p.Facility.IsCompound() && len(p.Missing) > 0 && len(p.Done) > 0 {
			names := make([]string, 0, len(p.Missing))
			for _, k := range p.Missing {
				_, sub := model.SplitCompoundKey(k)
				names = append(names, p.Facility.SubName(sub))
			}
			fmt.Fprintf(&sb, "\n   missing: %s", strings.Join(names, ", "))
		}
	}
	return sb.String()
}

// FormatCatalog lists the facility and sub keys accepted by /checkin.
func FormatCatalog(cat model.Catalog) string {
	var sb strings.Builder
	sb.WriteString("Facilities:")
	for _, f := range cat.Facilities() {
		fmt.Fprintf(&sb, "\n• %s - %s", f.Key, f.DisplayName)
		if f.IsCompound() {
			fmt.Fprintf(&sb, "\n   subs: %s", strings.Join(f.SubKeys, ", "))
		}
	}
	return sb.String()
}

// FormatStock renders the public stock list.
func FormatStock(levels []model.StockLevel) string {
	if len(levels) == 0 {
		return "📦 No equipment in stock."
	}
	var sb strings.Builder
	sb.WriteString("📦 Equipment available:")
	for _, l := range levels {
		fmt.Fprintf(&sb, "\n• %s: %d", l.Name, l.Stock)
	}
	return sb.String()
}

// StockLevels reduces mirrored items to their public view.
func StockLevels(items []model.EquipmentItem) []model.StockLevel {
	out := make([]model.StockLevel, 0, len(items))
	for _, it := range items {
		out = append(out, model.StockLevel{Name: it.Name, Stock: it.Stock})
	}
	return out
}

// FormatItems renders the staff inventory with ids and totals.
func FormatItems(items []model.EquipmentItem) string {
	if len(items) == 0 {
		return "📦 The inventory is empty."
	}
	var sb strings.Builder
	sb.WriteString("📦 Inventory:")
	for _, it := range items {
		fmt.Fprintf(&sb, "\n#%d %s: %d/%d", it.ID, it.Name, it.Stock, it.Total)
	}
	return sb.String()
}

// FormatCart renders the cart with the borrower prefill, if any.
func FormatCart(lines []model.BorrowLine, b model.Borrower, hasBorrower bool) string {
	if len(lines) == 0 {
		return "🛒 The cart is empty. Add equipment with /add <item> <qty>."
	}
	var sb strings.Builder
	sb.WriteString("🛒 Cart:")
	for _, l := range lines {
		fmt.Fprintf(&sb, "\n• %s × %d", l.EquipmentName, l.Qty)
	}
	if hasBorrower {
		fmt.Fprintf(&sb, "\n\nLast borrower: %s (%s). Send /borrow to reuse.", b.StudentID, b.Faculty)
	} else {
		sb.WriteString("\n\nCommit with /borrow <student id> <phone> [faculty].")
	}
	return sb.String()
}

// FormatPending renders pending-return rows.
func FormatPending(rows []model.PendingReturn) string {
	if len(rows) == 0 {
		return "✅ Nothing pending return."
	}
	var sb strings.Builder
	sb.WriteString("↩️ Pending returns:")
	for _, r := range rows {
		fmt.Fprintf(&sb, "\n• %s %s: %s %d/%d", r.BorrowDate, r.StudentID, r.EquipmentName, r.PendingQty, r.BorrowedQty)
		if r.Faculty != "" {
			fmt.Fprintf(&sb, " (%s)", r.Faculty)
		}
	}
	return sb.String()
}

// FormatLedger renders the staff borrow-record report.
func FormatLedger(days []model.LedgerDay) string {
	if len(days) == 0 {
		return "📒 No borrow records."
	}
	var sb strings.Builder
	sb.WriteString("📒 Borrow records:")
	for _, d := range days {
		fmt.Fprintf(&sb, "\n\n%s (%d)", d.Date, d.Total)
		for _, r := range d.Rows {
			sign := "+"
			if r.Action == model.LedgerReturn {
				sign = "-"
			}
			fmt.Fprintf(&sb, "\n%s %s %s %s%d", r.Time, r.StudentID, r.EquipmentName, sign, r.Qty)
		}
	}
	return sb.String()
}
