package inventory

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

type ledgerKey struct {
	student string
	item    string
	day     model.Day
}

func keyOf(k model.PendingKey) ledgerKey {
	return ledgerKey{student: strings.TrimSpace(k.StudentID), item: NameKey(k.EquipmentName), day: k.BorrowDate}
}

// Ledger tracks outstanding borrows per (student, item, day).
type Ledger struct {
	rows map[ledgerKey]model.PendingReturn
}

func NewLedger(rows ...model.PendingReturn) *Ledger {
	l := &Ledger{}
	l.Replace(rows)
	return l
}

// Replace overwrites the ledger with the backend's view. Rows with nothing
// pending are dropped.
func (l *Ledger) Replace(rows []model.PendingReturn) {
	l.rows = make(map[ledgerKey]model.PendingReturn, len(rows))
	for _, r := range rows {
		if r.PendingQty <= 0 {
			continue
		}
		if r.BorrowedQty < r.PendingQty {
			r.BorrowedQty = r.PendingQty
		}
		k := keyOf(r.Key())
		if cur, ok := l.rows[k]; ok {
			r.BorrowedQty += cur.BorrowedQty
			r.PendingQty += cur.PendingQty
		}
		l.rows[k] = r
	}
}

// RecordBorrow creates the row for (student, item, day) or adds qty to both
// its borrowed and pending quantities.
func (l *Ledger) RecordBorrow(b model.Borrower, name string, day model.Day, qty int) model.PendingReturn {
	k := keyOf(model.PendingKey{StudentID: b.StudentID, EquipmentName: name, BorrowDate: day})
	r, ok := l.rows[k]
	if !ok {
		r = model.PendingReturn{StudentID: b.StudentID, EquipmentName: name, BorrowDate: day}
	}
	if b.Faculty != "" {
		r.Faculty = b.Faculty
	}
	if b.Phone != "" {
		r.Phone = b.Phone
	}
	r.BorrowedQty += qty
	r.PendingQty += qty
	l.rows[k] = r
	return r
}

func (l *Ledger) Get(key model.PendingKey) (model.PendingReturn, bool) {
	r, ok := l.rows[keyOf(key)]
	return r, ok
}

// CheckReturn validates a return of qty against the row without changing it.
func (l *Ledger) CheckReturn(key model.PendingKey, qty int) (model.PendingReturn, error) {
	r, ok := l.rows[keyOf(key)]
	if !ok {
		return model.PendingReturn{}, apperr.WithMetadata(apperr.CodeNotFound, "no pending return for this borrow",
			map[string]string{"student_id": key.StudentID, "item": key.EquipmentName, "date": key.BorrowDate.String()})
	}
	if qty < 1 || qty > r.PendingQty {
		return r, apperr.WithMetadata(apperr.CodeOverReturn, "return quantity out of range", map[string]string{
			"item":      r.EquipmentName,
			"pending":   strconv.Itoa(r.PendingQty),
			"requested": strconv.Itoa(qty),
		})
	}
	return r, nil
}

// ApplyReturn decrements the pending quantity and removes the row at zero.
// The returned row carries the remaining quantity.
func (l *Ledger) ApplyReturn(key model.PendingKey, qty int) (model.PendingReturn, error) {
	r, err := l.CheckReturn(key, qty)
	if err != nil {
		return r, err
	}
	r.PendingQty -= qty
	if r.PendingQty == 0 {
		delete(l.rows, keyOf(key))
	} else {
		l.rows[keyOf(key)] = r
	}
	return r, nil
}

// List filters rows by student-id substring and exact borrow date. Newest
// borrows come first.
func (l *Ledger) List(f model.PendingFilter) []model.PendingReturn {
	sid := strings.TrimSpace(f.StudentID)
	var out []model.PendingReturn
	for _, r := range l.rows {
		if sid != "" && !strings.Contains(r.StudentID, sid) {
			continue
		}
		if f.Date != "" && r.BorrowDate != f.Date {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BorrowDate != b.BorrowDate {
			return a.BorrowDate > b.BorrowDate
		}
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		return NameKey(a.EquipmentName) < NameKey(b.EquipmentName)
	})
	return out
}

// Outstanding sums pending quantity per folded item name.
func (l *Ledger) Outstanding(name string) int {
	key := NameKey(name)
	n := 0
	for k, r := range l.rows {
		if k.item == key {
			n += r.PendingQty
		}
	}
	return n
}

func (l *Ledger) Len() int { return len(l.rows) }
