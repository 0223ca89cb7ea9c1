package inventory

import (
	"strconv"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// Cart accumulates borrow lines before a commit. Lines for the same item merge.
type Cart struct {
	lines []model.BorrowLine
}

func NewCart() *Cart { return &Cart{} }

// AddLine merges qty into the line for name. The merged quantity may not exceed
// the stock currently known for the item.
func (c *Cart) AddLine(stock *Stock, name string, qty int) error {
	if qty < 1 {
		return apperr.New(apperr.CodeValidation, "quantity must be at least 1")
	}
	it, ok := stock.ByName(name)
	if !ok {
		return notFoundItem(name)
	}
	idx := c.index(name)
	merged := qty
	if idx >= 0 {
		merged += c.lines[idx].Qty
	}
	if merged > it.Stock {
		return apperr.WithMetadata(apperr.CodeOverStock, "cart exceeds stock for "+it.Name, map[string]string{
			"item":      it.Name,
			"available": strconv.Itoa(it.Stock),
			"requested": strconv.Itoa(merged),
		})
	}
	if idx >= 0 {
		c.lines[idx].Qty = merged
		return nil
	}
	c.lines = append(c.lines, model.BorrowLine{EquipmentName: it.Name, Qty: qty})
	return nil
}

// RemoveLine drops the line for name and reports whether it existed.
func (c *Cart) RemoveLine(name string) bool {
	idx := c.index(name)
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []model.BorrowLine {
	return append([]model.BorrowLine(nil), c.lines...)
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Clear() { c.lines = nil }

func (c *Cart) index(name string) int {
	key := NameKey(name)
	for i, l := range c.lines {
		if NameKey(l.EquipmentName) == key {
			return i
		}
	}
	return -1
}

// CheckLines validates every line against stock before anything is mutated.
// The first unsatisfiable line is reported; nothing is changed either way.
func CheckLines(stock *Stock, lines []model.BorrowLine) error {
	want := make(map[string]int, len(lines))
	var order []string
	for _, l := range lines {
		if l.Qty < 1 {
			return apperr.New(apperr.CodeValidation, "quantity must be at least 1")
		}
		key := NameKey(l.EquipmentName)
		if _, seen := want[key]; !seen {
			order = append(order, l.EquipmentName)
		}
		want[key] += l.Qty
	}
	for _, name := range order {
		it, ok := stock.ByName(name)
		if !ok {
			return notFoundItem(name)
		}
		if need := want[NameKey(name)]; need > it.Stock {
			return insufficient(it.Name, it.Stock, need)
		}
	}
	return nil
}
