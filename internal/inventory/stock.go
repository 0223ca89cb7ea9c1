// Package inventory keeps the desk's mirror of equipment stock and of
// outstanding borrows. The backend stays authoritative; these types only
// enforce the quantity invariants locally so bad requests never leave the desk.
// None of the types here are safe for concurrent use; see Mirror.
package inventory

import (
	"sort"
	"strings"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// Stock is the local copy of equipment levels keyed by folded name.
type Stock struct {
	items map[string]model.EquipmentItem
}

func NewStock(items ...model.EquipmentItem) *Stock {
	s := &Stock{items: make(map[string]model.EquipmentItem)}
	s.Replace(items)
	return s
}

// Replace overwrites the mirror with the staff view of the inventory.
func (s *Stock) Replace(items []model.EquipmentItem) {
	s.items = make(map[string]model.EquipmentItem, len(items))
	for _, it := range items {
		s.items[NameKey(it.Name)] = normalize(it)
	}
}

// MergePublic applies the borrower-facing stock list, which carries no ids or
// totals. Items missing from the list are dropped.
func (s *Stock) MergePublic(levels []model.StockLevel) {
	next := make(map[string]model.EquipmentItem, len(levels))
	for _, lv := range levels {
		key := NameKey(lv.Name)
		it, ok := s.items[key]
		if !ok {
			it = model.EquipmentItem{Name: strings.TrimSpace(lv.Name)}
		}
		it.Stock = lv.Stock
		next[key] = normalize(it)
	}
	s.items = next
}

// Items returns the mirror sorted by name.
func (s *Stock) Items() []model.EquipmentItem {
	out := make([]model.EquipmentItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return NameKey(out[i].Name) < NameKey(out[j].Name) })
	return out
}

func (s *Stock) ByName(name string) (model.EquipmentItem, bool) {
	it, ok := s.items[NameKey(name)]
	return it, ok
}

func (s *Stock) ByID(id int64) (model.EquipmentItem, bool) {
	for _, it := range s.items {
		if it.ID == id && id != 0 {
			return it, true
		}
	}
	return model.EquipmentItem{}, false
}

// Available is the stock left for name, 0 for unknown items.
func (s *Stock) Available(name string) int {
	return s.items[NameKey(name)].Stock
}

// Set stores an item as returned by the backend.
func (s *Stock) Set(it model.EquipmentItem) {
	for key, cur := range s.items {
		if cur.ID == it.ID && it.ID != 0 && key != NameKey(it.Name) {
			delete(s.items, key)
		}
	}
	s.items[NameKey(it.Name)] = normalize(it)
}

// Remove drops the item with id. It reports whether the item existed.
func (s *Stock) Remove(id int64) bool {
	for key, it := range s.items {
		if it.ID == id {
			delete(s.items, key)
			return true
		}
	}
	return false
}

// Take decrements stock for a borrow.
func (s *Stock) Take(name string, qty int) error {
	it, ok := s.items[NameKey(name)]
	if !ok {
		return notFoundItem(name)
	}
	if qty > it.Stock {
		return insufficient(it.Name, it.Stock, qty)
	}
	it.Stock -= qty
	s.items[NameKey(name)] = it
	return nil
}

// Put increments stock for a return, clamped at the item's total. Totals are
// only raised by explicit staff edits.
func (s *Stock) Put(name string, qty int) {
	it, ok := s.items[NameKey(name)]
	if !ok {
		return
	}
	it.Stock += qty
	if it.Stock > it.Total {
		it.Stock = it.Total
	}
	s.items[NameKey(name)] = it
}

// UpsertPlan is what an upsert-by-name turns into on the backend.
type UpsertPlan struct {
	Create bool
	Item   model.EquipmentItem
}

// PlanUpsert adds amount to an existing item (matched case-insensitively) or
// plans a new one with total = stock = amount.
func (s *Stock) PlanUpsert(name string, amount int) (UpsertPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return UpsertPlan{}, apperr.New(apperr.CodeValidation, "equipment name is required")
	}
	if amount < 1 {
		return UpsertPlan{}, apperr.New(apperr.CodeValidation, "stock to add must be at least 1")
	}
	if it, ok := s.ByName(name); ok {
		it.Stock += amount
		if it.Stock > it.Total {
			it.Total = it.Stock
		}
		return UpsertPlan{Item: it}, nil
	}
	return UpsertPlan{Create: true, Item: model.EquipmentItem{Name: name, Stock: amount, Total: amount}}, nil
}

// PlanAdjust computes the item after stock += delta. Increments are clamped at
// total.
func (s *Stock) PlanAdjust(id int64, delta int) (model.EquipmentItem, error) {
	it, ok := s.ByID(id)
	if !ok {
		return model.EquipmentItem{}, apperr.WithMetadata(apperr.CodeNotFound, "equipment not found",
			map[string]string{"id": itoa64(id)})
	}
	if delta < 0 && -delta > it.Stock {
		return model.EquipmentItem{}, insufficient(it.Name, it.Stock, -delta)
	}
	it.Stock += delta
	if it.Stock > it.Total {
		it.Stock = it.Total
	}
	return it, nil
}

// PlanEdit computes an explicit staff edit: a new stock level and optionally a
// new name. Total is raised to stock when needed.
func (s *Stock) PlanEdit(id int64, name string, stock int) (model.EquipmentItem, error) {
	it, ok := s.ByID(id)
	if !ok {
		return model.EquipmentItem{}, apperr.WithMetadata(apperr.CodeNotFound, "equipment not found",
			map[string]string{"id": itoa64(id)})
	}
	if stock < 0 {
		return model.EquipmentItem{}, apperr.New(apperr.CodeValidation, "stock must be non-negative")
	}
	if name = strings.TrimSpace(name); name != "" && NameKey(name) != NameKey(it.Name) {
		if other, taken := s.ByName(name); taken && other.ID != id {
			return model.EquipmentItem{}, apperr.WithMetadata(apperr.CodeValidation, "equipment name already in use",
				map[string]string{"item": other.Name})
		}
		it.Name = name
	}
	it.Stock = stock
	if it.Stock > it.Total {
		it.Total = it.Stock
	}
	return it, nil
}

func normalize(it model.EquipmentItem) model.EquipmentItem {
	it.Name = strings.TrimSpace(it.Name)
	if it.Stock < 0 {
		it.Stock = 0
	}
	if it.Total < it.Stock {
		it.Total = it.Stock
	}
	return it
}
