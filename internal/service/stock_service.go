package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// StockService manages equipment items for staff and keeps the stock mirror
// in line with every accepted change.
type StockService struct {
	mirror  *inventory.Mirror
	backend EquipmentBackend
	logger  *zap.Logger
}

func NewStockService(mirror *inventory.Mirror, backend EquipmentBackend, logger *zap.Logger) *StockService {
	return &StockService{mirror: mirror, backend: backend, logger: logger}
}

// ListStock fetches the staff inventory and replaces the mirror with it.
func (s *StockService) ListStock(ctx context.Context) ([]model.EquipmentItem, error) {
	items, err := s.backend.ListEquipments(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.EquipmentItem
	_ = s.mirror.Write(func(st *inventory.Stock, _ *inventory.Ledger) error {
		st.Replace(items)
		out = st.Items()
		return nil
	})
	return out, nil
}

// PublicStock fetches the borrower view and merges it into the mirror.
func (s *StockService) PublicStock(ctx context.Context) ([]model.StockLevel, error) {
	levels, err := s.backend.PublicStock(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.mirror.Write(func(st *inventory.Stock, _ *inventory.Ledger) error {
		st.MergePublic(levels)
		return nil
	})
	return levels, nil
}

// Snapshot returns the mirror without a network call.
func (s *StockService) Snapshot() []model.EquipmentItem {
	var out []model.EquipmentItem
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { out = st.Items() })
	return out
}

// UpsertByName adds amount to the item with a matching name or creates it.
func (s *StockService) UpsertByName(ctx context.Context, name string, amount int) (model.EquipmentItem, bool, error) {
	if _, err := s.ListStock(ctx); err != nil {
		return model.EquipmentItem{}, false, err
	}

	var plan inventory.UpsertPlan
	var err error
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { plan, err = st.PlanUpsert(name, amount) })
	if err != nil {
		return model.EquipmentItem{}, false, err
	}

	var saved model.EquipmentItem
	if plan.Create {
		saved, err = s.backend.CreateEquipment(ctx, plan.Item)
	} else {
		saved, err = s.backend.UpdateEquipment(ctx, plan.Item)
	}
	if err != nil {
		return model.EquipmentItem{}, false, err
	}

	if _, err := s.ListStock(ctx); err != nil {
		s.logger.Warn("Failed to refresh stock after upsert", zap.Error(err))
		s.setItem(saved)
	} else if it, ok := s.byName(saved.Name); ok {
		saved = it
	}

	s.logger.Info("Equipment stock added",
		zap.Int64("item_id", saved.ID),
		zap.String("name", saved.Name),
		zap.Int("amount", amount),
		zap.Int("stock", saved.Stock),
		zap.Int("total", saved.Total),
		zap.Bool("created", plan.Create),
	)
	return saved, plan.Create, nil
}

// AdjustStock applies a delta to the stock of an item.
func (s *StockService) AdjustStock(ctx context.Context, id int64, delta int) (model.EquipmentItem, error) {
	if err := s.ensureItem(ctx, id); err != nil {
		return model.EquipmentItem{}, err
	}
	var next model.EquipmentItem
	var err error
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { next, err = st.PlanAdjust(id, delta) })
	if err != nil {
		return model.EquipmentItem{}, err
	}

	saved, err := s.backend.UpdateEquipment(ctx, next)
	if err != nil {
		return model.EquipmentItem{}, err
	}
	s.setItem(saved)

	s.logger.Info("Equipment stock adjusted",
		zap.Int64("item_id", id),
		zap.Int("delta", delta),
		zap.Int("stock", saved.Stock),
	)
	return saved, nil
}

// EditItem sets stock and optionally renames an item. This is the only path
// that raises an item's total.
func (s *StockService) EditItem(ctx context.Context, id int64, name string, stock int) (model.EquipmentItem, error) {
	if err := s.ensureItem(ctx, id); err != nil {
		return model.EquipmentItem{}, err
	}
	var next model.EquipmentItem
	var err error
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { next, err = st.PlanEdit(id, name, stock) })
	if err != nil {
		return model.EquipmentItem{}, err
	}

	saved, err := s.backend.UpdateEquipment(ctx, next)
	if err != nil {
		return model.EquipmentItem{}, err
	}
	s.setItem(saved)

	s.logger.Info("Equipment edited",
		zap.Int64("item_id", id),
		zap.String("name", saved.Name),
		zap.Int("stock", saved.Stock),
		zap.Int("total", saved.Total),
	)
	return saved, nil
}

// DeleteItem removes an item. Pending returns for it are not touched.
func (s *StockService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.ensureItem(ctx, id); err != nil {
		return err
	}
	var it model.EquipmentItem
	var outstanding int
	s.mirror.Read(func(st *inventory.Stock, led *inventory.Ledger) {
		it, _ = st.ByID(id)
		outstanding = led.Outstanding(it.Name)
	})
	if outstanding > 0 {
		s.logger.Warn("Deleting equipment with pending returns",
			zap.Int64("item_id", id), zap.String("name", it.Name), zap.Int("pending", outstanding))
	}

	if err := s.backend.DeleteEquipment(ctx, id); err != nil {
		return err
	}
	_ = s.mirror.Write(func(st *inventory.Stock, _ *inventory.Ledger) error {
		st.Remove(id)
		return nil
	})

	s.logger.Info("Equipment deleted", zap.Int64("item_id", id), zap.String("name", it.Name))
	return nil
}

// ensureItem refreshes the mirror once when id is unknown.
func (s *StockService) ensureItem(ctx context.Context, id int64) error {
	if s.hasID(id) {
		return nil
	}
	if _, err := s.ListStock(ctx); err != nil {
		return err
	}
	if !s.hasID(id) {
		return apperr.WithMetadata(apperr.CodeNotFound, "equipment not found", map[string]string{"id": formatID(id)})
	}
	return nil
}

func (s *StockService) hasID(id int64) bool {
	var ok bool
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { _, ok = st.ByID(id) })
	return ok
}

func (s *StockService) byName(name string) (model.EquipmentItem, bool) {
	var it model.EquipmentItem
	var ok bool
	s.mirror.Read(func(st *inventory.Stock, _ *inventory.Ledger) { it, ok = st.ByName(name) })
	return it, ok
}

func (s *StockService) setItem(it model.EquipmentItem) {
	_ = s.mirror.Write(func(st *inventory.Stock, _ *inventory.Ledger) error {
		st.Set(it)
		return nil
	})
}
