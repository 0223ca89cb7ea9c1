package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sfms-dev/facility_bot/internal/inventory"
)

// HandleItems handles /items: the staff view of the inventory with ids.
func (h *Handlers) HandleItems(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	items, err := h.stock.ListStock(ctx)
	if err != nil {
		h.replyError(ctx, b, chatID, "items", err)
		return
	}
	h.sendMessage(ctx, b, chatID, FormatItems(items))
}

// HandleItemAdd handles /item_add.
func (h *Handlers) HandleItemAdd(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	name, qty, err := ParseItemQty(commandArgs(update.Message.Text), usageItemAdd)
	if err != nil {
		h.replyError(ctx, b, chatID, "item_add", err)
		return
	}

	it, created, err := h.stock.UpsertByName(ctx, name, qty)
	if err != nil {
		h.replyError(ctx, b, chatID, "item_add", err)
		return
	}
	verb := "Added to"
	if created {
		verb = "Created"
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ %s #%d %s: %d/%d", verb, it.ID, it.Name, it.Stock, it.Total))
}

// HandleItemSet handles /item_set.
func (h *Handlers) HandleItemSet(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, stock, name, err := ParseItemSet(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "item_set", err)
		return
	}

	it, err := h.stock.EditItem(ctx, id, name, stock)
	if err != nil {
		h.replyError(ctx, b, chatID, "item_set", err)
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Updated #%d %s: %d/%d", it.ID, it.Name, it.Stock, it.Total))
}

// HandleItemAdjust handles /item_adjust.
func (h *Handlers) HandleItemAdjust(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, delta, err := ParseItemAdjust(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "item_adjust", err)
		return
	}

	it, err := h.stock.AdjustStock(ctx, id, delta)
	if err != nil {
		h.replyError(ctx, b, chatID, "item_adjust", err)
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Adjusted #%d %s by %+d: %d/%d", it.ID, it.Name, delta, it.Stock, it.Total))
}

// HandleItemDelete handles /item_delete.
func (h *Handlers) HandleItemDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, err := ParseID(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "item_delete", err)
		return
	}

	if err := h.stock.DeleteItem(ctx, id); err != nil {
		h.replyError(ctx, b, chatID, "item_delete", err)
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🗑 Deleted item #%d.", id))
}

// HandleLedger handles /ledger.
func (h *Handlers) HandleLedger(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	filter, err := ParseFilter(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "ledger", err)
		return
	}

	days, err := h.returns.History(ctx, inventory.Digits(filter.StudentID), filter.Date)
	if err != nil {
		h.replyError(ctx, b, chatID, "ledger", err)
		return
	}
	h.sendMessage(ctx, b, chatID, FormatLedger(days))
}
