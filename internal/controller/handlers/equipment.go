package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
)

// HandleStock handles /stock.
func (h *Handlers) HandleStock(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	levels, err := h.stock.PublicStock(ctx)
	if err != nil {
		cached := h.stock.Snapshot()
		if apperr.CodeOf(err) != apperr.CodeNetwork || len(cached) == 0 {
			h.replyError(ctx, b, chatID, "stock", err)
			return
		}
		h.logger.Warn("Showing cached stock", zap.Error(err))
		h.sendMessage(ctx, b, chatID, FormatStock(StockLevels(cached))+"\n\n⚠️ The backend is unreachable; this is the last known stock.")
		return
	}
	h.sendMessage(ctx, b, chatID, FormatStock(levels))
}

// HandleFaculty handles /faculty.
func (h *Handlers) HandleFaculty(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		h.replyError(ctx, b, chatID, "faculty", usage(usageFaculty))
		return
	}
	sid := inventory.Digits(args[0])
	if !inventory.ValidStudentID(sid) {
		h.sendError(ctx, b, chatID, "❌ A student id is 8 digits starting with 6.")
		return
	}

	if fac := h.faculty.Resolve(ctx, sid); fac != "" {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("🎓 %s: %s", sid, fac))
		return
	}
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("🎓 Faculty of %s is unknown. Give it with /borrow.", sid))
}

// HandleAdd handles /add.
func (h *Handlers) HandleAdd(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	name, qty, err := ParseItemQty(commandArgs(update.Message.Text), usageAdd)
	if err != nil {
		h.replyError(ctx, b, chatID, "add", err)
		return
	}

	var lines []model.BorrowLine
	err = h.stateManager.WithCart(chatID, func(cart *inventory.Cart) error {
		if err := h.borrows.AddToCart(cart, name, qty); err != nil {
			return err
		}
		lines = cart.Lines()
		return nil
	})
	if err != nil {
		h.replyError(ctx, b, chatID, "add", err)
		return
	}
	borrower, ok := h.prefill(ctx, chatID)
	h.sendMessage(ctx, b, chatID, FormatCart(lines, borrower, ok))
}

// HandleRemove handles /remove.
func (h *Handlers) HandleRemove(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	name, err := ParseItemName(commandArgs(update.Message.Text), usageRemove)
	if err != nil {
		h.replyError(ctx, b, chatID, "remove", err)
		return
	}

	var removed bool
	var lines []model.BorrowLine
	err = h.stateManager.WithCart(chatID, func(cart *inventory.Cart) error {
		removed = cart.RemoveLine(name)
		lines = cart.Lines()
		return nil
	})
	if err != nil {
		h.replyError(ctx, b, chatID, "remove", err)
		return
	}
	if !removed {
		h.sendError(ctx, b, chatID, "❌ "+name+" is not in the cart.")
		return
	}
	borrower, ok := h.prefill(ctx, chatID)
	h.sendMessage(ctx, b, chatID, FormatCart(lines, borrower, ok))
}

// HandleCart handles /cart.
func (h *Handlers) HandleCart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	var lines []model.BorrowLine
	err := h.stateManager.WithCart(chatID, func(cart *inventory.Cart) error {
		lines = cart.Lines()
		return nil
	})
	if err != nil {
		h.replyError(ctx, b, chatID, "cart", err)
		return
	}
	borrower, ok := h.prefill(ctx, chatID)
	h.sendMessage(ctx, b, chatID, FormatCart(lines, borrower, ok))
}

// HandleClear handles /clear.
func (h *Handlers) HandleClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	err := h.stateManager.WithCart(chatID, func(cart *inventory.Cart) error {
		cart.Clear()
		return nil
	})
	if err != nil {
		h.replyError(ctx, b, chatID, "clear", err)
		return
	}
	h.sendMessage(ctx, b, chatID, "🗑 Cart cleared.")
}

// HandleBorrow handles /borrow: the whole cart goes out in one request.
func (h *Handlers) HandleBorrow(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	prefill, hasPrefill := h.prefill(ctx, chatID)
	borrower, err := ParseBorrower(commandArgs(update.Message.Text), prefill, hasPrefill)
	if err != nil {
		h.replyError(ctx, b, chatID, "borrow", err)
		return
	}

	var res *BorrowSummary
	err = h.stateManager.WithCart(chatID, func(cart *inventory.Cart) error {
		r, err := h.borrows.Commit(ctx, chatID, cart, borrower)
		if err != nil {
			return err
		}
		res = &BorrowSummary{Borrower: r.Borrower, Lines: r.Lines}
		return nil
	})
	if err != nil {
		h.replyError(ctx, b, chatID, "borrow", err)
		return
	}

	h.stateManager.SetBorrower(chatID, res.Borrower)
	h.sendMessage(ctx, b, chatID, res.String())
}

// BorrowSummary is the confirmation shown after a committed cart.
type BorrowSummary struct {
	Borrower model.Borrower
	Lines    []model.BorrowLine
}

func (s BorrowSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Borrowed by %s (%s, %s):", s.Borrower.StudentID, s.Borrower.Faculty, s.Borrower.Phone)
	for _, l := range s.Lines {
		fmt.Fprintf(&sb, "\n• %s × %d", l.EquipmentName, l.Qty)
	}
	return sb.String()
}

// HandlePending handles /pending.
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	filter, err := ParseFilter(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "pending", err)
		return
	}
	filter.StudentID = inventory.Digits(filter.StudentID)

	if err := h.returns.Reconcile(ctx); err != nil {
		h.logger.Warn("Showing pending returns from the mirror", zap.Error(err))
	}
	h.sendMessage(ctx, b, chatID, FormatPending(h.returns.ListPending(filter)))
}

// HandleReturn handles /return.
func (h *Handlers) HandleReturn(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args, err := ParseReturn(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "return", err)
		return
	}
	sid := inventory.Digits(args.StudentID)

	key, err := ResolveReturn(h.returns.ListPending(model.PendingFilter{StudentID: sid}), args)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		if rerr := h.returns.Reconcile(ctx); rerr != nil {
			h.replyError(ctx, b, chatID, "return", rerr)
			return
		}
		key, err = ResolveReturn(h.returns.ListPending(model.PendingFilter{StudentID: sid}), args)
	}
	if err != nil {
		h.replyError(ctx, b, chatID, "return", err)
		return
	}

	left, err := h.returns.ReturnQuantity(ctx, key, args.Qty)
	if err != nil {
		h.replyError(ctx, b, chatID, "return", err)
		return
	}

	text := fmt.Sprintf("✅ %s returned %d × %s (borrowed %s).", sid, args.Qty, key.EquipmentName, key.BorrowDate)
	if left.PendingQty > 0 {
		text += fmt.Sprintf("\nStill pending: %d.", left.PendingQty)
	} else {
		text += "\nNothing left pending for this borrow."
	}
	h.sendMessage(ctx, b, chatID, text)
}

// prefill returns the chat's last borrower, falling back to the stored
// profile after a restart.
func (h *Handlers) prefill(ctx context.Context, chatID int64) (model.Borrower, bool) {
	if bw, ok := h.stateManager.Borrower(chatID); ok {
		return bw, true
	}
	p, ok, err := h.borrows.Profile(ctx, chatID)
	if err != nil {
		h.logger.Warn("Failed to load borrower profile", zap.Int64("chat_id", chatID), zap.Error(err))
		return model.Borrower{}, false
	}
	if !ok {
		return model.Borrower{}, false
	}
	h.stateManager.SetBorrower(chatID, p.Borrower)
	return p.Borrower, true
}
