package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Access restricts which chats may use the bot. An empty Allowed set admits
// every chat; staff commands additionally require membership in Staff.
type Access struct {
	Allowed map[int64]bool
	Staff   map[int64]bool
}

func NewAccess(allowed, staff []int64) Access {
	a := Access{Allowed: make(map[int64]bool, len(allowed)), Staff: make(map[int64]bool, len(staff))}
	for _, id := range allowed {
		a.Allowed[id] = true
	}
	for _, id := range staff {
		a.Staff[id] = true
	}
	return a
}

// Permits reports whether chatID may use the desk commands.
func (a Access) Permits(chatID int64) bool {
	return len(a.Allowed) == 0 || a.Allowed[chatID] || a.Staff[chatID]
}

// IsStaff reports whether chatID may manage the inventory.
func (a Access) IsStaff(chatID int64) bool { return a.Staff[chatID] }

// AllowChats drops updates from chats outside the allow-list.
func (h *Handlers) AllowChats(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			next(ctx, b, update)
			return
		}
		chatID := update.Message.Chat.ID
		if !h.access.Permits(chatID) {
			h.logger.Warn("Rejected update from unknown chat", zap.Int64("chat_id", chatID))
			return
		}
		next(ctx, b, update)
	}
}

// StaffOnly guards the inventory management commands.
func (h *Handlers) StaffOnly(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		chatID := update.Message.Chat.ID
		if !h.access.IsStaff(chatID) {
			h.sendError(ctx, b, chatID, "❌ This command is for staff only.")
			return
		}
		next(ctx, b, update)
	}
}

// sendError sends an error text and logs if that fails.
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage sends a message and logs if that fails.
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
