package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/apperr"
)

// ErrorMessage returns the user-facing text for err.
func ErrorMessage(err error) string {
	msg := detail(err)
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return "❌ " + capitalize(msg)
	case apperr.CodeDuplicateEntry:
		return "⚠️ Already recorded: " + msg
	case apperr.CodeInsufficientStock:
		if item := apperr.Meta(err, "item"); item != "" {
			return fmt.Sprintf("❌ Not enough %s in stock: %s left, %s requested.",
				item, apperr.Meta(err, "available"), apperr.Meta(err, "requested"))
		}
		return "❌ Not enough stock: " + msg
	case apperr.CodeOverStock:
		return fmt.Sprintf("❌ Only %s × %s available, cart would hold %s.",
			apperr.Meta(err, "available"), apperr.Meta(err, "item"), apperr.Meta(err, "requested"))
	case apperr.CodeOverReturn:
		return fmt.Sprintf("❌ Return quantity must be between 1 and %s (requested %s).",
			apperr.Meta(err, "pending"), apperr.Meta(err, "requested"))
	case apperr.CodeAccessDenied:
		return "🔒 " + capitalize(msg)
	case apperr.CodeEmptySubmission:
		return "❌ Nothing to submit: " + msg
	case apperr.CodeNotFound:
		return "❌ " + capitalize(msg)
	case apperr.CodeAuthRequired:
		return "🔑 The backend session expired. Please try again."
	case apperr.CodeNetwork:
		return "📡 The backend is unreachable right now. Please try again later."
	case apperr.CodeParse:
		return "❌ The backend sent an unexpected reply. Please try again later."
	case apperr.CodeRejected:
		return "❌ Rejected by the backend: " + msg
	case apperr.CodeSubmissionInProgress:
		return "⏳ A submission is already in progress, please wait."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}

func detail(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// replyError reports err to the chat. An expired backend session is renewed
// so that the user's retry can succeed.
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	code := apperr.CodeOf(err)
	switch {
	case code == apperr.CodeInternal:
		h.logger.Error("Command failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	case code.Local():
		h.logger.Info("Command refused", zap.String("op", op), zap.String("code", string(code)), zap.Error(err))
	default:
		h.logger.Warn("Backend call failed", zap.String("op", op), zap.String("code", string(code)), zap.Error(err))
	}

	if code == apperr.CodeAuthRequired && h.session != nil && h.session.Enabled() {
		if rerr := h.session.Relogin(ctx); rerr != nil {
			h.logger.Error("Relogin failed", zap.Error(rerr))
			h.sendError(ctx, b, chatID, "🔑 Could not sign in to the backend. Ask staff to check the desk credentials.")
			return
		}
	}
	h.sendError(ctx, b, chatID, ErrorMessage(err))
}
