package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/model"
)

// HandleStart handles /start.
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	// /start begins a fresh desk session for the chat.
	h.stateManager.ClearState(update.Message.Chat.ID)

	name := "there"
	if update.Message.From != nil && update.Message.From.FirstName != "" {
		name = update.Message.From.FirstName
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"This is the sports complex front desk bot.\n"+
			"Your cart was emptied.\n"+
			"Record facility check-ins, daily feedback and equipment borrowing here.\n\n"+
			"Send /help for the list of commands.",
		name,
	))
}

// HandleHelp handles /help.
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Commands:\n\n" +
		"Check-in:\n" +
		"/checkin <facility> [sub] <students> <staff> [note]\n" +
		"/progress - today's check-in progress\n" +
		"/feedback <facility> <problems> - daily feedback\n\n" +
		"Equipment:\n" +
		"/stock - what can be borrowed\n" +
		"/add <item> <qty>, /remove <item>, /cart, /clear\n" +
		"/borrow <student id> <phone> [faculty] - commit the cart\n" +
		"/pending [student id] [date] - pending returns\n" +
		"/return <student id> <item> <qty> [date]\n" +
		"/faculty <student id>\n"

	if h.access.IsStaff(update.Message.Chat.ID) {
		helpText += "\nStaff:\n" +
			"/item_add <name> <qty> - add stock, creating the item if needed\n" +
			"/item_set <id> <stock> [name]\n" +
			"/item_adjust <id> <delta>\n" +
			"/item_delete <id>\n" +
			"/ledger [student id] [date] - borrow records\n"
	}

	helpText += "\n" + FormatCatalog(h.checkins.Catalog())
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCheckin handles /checkin.
func (h *Handlers) HandleCheckin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	intent, err := ParseCheckin(commandArgs(update.Message.Text))
	if err != nil {
		h.replyError(ctx, b, chatID, "checkin", err)
		return
	}

	res, err := h.checkins.RecordCheckin(ctx, intent)
	if err != nil {
		h.replyError(ctx, b, chatID, "checkin", err)
		return
	}

	cat := h.checkins.Catalog()
	label := cat.Label(intent.Facility)
	if f, ok := cat.Lookup(intent.Facility); ok && intent.Sub != "" {
		label += " / " + f.SubName(intent.Sub)
	}
	text := fmt.Sprintf("✅ Checked in %s: %d students, %d staff.",
		label, res.Event.Counts.Students, res.Event.Counts.Staff)
	if res.Completed {
		text += fmt.Sprintf("\n\n🏁 %s is complete for today. Send /feedback %s <problems>.",
			cat.Label(intent.Facility), intent.Facility)
	}
	h.sendMessage(ctx, b, chatID, text)
}

// HandleProgress handles /progress.
func (h *Handlers) HandleProgress(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	items, err := h.checkins.Progress(ctx)
	if err != nil {
		h.replyError(ctx, b, chatID, "progress", err)
		return
	}
	h.sendMessage(ctx, b, chatID, FormatProgress(h.checkins.Today(), items))
}

// HandleFeedback handles /feedback. Without arguments it lists the
// facilities still waiting for feedback.
func (h *Handlers) HandleFeedback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		h.listPendingFeedback(ctx, b, chatID)
		return
	}
	h.submitFeedback(ctx, b, update.Message, args, nil)
}

// MatchFeedbackDocument matches a document sent with a /feedback caption.
func MatchFeedbackDocument(update *models.Update) bool {
	return update.Message != nil && update.Message.Document != nil &&
		strings.HasPrefix(update.Message.Caption, "/feedback")
}

// HandleFeedbackDocument handles a /feedback caption on a document; the file
// becomes the form's attachment.
func (h *Handlers) HandleFeedbackDocument(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !MatchFeedbackDocument(update) {
		return
	}
	msg := update.Message
	if !h.access.Permits(msg.Chat.ID) {
		return
	}

	file, err := h.downloadDocument(ctx, b, msg.Document)
	if err != nil {
		h.logger.Warn("Failed to download feedback attachment",
			zap.String("file_id", msg.Document.FileID), zap.Error(err))
		h.sendError(ctx, b, msg.Chat.ID, "❌ Could not read the attached file. Please send it again.")
		return
	}
	h.submitFeedback(ctx, b, msg, commandArgs(msg.Caption), file)
}

func (h *Handlers) listPendingFeedback(ctx context.Context, b *bot.Bot, chatID int64) {
	pending, err := h.feedback.PendingFeedback(ctx)
	if err != nil {
		h.replyError(ctx, b, chatID, "feedback", err)
		return
	}
	if len(pending) == 0 {
		h.sendMessage(ctx, b, chatID, "📝 No feedback due right now.\n\n"+usageFeedback)
		return
	}
	keys := make([]string, 0, len(pending))
	for _, f := range pending {
		keys = append(keys, f.Key+" ("+f.DisplayName+")")
	}
	h.sendMessage(ctx, b, chatID, "📝 Feedback due for: "+strings.Join(keys, ", ")+"\n\n"+usageFeedback)
}

func (h *Handlers) submitFeedback(ctx context.Context, b *bot.Bot, msg *models.Message, args []string, file *model.Attachment) {
	chatID := msg.Chat.ID

	facility, payload, err := ParseFeedback(args)
	if err != nil {
		h.replyError(ctx, b, chatID, "feedback", err)
		return
	}
	payload.File = file
	if from := msg.From; from != nil {
		payload.StaffName = strings.TrimSpace(from.FirstName + " " + from.LastName)
	}

	res, err := h.feedback.SubmitFeedback(ctx, facility, payload)
	if err != nil {
		h.replyError(ctx, b, chatID, "feedback", err)
		return
	}

	text := "✅ Feedback for " + res.Facility.DisplayName + " saved."
	if res.AlreadySubmitted {
		text = "ℹ️ Feedback for " + res.Facility.DisplayName + " was already sent today; this one was recorded too."
	}
	h.sendMessage(ctx, b, chatID, text)
}

// HandleUnknown answers text that is not a known command.
func (h *Handlers) HandleUnknown(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || !h.access.Permits(update.Message.Chat.ID) {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, "🤔 Unknown command. Send /help for the list of commands.")
}
