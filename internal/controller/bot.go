package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/sfms-dev/facility_bot/internal/controller/handlers"
	"github.com/sfms-dev/facility_bot/internal/controller/state"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	services handlers.Services,
	access handlers.Access,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()

	return &BotController{
		bot:      botInstance,
		handlers: handlers.NewHandlers(services, stateManager, access, logger),
		logger:   logger,
	}
}

type command struct {
	name        string
	description string
	handler     bot.HandlerFunc
	staff       bool
}

func (c *BotController) commands() []command {
	h := c.handlers
	return []command{
		{name: "start", description: "🚀 Start", handler: h.HandleStart},
		{name: "help", description: "❓ Commands", handler: h.HandleHelp},
		{name: "checkin", description: "🏟 Record a facility check-in", handler: h.HandleCheckin},
		{name: "progress", description: "📋 Today's check-in progress", handler: h.HandleProgress},
		{name: "feedback", description: "📝 Daily facility feedback", handler: h.HandleFeedback},
		{name: "stock", description: "📦 Equipment available", handler: h.HandleStock},
		{name: "faculty", description: "🎓 Faculty of a student", handler: h.HandleFaculty},
		{name: "add", description: "➕ Add equipment to the cart", handler: h.HandleAdd},
		{name: "remove", description: "➖ Remove equipment from the cart", handler: h.HandleRemove},
		{name: "cart", description: "🛒 Show the cart", handler: h.HandleCart},
		{name: "clear", description: "🗑 Empty the cart", handler: h.HandleClear},
		{name: "borrow", description: "✅ Borrow everything in the cart", handler: h.HandleBorrow},
		{name: "pending", description: "↩️ Pending returns", handler: h.HandlePending},
		{name: "return", description: "↩️ Return equipment", handler: h.HandleReturn},
		{name: "items", description: "📦 Inventory with ids (staff)", handler: h.HandleItems, staff: true},
		{name: "item_add", description: "➕ Add stock (staff)", handler: h.HandleItemAdd, staff: true},
		{name: "item_set", description: "✏️ Set stock or rename (staff)", handler: h.HandleItemSet, staff: true},
		{name: "item_adjust", description: "± Adjust stock (staff)", handler: h.HandleItemAdjust, staff: true},
		{name: "item_delete", description: "🗑 Delete an item (staff)", handler: h.HandleItemDelete, staff: true},
		{name: "ledger", description: "📒 Borrow records (staff)", handler: h.HandleLedger, staff: true},
	}
}

func matchCommand(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		return update.Message != nil && handlers.IsCommand(update.Message.Text, name)
	}
}

// RegisterHandlers registers every command and publishes the command menu.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	for _, cmd := range c.commands() {
		mw := []bot.Middleware{c.handlers.AllowChats}
		if cmd.staff {
			mw = append(mw, c.handlers.StaffOnly)
		}
		c.bot.RegisterHandlerMatchFunc(matchCommand(cmd.name), cmd.handler, mw...)
	}

	// Feedback with an attached register file arrives as a document caption.
	c.bot.RegisterHandlerMatchFunc(handlers.MatchFeedbackDocument, c.handlers.HandleFeedbackDocument)

	return c.setCommands(ctx)
}

// setCommands publishes the command menu.
func (c *BotController) setCommands(ctx context.Context) error {
	var menu []models.BotCommand
	for _, cmd := range c.commands() {
		if cmd.staff {
			continue
		}
		menu = append(menu, models.BotCommand{Command: cmd.name, Description: cmd.description})
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: menu,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set", zap.Int("commands", len(menu)))
	return nil
}

// DefaultHandler answers messages that match no command.
func (c *BotController) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	c.handlers.HandleUnknown(ctx, b, update)
}

// Start runs long polling until ctx is done.
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot")
	c.bot.Start(ctx)
	return nil
}
