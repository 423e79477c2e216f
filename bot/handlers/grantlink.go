package handlers

import (
	"log/slog"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/bot/texts"
	"github.com/m3rciful/meetbot/core/logger"
	tghelpers "github.com/m3rciful/meetbot/core/telegram/helpers"
)

// GrantLink handles the admin command /grantlink: mint a fresh grant token
// and reply with the deep link that redeems it. Redemption itself is keyed by
// (user, token), so one link credits any given user at most once.
func (h *Handlers) GrantLink(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "grantlink")

	token := uuid.NewString()
	username := ""
	if bot, ok := c.Bot().(*tele.Bot); ok && bot != nil && bot.Me != nil {
		username = bot.Me.Username
	}
	if username == "" {
		return send(c, texts.StorageUnavailable, nil)
	}

	logger.Info(ctx, "service.grants", "grant.mint",
		slog.Int64("user_id", c.Sender().ID),
		slog.String("token", logger.SanitizeLimit(token, 64)),
	)
	return send(c, texts.GrantLink(username, token), nil)
}
