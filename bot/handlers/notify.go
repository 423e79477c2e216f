package handlers

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/core/logger"
	tghelpers "github.com/m3rciful/meetbot/core/telegram/helpers"
	"github.com/m3rciful/meetbot/core/telegram/sender"
)

// Notifier delivers the best-effort message to the second party of a match.
// Delivery goes through the async dispatcher; a failed or dropped delivery is
// logged and ignored, it never affects the committed match. Seeded decoy
// profiles have no reachable chat, so their notification always fails.
type Notifier struct {
	disp *sender.Dispatcher
}

// NewNotifier wraps the outbound dispatcher.
func NewNotifier(disp *sender.Dispatcher) *Notifier {
	return &Notifier{disp: disp}
}

// NotifyMatch sends text to the partner and reports whether delivery was
// handed off. The context c belongs to the initiator's update; the bot
// handle is taken from it.
func (n *Notifier) NotifyMatch(c tele.Context, partnerID int64, text string) bool {
	bot := c.Bot()
	if bot == nil {
		return false
	}
	run := func() error {
		_, err := bot.Send(&tele.User{ID: partnerID}, text)
		return err
	}

	if n == nil || n.disp == nil {
		if err := run(); err != nil {
			logger.TG.Warn("partner notification failed",
				slog.String("event", "notify.fail"),
				slog.Int64("partner_id", partnerID),
				slog.String("err", err.Error()),
			)
			return false
		}
		return true
	}

	ctx := tghelpers.BuildContext(c)
	if err := n.disp.Enqueue(ctx, "notify.match", "sendMessage", run); err != nil {
		logger.Warn(ctx, "tg.sender", "notify.enqueue_failed",
			slog.Int64("partner_id", partnerID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return true
}
