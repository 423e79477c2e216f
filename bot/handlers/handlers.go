// Package handlers is the thin dialogue controller: it routes inbound
// commands and menu choices to the state machine, the profile service, and
// the match engine, and renders results. No matching or credit rule lives
// here.
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/bot/fsm"
	"github.com/m3rciful/meetbot/bot/keyboards"
	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/services"
	"github.com/m3rciful/meetbot/bot/storage"
	"github.com/m3rciful/meetbot/bot/texts"
	"github.com/m3rciful/meetbot/core/logger"
	tghelpers "github.com/m3rciful/meetbot/core/telegram/helpers"
	"github.com/m3rciful/meetbot/core/telegram/state"
)

// Handlers bundles the command handlers with their collaborators.
type Handlers struct {
	mgr      state.Manager
	profiles *services.ProfileService
	engine   *services.MatchEngine
	notifier *Notifier
	flows    *fsm.Flows
}

// New wires the controller. The FSM flows are created here so the match
// runner callback can close over the handlers.
func New(mgr state.Manager, profiles *services.ProfileService, engine *services.MatchEngine, notifier *Notifier) *Handlers {
	h := &Handlers{
		mgr:      mgr,
		profiles: profiles,
		engine:   engine,
		notifier: notifier,
	}
	h.flows = fsm.New(mgr, profiles, h.RunMatch)
	h.flows.RegisterHandlers()
	return h
}

// Flows exposes the dialogue flows for callback registration.
func (h *Handlers) Flows() *fsm.Flows { return h.flows }

// Start handles /start, optionally carrying a grant token as deep-link
// payload. Registered users redeem the token; unregistered users enter
// registration.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	id := c.Sender().ID
	token := startPayload(c)

	profile, err := h.profiles.ProfileByChatID(ctx, id)
	if err != nil {
		return send(c, texts.StorageUnavailable, keyboards.MainMenu())
	}

	if token != "" && profile != nil {
		already, err := h.profiles.Redeem(ctx, id, token)
		if err != nil {
			return send(c, texts.StorageUnavailable, keyboards.MainMenu())
		}
		if already {
			return send(c, texts.GrantAlreadyCredited, keyboards.MainMenu())
		}
		return send(c, texts.GrantCredited, keyboards.MainMenu())
	}

	if profile != nil {
		return send(c, texts.MainMenuHint, keyboards.MainMenu())
	}
	return h.flows.BeginRegistration(c)
}

// Meet handles /meet and the menu button: verify profile and credits, then
// enter the pre-match category choice.
func (h *Handlers) Meet(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "meet")
	id := c.Sender().ID

	profile, err := h.profiles.ProfileByChatID(ctx, id)
	if err != nil {
		return send(c, texts.StorageUnavailable, keyboards.MainMenu())
	}
	if profile == nil {
		return h.flows.BeginRegistration(c)
	}
	if profile.Credits < 1 {
		return send(c, texts.NoCreditsLeft, keyboards.MainMenu())
	}
	return h.flows.BeginMeetRequest(c)
}

// Count handles /count: report the credit balance, or start registration for
// unknown users.
func (h *Handlers) Count(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "count")

	profile, err := h.profiles.ProfileByChatID(ctx, c.Sender().ID)
	if err != nil {
		return send(c, texts.StorageUnavailable, keyboards.MainMenu())
	}
	if profile == nil {
		return h.flows.BeginRegistration(c)
	}
	return send(c, texts.CreditBalance(profile.Credits), keyboards.MainMenu())
}

// Reset handles /reset: wipe the profile, history, and any active dialogue.
func (h *Handlers) Reset(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "reset")
	id := c.Sender().ID

	if err := h.profiles.ResetAll(ctx, id); err != nil {
		return send(c, texts.StorageUnavailable, keyboards.MainMenu())
	}
	h.mgr.Clear(id)
	return send(c, texts.ResetDone, keyboards.MainMenu())
}

// Grant handles the hidden admin command `/grant <n> [user_id]`, adding n
// credits to the target (the admin's own account when no target is given).
func (h *Handlers) Grant(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "grant")

	args := c.Args()
	if len(args) < 1 || len(args) > 2 {
		return send(c, "Usage: /grant <n> [user_id]", nil)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return send(c, "Usage: /grant <n> [user_id], n must be a positive number", nil)
	}
	target := c.Sender().ID
	if len(args) == 2 {
		target, err = strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return send(c, "Usage: /grant <n> [user_id], bad user id", nil)
		}
	}

	total, err := h.profiles.Grant(ctx, target, n)
	if err != nil {
		return send(c, texts.StorageUnavailable, keyboards.MainMenu())
	}
	return send(c, texts.GrantApplied(n, total), keyboards.MainMenu())
}

// UnknownText is the fallback for free text outside any dialogue.
func (h *Handlers) UnknownText(c tele.Context) error {
	return send(c, texts.UnknownInput, keyboards.MainMenu())
}

// RunMatch asks the engine for a partner and delivers both match cards. The
// engine re-checks preconditions; precondition failures are translated back
// into the collection flows instead of being surfaced as faults.
func (h *Handlers) RunMatch(c tele.Context, cat models.Category) error {
	ctx := tghelpers.WithHandler(c, "match")
	id := c.Sender().ID

	res, err := h.engine.RequestMatch(ctx, id, cat)
	if err != nil {
		return h.matchError(c, cat, err)
	}

	switch res.Outcome {
	case services.OutcomeNoCandidates:
		return send(c, texts.NoCandidates, keyboards.MainMenu())
	case services.OutcomeAlreadyMetAll:
		return send(c, texts.AlreadyMetAll, keyboards.MainMenu())
	}

	// The pairing is committed; notifying the partner is best-effort and
	// never rolls it back.
	notifyCard := texts.MatchCard(texts.MatchNotifyHeader, res.Initiator, cat)
	res.PartnerNotified = h.notifier.NotifyMatch(c, res.Partner.ChatID, notifyCard)
	if !res.PartnerNotified {
		logger.Warn(ctx, "tg", "match.notify_skipped",
			slog.Int64("user_id", id),
			slog.Int64("partner_id", res.Partner.ChatID),
		)
	}

	return send(c, texts.MatchCard(texts.MatchFoundHeader, res.Partner, cat), keyboards.MainMenu())
}

func (h *Handlers) matchError(c tele.Context, cat models.Category, err error) error {
	var missing *services.MissingAttributeError
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		return h.flows.BeginRegistration(c)
	case errors.Is(err, services.ErrInsufficientCredits), errors.Is(err, storage.ErrNoCredits):
		return send(c, texts.NoCreditsLeft, keyboards.MainMenu())
	case errors.As(err, &missing):
		return h.flows.CollectMissingAttribute(c, missing.Category)
	default:
		_ = send(c, texts.StorageUnavailable, keyboards.MainMenu())
		return err
	}
}

func startPayload(c tele.Context) string {
	if msg := c.Message(); msg != nil {
		return strings.TrimSpace(msg.Payload)
	}
	return ""
}

func send(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	return tghelpers.SendText(c, text, opts)
}
