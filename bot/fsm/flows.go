package fsm

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/bot/keyboards"
	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/services"
	"github.com/m3rciful/meetbot/bot/texts"
	"github.com/m3rciful/meetbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/meetbot/core/telegram/helpers"
	"github.com/m3rciful/meetbot/core/telegram/state"
)

// MatchRunner executes a match request for the user behind the context and
// delivers the results. Implemented by the handlers layer.
type MatchRunner func(c tele.Context, cat models.Category) error

// Flows drives the registration and pre-match dialogues.
type Flows struct {
	mgr      state.Manager
	profiles *services.ProfileService
	runMatch MatchRunner
}

// New wires the dialogue flows.
func New(mgr state.Manager, profiles *services.ProfileService, runMatch MatchRunner) *Flows {
	return &Flows{mgr: mgr, profiles: profiles, runMatch: runMatch}
}

// RegisterHandlers binds every non-idle state to its text handler so the
// message router can dispatch mid-dialogue turns.
func (f *Flows) RegisterHandlers() {
	state.RegisterHandler(StateCollectingName, f.collectName)
	state.RegisterHandler(StateCollectingBio, f.collectBio)
	state.RegisterHandler(StateChoosingCategory, f.repromptCategory)
	state.RegisterHandler(StateCollectingCreativity, f.collectCreativity)
	state.RegisterHandler(StateCollectingGender, f.repromptRegisterGender)
	state.RegisterHandler(StateChoosingMeetCategory, f.repromptMeetCategory)
	state.RegisterHandler(StateCollectingMeetCreativity, f.collectMeetCreativity)
	state.RegisterHandler(StateCollectingMeetGender, f.repromptMeetGender)
}

// BeginRegistration wipes all durable data for the user and starts the
// dialogue at name collection. Restarting registration always discards the
// previous profile and pairing history.
func (f *Flows) BeginRegistration(c tele.Context) error {
	id := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	if err := f.profiles.ResetAll(ctx, id); err != nil {
		_ = send(c, texts.StorageUnavailable, keyboards.MainMenu())
		return err
	}
	f.mgr.Clear(id)
	f.mgr.SetState(id, StateCollectingName)
	return send(c, texts.RegistrationIntro+"\n\n"+texts.AskName, keyboards.RemoveMenu())
}

func (f *Flows) collectName(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return send(c, texts.NameRequired, keyboards.RemoveMenu())
	}
	id := c.Sender().ID
	f.mgr.SetTemp(id, tempName, text)
	f.mgr.SetState(id, StateCollectingBio)
	return send(c, texts.AskBio, keyboards.RemoveMenu())
}

func (f *Flows) collectBio(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return send(c, texts.BioRequired, keyboards.RemoveMenu())
	}
	id := c.Sender().ID
	f.mgr.SetTemp(id, tempBio, text)
	f.mgr.SetState(id, StateChoosingCategory)
	return send(c, texts.AskCategory, keyboards.Categories(keyboards.CBRegisterCategory))
}

// repromptCategory handles free text typed while the category menu is open.
func (f *Flows) repromptCategory(c tele.Context) error {
	return send(c, texts.InvalidChoice, keyboards.Categories(keyboards.CBRegisterCategory))
}

func (f *Flows) collectCreativity(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return send(c, texts.CreativityRequired, keyboards.RemoveMenu())
	}
	return f.finishRegistration(c, models.CategoryCollab, &text, nil)
}

func (f *Flows) repromptRegisterGender(c tele.Context) error {
	return send(c, texts.InvalidChoice, keyboards.Genders(keyboards.CBRegisterGender))
}

// RegistrationCategoryChosen handles the category callback during registration.
func (f *Flows) RegistrationCategoryChosen(c tele.Context) error {
	id := c.Sender().ID
	if f.mgr.GetState(id) != StateChoosingCategory {
		return nil
	}
	cat, ok := models.ParseCategory(callbacks.CallbackPayload(c))
	if !ok {
		return send(c, texts.InvalidChoice, keyboards.Categories(keyboards.CBRegisterCategory))
	}
	switch cat {
	case models.CategoryCollab:
		f.mgr.SetState(id, StateCollectingCreativity)
		return send(c, texts.AskCreativity, keyboards.RemoveMenu())
	case models.CategoryLove:
		f.mgr.SetState(id, StateCollectingGender)
		return send(c, texts.AskGender, keyboards.Genders(keyboards.CBRegisterGender))
	default:
		return f.finishRegistration(c, cat, nil, nil)
	}
}

// RegistrationGenderChosen handles the gender callback during registration.
func (f *Flows) RegistrationGenderChosen(c tele.Context) error {
	id := c.Sender().ID
	if f.mgr.GetState(id) != StateCollectingGender {
		return nil
	}
	gender, ok := models.ParseGender(callbacks.CallbackPayload(c))
	if !ok {
		return send(c, texts.InvalidChoice, keyboards.Genders(keyboards.CBRegisterGender))
	}
	return f.finishRegistration(c, models.CategoryLove, nil, &gender)
}

// finishRegistration persists the completed draft and returns to idle.
func (f *Flows) finishRegistration(c tele.Context, cat models.Category, creativity *string, gender *models.Gender) error {
	id := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	name, okName := f.tempString(id, tempName)
	bio, okBio := f.tempString(id, tempBio)
	if !okName || !okBio {
		// Draft lost (e.g. process restart mid-dialogue); start over.
		return f.BeginRegistration(c)
	}

	profile := &models.Profile{
		ChatID:     id,
		Name:       name,
		Bio:        bio,
		Contact:    contactOf(c.Sender()),
		Category:   cat,
		Creativity: creativity,
		Gender:     gender,
	}
	if err := f.profiles.Register(ctx, profile); err != nil {
		_ = send(c, texts.StorageUnavailable, keyboards.MainMenu())
		return err
	}
	f.mgr.Clear(id)
	return send(c, texts.RegistrationDone(profile), keyboards.MainMenu())
}

// BeginMeetRequest enters the pre-match branch: the user picks a category,
// then any missing category attribute is collected before the engine runs.
// Callers verify the profile and credit preconditions first.
func (f *Flows) BeginMeetRequest(c tele.Context) error {
	f.mgr.SetState(c.Sender().ID, StateChoosingMeetCategory)
	return send(c, texts.ChooseMeetCategory, keyboards.Categories(keyboards.CBMeetCategory))
}

func (f *Flows) repromptMeetCategory(c tele.Context) error {
	return send(c, texts.ChooseMeetCategory, keyboards.Categories(keyboards.CBMeetCategory))
}

// MeetCategoryChosen handles the category callback of the pre-match branch.
func (f *Flows) MeetCategoryChosen(c tele.Context) error {
	id := c.Sender().ID
	if f.mgr.GetState(id) != StateChoosingMeetCategory {
		return nil
	}
	cat, ok := models.ParseCategory(callbacks.CallbackPayload(c))
	if !ok {
		return send(c, texts.InvalidChoice, keyboards.Categories(keyboards.CBMeetCategory))
	}
	ctx := tghelpers.BuildContext(c)

	profile, err := f.profiles.ProfileByChatID(ctx, id)
	if err != nil {
		_ = send(c, texts.StorageUnavailable, keyboards.MainMenu())
		return err
	}
	if profile == nil {
		return f.BeginRegistration(c)
	}
	if profile.Credits < 1 {
		f.mgr.ClearState(id)
		return send(c, texts.NoCreditsLeft, keyboards.MainMenu())
	}

	if !profile.HasAttributeFor(cat) {
		return f.CollectMissingAttribute(c, cat)
	}

	f.mgr.ClearState(id)
	return f.runMatch(c, cat)
}

// CollectMissingAttribute routes the user into the just-in-time collection
// step for the attribute the chosen category requires.
func (f *Flows) CollectMissingAttribute(c tele.Context, cat models.Category) error {
	id := c.Sender().ID
	switch cat {
	case models.CategoryCollab:
		f.mgr.SetState(id, StateCollectingMeetCreativity)
		return send(c, texts.AskCreativity, keyboards.RemoveMenu())
	case models.CategoryLove:
		f.mgr.SetState(id, StateCollectingMeetGender)
		return send(c, texts.AskGender, keyboards.Genders(keyboards.CBMeetGender))
	}
	f.mgr.ClearState(id)
	return nil
}

func (f *Flows) collectMeetCreativity(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return send(c, texts.CreativityRequired, keyboards.RemoveMenu())
	}
	id := c.Sender().ID
	ctx := tghelpers.BuildContext(c)
	if err := f.profiles.SaveCreativity(ctx, id, text); err != nil {
		_ = send(c, texts.StorageUnavailable, keyboards.MainMenu())
		return err
	}
	f.mgr.ClearState(id)
	if err := send(c, texts.SearchingPartner, keyboards.MainMenu()); err != nil {
		return err
	}
	return f.runMatch(c, models.CategoryCollab)
}

func (f *Flows) repromptMeetGender(c tele.Context) error {
	return send(c, texts.InvalidChoice, keyboards.Genders(keyboards.CBMeetGender))
}

// MeetGenderChosen handles the gender callback of the pre-match branch.
func (f *Flows) MeetGenderChosen(c tele.Context) error {
	id := c.Sender().ID
	if f.mgr.GetState(id) != StateCollectingMeetGender {
		return nil
	}
	gender, ok := models.ParseGender(callbacks.CallbackPayload(c))
	if !ok {
		return send(c, texts.InvalidChoice, keyboards.Genders(keyboards.CBMeetGender))
	}
	ctx := tghelpers.BuildContext(c)
	if err := f.profiles.SaveGender(ctx, id, gender); err != nil {
		_ = send(c, texts.StorageUnavailable, keyboards.MainMenu())
		return err
	}
	f.mgr.ClearState(id)
	if err := send(c, texts.SearchingPartner, keyboards.MainMenu()); err != nil {
		return err
	}
	return f.runMatch(c, models.CategoryLove)
}

func (f *Flows) tempString(id int64, key string) (string, bool) {
	v, ok := f.mgr.GetTemp(id, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func contactOf(u *tele.User) *string {
	if u == nil || u.Username == "" {
		return nil
	}
	handle := "@" + u.Username
	return &handle
}

func send(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}
