// Package texts holds every user-facing message so wording lives in one place.
package texts

import (
	"fmt"
	"strings"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/core/telegram/format"
)

const (
	RegistrationIntro  = "👋 To meet new people you need to complete a short registration."
	AskName            = "📋 What's your name?"
	AskBio             = "💬 Tell us about yourself in a couple of words:"
	AskCategory        = "🧭 Who are you looking for?"
	AskCreativity      = "✍️ Describe your craft in three words:"
	AskGender          = "🧭 What's your gender?"
	NameRequired       = "❗ Please enter your name (at least one word)."
	BioRequired        = "❗ Please write at least a couple of words about yourself."
	CreativityRequired = "❗ Please describe your craft, a short sentence is enough."
	InvalidChoice      = "❗ Please pick one of the options below."

	MainMenuHint = "📋 You are already registered. Use the button below when you want a meeting."
	MeetButton   = "🚀 Request a meeting"

	ChooseMeetCategory = "🚀 Pick a meeting category:"
	NoCreditsLeft      = "No meetings left. Come back with a fresh credit! 🍹"
	NoCandidates       = "No matching members in this category yet."
	AlreadyMetAll      = "No new members: you have already met everyone here."
	SearchingPartner   = "✅ Saved. Looking for a partner..."

	GrantCredited        = "➕ Meeting credited"
	GrantAlreadyCredited = "❗ This meeting was already credited"

	ResetDone = "🧹 Your data has been deleted. Send /start to begin again."

	StorageUnavailable = "❌ Something went wrong, please try again later."
	UnknownInput       = "Use the button below or send /meet to request a meeting."
)

// CreditBalance renders the /count reply.
func CreditBalance(credits int) string {
	return fmt.Sprintf("You have %d meeting(s) left", credits)
}

// GrantApplied renders the admin grant confirmation.
func GrantApplied(n, total int) string {
	return fmt.Sprintf("🛠 Added %d meeting(s). Total: %d", n, total)
}

// GrantLink renders the deep link carrying a one-time grant token.
func GrantLink(botUsername, token string) string {
	return fmt.Sprintf("🔗 One-credit grant link:\nhttps://t.me/%s?start=%s", botUsername, token)
}

// RegistrationDone renders the summary shown when registration completes.
func RegistrationDone(p *models.Profile) string {
	lines := []string{
		"✅ Registration complete!",
		fmt.Sprintf("Looking for: %s", p.Category.Title()),
		fmt.Sprintf("Name: %s", p.Name),
		fmt.Sprintf("About: %s", p.Bio),
		fmt.Sprintf("Contact: %s", format.DerefString(p.Contact, "(not provided)")),
	}
	if attr := categoryAttributeLine(p, p.Category); attr != "" {
		lines = append(lines, "➕ "+attr)
	}
	lines = append(lines, "➕ 1 meeting credited.")
	return strings.Join(lines, "\n")
}

// MatchCard renders the profile card one side of a committed match receives
// about the other. cat is the category the meeting was requested in.
func MatchCard(header string, p *models.Profile, cat models.Category) string {
	lines := []string{
		header,
		"",
		fmt.Sprintf("Name: %s", p.Name),
		fmt.Sprintf("About: %s", p.Bio),
		fmt.Sprintf("Contact: %s", format.DerefString(p.Contact, "(not provided)")),
	}
	if attr := categoryAttributeLine(p, cat); attr != "" {
		lines = append(lines, attr)
	}
	return strings.Join(lines, "\n")
}

const (
	// MatchFoundHeader opens the card sent to the initiator.
	MatchFoundHeader = "🎉 Your meeting:"
	// MatchNotifyHeader opens the card sent to the chosen partner.
	MatchNotifyHeader = "🎉 You have a new match!"
)

func categoryAttributeLine(p *models.Profile, cat models.Category) string {
	switch cat {
	case models.CategoryCollab:
		if p.Creativity != nil {
			return fmt.Sprintf("Craft: %s", *p.Creativity)
		}
	case models.CategoryLove:
		if p.Gender != nil {
			return fmt.Sprintf("Gender: %s", p.Gender.Title())
		}
	}
	return ""
}
