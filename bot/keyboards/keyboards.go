// Package keyboards builds the reply and inline keyboards used by the bot.
package keyboards

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/texts"
	"github.com/m3rciful/meetbot/core/telegram/keyboard"
)

// Callback registry keys for menu choices. The payload carries the chosen
// enum value.
const (
	CBRegisterCategory = "reg_cat"
	CBMeetCategory     = "meet_cat"
	CBRegisterGender   = "reg_gender"
	CBMeetGender       = "meet_gender"
)

// MainMenu is the persistent reply keyboard with the meeting button.
func MainMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{texts.MeetButton})
}

// RemoveMenu hides the reply keyboard while a text answer is collected.
func RemoveMenu() *tele.ReplyMarkup {
	return keyboard.RemoveKeyboard()
}

// Categories builds the inline category picker for the given callback key.
func Categories(cbKey string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🤝 Friendship", Unique: cbKey, Data: string(models.CategoryFriendship)},
		{Text: "💡 Collaboration", Unique: cbKey, Data: string(models.CategoryCollab)},
		{Text: "❤️ Relationship", Unique: cbKey, Data: string(models.CategoryLove)},
	})
}

// Genders builds the inline gender picker for the given callback key.
func Genders(cbKey string) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "Male", Unique: cbKey, Data: string(models.GenderMale)},
		{Text: "Female", Unique: cbKey, Data: string(models.GenderFemale)},
	})
}
