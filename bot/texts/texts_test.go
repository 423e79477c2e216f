package texts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/meetbot/bot/models"
)

func TestMatchCardShowsCategoryAttribute(t *testing.T) {
	contact := "@eva"
	gender := models.GenderFemale
	p := &models.Profile{
		Name:    "Eva",
		Bio:     "Looking for a partner in crime",
		Contact: &contact,
		Gender:  &gender,
	}

	card := MatchCard(MatchFoundHeader, p, models.CategoryLove)
	assert.Contains(t, card, "Name: Eva")
	assert.Contains(t, card, "Contact: @eva")
	assert.Contains(t, card, "Gender: Female", "gender must be capitalized")

	craft := "pottery"
	p.Creativity = &craft
	card = MatchCard(MatchNotifyHeader, p, models.CategoryCollab)
	assert.Contains(t, card, "Craft: pottery")
	assert.NotContains(t, card, "Gender:", "only the requested category's attribute appears")
}

func TestMatchCardOmitsMissingContact(t *testing.T) {
	p := &models.Profile{Name: "N", Bio: "b"}
	card := MatchCard(MatchFoundHeader, p, models.CategoryFriendship)
	assert.Contains(t, card, "Contact: (not provided)")
}

func TestRegistrationDoneMentionsStarterCredit(t *testing.T) {
	p := &models.Profile{Name: "N", Bio: "b", Category: models.CategoryFriendship}
	msg := RegistrationDone(p)
	assert.Contains(t, msg, "Looking for: Friendship")
	assert.Contains(t, msg, "1 meeting credited")
}
