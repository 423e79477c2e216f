package models

import "strings"

// Category is the kind of meeting a user is looking for.
type Category string

const (
	// CategoryFriendship matches users looking for friends.
	CategoryFriendship Category = "friendship"
	// CategoryCollab matches users looking for creative collaboration.
	CategoryCollab Category = "collab"
	// CategoryLove matches users looking for a relationship.
	CategoryLove Category = "love"
)

// ParseCategory normalizes raw input and reports whether it names a known category.
func ParseCategory(raw string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryFriendship:
		return CategoryFriendship, true
	case CategoryCollab:
		return CategoryCollab, true
	case CategoryLove:
		return CategoryLove, true
	}
	return "", false
}

// Title returns the user-facing name of the category.
func (c Category) Title() string {
	switch c {
	case CategoryFriendship:
		return "Friendship"
	case CategoryCollab:
		return "Collaboration"
	case CategoryLove:
		return "Relationship"
	}
	return string(c)
}

// Gender is the binary gender attribute required for the love category.
// Love matching pairs opposite genders only.
type Gender string

const (
	// GenderMale marks a male profile.
	GenderMale Gender = "male"
	// GenderFemale marks a female profile.
	GenderFemale Gender = "female"
)

// ParseGender normalizes raw input and reports whether it names a known gender.
func ParseGender(raw string) (Gender, bool) {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale, true
	case GenderFemale:
		return GenderFemale, true
	}
	return "", false
}

// Opposite returns the matching counterpart for the love category.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// Title returns the capitalized user-facing form.
func (g Gender) Title() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	}
	return string(g)
}

// Profile is a registered user. ChatID is the Telegram chat identifier and
// primary key; negative IDs are reserved for seeded decoy profiles.
type Profile struct {
	ChatID     int64    `db:"chat_id"`
	Name       string   `db:"name"`
	Bio        string   `db:"bio"`
	Contact    *string  `db:"contact"`
	Category   Category `db:"category"`
	Credits    int      `db:"credits"`
	Creativity *string  `db:"creativity"`
	Gender     *Gender  `db:"gender"`
}

// HasAttributeFor reports whether the category-specific attribute required to
// match in cat is present on the profile. Friendship needs nothing extra.
func (p *Profile) HasAttributeFor(cat Category) bool {
	switch cat {
	case CategoryCollab:
		return p.Creativity != nil && strings.TrimSpace(*p.Creativity) != ""
	case CategoryLove:
		return p.Gender != nil
	}
	return true
}
