package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"friendship", CategoryFriendship, true},
		{" Collab ", CategoryCollab, true},
		{"LOVE", CategoryLove, true},
		{"", "", false},
		{"business", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCategory(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestGenderOpposite(t *testing.T) {
	assert.Equal(t, GenderFemale, GenderMale.Opposite())
	assert.Equal(t, GenderMale, GenderFemale.Opposite())
}

func TestGenderTitleIsCapitalized(t *testing.T) {
	assert.Equal(t, "Male", GenderMale.Title())
	assert.Equal(t, "Female", GenderFemale.Title())
}

func TestHasAttributeFor(t *testing.T) {
	craft := "pottery"
	blank := "   "
	g := GenderFemale

	p := &Profile{Category: CategoryFriendship}
	assert.True(t, p.HasAttributeFor(CategoryFriendship))
	assert.False(t, p.HasAttributeFor(CategoryCollab))
	assert.False(t, p.HasAttributeFor(CategoryLove))

	p.Creativity = &blank
	assert.False(t, p.HasAttributeFor(CategoryCollab), "whitespace-only craft does not count")

	p.Creativity = &craft
	assert.True(t, p.HasAttributeFor(CategoryCollab))

	p.Gender = &g
	assert.True(t, p.HasAttributeFor(CategoryLove))
}
