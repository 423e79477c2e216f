package services

import (
	"errors"
	"fmt"

	"github.com/m3rciful/meetbot/bot/models"
)

var (
	// ErrProfileNotFound indicates the user has no registered profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInsufficientCredits indicates the user has no meeting credits left.
	ErrInsufficientCredits = errors.New("insufficient meeting credits")
)

// MissingAttributeError reports a match precondition failure: the initiator's
// profile lacks the attribute required by the chosen category. The caller is
// expected to route the user into the attribute collection flow.
type MissingAttributeError struct {
	Category models.Category
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("missing %s attribute for category %s", e.Attribute(), e.Category)
}

// Attribute names the field that must be collected.
func (e *MissingAttributeError) Attribute() string {
	switch e.Category {
	case models.CategoryCollab:
		return "creativity"
	case models.CategoryLove:
		return "gender"
	}
	return "unknown"
}

// Code satisfies the router's error classifier.
func (e *MissingAttributeError) Code() string { return "MISSING_ATTRIBUTE" }
