// Package fsm implements the registration and pre-match conversation flows on
// top of the core state manager. Dialogue steps form a closed set of typed
// states; every step either rejects the input and re-prompts, stores the value
// and advances, or completes by persisting through the profile service.
package fsm

import "github.com/m3rciful/meetbot/core/telegram/state"

// Registration flow states.
const (
	// StateCollectingName waits for the user's display name.
	StateCollectingName state.State = "reg_collecting_name"
	// StateCollectingBio waits for the short self-description.
	StateCollectingBio state.State = "reg_collecting_bio"
	// StateChoosingCategory waits for the category menu choice.
	StateChoosingCategory state.State = "reg_choosing_category"
	// StateCollectingCreativity waits for the collab attribute during registration.
	StateCollectingCreativity state.State = "reg_collecting_creativity"
	// StateCollectingGender waits for the gender menu choice during registration.
	StateCollectingGender state.State = "reg_collecting_gender"
)

// Pre-match flow states, entered from idle when a meeting is requested.
const (
	// StateChoosingMeetCategory waits for the meeting category choice.
	StateChoosingMeetCategory state.State = "meet_choosing_category"
	// StateCollectingMeetCreativity collects the missing collab attribute
	// just-in-time before the first collab match.
	StateCollectingMeetCreativity state.State = "meet_collecting_creativity"
	// StateCollectingMeetGender collects the missing gender just-in-time
	// before the first love match.
	StateCollectingMeetGender state.State = "meet_collecting_gender"
)

// Session draft keys for values collected across registration turns.
const (
	tempName = "draft_name"
	tempBio  = "draft_bio"
)
