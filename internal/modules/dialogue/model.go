// README: Conversation state, slot set and transcript types for the trip dialogue.
package dialogue

import "errors"

type Step string

const (
	StepGreeting   Step = "greeting"
	StepCollecting Step = "collecting"
	StepComplete   Step = "complete"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Slot names a single trip attribute. Values double as the JSON keys of collected_info.
type Slot string

const (
	SlotOrigin         Slot = "origin"
	SlotDestination    Slot = "destination"
	SlotTransport      Slot = "transport"
	SlotBudget         Slot = "budget"
	SlotPreferredTime  Slot = "preferred_time"
	SlotFoodPreference Slot = "food_preference"
)

// SlotOrder is the fixed checklist order used when asking for missing attributes.
var SlotOrder = []Slot{
	SlotOrigin,
	SlotDestination,
	SlotTransport,
	SlotBudget,
	SlotPreferredTime,
	SlotFoodPreference,
}

var ErrEmptyMessage = errors.New("empty message")

// Slots is a partial set of trip attributes. A nil field means "not collected".
type Slots struct {
	Origin         *string `json:"origin,omitempty"`
	Destination    *string `json:"destination,omitempty"`
	Transport      *string `json:"transport,omitempty"`
	Budget         *int    `json:"budget,omitempty"`
	PreferredTime  *string `json:"preferred_time,omitempty"`
	FoodPreference *string `json:"food_preference,omitempty"`
}

// Has reports whether the slot holds a non-empty value.
func (s Slots) Has(slot Slot) bool {
	switch slot {
	case SlotOrigin:
		return nonEmpty(s.Origin)
	case SlotDestination:
		return nonEmpty(s.Destination)
	case SlotTransport:
		return nonEmpty(s.Transport)
	case SlotBudget:
		return s.Budget != nil && *s.Budget > 0
	case SlotPreferredTime:
		return nonEmpty(s.PreferredTime)
	case SlotFoodPreference:
		return nonEmpty(s.FoodPreference)
	}
	return false
}

// Empty reports whether no slot is set.
func (s Slots) Empty() bool {
	for _, slot := range SlotOrder {
		if s.Has(slot) {
			return false
		}
	}
	return true
}

// Merge returns a copy of s with every set field of other applied on top.
func (s Slots) Merge(other Slots) Slots {
	out := s
	if nonEmpty(other.Origin) {
		out.Origin = other.Origin
	}
	if nonEmpty(other.Destination) {
		out.Destination = other.Destination
	}
	if nonEmpty(other.Transport) {
		out.Transport = other.Transport
	}
	if other.Budget != nil && *other.Budget > 0 {
		out.Budget = other.Budget
	}
	if nonEmpty(other.PreferredTime) {
		out.PreferredTime = other.PreferredTime
	}
	if nonEmpty(other.FoodPreference) {
		out.FoodPreference = other.FoodPreference
	}
	return out
}

// Missing lists unset slots in checklist order.
func (s Slots) Missing() []Slot {
	var out []Slot
	for _, slot := range SlotOrder {
		if !s.Has(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// Complete reports whether all six slots are set.
func (s Slots) Complete() bool {
	return len(s.Missing()) == 0
}

func nonEmpty(v *string) bool {
	return v != nil && *v != ""
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the per-session dialogue state. It is created on first
// interaction and replaced wholesale after every successful turn.
type ConversationState struct {
	Step          Step      `json:"step"`
	CollectedInfo Slots     `json:"collected_info"`
	Messages      []Message `json:"messages"`
	// PendingSlot is the slot targeted by the last question, if any.
	PendingSlot Slot `json:"pending_slot,omitempty"`
}

// NewConversationState returns the state of a session that has not spoken yet.
func NewConversationState() ConversationState {
	return ConversationState{Step: StepGreeting}
}

// Clone copies the transcript so a turn can be computed without touching the
// stored state. Slot values are never mutated in place, so sharing them is safe.
func (c ConversationState) Clone() ConversationState {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}

// Turn describes the outcome of one Advance call.
type Turn struct {
	Step      Step
	Extracted Slots
	NextSlot  Slot
	Question  string
}
