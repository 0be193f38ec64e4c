// README: Dialogue manager; advances the slot-filling conversation one turn at a time.
package dialogue

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

const questionPrefix = "ありがとうございます！"

var slotQuestions = map[Slot]string{
	SlotOrigin:         "出発地はどちらですか？",
	SlotDestination:    "目的地はどちらですか？",
	SlotTransport:      "どの交通手段をご希望ですか？（電車、車、徒歩など）",
	SlotBudget:         "予算の目安はありますか？（食事代など）",
	SlotPreferredTime:  "何時頃に到着予定ですか？",
	SlotFoodPreference: "どんなお料理がお好みですか？（和食、洋食など）",
}

// Slots that accept a bare answer ("京都です") to the question that asked for them.
var freeTextSlots = map[Slot]bool{
	SlotOrigin:         true,
	SlotDestination:    true,
	SlotFoodPreference: true,
}

// nonAnswerMarkers flag replies that dodge the question instead of answering it.
var nonAnswerMarkers = []string{"わから", "分から", "おすすめ", "オススメ", "おまかせ", "お任せ", "何", "どこ", "特に", "未定"}

// Food answers must read as a dish or cuisine, not a sentence about wanting one.
var foodNonAnswerMarkers = []string{"ない", "なし", "たい"}

const (
	maxPlaceAnswerRunes = 20
	maxFoodAnswerRunes  = 10
)

// NextQuestion returns the first missing slot in checklist order and its question.
// done is true once every slot is collected.
func NextQuestion(info Slots) (slot Slot, question string, done bool) {
	for _, s := range SlotOrder {
		if !info.Has(s) {
			return s, slotQuestions[s], false
		}
	}
	return "", "", true
}

// Advance applies one user message to st and returns the turn outcome together
// with the next state. st itself is left untouched, so a caller that fails later
// in the turn can simply drop the returned state.
func Advance(st ConversationState, message string) (Turn, ConversationState, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Turn{}, st, ErrEmptyMessage
	}

	next := st.Clone()
	extracted := Extract(message, st)
	if extracted.Empty() && freeTextSlots[st.PendingSlot] {
		extracted = answerPendingSlot(st.PendingSlot, message)
	}

	next.CollectedInfo = next.CollectedInfo.Merge(extracted)
	next.Messages = append(next.Messages, Message{Role: RoleUser, Content: message})

	turn := Turn{Extracted: extracted}
	slot, question, done := NextQuestion(next.CollectedInfo)
	if done {
		next.Step = StepComplete
		next.PendingSlot = ""
		turn.Step = StepComplete
		return turn, next, nil
	}

	turn.Step = StepCollecting
	turn.NextSlot = slot
	turn.Question = questionPrefix + question
	next.Step = StepCollecting
	next.PendingSlot = slot
	next.Messages = append(next.Messages, Message{Role: RoleAssistant, Content: turn.Question})
	return turn, next, nil
}

// RecordReply appends an assistant reply produced outside the checklist (the plan text).
func RecordReply(st ConversationState, reply string) ConversationState {
	next := st.Clone()
	next.Messages = append(next.Messages, Message{Role: RoleAssistant, Content: reply})
	return next
}

func answerPendingSlot(slot Slot, message string) Slots {
	if isNonAnswer(message) {
		return Slots{}
	}
	answer := strings.TrimFunc(message, isClauseSeparator)
	answer = strings.TrimSuffix(answer, "です")
	answer = strings.TrimSuffix(answer, "から")
	answer = strings.TrimFunc(answer, isClauseSeparator)

	limit := maxPlaceAnswerRunes
	if slot == SlotFoodPreference {
		if containsAny(answer, foodNonAnswerMarkers) {
			return Slots{}
		}
		limit = maxFoodAnswerRunes
	}
	if utf8.RuneCountInString(answer) > limit {
		return Slots{}
	}

	var out Slots
	switch slot {
	case SlotOrigin:
		setString(&out.Origin, answer)
	case SlotDestination:
		setString(&out.Destination, answer)
	case SlotFoodPreference:
		setString(&out.FoodPreference, answer)
	}
	return out
}

// isNonAnswer reports questions back to the assistant and replies that defer the choice.
func isNonAnswer(message string) bool {
	trimmed := strings.TrimRightFunc(message, unicode.IsSpace)
	if strings.HasSuffix(trimmed, "?") || strings.HasSuffix(trimmed, "？") {
		return true
	}
	return containsAny(message, nonAnswerMarkers)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Service loads and commits conversation state around a turn.
type Service struct {
	store StateStore
}

func NewService(store StateStore) *Service {
	return &Service{store: store}
}

// Load returns the session's state, or a fresh one for a new session.
func (s *Service) Load(ctx context.Context, sessionID string) (ConversationState, error) {
	st, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return ConversationState{}, err
	}
	if !found {
		return NewConversationState(), nil
	}
	return st, nil
}

// Commit persists the state produced by a successful turn.
func (s *Service) Commit(ctx context.Context, sessionID string, st ConversationState) error {
	return s.store.Put(ctx, sessionID, st)
}

// Reset drops the session's state so the next turn starts from the greeting.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
