// README: Rule-based slot extraction from free-text trip requests.
package dialogue

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

const originMarker = "から"

// destinationMarkers close the destination phrase after an origin marker.
// Only the unambiguous ones may stand alone (see standaloneDestinationMarkers).
var destinationMarkers = []string{"に", "まで", "へ"}

// standaloneDestinationMarkers are tried in priority order, not by position:
// "奈良へ寄って、大阪まで" ends at 大阪.
var standaloneDestinationMarkers = []string{"まで", "へ"}

type keyword struct {
	match string
	value string
}

// transportKeywords is scanned in order; compound words come before their
// suffixes so that 自転車 is not read as 車.
var transportKeywords = []keyword{
	{"電車", "train"},
	{"新幹線", "train"},
	{"自転車", "bicycle"},
	{"車", "car"},
	{"徒歩", "walking"},
	{"歩い", "walking"},
	{"バス", "bus"},
	{"飛行機", "plane"},
}

var foodKeywords = []string{"和食", "洋食", "中華", "イタリアン", "フレンチ", "ラーメン", "寿司", "焼肉", "カフェ"}

var budgetMultipliers = map[string]int{"": 1, "百": 100, "千": 1000, "万": 10000}

var (
	// Either "<amount>円" or "予算 ... <amount>"; the leftmost alternative wins.
	// An amount may chain unit groups, as in 1万5千.
	budgetPattern = regexp.MustCompile(`(\d[\d,]*(?:\s*[万千百]\s*(?:\d[\d,]*)?)*)\s*円|予算.*?(\d[\d,]*(?:\s*[万千百]\s*(?:\d[\d,]*)?)*)`)
	amountPart    = regexp.MustCompile(`(\d[\d,]*)\s*([万千百]?)`)
	timePattern   = regexp.MustCompile(`(\d{1,2})時|午前|午後|明け方|早朝|朝|正午|昼|夕方|夜`)
)

// Extract pulls whatever trip attributes it can recognise out of message.
// Categories are matched independently; anything not found stays nil.
// The current state is accepted for symmetry with Advance but is not consulted.
func Extract(message string, _ ConversationState) Slots {
	var out Slots

	extractPlaces(message, &out)

	for _, kw := range transportKeywords {
		if strings.Contains(message, kw.match) {
			setString(&out.Transport, kw.value)
			break
		}
	}

	// Digits may arrive full-width from IME input.
	folded := width.Fold.String(message)

	if budget, ok := parseBudget(folded); ok {
		out.Budget = &budget
	}

	if m := timePattern.FindString(folded); m != "" {
		setString(&out.PreferredTime, m)
	}

	for _, food := range foodKeywords {
		if strings.Contains(message, food) {
			setString(&out.FoodPreference, food)
			break
		}
	}

	return out
}

func extractPlaces(message string, out *Slots) {
	if before, after, ok := strings.Cut(message, originMarker); ok {
		if dest, ok := cutBeforeFirst(after, destinationMarkers); ok {
			setString(&out.Origin, lastClause(before))
			setString(&out.Destination, firstClause(dest))
			return
		}
	}
	for _, marker := range standaloneDestinationMarkers {
		if dest, _, ok := strings.Cut(message, marker); ok {
			setString(&out.Destination, lastClause(dest))
			return
		}
	}
}

func parseBudget(message string) (int, bool) {
	m := budgetPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	amount := m[1]
	if amount == "" {
		amount = m[2]
	}

	total := 0
	for _, part := range amountPart.FindAllStringSubmatch(amount, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(part[1], ",", ""))
		if err != nil {
			return 0, false
		}
		total += n * budgetMultipliers[part[2]]
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}

// cutBeforeFirst returns the text preceding the earliest occurrence of any marker.
func cutBeforeFirst(s string, markers []string) (string, bool) {
	idx := -1
	for _, m := range markers {
		if i := strings.Index(s, m); i >= 0 && (idx < 0 || i < idx) {
			idx = i
		}
	}
	if idx < 0 {
		return "", false
	}
	return s[:idx], true
}

func isClauseSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune("、。,，!！?？・", r)
}

func lastClause(s string) string {
	parts := strings.FieldsFunc(s, isClauseSeparator)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func firstClause(s string) string {
	parts := strings.FieldsFunc(s, isClauseSeparator)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func setString(dst **string, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	*dst = &v
}
