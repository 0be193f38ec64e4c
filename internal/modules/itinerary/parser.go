package itinerary

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	structuredFenceOpen = "```json"
	fenceClose          = "```"
)

var bracketPattern = regexp.MustCompile(`「([^」]+)」`)

// replySchema is what the system prompt asks the model to emit. locations is
// required: a block without it is treated like a malformed one and the reply
// falls back to the 「」 scan. A present but empty list is kept as is.
var replySchema = mustSchema(`{
  "type": "object",
  "required": ["locations"],
  "properties": {
    "locations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": ["string", "null"]},
          "search_query": {"type": ["string", "null"]}
        }
      }
    },
    "route_summary": {"type": ["string", "null"]},
    "travel_info": {"type": ["string", "null"]}
  }
}`)

type structuredReply struct {
	Locations []struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		SearchQuery *string `json:"search_query"`
	} `json:"locations"`
	RouteSummary *string `json:"route_summary"`
	TravelInfo   *string `json:"travel_info"`
}

// ParseReply extracts the locations named in a model reply. It prefers the
// fenced JSON block and falls back to 「…」 names when the block is missing or
// does not match the expected shape. It never fails; the fallback may be empty.
func ParseReply(reply string) ParseResult {
	if res, ok := parseStructured(reply); ok {
		return res
	}
	return parseBrackets(reply)
}

func parseStructured(reply string) (ParseResult, bool) {
	block, ok := structuredBlock(reply)
	if !ok {
		return ParseResult{}, false
	}

	check, err := replySchema.Validate(gojsonschema.NewStringLoader(block))
	if err != nil || !check.Valid() {
		return ParseResult{}, false
	}

	var data structuredReply
	if err := json.Unmarshal([]byte(block), &data); err != nil {
		return ParseResult{}, false
	}

	res := ParseResult{
		Source:       SourceStructured,
		RouteSummary: deref(data.RouteSummary),
		TravelInfo:   deref(data.TravelInfo),
	}
	for _, l := range data.Locations {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			continue
		}
		query := strings.TrimSpace(deref(l.SearchQuery))
		if query == "" {
			query = name
		}
		res.Locations = append(res.Locations, Location{
			Name:        name,
			Description: deref(l.Description),
			SearchQuery: query,
		})
	}
	return res, true
}

// structuredBlock returns the body of the first ```json fence.
func structuredBlock(reply string) (string, bool) {
	_, rest, ok := strings.Cut(reply, structuredFenceOpen)
	if !ok {
		return "", false
	}
	body, _, ok := strings.Cut(rest, fenceClose)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(body), true
}

func parseBrackets(reply string) ParseResult {
	res := ParseResult{Source: SourceBracket}
	for _, m := range bracketPattern.FindAllStringSubmatch(reply, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		res.Locations = append(res.Locations, Location{Name: name, SearchQuery: name})
	}
	return res
}

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("itinerary: invalid reply schema: " + err.Error())
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
