package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply_StructuredBlock(t *testing.T) {
	reply := "京都を歩くプランです。\n```json\n" + `{
  "locations": [
    {"name": "金閣寺", "description": "黄金の寺", "search_query": "金閣寺 京都"},
    {"name": "清水寺", "description": null},
    {"name": "  "}
  ],
  "route_summary": "北から南へ",
  "travel_info": null
}` + "\n```\nお楽しみください。"

	got := ParseReply(reply)

	assert.Equal(t, SourceStructured, got.Source)
	require.Len(t, got.Locations, 2)
	assert.Equal(t, Location{Name: "金閣寺", Description: "黄金の寺", SearchQuery: "金閣寺 京都"}, got.Locations[0])
	assert.Equal(t, Location{Name: "清水寺", SearchQuery: "清水寺"}, got.Locations[1])
	assert.Equal(t, "北から南へ", got.RouteSummary)
	assert.Empty(t, got.TravelInfo)
}

func TestParseReply_FallsBackToBrackets(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no block", "まず「金閣寺」へ行き、次に「清水寺」を訪れましょう。"},
		{"broken json", "```json\n{\"locations\": [\n```\nまず「金閣寺」、次に「清水寺」。"},
		{"missing locations", "```json\n{\"route_summary\": \"x\"}\n```\n「金閣寺」と「清水寺」"},
		{"wrong type", "```json\n{\"locations\": \"金閣寺\"}\n```\n「金閣寺」と「清水寺」"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.reply)
			assert.Equal(t, SourceBracket, got.Source)
			assert.Equal(t, []Location{
				{Name: "金閣寺", SearchQuery: "金閣寺"},
				{Name: "清水寺", SearchQuery: "清水寺"},
			}, got.Locations)
		})
	}
}

func TestParseReply_NothingFound(t *testing.T) {
	got := ParseReply("楽しい旅をお祈りしています。")
	assert.Equal(t, SourceBracket, got.Source)
	assert.Empty(t, got.Locations)
}

func TestParseReply_EmptyStructuredListIsAuthoritative(t *testing.T) {
	got := ParseReply("```json\n{\"locations\": []}\n```\n「金閣寺」")
	assert.Equal(t, SourceStructured, got.Source)
	assert.Empty(t, got.Locations)
}
