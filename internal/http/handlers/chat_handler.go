// README: Chat handler: one dialogue turn per POST /chat, plus session reset.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tabi/internal/http/middleware"
	"tabi/internal/metrics"
	"tabi/internal/modules/dialogue"
	"tabi/internal/modules/itinerary"
	"tabi/internal/service"
)

// Planner is the part of service.TripPlanner the handler drives.
type Planner interface {
	HandleTurn(ctx context.Context, sessionID, clientKey, message string) (service.TurnResult, error)
	Reset(ctx context.Context, sessionID string) error
}

type ChatHandler struct {
	planner Planner
}

func NewChatHandler(planner Planner) *ChatHandler {
	return &ChatHandler{planner: planner}
}

type chatReq struct {
	Message string `json:"message"`
}

type conversationState struct {
	Step          dialogue.Step  `json:"step"`
	CollectedInfo dialogue.Slots `json:"collected_info"`
}

type chatResp struct {
	Response          string                       `json:"response"`
	MapData           *service.MapData             `json:"map_data"`
	Locations         []itinerary.ResolvedLocation `json:"locations"`
	Restaurants       []itinerary.Restaurant       `json:"restaurants"`
	Route             *itinerary.Route             `json:"route"`
	RouteSummary      string                       `json:"route_summary,omitempty"`
	TravelInfo        string                       `json:"travel_info,omitempty"`
	ConversationState conversationState            `json:"conversation_state"`
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ChatTurns.WithLabelValues("invalid_json").Inc()
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	res, err := h.planner.HandleTurn(c.Request.Context(), middleware.SessionID(c), c.ClientIP(), req.Message)
	if err != nil {
		metrics.ChatTurns.WithLabelValues("error").Inc()
		writeTurnError(c, err)
		return
	}
	metrics.ChatTurns.WithLabelValues(string(res.State.Step)).Inc()

	resp := chatResp{
		Response:    res.Response,
		Locations:   []itinerary.ResolvedLocation{},
		Restaurants: []itinerary.Restaurant{},
		ConversationState: conversationState{
			Step:          res.State.Step,
			CollectedInfo: res.State.CollectedInfo,
		},
	}
	if plan := res.Plan; plan != nil {
		resp.MapData = plan.MapData
		resp.Route = plan.Route
		resp.RouteSummary = plan.RouteSummary
		resp.TravelInfo = plan.TravelInfo
		if plan.Locations != nil {
			resp.Locations = plan.Locations
		}
		if plan.Restaurants != nil {
			resp.Restaurants = plan.Restaurants
		}
	}
	writeJSON(c, http.StatusOK, resp)
}

// Reset handles POST /chat/reset.
func (h *ChatHandler) Reset(c *gin.Context) {
	if err := h.planner.Reset(c.Request.Context(), middleware.SessionID(c)); err != nil {
		writeTurnError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"conversation_state": conversationState{Step: dialogue.StepGreeting},
	})
}
