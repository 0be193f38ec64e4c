package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tabi/internal/ai"
	"tabi/internal/maps"
	"tabi/internal/metrics"
	"tabi/internal/modules/dialogue"
	"tabi/internal/modules/itinerary"
)

// ErrCompletionFailed wraps any completion-provider failure during plan synthesis.
var ErrCompletionFailed = errors.New("completion failed")

const unspecified = "未指定"

// UsageGuard charges one plan synthesis to a client.
type UsageGuard interface {
	Consume(ctx context.Context, clientKey string) error
}

// MapData is the embeddable map and the items drawn on it.
type MapData struct {
	URL         string                       `json:"url"`
	Locations   []itinerary.ResolvedLocation `json:"locations"`
	Restaurants []itinerary.Restaurant       `json:"restaurants"`
	Route       *itinerary.Route             `json:"route"`
}

// PlanResult is the outcome of one synthesis.
type PlanResult struct {
	ResponseText string
	Source       itinerary.Source
	// MapData is nil unless at least one location resolved and an embed key is configured.
	MapData      *MapData
	Locations    []itinerary.ResolvedLocation
	Restaurants  []itinerary.Restaurant
	Route        *itinerary.Route
	RouteSummary string
	TravelInfo   string
}

// TurnResult is what a single chat turn produces.
type TurnResult struct {
	Response string
	// Plan is set only on turns that reached the complete step.
	Plan  *PlanResult
	State dialogue.ConversationState
}

// TripPlanner orchestrates the slot-filling dialogue, the completion call and
// the places lookups.
type TripPlanner struct {
	dialogue  *dialogue.Service
	provider  ai.CompletionProvider
	itinerary *itinerary.Service
	embedKey  string
	usage     UsageGuard
	logger    *zap.Logger
}

// NewTripPlanner creates a TripPlanner. usage may be nil to disable quotas.
func NewTripPlanner(
	dialogueSvc *dialogue.Service,
	provider ai.CompletionProvider,
	itinerarySvc *itinerary.Service,
	embedKey string,
	usage UsageGuard,
	logger *zap.Logger,
) *TripPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripPlanner{
		dialogue:  dialogueSvc,
		provider:  provider,
		itinerary: itinerarySvc,
		embedKey:  embedKey,
		usage:     usage,
		logger:    logger,
	}
}

// HandleTurn runs one user message through the dialogue. While slots are
// missing it returns the next question; once complete it synthesizes a plan.
// The session state is committed only when the whole turn succeeds.
func (p *TripPlanner) HandleTurn(ctx context.Context, sessionID, clientKey, message string) (TurnResult, error) {
	st, err := p.dialogue.Load(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	turn, next, err := dialogue.Advance(st, message)
	if err != nil {
		return TurnResult{}, err
	}
	p.logger.Debug("turn advanced",
		zap.String("session", sessionID),
		zap.String("step", string(turn.Step)),
		zap.String("next_slot", string(turn.NextSlot)))

	if turn.Step != dialogue.StepComplete {
		if err := p.dialogue.Commit(ctx, sessionID, next); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{Response: turn.Question, State: next}, nil
	}

	if p.usage != nil {
		if err := p.usage.Consume(ctx, clientKey); err != nil {
			return TurnResult{}, fmt.Errorf("charge completion: %w", err)
		}
	}

	plan, err := p.Synthesize(ctx, next.CollectedInfo, strings.TrimSpace(message))
	if err != nil {
		return TurnResult{}, err
	}

	next = dialogue.RecordReply(next, plan.ResponseText)
	if err := p.dialogue.Commit(ctx, sessionID, next); err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Response: plan.ResponseText, Plan: &plan, State: next}, nil
}

// Reset forgets the session's conversation.
func (p *TripPlanner) Reset(ctx context.Context, sessionID string) error {
	return p.dialogue.Reset(ctx, sessionID)
}

// Synthesize asks the completion provider for a plan and enriches the named
// locations with coordinates, nearby restaurants, a walking route and a map.
// Only the completion call can fail the synthesis.
func (p *TripPlanner) Synthesize(ctx context.Context, info dialogue.Slots, latest string) (PlanResult, error) {
	start := time.Now()
	provider := p.provider.Name()
	defer func() {
		metrics.SynthesisDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}()

	reply, err := p.provider.Complete(ctx, BuildPrompt(info, latest))
	if err != nil {
		metrics.Completions.WithLabelValues(provider, "error").Inc()
		p.logger.Error("completion failed", zap.String("provider", provider), zap.Error(err))
		return PlanResult{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	metrics.Completions.WithLabelValues(provider, "ok").Inc()

	parsed := itinerary.ParseReply(reply)
	plan := PlanResult{
		ResponseText: reply,
		Source:       parsed.Source,
		RouteSummary: parsed.RouteSummary,
		TravelInfo:   parsed.TravelInfo,
	}

	plan.Locations = p.itinerary.ResolveLocations(ctx, parsed.Locations)
	if len(plan.Locations) > 0 {
		// Restaurants and the route are independent; both degrade to empty on failure.
		var g errgroup.Group
		g.Go(func() error {
			plan.Restaurants = p.itinerary.NearbyRestaurants(ctx, plan.Locations)
			return nil
		})
		g.Go(func() error {
			plan.Route = p.itinerary.BuildRoute(ctx, plan.Locations)
			return nil
		})
		_ = g.Wait()
	}

	points := make([]maps.LatLng, len(plan.Locations))
	for i, l := range plan.Locations {
		points[i] = l.Point()
	}
	if url, ok := maps.EmbedURL(p.embedKey, points); ok {
		plan.MapData = &MapData{
			URL:         url,
			Locations:   plan.Locations,
			Restaurants: plan.Restaurants,
			Route:       plan.Route,
		}
	}

	metrics.PlanItems.WithLabelValues("locations").Observe(float64(len(plan.Locations)))
	metrics.PlanItems.WithLabelValues("restaurants").Observe(float64(len(plan.Restaurants)))
	p.logger.Info("plan synthesized",
		zap.String("source", string(plan.Source)),
		zap.Int("named", len(parsed.Locations)),
		zap.Int("resolved", len(plan.Locations)),
		zap.Int("restaurants", len(plan.Restaurants)),
		zap.Bool("route", plan.Route != nil))
	return plan, nil
}

// BuildPrompt renders the collected slots into the system instructions and
// pairs them with the user's latest request.
func BuildPrompt(info dialogue.Slots, latest string) []ai.Message {
	budget := unspecified
	if info.Budget != nil {
		budget = strconv.Itoa(*info.Budget) + "円"
	}

	system := fmt.Sprintf(`あなたは対話型旅行コンシェルジュAIです。ユーザーから収集した情報をもとに、最適な旅行ルートと飲食店を提案してください。

収集した旅行情報：
- 出発地: %s
- 目的地: %s
- 交通手段: %s
- 予算: %s
- 到着時間: %s
- 食事の好み: %s

応答ルール：
1. 収集した情報を活用して個人に最適化された提案を行う
2. 具体的な場所名は「」で囲んで記載
3. 以下のJSONフォーマットで情報を含めてください：

%s

4. 予算や時間、食事の好みを考慮した提案
5. 親しみやすく、実用的な情報を含めて応答`,
		orUnspecified(info.Origin),
		orUnspecified(info.Destination),
		orUnspecified(info.Transport),
		budget,
		orUnspecified(info.PreferredTime),
		orUnspecified(info.FoodPreference),
		replyFormat,
	)

	return []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: "収集した情報をもとに旅行プランを作成してください。最新のリクエスト: " + latest},
	}
}

const replyFormat = "```json\n" + `{
  "locations": [
    {
      "name": "場所名",
      "description": "特徴や見どころ",
      "search_query": "Google検索用クエリ"
    }
  ],
  "route_summary": "出発地から目的地までのルート概要",
  "travel_info": "交通手段と所要時間"
}` + "\n```"

func orUnspecified(v *string) string {
	if v == nil || *v == "" {
		return unspecified
	}
	return *v
}
