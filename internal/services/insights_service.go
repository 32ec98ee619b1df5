package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	tipPoints           = 10
	defaultTipText      = "Reduce your environmental impact with small daily changes."
	defaultChallenge    = "Zero Waste Week: Try to produce zero waste for an entire week."
	challengePrompt     = "Create a weekly eco-challenge that encourages sustainable living. Include a title, description, and focus on actionable steps people can take."
	challengeReward     = 500
	challengeTotalDays  = 7
	weeklyChallengeID   = "weekly-challenge"
	weeklyChallengeName = "This Week's Green Challenge"
)

var tipPrompts = []struct {
	prompt   string
	category string
}{
	{"Give me a practical eco-friendly tip for reducing plastic waste at home.", "Waste Reduction"},
	{"Share an energy-saving tip that I can implement today.", "Energy"},
	{"Suggest a sustainable transportation option for daily commutes.", "Transportation"},
}

type EcoTip struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
}

type WeeklyChallenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      int    `json:"reward"`
	DaysLeft    int    `json:"daysLeft"`
	Progress    int    `json:"progress"`
	TotalDays   int    `json:"totalDays"`
}

// InsightsService builds eco tips, the weekly challenge and coach chat on
// top of the AI provider.
type InsightsService struct {
	sensay *SensayClient
	now    func() time.Time
	log    *zap.Logger
}

func NewInsightsService(sensay *SensayClient, log *zap.Logger) *InsightsService {
	return &InsightsService{sensay: sensay, now: time.Now, log: log}
}

// EcoTips asks one prompt per category, sequentially; any failure fails
// the whole batch.
func (s *InsightsService) EcoTips(ctx context.Context) ([]EcoTip, error) {
	tips := make([]EcoTip, 0, len(tipPrompts))
	for i, p := range tipPrompts {
		text, err := s.sensay.Ask(ctx, p.prompt)
		if err != nil {
			return nil, err
		}
		if text == "" {
			text = defaultTipText
		}
		tips = append(tips, EcoTip{
			ID:          fmt.Sprintf("tip-%d", i+1),
			Title:       fmt.Sprintf("Green Tip %d", i+1),
			Description: text,
			Category:    p.category,
			Points:      tipPoints,
		})
	}
	return tips, nil
}

func (s *InsightsService) WeeklyChallenge(ctx context.Context) (*WeeklyChallenge, error) {
	text, err := s.sensay.Ask(ctx, challengePrompt)
	if err != nil {
		return nil, err
	}
	if text == "" {
		text = defaultChallenge
	}

	daysLeft := daysLeftInWeek(s.now())
	return &WeeklyChallenge{
		ID:          weeklyChallengeID,
		Title:       weeklyChallengeName,
		Description: text,
		Reward:      challengeReward,
		DaysLeft:    daysLeft,
		Progress:    challengeTotalDays - daysLeft,
		TotalDays:   challengeTotalDays,
	}, nil
}

// daysLeftInWeek counts the days after t until Sunday, the last day of the
// ISO week.
func daysLeftInWeek(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return challengeTotalDays - wd
}

// Chat passes the user's message to the coach and returns the provider
// response untouched.
func (s *InsightsService) Chat(ctx context.Context, message, walletAddress string) (json.RawMessage, error) {
	raw, err := s.sensay.Complete(ctx, message)
	if err != nil {
		return nil, err
	}
	s.log.Debug("eco chat answered", zap.String("wallet", walletAddress))
	return raw, nil
}
