package agents

import (
	"context"

	"dealsense/genai"
	"dealsense/models"
	"dealsense/utils"
)

const analystSystemPrompt = `You are a Second-Hand Item Analyst, an
experienced analyst who helps buyers identify the most promising second-hand
items and estimate their true value. Your goal is to analyze and evaluate
second-hand items for bargain potential and value estimation. The score must
be on a scale between 0 and 100, where:
- 80-100: Excellent deal (listing at 40% or less of market price)
- 60-79: Good deal (41-60% of market price)
- 40-59: Fair price (61-90% of market price)
- 20-39: Above market (91-120% of market price)
- 1-19: Significantly overpriced (more than 120% of market price)`

const analystInstruction = `Analyze the following second-hand item data together
with its market research, and provide a score with recommendations. Give a
clear explanation of why you gave that score.`

// Analyst scores listings for bargain potential using the market research
// gathered for them.
type Analyst struct {
	gen    genai.Generator
	logger *utils.Logger
}

func NewAnalyst(gen genai.Generator, logger *utils.Logger) *Analyst {
	return &Analyst{gen: gen, logger: logger}
}

// Analyze scores one listing. The research record may be a fallback with a
// zero average price; the model is expected to score such items at the floor.
func (a *Analyst) Analyze(ctx context.Context, listing *models.Listing, research *models.MarketResearch) (*models.ItemAnalysis, error) {
	raw, err := a.gen.Generate(ctx, genai.Request{
		Schema:      genai.SchemaItemAnalysis,
		System:      analystSystemPrompt,
		Instruction: analystInstruction,
		Payload: map[string]any{
			"item_data":       listing.PromptMap(),
			"market_research": research.Compact(),
		},
	})
	if err != nil {
		return nil, err
	}

	analysis, err := decodeResult[models.ItemAnalysis](raw)
	if err != nil {
		return nil, err
	}

	analysis.ItemID = listing.ID
	if analysis.Title == "" {
		analysis.Title = listing.Title
	}
	if analysis.Price == 0 {
		analysis.Price = listing.Price
	}
	if analysis.Status == "" {
		analysis.Status = listing.Status
	}
	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 100 {
		analysis.Score = 100
	}
	return analysis, nil
}
