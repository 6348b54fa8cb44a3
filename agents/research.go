package agents

import (
	"context"
	"fmt"
	"strings"

	"dealsense/genai"
	"dealsense/models"
	"dealsense/utils"
)

const researchSystemPrompt = `You are a Market Value Researcher, an expert in
determining fair market values for used items. You understand that great
deals are typically 40% or less of market value, while items priced above
market average should receive low scores. Your goal is to find accurate
market values for second-hand items and evaluate deal quality.`

const researchInstructionTemplate = `Research the current market value for the second-hand item below.

Follow these steps:
1. Extract key information like brand, model, specifications, and condition
2. Consider similar items on %s (limit to %d search%s)
3. Find comparable listings with similar specifications and condition
4. Calculate the average market price for similar items
5. Note any factors that might affect the value (rarity, demand, etc.)

Provide a detailed analysis with specific price points, a price range, and
confidence metrics for your findings.`

// ResearchAgent produces a MarketResearch record for each listing.
type ResearchAgent struct {
	gen         genai.Generator
	logger      *utils.Logger
	maxSearches int
	searchSite  string
}

func NewResearchAgent(gen genai.Generator, logger *utils.Logger, maxSearches int, searchSite string) *ResearchAgent {
	if maxSearches < 1 {
		maxSearches = 1
	}
	if searchSite == "" {
		searchSite = "amazon"
	}
	return &ResearchAgent{gen: gen, logger: logger, maxSearches: maxSearches, searchSite: searchSite}
}

// Research generates market research for one listing.
func (a *ResearchAgent) Research(ctx context.Context, listing *models.Listing) (*models.MarketResearch, error) {
	plural := ""
	if a.maxSearches > 1 {
		plural = "es"
	}

	raw, err := a.gen.Generate(ctx, genai.Request{
		Schema: genai.SchemaMarketResearch,
		System: researchSystemPrompt,
		Instruction: fmt.Sprintf(researchInstructionTemplate,
			capitalize(a.searchSite), a.maxSearches, plural),
		Payload: map[string]any{"item_data": listing.PromptMap()},
	})
	if err != nil {
		return nil, err
	}

	research, err := decodeResult[models.MarketResearch](raw)
	if err != nil {
		return nil, err
	}

	// Models occasionally echo a mangled id; the listing is authoritative.
	research.ItemID = listing.ID
	return research, nil
}

// FallbackResearch builds the substitute record used when generation fails
// for one listing. Downstream stages treat the zero average price as
// "unknown market value" and score accordingly.
func (a *ResearchAgent) FallbackResearch(listing *models.Listing, cause error) *models.MarketResearch {
	return &models.MarketResearch{
		ItemID:          listing.ID,
		AveragePrice:    0,
		PriceRange:      [2]float64{0, 0},
		ValueAssessment: "Could not determine due to error",
		MarketDemand:    "Unknown",
		PriceFactors:    []string{"Error during research"},
		Confidence: models.Confidence{
			Score:            1,
			Factors:          []string{"Research failed"},
			DataSources:      0,
			PriceConsistency: 1,
		},
		Notes: fmt.Sprintf("Market research failed: %v", cause),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
