package agents

import (
	"context"

	"dealsense/genai"
	"dealsense/models"
	"dealsense/utils"
)

const dealSystemPrompt = `You are a Deal Message Specialist, an expert in
online marketplace communication and deal-making with a focus on securing the
best possible prices. You understand the psychology of online selling and how
to craft messages that are effective while still maintaining respect. You
know that on platforms like Vinted, a confident tone works well, and sellers
often expect negotiation. You're skilled at identifying value gaps and
leveraging market data to justify lower offers, and you interpret market
confidence metrics to make appropriately aggressive offers without
alienating sellers.`

const dealInstruction = `Craft a persuasive message for negotiating an aggressive
deal on the item below, using the attached market research information.

Follow these steps:
1. Analyze the item details (title, price, condition, etc.)
2. Consider the market research data (average price, deal score, etc.)
3. Determine an appropriate offer price based on market value and listed
   price. The offer should be 15-25% lower than the current price, depending
   on market conditions and item condition.
4. Craft a friendly but confident message of 2-3 sentences using a concise
   tone (you are on the Vinted platform) that:
   - Expresses interest in the item
   - Makes a bold but justifiable offer based on market data
   - Provides a specific justification for the lower offer (condition
     issues, market comparisons, etc.)
   - Maintains a positive tone while being direct about price expectations
   - Ends with a call to action that creates urgency`

// DealMaker drafts negotiation messages for analyzed listings.
type DealMaker struct {
	gen    genai.Generator
	logger *utils.Logger
}

func NewDealMaker(gen genai.Generator, logger *utils.Logger) *DealMaker {
	return &DealMaker{gen: gen, logger: logger}
}

// Draft produces a negotiation message for one analyzed item. The listing
// may be the empty projection when correlation found no match; its zero
// fields are simply absent from the payload.
func (d *DealMaker) Draft(ctx context.Context, listing *models.Listing, analysis *models.ItemAnalysis, research *models.MarketResearch) (*models.DealMessage, error) {
	itemInfo := map[string]any{
		"id":             analysis.ItemID,
		"title":          analysis.Title,
		"price":          analysis.Price,
		"status":         analysis.Status,
		"analysis_score": analysis.Score,
		"analysis_notes": analysis.Notes,
	}
	if !listing.IsZero() {
		if listing.SellerRating != "" {
			itemInfo["seller_rating"] = listing.SellerRating
		}
		if listing.Seller != "" {
			itemInfo["seller"] = listing.Seller
		}
	}

	raw, err := d.gen.Generate(ctx, genai.Request{
		Schema:      genai.SchemaDealMessage,
		System:      dealSystemPrompt,
		Instruction: dealInstruction,
		Payload: map[string]any{
			"item_info":   itemInfo,
			"market_data": research.Compact(),
		},
	})
	if err != nil {
		return nil, err
	}

	msg, err := decodeResult[models.DealMessage](raw)
	if err != nil {
		return nil, err
	}

	msg.ItemID = analysis.ItemID
	return msg, nil
}
