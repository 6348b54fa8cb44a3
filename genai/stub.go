package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"dealsense/models"
	"dealsense/services"
)

// StubGenerator produces deterministic, schema-valid documents without any
// network calls. It exists for offline runs and tests: given the same
// payload it always returns the same answer, and the numbers it invents are
// derived from the listing price so downstream scoring stays meaningful.
type StubGenerator struct{}

func NewStubGenerator() *StubGenerator {
	return &StubGenerator{}
}

func (s *StubGenerator) Generate(_ context.Context, req Request) (json.RawMessage, error) {
	itemID, price, title := payloadItem(req.Payload)

	var doc any
	switch req.Schema {
	case SchemaMarketResearch:
		avg := round2(price * 1.35)
		doc = models.MarketResearch{
			ItemID:       itemID,
			AveragePrice: avg,
			PriceRange:   [2]float64{round2(price * 1.1), round2(price * 1.6)},
			ComparableItems: []models.ComparableItem{
				{Source: "ebay", Price: round2(price * 1.3), Condition: "used"},
				{Source: "amazon", Price: round2(price * 1.5), Condition: "refurbished"},
			},
			ValueAssessment: "Underpriced",
			MarketDemand:    "Medium",
			PriceFactors:    []string{"Condition", "Brand recognition"},
			Confidence: models.Confidence{
				Score:            7,
				Factors:          []string{"Synthetic comparables"},
				DataSources:      2,
				PriceConsistency: 8,
			},
			Notes: "Deterministic offline research based on listing price.",
		}

	case SchemaItemAnalysis:
		avg := payloadAveragePrice(req.Payload)
		score := services.Score(price, avg)
		doc = models.ItemAnalysis{
			ItemID: itemID,
			Title:  title,
			Price:  price,
			Status: payloadString(req.Payload, "item_data", "status"),
			Score:  score,
			Notes: fmt.Sprintf("Listing at %.2f against a market average of %.2f scores %d/100.",
				price, avg, score),
		}

	case SchemaDealMessage:
		offer := round2(price * 0.85)
		doc = models.DealMessage{
			ItemID: itemID,
			Message: fmt.Sprintf(
				"Hi! I'm interested in your listing \"%s\". Would you consider %.2f? I can complete the purchase right away.",
				title, offer),
			Tone:                "friendly",
			ExpectedSuccessRate: 60,
			OfferPrice:          offer,
			NegotiationStrategy: "Anchor slightly below asking with an immediate-purchase incentive",
			KeyPoints:           []string{"Immediate purchase", "Polite anchor below asking"},
			MarketConfidence:    "7/10 — derived from listing price heuristics",
			Notes:               "Deterministic offline draft.",
		}

	default:
		return nil, fmt.Errorf("no stub behavior for schema %q", req.Schema)
	}

	return json.Marshal(doc)
}

// payloadItem pulls the identifying fields out of the item_data (or
// item_info) payload entry. Missing fields fall back to zero values.
func payloadItem(payload map[string]any) (id string, price float64, title string) {
	item, _ := payload["item_data"].(map[string]any)
	if item == nil {
		item, _ = payload["item_info"].(map[string]any)
	}
	id = models.NormalizeID(item["id"])
	title, _ = item["title"].(string)
	switch v := item["price"].(type) {
	case float64:
		price = v
	case int:
		price = float64(v)
	case json.Number:
		price, _ = v.Float64()
	}
	return id, price, title
}

func payloadAveragePrice(payload map[string]any) float64 {
	research, _ := payload["market_research"].(map[string]any)
	switch v := research["average_price"].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

func payloadString(payload map[string]any, section, key string) string {
	m, _ := payload[section].(map[string]any)
	s, _ := m[key].(string)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
