package models

import "time"

// RawItem holds one unprocessed listing payload exactly as the marketplace
// API returned it. Field names and value types vary between the search and
// detail endpoints, so nothing downstream touches a RawItem directly — the
// normalizer turns it into a Listing first.
type RawItem map[string]any

// Listing is the canonical, validated marketplace record used by every
// pipeline stage.
type Listing struct {
	ID           string
	Title        string
	Price        float64
	Currency     string
	ServiceFee   float64
	TotalPrice   float64
	Brand        string
	Status       string
	Description  string
	PhotoURL     string
	URL          string
	Seller       string
	SellerRating string
	Location     string
	FetchedAt    time.Time
}

// IsZero reports whether the listing is the empty projection produced when
// correlation finds no match.
func (l *Listing) IsZero() bool {
	return l == nil || (l.Title == "" && l.Price == 0 && l.URL == "")
}

// PromptMap returns the listing as a flat mapping for generation payloads.
// Empty fields are left out so prompts carry no noise.
func (l *Listing) PromptMap() map[string]any {
	m := map[string]any{
		"id":    l.ID,
		"title": l.Title,
		"price": l.Price,
	}
	putNonEmpty(m, "currency", l.Currency)
	putNonEmpty(m, "status", l.Status)
	putNonEmpty(m, "brand", l.Brand)
	putNonEmpty(m, "description", l.Description)
	putNonEmpty(m, "seller", l.Seller)
	putNonEmpty(m, "seller_rating", l.SellerRating)
	putNonEmpty(m, "location", l.Location)
	putNonEmpty(m, "url", l.URL)
	if l.TotalPrice > 0 && l.TotalPrice != l.Price {
		m["total_item_price"] = l.TotalPrice
	}
	return m
}

func putNonEmpty(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}

// Confidence describes how reliable the market data behind a research
// record is. Score and PriceConsistency are on a 1–10 scale.
type Confidence struct {
	Score            int      `json:"score" jsonschema:"minimum=1,maximum=10,description=Confidence score (1-10) indicating reliability of market data"`
	Factors          []string `json:"factors" jsonschema:"description=Factors contributing to the confidence score"`
	DataSources      int      `json:"data_sources" jsonschema:"description=Number of data sources used for market analysis"`
	PriceConsistency int      `json:"price_consistency" jsonschema:"minimum=1,maximum=10,description=How consistent prices are across sources (1-10)"`
}

// ComparableItem is one similar listing found during market research.
type ComparableItem struct {
	Source    string  `json:"source" jsonschema:"description=Source marketplace for the comparable item"`
	Price     float64 `json:"price" jsonschema:"description=Listed price of the comparable item"`
	Condition string  `json:"condition" jsonschema:"description=Condition rating of the comparable item"`
}

// MarketResearch is the structured market-value assessment for one listing.
// Exactly one exists per processed listing, in listing order; failed
// generation is replaced by a fallback record, never by a gap.
type MarketResearch struct {
	ItemID          string           `json:"item_id" jsonschema:"description=ID of the item researched"`
	AveragePrice    float64          `json:"average_price" jsonschema:"description=Average market price for similar items"`
	PriceRange      [2]float64       `json:"price_range" jsonschema:"description=Min and max prices found [min|max]"`
	ComparableItems []ComparableItem `json:"comparable_items" jsonschema:"description=Comparable items found during research"`
	ValueAssessment string           `json:"value_assessment" jsonschema:"description=Underpriced / Fair / Overpriced"`
	MarketDemand    string           `json:"market_demand" jsonschema:"description=High / Medium / Low"`
	PriceFactors    []string         `json:"price_factors" jsonschema:"description=Factors affecting the price"`
	Confidence      Confidence       `json:"confidence" jsonschema:"description=Confidence metrics for the research"`
	Notes           string           `json:"notes" jsonschema:"description=Additional notes about the market research"`
}

// Compact returns the research record as a mapping with unset/default
// fields removed, for inclusion in downstream generation payloads.
func (r *MarketResearch) Compact() map[string]any {
	if r == nil {
		return map[string]any{}
	}
	m := map[string]any{"item_id": r.ItemID}
	if r.AveragePrice > 0 {
		m["average_price"] = r.AveragePrice
	}
	if r.PriceRange[0] > 0 || r.PriceRange[1] > 0 {
		m["price_range"] = []float64{r.PriceRange[0], r.PriceRange[1]}
	}
	if len(r.ComparableItems) > 0 {
		m["comparable_items"] = r.ComparableItems
	}
	putNonEmpty(m, "value_assessment", r.ValueAssessment)
	putNonEmpty(m, "market_demand", r.MarketDemand)
	if len(r.PriceFactors) > 0 {
		m["price_factors"] = r.PriceFactors
	}
	if r.Confidence.Score > 0 {
		m["confidence"] = r.Confidence
	}
	putNonEmpty(m, "notes", r.Notes)
	return m
}

// ItemAnalysis is the structured bargain assessment for one listing.
type ItemAnalysis struct {
	ItemID string  `json:"item_id" jsonschema:"description=The unique identifier of the item"`
	Title  string  `json:"title" jsonschema:"description=The title of the item"`
	Price  float64 `json:"price" jsonschema:"description=The current listing price of the item"`
	Status string  `json:"status" jsonschema:"description=The condition or status of the item"`
	Score  int     `json:"score" jsonschema:"minimum=0,maximum=100,description=The overall bargain score of the item (0-100)"`
	Notes  string  `json:"notes" jsonschema:"description=Notes explaining the scoring rationale and recommendations"`
}

// DealMessage is a drafted negotiation message for one analyzed item.
type DealMessage struct {
	ItemID              string   `json:"item_id" jsonschema:"description=ID of the item the message is for"`
	Message             string   `json:"message" jsonschema:"description=The crafted deal message"`
	Tone                string   `json:"tone" jsonschema:"description=Tone of the message (friendly / professional / casual)"`
	ExpectedSuccessRate int      `json:"expected_success_rate" jsonschema:"minimum=0,maximum=100,description=Estimated likelihood of success (0-100)"`
	OfferPrice          float64  `json:"offer_price" jsonschema:"description=Suggested offer price based on market research"`
	NegotiationStrategy string   `json:"negotiation_strategy" jsonschema:"description=Brief description of the negotiation strategy used"`
	KeyPoints           []string `json:"key_points" jsonschema:"description=Key points emphasized in the message"`
	MarketConfidence    string   `json:"market_confidence_assessment" jsonschema:"description=Assessment of market confidence on a 1-10 scale with rationale"`
	Notes               string   `json:"notes" jsonschema:"description=Additional notes or recommendations"`
}
