package report

import (
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealsense/models"
	"dealsense/utils"
)

func sampleInput() Input {
	return Input{
		Query:       "iphone",
		GeneratedAt: time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC),
		Listings: []*models.Listing{
			{ID: "1", Title: "iPhone 13", Price: 300, Currency: "EUR", URL: "https://www.vinted.it/items/1", Brand: "Apple"},
			{ID: "2", Title: "iPhone 12", Price: 200, Currency: "EUR", URL: "https://www.vinted.it/items/2"},
		},
		Ranked: []*models.ItemAnalysis{
			{ItemID: "1", Title: "iPhone 13", Price: 300, Score: 80, Notes: "excellent deal"},
			{ItemID: "2", Title: "iPhone 12", Price: 200, Score: 39, Notes: "market price"},
		},
		Research: []*models.MarketResearch{
			{ItemID: "1", AveragePrice: 750, PriceRange: [2]float64{600, 900}, ValueAssessment: "Underpriced", MarketDemand: "High", Confidence: models.Confidence{Score: 8}},
			{ItemID: "2", AveragePrice: 200, ValueAssessment: "Fair", MarketDemand: "Medium", Confidence: models.Confidence{Score: 6}},
		},
		Messages: map[string]*models.DealMessage{
			"1": {ItemID: "1", Message: "Hi! Would you take 255?", Tone: "friendly", ExpectedSuccessRate: 60, OfferPrice: 255},
		},
	}
}

func TestServiceBuildRendersReport(t *testing.T) {
	svc, err := NewService(utils.NewLogger(), t.TempDir())
	require.NoError(t, err)

	artifacts, err := svc.Build(sampleInput())
	require.NoError(t, err)
	require.NotEmpty(t, artifacts.HTMLPath)
	require.NotEmpty(t, artifacts.CSVPath)

	html, err := os.ReadFile(artifacts.HTMLPath)
	require.NoError(t, err)
	body := string(html)

	assert.Contains(t, body, "iphone")
	assert.Contains(t, body, "iPhone 13")
	assert.Contains(t, body, "80/100")
	assert.Contains(t, body, "high-score")
	assert.Contains(t, body, "low-score")
	assert.Contains(t, body, "Would you take 255?")
	assert.Contains(t, body, "Market Research")
	// Item 2 has no drafted message; its card must not include one.
	assert.Equal(t, 1, strings.Count(body, "Suggested Negotiation Message"))
}

func TestServiceBuildCSVRows(t *testing.T) {
	svc, err := NewService(utils.NewLogger(), t.TempDir())
	require.NoError(t, err)

	artifacts, err := svc.Build(sampleInput())
	require.NoError(t, err)

	f, err := os.Open(artifacts.CSVPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per ranked item")

	assert.Equal(t, "rank", rows[0][0])
	assert.Equal(t, []string{"1", "1", "iPhone 13", "300.00", "EUR", "80", "750.00", "Underpriced", "255.00", "60", "https://www.vinted.it/items/1"}, rows[1])
	// No message for item 2: offer and success-rate columns stay empty.
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "", rows[2][9])
}

func TestServiceBuildEmptyRun(t *testing.T) {
	svc, err := NewService(utils.NewLogger(), t.TempDir())
	require.NoError(t, err)

	artifacts, err := svc.Build(Input{Query: "nothing", GeneratedAt: time.Now()})
	require.NoError(t, err)

	html, err := os.ReadFile(artifacts.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "No recommendations")
}
