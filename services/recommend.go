package services

import (
	"fmt"
	"strings"

	"dealsense/models"
	"dealsense/utils"
)

// topRecommendations is how many items make it into the textual summary.
const topRecommendations = 3

// Recommender builds the end-of-run recommendation summary from the ranked
// analysis set.
type Recommender struct {
	logger *utils.Logger
}

func NewRecommender(logger *utils.Logger) *Recommender {
	return &Recommender{logger: logger}
}

// Build renders the markdown summary of the top scored items. The input is
// expected to be sorted by score descending; Build does not re-sort.
func (r *Recommender) Build(ranked []*models.ItemAnalysis) string {
	if len(ranked) == 0 {
		return "No analysis results available to prepare recommendations."
	}

	var b strings.Builder
	b.WriteString("# Recommended Items\n\n")

	limit := topRecommendations
	if len(ranked) < limit {
		limit = len(ranked)
	}

	for i := 0; i < limit; i++ {
		item := ranked[i]
		fmt.Fprintf(&b, "## %d. Item ID: %s\n", i+1, item.ItemID)
		fmt.Fprintf(&b, "**Score: %d/100**\n\n", item.Score)
		fmt.Fprintf(&b, "%s\n\n", item.Notes)
		b.WriteString("---\n\n")
	}

	return b.String()
}

// Print writes a console summary of the ranked set in a readable table.
func (r *Recommender) Print(ranked []*models.ItemAnalysis, failures int) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  💰 DEALSENSE RESULTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Ranked Listings\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(ranked) == 0 {
		fmt.Printf("  No recommendations — nothing survived analysis\n")
	} else {
		for i, item := range ranked {
			title := truncate(item.Title, 36)
			fmt.Printf("  \033[1m%d.\033[0m %-38s \033[1;32m%3d/100\033[0m  €%.2f\n",
				i+1, title, item.Score, item.Price)
		}
	}
	fmt.Println()

	if failures > 0 {
		fmt.Printf("\033[1;33m  Run Health\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Per-item failures recovered: \033[1;31m%d\033[0m (see log for stage/cause)\n\n", failures)
	}

	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
