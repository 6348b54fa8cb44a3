package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"dealsense/agents"
	"dealsense/config"
	"dealsense/genai"
	"dealsense/pipeline"
	"dealsense/report"
	"dealsense/services"
	"dealsense/utils"
	"dealsense/vinted"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := utils.NewLogger()
	cfg := config.Load()

	searchFlag := flag.String("search", "", "search query")
	itemsFlag := flag.Int("items", 0, "maximum number of items to analyze")
	searchesFlag := flag.Int("searches", 0, "market searches per item")
	siteFlag := flag.String("site", "", "marketplace to focus price comparison on (amazon, ebay, all)")
	quickFlag := flag.Bool("quick", false, "skip the interactive prompts and use defaults or provided flags")
	flag.Parse()

	logger.Info("=== DealSense starting ===")
	logger.Info("Config — provider: %s | concurrency: %d | rate: %dms | retries: %d",
		cfg.LLMProvider, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)

	prefs := preferences{
		searchText:  cfg.DefaultSearchText,
		maxItems:    cfg.DefaultMaxItems,
		maxSearches: cfg.DefaultSearches,
		searchSite:  cfg.DefaultSearchSite,
	}
	prefs.applyFlags(*searchFlag, *itemsFlag, *searchesFlag, *siteFlag)
	reader := bufio.NewReader(os.Stdin)
	if !*quickFlag {
		prefs.prompt(reader)
	}

	fmt.Printf("\n\033[1mSearch Parameters:\033[0m\n")
	fmt.Printf("  Query:              %s\n", prefs.searchText)
	fmt.Printf("  Items to analyze:   %d\n", prefs.maxItems)
	fmt.Printf("  Searches per item:  %d\n", prefs.maxSearches)
	fmt.Printf("  Target marketplace: %s\n\n", prefs.searchSite)

	if !*quickFlag && !confirm(reader, "Start analysis?") {
		fmt.Println("Analysis cancelled.")
		return 0
	}

	gen, err := genai.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize text generator: %v", err)
		return 1
	}

	reporter, err := report.NewService(logger, cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to initialize report service: %v", err)
		return 1
	}

	p := pipeline.New(cfg, logger,
		vinted.New(cfg, logger),
		services.NewNormalizer(logger, cfg.VintedBaseURL),
		agents.NewResearchAgent(gen, logger, prefs.maxSearches, prefs.searchSite),
		agents.NewAnalyst(gen, logger),
		agents.NewDealMaker(gen, logger),
		services.NewRecommender(logger),
		reporter,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, prefs.searchText, prefs.maxItems)
	if err != nil && result == nil {
		logger.Error("Analysis failed: %v", err)
		return 1
	}
	if result.Partial {
		logger.Warn("Run was cancelled — results below are partial")
	}

	recommender := services.NewRecommender(logger)
	recommender.Print(result.Ranked, len(result.Errors))

	if result.Summary != "" {
		fmt.Println(result.Summary)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\033[1;33mRecovered failures (%d):\033[0m\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %v\n", e)
		}
		fmt.Println()
	}

	if result.HTMLPath != "" {
		fmt.Printf("HTML report: %s\n", result.HTMLPath)
		if result.CSVPath != "" {
			fmt.Printf("CSV export:  %s\n", result.CSVPath)
		}
		openReport(logger, result.HTMLPath)
	}

	if result.Partial {
		return 1
	}
	return 0
}

type preferences struct {
	searchText  string
	maxItems    int
	maxSearches int
	searchSite  string
}

func (p *preferences) applyFlags(search string, items, searches int, site string) {
	if search != "" {
		p.searchText = search
	}
	if items > 0 {
		p.maxItems = items
	}
	if searches > 0 {
		p.maxSearches = searches
	}
	if site != "" {
		p.searchSite = site
	}
}

// prompt asks for the search parameters interactively, keeping the current
// value when the user just presses enter.
func (p *preferences) prompt(reader *bufio.Reader) {
	fmt.Println("\n\033[1;35mDealSense\033[0m — find the best second-hand deals")
	fmt.Println("  1. Searches Vinted for items matching your query")
	fmt.Println("  2. Researches market values for each item")
	fmt.Println("  3. Analyzes each item for bargain potential")
	fmt.Println("  4. Drafts negotiation messages")
	fmt.Println("  5. Renders an HTML report with all findings")

	p.searchText = promptString(reader, "Search query", p.searchText)
	p.maxItems = promptInt(reader, "Number of items to analyze", p.maxItems)
	p.maxSearches = promptInt(reader, "Market searches per item", p.maxSearches)
	p.searchSite = promptString(reader, "Comparison marketplace (amazon/ebay/all)", p.searchSite)
}

func promptString(reader *bufio.Reader, label, fallback string) string {
	fmt.Printf("\n%s [%s]: ", label, fallback)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

func confirm(reader *bufio.Reader, label string) bool {
	answer := strings.ToLower(promptString(reader, label+" (Y/n)", "y"))
	return answer == "y" || answer == "yes"
}

func promptInt(reader *bufio.Reader, label string, fallback int) int {
	raw := promptString(reader, label, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// openReport opens the rendered report in the default browser, best effort.
func openReport(logger *utils.Logger, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", abs)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", abs)
	default:
		cmd = exec.Command("xdg-open", abs)
	}

	if err := cmd.Start(); err != nil {
		logger.Debug("Could not open report in browser: %v", err)
	}
}
