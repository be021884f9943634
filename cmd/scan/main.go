// Package main provides the one-shot scan CLI: load a profile, run the
// pipeline over its watchlist (or one token), write artifacts, print a
// summary table.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"gemscan/internal/artifacts"
	"gemscan/internal/domain"
	"gemscan/internal/market"
	"gemscan/internal/market/stub"
	"gemscan/internal/narrative"
	"gemscan/internal/news"
	"gemscan/internal/safety"
	"gemscan/internal/scan"
)

func main() {
	profilePath := flag.String("profile", "profile.yaml", "Scan profile YAML path")
	tokenID := flag.String("token", "", "Scan only this token ID from the profile")
	outputDir := flag.String("output-dir", "output", "Directory for scan artifacts")
	useStubs := flag.Bool("use-stubs", false, "Use deterministic stub clients instead of live APIs")
	writeTrace := flag.Bool("trace", false, "Write the execution trace JSON next to each artifact")
	coingeckoKey := flag.String("coingecko-key", os.Getenv("COINGECKO_API_KEY"), "CoinGecko API key")
	etherscanKey := flag.String("etherscan-key", os.Getenv("ETHERSCAN_API_KEY"), "Etherscan API key")
	signingSeed := flag.String("signing-seed", os.Getenv("ARTIFACT_SIGNING_SEED"), "Hex ed25519 seed for artifact signing")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	profile, err := scan.LoadProfile(*profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
		os.Exit(1)
	}

	tokens := profile.TokenConfigs()
	if *tokenID != "" {
		tokens = filterToken(tokens, *tokenID)
		if len(tokens) == 0 {
			fmt.Fprintf(os.Stderr, "Error: token %q not found in profile\n", *tokenID)
			os.Exit(1)
		}
	}

	scanner, err := buildScanner(profile, *useStubs, *coingeckoKey, *etherscanKey, *signingSeed, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scanner: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	start := time.Now()
	failed := 0

	fmt.Printf("%-16s %-8s %8s %10s %8s  %s\n", "TOKEN", "SYMBOL", "SCORE", "CONFIDENCE", "FLAGGED", "ARTIFACT")
	for _, token := range tokens {
		res, trace, err := scanner.Scan(ctx, token)
		if err != nil {
			failed++
			fmt.Printf("%-16s %-8s %8s %10s %8s  scan failed: %v\n",
				token.TokenID, token.Symbol, "-", "-", "-", err)
			continue
		}

		path, err := writeArtifacts(*outputDir, res, trace, *writeTrace)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing artifacts for %s: %v\n", token.TokenID, err)
			os.Exit(1)
		}

		fmt.Printf("%-16s %-8s %8.1f %10.1f %8t  %s\n",
			token.TokenID, token.Symbol,
			res.GemScore.Score, res.GemScore.Confidence, res.Flagged, path)
	}

	fmt.Printf("\nScanned %d token(s) in %v (%d failed)\n", len(tokens), time.Since(start).Round(time.Millisecond), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// filterToken keeps only the named token.
func filterToken(tokens []domain.TokenConfig, tokenID string) []domain.TokenConfig {
	for _, t := range tokens {
		if t.TokenID == tokenID {
			return []domain.TokenConfig{t}
		}
	}
	return nil
}

// buildScanner assembles the pipeline with live or stub collaborators.
func buildScanner(profile *scan.Profile, useStubs bool, coingeckoKey, etherscanKey, signingSeed string, logger *zap.Logger) (*scan.Scanner, error) {
	engine, err := profile.Engine()
	if err != nil {
		return nil, fmt.Errorf("build score engine: %w", err)
	}

	opts := scan.Options{
		Narrative:       narrative.NewHeuristicAnalyzer(),
		Safety:          safety.NewAnalyzer(),
		Renderer:        artifacts.NewRenderer(),
		Engine:          engine,
		Thresholds:      profile.FlagThresholds(),
		ChartDays:       profile.ChartDays,
		NewsFeeds:       profile.NewsFeeds,
		NewsLimit:       profile.NewsLimit,
		MinLiquidityUSD: profile.MinLiquidityUSD,
		Logger:          logger,
	}

	if useStubs {
		opts.Market = stub.MarketClient{}
		opts.Liquidity = stub.LiquidityClient{}
		opts.Contract = stub.ContractClient{}
		opts.News = stub.NewsClient{}
	} else {
		base := market.NewClient()
		opts.Market = market.NewCoinGeckoClient(base, "", coingeckoKey)
		opts.Liquidity = market.NewDexScreenerClient(base, "")
		opts.Contract = market.NewEtherscanClient(base, "", etherscanKey)
		if len(profile.NewsFeeds) > 0 {
			opts.News = news.NewAggregator(news.WithLogger(logger))
		}
	}

	if signingSeed != "" {
		signer, err := artifacts.NewSignerFromSeed(signingSeed)
		if err != nil {
			return nil, fmt.Errorf("parse signing seed: %w", err)
		}
		opts.Signer = signer
	}

	return scan.New(opts)
}

// writeArtifacts writes the markdown (and optional HTML/trace) artifacts
// and returns the markdown path.
func writeArtifacts(dir string, res *domain.ScanResult, trace scan.TraceNode, withTrace bool) (string, error) {
	base := fmt.Sprintf("%s_%s", res.Token.TokenID, res.ScanID[:12])

	mdPath := filepath.Join(dir, base+".md")
	if err := os.WriteFile(mdPath, []byte(res.ArtifactMarkdown), 0644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	if res.ArtifactHTML != "" {
		htmlPath := filepath.Join(dir, base+".html")
		if err := os.WriteFile(htmlPath, []byte(res.ArtifactHTML), 0644); err != nil {
			return "", fmt.Errorf("write html: %w", err)
		}
	}

	if withTrace {
		data, err := json.MarshalIndent(trace, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal trace: %w", err)
		}
		tracePath := filepath.Join(dir, base+"_trace.json")
		if err := os.WriteFile(tracePath, data, 0644); err != nil {
			return "", fmt.Errorf("write trace: %w", err)
		}
	}

	return mdPath, nil
}
