package scan

import (
	"context"
	"fmt"

	"gemscan/internal/domain"
	"gemscan/internal/features"
	"gemscan/internal/idhash"
	"gemscan/internal/score"
	"gemscan/internal/unlocks"
)

// Node actions. Each action validates its upstream context fields, writes
// only the fields its stage owns, and reports an outcome with enough Data
// for observability. Upstream data failures degrade to safe defaults;
// only missing load-bearing fields abort a branch.

func (s *Scanner) fetchMarketChart(ctx context.Context, sc *ScanContext) NodeOutcome {
	chart, err := s.market.FetchMarketChart(ctx, sc.Token.TokenID, s.chartDays)
	if err != nil {
		sc.MarketChart = &domain.MarketChart{TokenID: sc.Token.TokenID}
		return Degrade(fmt.Sprintf("market chart unavailable: %v", err), map[string]any{
			"error": err.Error(),
		})
	}
	sc.MarketChart = chart
	return Succeed("market chart fetched", map[string]any{
		"prices":  len(chart.Prices),
		"volumes": len(chart.Volumes),
	})
}

func (s *Scanner) fetchLiquidity(ctx context.Context, sc *ScanContext) NodeOutcome {
	if sc.Token.ContractAddress == "" {
		return Skip("no contract address configured")
	}
	info, err := s.liquidity.FetchPairs(ctx, sc.Token.ContractAddress)
	if err != nil {
		return Degrade(fmt.Sprintf("liquidity pairs unavailable: %v", err), map[string]any{
			"error": err.Error(),
		})
	}
	sc.Liquidity = info
	return Succeed("liquidity pairs fetched", map[string]any{
		"liquidity_usd": info.LiquidityUSD,
		"volume_24h":    info.Volume24hUSD,
		"dex":           info.DexID,
	})
}

func (s *Scanner) fetchContract(ctx context.Context, sc *ScanContext) NodeOutcome {
	if sc.Token.ContractAddress == "" {
		return Skip("no contract address configured")
	}
	meta, err := s.contract.FetchContractSource(ctx, sc.Token.ContractAddress)
	if err != nil {
		return Degrade(fmt.Sprintf("contract metadata unavailable: %v", err), map[string]any{
			"error": err.Error(),
		})
	}
	sc.Contract = meta
	sc.HolderCount = meta.HolderCount
	return Succeed("contract metadata fetched", map[string]any{
		"verified": meta.Verified,
		"holders":  meta.HolderCount,
	})
}

func (s *Scanner) collectNews(ctx context.Context, sc *ScanContext) NodeOutcome {
	if s.news == nil || len(s.newsFeeds) == 0 {
		return Skip("news aggregator not configured")
	}
	keywords := append([]string{sc.Token.Symbol, sc.Token.Name}, sc.Token.Keywords...)
	items, err := s.news.Collect(ctx, s.newsFeeds, keywords, s.newsLimit)
	if err != nil {
		return Degrade(fmt.Sprintf("news collection failed: %v", err), map[string]any{
			"error": err.Error(),
		})
	}
	sc.News = items
	if s.metrics != nil {
		s.metrics.NewsCollected.Add(float64(len(items)))
	}
	return Succeed("news collected", map[string]any{"items": len(items)})
}

func (s *Scanner) computeIndicators(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.MarketChart.Empty() {
		sc.Technical = nil
		return Degrade("no price series; indicators unavailable", nil)
	}
	sc.Technical = features.ComputeIndicators(sc.MarketChart, s.clock())
	return Succeed("indicators computed", map[string]any{
		"rsi":        sc.Technical[features.IndicatorRSI],
		"macd":       sc.Technical[features.IndicatorMACD],
		"volatility": sc.Technical[features.IndicatorVolatility],
	})
}

func (s *Scanner) buildSnapshot(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.MarketChart.Empty() && sc.Liquidity == nil {
		return Degrade("no market data; snapshot unavailable", nil)
	}

	snap := &domain.MarketSnapshot{
		Symbol:      sc.Token.Symbol,
		HolderCount: sc.HolderCount,
		TimestampMs: s.clock().UnixMilli(),
	}
	if last, ok := sc.MarketChart.LastPrice(); ok {
		snap.PriceUSD = last.Value
	}
	if sc.Liquidity != nil {
		snap.LiquidityUSD = sc.Liquidity.LiquidityUSD
		snap.Volume24hUSD = sc.Liquidity.Volume24hUSD
	}
	sc.Snapshot = snap
	return Succeed("snapshot built", map[string]any{
		"price_usd":     snap.PriceUSD,
		"liquidity_usd": snap.LiquidityUSD,
	})
}

func (s *Scanner) analyzeNarrative(_ context.Context, sc *ScanContext) NodeOutcome {
	texts := make([]string, 0, len(sc.News))
	for _, item := range sc.News {
		texts = append(texts, item.Title)
		if item.Summary != "" {
			texts = append(texts, item.Summary)
		}
	}
	if len(texts) == 0 {
		return Degrade("no texts to analyze; neutral sentiment applies downstream", nil)
	}
	insight := s.narrative.Analyze(texts)
	sc.Narrative = &insight
	return Succeed("narrative analyzed", map[string]any{
		"sentiment": insight.SentimentScore,
		"momentum":  insight.Momentum,
		"themes":    len(insight.Themes),
	})
}

func (s *Scanner) computeUnlockRisk(_ context.Context, sc *ScanContext) NodeOutcome {
	risk := unlocks.Pressure(sc.Token.Unlocks, s.clock())
	sc.UnlockRisk = &risk
	if len(sc.Token.Unlocks) == 0 {
		return Succeed("no scheduled unlocks", map[string]any{"risk": risk})
	}
	return Succeed("unlock pressure computed", map[string]any{
		"risk":    risk,
		"unlocks": len(sc.Token.Unlocks),
	})
}

func (s *Scanner) evaluateSafety(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.Contract == nil {
		// Conservative default: unverifiable contracts stay below the
		// flaggability floor but do not stop the pipeline.
		sc.Safety = &domain.SafetyReport{
			Score:    0.4,
			Severity: "medium",
			Flags:    map[string]bool{domain.SafetyFlagMetadataMissing: true},
		}
		return Degrade("contract metadata missing; conservative safety default", map[string]any{
			"score": sc.Safety.Score,
		})
	}
	sc.Safety = s.safety.Evaluate(sc.Contract)
	return Succeed("safety evaluated", map[string]any{
		"score":    sc.Safety.Score,
		"severity": sc.Safety.Severity,
		"findings": len(sc.Safety.Findings),
	})
}

func (s *Scanner) checkLiquidityGuard(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.Liquidity == nil {
		// Guard fails closed when pool depth is unknown.
		ok := false
		sc.LiquidityOK = &ok
		return Degrade("liquidity unknown; guard fails closed", map[string]any{"liquidity_ok": false})
	}
	ok := sc.Liquidity.LiquidityUSD >= s.minLiquidityUSD
	sc.LiquidityOK = &ok
	return Succeed("liquidity guard checked", map[string]any{
		"liquidity_ok":  ok,
		"liquidity_usd": sc.Liquidity.LiquidityUSD,
		"min_required":  s.minLiquidityUSD,
	})
}

func (s *Scanner) buildFeatures(_ context.Context, sc *ScanContext) NodeOutcome {
	in := features.BuildInput{
		Snapshot:     sc.Snapshot,
		Technical:    sc.Technical,
		Narrative:    sc.Narrative,
		UnlockRisk:   sc.UnlockRisk,
		NewsCount:    len(sc.News),
		HasLiquidity: sc.Liquidity != nil,
	}
	if sc.Safety != nil && !sc.Safety.Flagged(domain.SafetyFlagMetadataMissing) {
		contractScore := sc.Safety.Score
		in.ContractScore = &contractScore
	}

	vector := features.BuildFeatureVector(in)
	sc.RawFeatures = vector

	completeness := vector.Get(domain.FeatureDataCompleteness, 0)
	data := map[string]any{
		"features":     len(vector),
		"completeness": completeness,
	}
	if completeness < 1 {
		return Degrade("feature vector built with defaulted inputs", data)
	}
	return Succeed("feature vector built", data)
}

func (s *Scanner) applyPenalties(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.RawFeatures == nil {
		return Abort("feature vector missing; cannot apply penalties", nil)
	}
	liquidityOK := sc.LiquidityOK != nil && *sc.LiquidityOK
	sc.AdjustedFeatures = features.ApplySafetyPenalties(sc.RawFeatures, sc.Safety, liquidityOK)

	lowered := 0
	for k, v := range sc.AdjustedFeatures {
		if v < sc.RawFeatures[k] {
			lowered++
		}
	}
	return Succeed("safety penalties applied", map[string]any{
		"lowered_features": lowered,
		"liquidity_ok":     liquidityOK,
	})
}

func (s *Scanner) computeScore(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.AdjustedFeatures == nil {
		return Abort("adjusted feature vector missing; cannot score", nil)
	}
	result := s.engine.Compute(sc.AdjustedFeatures)
	sc.GemScore = &result
	return Succeed("gem score computed", map[string]any{
		"score":      result.Score,
		"confidence": result.Confidence,
	})
}

func (s *Scanner) decideFlag(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.GemScore == nil {
		return Abort("gem score missing; cannot decide flag", nil)
	}
	flagged, debug := score.ShouldFlag(*sc.GemScore, sc.AdjustedFeatures, s.thresholds)
	sc.Flagged = &flagged
	sc.FlagDebug = debug
	return Succeed("review flag decided", map[string]any{
		"flagged": flagged,
		"checks":  len(debug),
	})
}

func (s *Scanner) assembleResult(_ context.Context, sc *ScanContext) NodeOutcome {
	if sc.GemScore == nil || sc.Flagged == nil {
		return Abort("decision outputs missing; cannot assemble result", nil)
	}

	completedAt := s.clock().UnixMilli()
	res := &domain.ScanResult{
		ScanID:           idhash.ComputeScanID(sc.Token.TokenID, sc.Token.ContractAddress, completedAt),
		Token:            sc.Token,
		CompletedAt:      completedAt,
		Market:           sc.Snapshot,
		Narrative:        sc.Narrative,
		News:             sc.News,
		Safety:           sc.Safety,
		RawFeatures:      sc.RawFeatures,
		AdjustedFeatures: sc.AdjustedFeatures,
		GemScore:         *sc.GemScore,
		Flagged:          *sc.Flagged,
		FlagDebug:        sc.FlagDebug,
	}

	res.ArtifactMarkdown = s.renderer.RenderMarkdown(res)
	html, err := s.renderer.RenderHTML(res)
	if err == nil {
		res.ArtifactHTML = html
	}
	if s.signer != nil {
		res.Signature = s.signer.Sign([]byte(res.ArtifactMarkdown))
	}

	sc.Result = res
	if err != nil {
		return Degrade(fmt.Sprintf("result assembled, HTML rendering failed: %v", err), map[string]any{
			"scan_id": res.ScanID,
		})
	}
	return Succeed("scan result assembled", map[string]any{
		"scan_id": res.ScanID,
		"flagged": res.Flagged,
		"score":   res.GemScore.Score,
	})
}
