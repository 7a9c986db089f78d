package finance

import (
	"context"
	"strings"

	"github.com/fatali-fataliyev/finance_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/finance_tracker/internal/oracle"
	"github.com/fatali-fataliyev/finance_tracker/logging"
)

const (
	DEFAULT_SEARCH_LIMIT = 20
	MAX_SEARCH_LIMIT     = 50
)

var quoteTypeCategories = map[string]string{
	"EQUITY":         CategoryStock,
	"CRYPTOCURRENCY": CategoryCrypto,
	"FUTURE":         CategoryGold,
	"COMMODITY":      CategoryGold,
}

func clampSearchLimit(limit int) int {
	if limit <= 0 {
		return DEFAULT_SEARCH_LIMIT
	}
	if limit > MAX_SEARCH_LIMIT {
		return MAX_SEARCH_LIMIT
	}
	return limit
}

// SearchAssets never fails: a blank query or an unreachable oracle both give an empty result.
func (t *Tracker) SearchAssets(ctx context.Context, query string, limit int) []AssetResult {
	results := []AssetResult{}

	query = strings.TrimSpace(query)
	if query == "" || t.oracle == nil {
		return results
	}

	found, err := t.oracle.Search(ctx, query, clampSearchLimit(limit))
	if err != nil {
		logging.Logger.Warnf("[TraceID=%s] | asset search for %q failed (%s) | Error: %v", contextutil.TraceIDFromContext(ctx), query, oracle.KindOf(err), err)
		return results
	}

	for _, r := range found {
		category, ok := quoteTypeCategories[strings.ToUpper(r.QuoteType)]
		if !ok || r.Symbol == "" {
			continue
		}
		name := r.Name
		if name == "" {
			name = r.Symbol
		}
		results = append(results, AssetResult{
			Symbol:   r.Symbol,
			Name:     name,
			Category: category,
			Exchange: r.Exchange,
		})
	}
	return results
}
