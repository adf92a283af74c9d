package markets

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/polybasket/polybasket/pkg/types"
	"go.uber.org/zap"
)

// MarketFetcher fetches one market document by id.
type MarketFetcher interface {
	GetMarket(ctx context.Context, marketID int64) (map[string]any, error)
}

// FetchBasket resolves the YES/NO token pair for every configured market, in
// configuration order. Any market that cannot be resolved fails the whole
// basket: the open condition is meaningless with a leg missing.
func FetchBasket(ctx context.Context, client MarketFetcher, marketIDs []int64, logger *zap.Logger) ([]types.MarketTokens, error) {
	out := make([]types.MarketTokens, 0, len(marketIDs))
	for _, mid := range marketIDs {
		raw, err := client.GetMarket(ctx, mid)
		if err != nil {
			return nil, err
		}

		mt, err := tokensFromMarket(mid, raw, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, nil
}

// tokensFromMarket extracts the YES/NO asset ids from a Gamma market
// document. Gamma sometimes returns array fields as JSON strings
// (e.g. '["...","..."]'), so both shapes are accepted.
func tokensFromMarket(marketID int64, raw map[string]any, logger *zap.Logger) (types.MarketTokens, error) {
	question, _ := raw["question"].(string)

	clobIDs, err := stringList(raw["clobTokenIds"])
	if err != nil || len(clobIDs) < 2 {
		return types.MarketTokens{}, fmt.Errorf("market %d: clobTokenIds not a list of at least two: %v", marketID, raw["clobTokenIds"])
	}

	outcomes, err := stringList(raw["outcomes"])
	if err != nil || len(outcomes) < 2 {
		return types.MarketTokens{}, fmt.Errorf("market %d: outcomes not a list of at least two: %v", marketID, raw["outcomes"])
	}

	if len(outcomes) > 2 {
		logger.Warn("market-not-binary",
			zap.Int64("market-id", marketID),
			zap.Strings("outcomes", outcomes))
	}

	yesIdx, noIdx := -1, -1
	for i, o := range outcomes {
		switch strings.ToLower(o) {
		case "yes":
			if yesIdx < 0 {
				yesIdx = i
			}
		case "no":
			if noIdx < 0 {
				noIdx = i
			}
		}
	}
	if yesIdx < 0 || noIdx < 0 {
		return types.MarketTokens{}, fmt.Errorf("market %d: outcomes are not Yes/No: %v", marketID, outcomes)
	}
	if yesIdx >= len(clobIDs) || noIdx >= len(clobIDs) {
		return types.MarketTokens{}, fmt.Errorf("market %d: clobTokenIds shorter than outcomes", marketID)
	}

	return types.MarketTokens{
		MarketID:   marketID,
		Question:   question,
		YesAssetID: clobIDs[yesIdx],
		NoAssetID:  clobIDs[noIdx],
	}, nil
}

// stringList coerces a Gamma array field into []string. The field may arrive
// as a JSON array or as a JSON-encoded string holding one.
func stringList(v any) ([]string, error) {
	if s, ok := v.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("not a JSON array: %q", s)
		}
		v = decoded
	}

	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not a list: %v", v)
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out, nil
}
