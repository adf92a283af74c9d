package feed

import (
	"strings"

	json "github.com/goccy/go-json"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Parser normalizes heterogeneous market-channel payloads into the tagged
// event set. The wire mixes full snapshots, top-of-book refreshes, delta
// batches and wrapper objects; downstream components only ever see
// types.BookEvent and never branch on raw fields.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a new feed parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// assetIDKeys are the fields commonly emitted by CLOB feeds, inspected in
// order; first hit wins.
var assetIDKeys = [...]string{"asset_id", "assetId", "token_id", "tokenId"}

// inheritedKeys propagate from a batch wrapper onto each flattened element
// when absent there.
var inheritedKeys = [...]string{"timestamp", "market", "event_type"}

// ParseFrame turns one decoded JSON frame into zero or more normalized
// events. Array frames are processed element-wise; wrapper objects carrying a
// price_changes list are flattened in order. Elements without a recognizable
// asset id are dropped.
func (p *Parser) ParseFrame(data []byte) []types.FeedItem {
	var payload any
	err := json.Unmarshal(data, &payload)
	if err != nil {
		// Non-JSON payloads are expected on this channel (keepalives).
		FramesDroppedTotal.WithLabelValues("not_json").Inc()
		return nil
	}

	switch v := payload.(type) {
	case []any:
		var items []types.FeedItem
		for _, el := range v {
			items = append(items, p.parseValue(el)...)
		}
		return items
	case map[string]any:
		return p.parseValue(v)
	default:
		FramesDroppedTotal.WithLabelValues("not_object").Inc()
		return nil
	}
}

func (p *Parser) parseValue(v any) []types.FeedItem {
	m, ok := v.(map[string]any)
	if !ok {
		FramesDroppedTotal.WithLabelValues("not_object").Inc()
		return nil
	}

	// Batched form: {"event_type":"price_change","price_changes":[...]}.
	if batch, ok := m["price_changes"].([]any); ok {
		items := make([]types.FeedItem, 0, len(batch))
		for _, el := range batch {
			pc, ok := el.(map[string]any)
			if !ok {
				continue
			}
			merged := make(map[string]any, len(pc)+len(inheritedKeys))
			for k, val := range pc {
				merged[k] = val
			}
			for _, k := range inheritedKeys {
				if _, present := merged[k]; !present {
					if val, has := m[k]; has {
						merged[k] = val
					}
				}
			}
			if item, ok := p.parseSingle(merged); ok {
				items = append(items, item)
			}
		}
		return items
	}

	if item, ok := p.parseSingle(m); ok {
		return []types.FeedItem{item}
	}
	return nil
}

func (p *Parser) parseSingle(m map[string]any) (types.FeedItem, bool) {
	assetID, ok := extractAssetID(m)
	if !ok {
		FramesDroppedTotal.WithLabelValues("no_asset_id").Inc()
		return types.FeedItem{}, false
	}

	ev := p.classify(m)
	ItemsEmittedTotal.WithLabelValues(string(ev.Kind)).Inc()

	return types.FeedItem{AssetID: assetID, Event: ev}, true
}

func (p *Parser) classify(m map[string]any) types.BookEvent {
	bids, hasBids := m["bids"].([]any)
	asks, hasAsks := m["asks"].([]any)
	if hasBids && hasAsks {
		return types.BookEvent{
			Kind: types.KindSnapshot,
			Bids: p.parseLevels(bids),
			Asks: p.parseLevels(asks),
			Raw:  m,
		}
	}

	_, hasBid := m["best_bid"]
	_, hasAsk := m["best_ask"]
	if hasBid || hasAsk {
		return types.BookEvent{
			Kind:    types.KindTop,
			BestBid: toNullDecimal(m["best_bid"]),
			BestAsk: toNullDecimal(m["best_ask"]),
			Raw:     m,
		}
	}

	if changes, ok := m["changes"].([]any); ok {
		return types.BookEvent{
			Kind:    types.KindChanges,
			Changes: p.parseChanges(changes),
			Raw:     m,
		}
	}

	return types.BookEvent{Kind: types.KindUnknown, Raw: m}
}

// SnapshotFromRaw attempts a best-effort snapshot read of an unknown event's
// raw message. The caller uses it as the fallback for KindUnknown.
func (p *Parser) SnapshotFromRaw(raw map[string]any) (bids, asks []types.Level, ok bool) {
	rawBids, hasBids := raw["bids"].([]any)
	rawAsks, hasAsks := raw["asks"].([]any)
	if !hasBids || !hasAsks {
		return nil, nil, false
	}
	return p.parseLevels(rawBids), p.parseLevels(rawAsks), true
}

func (p *Parser) parseLevels(raw []any) []types.Level {
	levels := make([]types.Level, 0, len(raw))
	for _, el := range raw {
		lvl, ok := parseLevel(el)
		if !ok {
			p.logger.Debug("feed-level-dropped", zap.Any("level", el))
			FramesDroppedTotal.WithLabelValues("bad_level").Inc()
			continue
		}
		levels = append(levels, lvl)
	}
	return levels
}

func (p *Parser) parseChanges(raw []any) []types.Change {
	changes := make([]types.Change, 0, len(raw))
	for _, el := range raw {
		ch, ok := parseChange(el)
		if !ok {
			p.logger.Debug("feed-change-dropped", zap.Any("change", el))
			FramesDroppedTotal.WithLabelValues("bad_change").Inc()
			continue
		}
		changes = append(changes, ch)
	}
	return changes
}

// parseLevel accepts ["price","size"] pairs and {price, size|quantity}
// objects.
func parseLevel(v any) (types.Level, bool) {
	switch lvl := v.(type) {
	case []any:
		if len(lvl) < 2 {
			return types.Level{}, false
		}
		price, ok := toDecimal(lvl[0])
		if !ok {
			return types.Level{}, false
		}
		size, ok := toDecimal(lvl[1])
		if !ok {
			return types.Level{}, false
		}
		return types.Level{Price: price, Size: size}, true
	case map[string]any:
		price, ok := toDecimal(lvl["price"])
		if !ok {
			return types.Level{}, false
		}
		size, ok := toDecimal(lvl["size"])
		if !ok {
			size, ok = toDecimal(lvl["quantity"])
		}
		if !ok {
			return types.Level{}, false
		}
		return types.Level{Price: price, Size: size}, true
	default:
		return types.Level{}, false
	}
}

// parseChange accepts [side, price, size] triples and
// {side|type, price, size|quantity} objects. Side strings are
// case-insensitive; anything outside buy/bid/sell/ask is rejected here and
// ignored by the book.
func parseChange(v any) (types.Change, bool) {
	var side string
	var price, size decimal.Decimal
	var ok bool

	switch ch := v.(type) {
	case []any:
		if len(ch) < 3 {
			return types.Change{}, false
		}
		s, isStr := ch[0].(string)
		if !isStr {
			return types.Change{}, false
		}
		side = s
		if price, ok = toDecimal(ch[1]); !ok {
			return types.Change{}, false
		}
		if size, ok = toDecimal(ch[2]); !ok {
			return types.Change{}, false
		}
	case map[string]any:
		s, isStr := ch["side"].(string)
		if !isStr {
			s, isStr = ch["type"].(string)
		}
		if !isStr {
			return types.Change{}, false
		}
		side = s
		if price, ok = toDecimal(ch["price"]); !ok {
			return types.Change{}, false
		}
		if size, ok = toDecimal(ch["size"]); !ok {
			if size, ok = toDecimal(ch["quantity"]); !ok {
				return types.Change{}, false
			}
		}
	default:
		return types.Change{}, false
	}

	side = strings.ToLower(side)
	switch side {
	case "buy", "bid", "sell", "ask":
	default:
		return types.Change{}, false
	}

	return types.Change{Side: side, Price: price, Size: size}, true
}

func extractAssetID(m map[string]any) (string, bool) {
	for _, k := range assetIDKeys {
		v, present := m[k]
		if !present || v == nil {
			continue
		}
		switch id := v.(type) {
		case string:
			return id, true
		case float64:
			return decimal.NewFromFloat(id).String(), true
		}
	}
	return "", false
}

// toDecimal parses prices and sizes without passing through binary floating
// point when the wire carries strings, which it normally does.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(x), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func toNullDecimal(v any) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	d, ok := toDecimal(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	return types.NullDec(d)
}
