package types

// MarketTokens describes one binary market of the configured basket: the
// human question plus the CLOB asset ids of its YES and NO sides. Resolved
// once at startup from the Gamma API and never mutated.
type MarketTokens struct {
	MarketID   int64
	Question   string
	YesAssetID string
	NoAssetID  string
}

// AssetMeta maps an asset id back to its market and side. Assembled at
// startup next to the subscription list; used when projecting book tops to
// storage rows.
type AssetMeta struct {
	MarketID int64
	Outcome  string // "YES" or "NO"
}

// BuildAssetMeta flattens a basket into the asset id -> meta map, preserving
// the YES-then-NO order the subscription uses.
func BuildAssetMeta(basket []MarketTokens) (assetIDs []string, meta map[string]AssetMeta) {
	meta = make(map[string]AssetMeta, len(basket)*2)
	assetIDs = make([]string, 0, len(basket)*2)
	for _, m := range basket {
		assetIDs = append(assetIDs, m.YesAssetID, m.NoAssetID)
		meta[m.YesAssetID] = AssetMeta{MarketID: m.MarketID, Outcome: "YES"}
		meta[m.NoAssetID] = AssetMeta{MarketID: m.MarketID, Outcome: "NO"}
	}
	return assetIDs, meta
}
