package orderbook

import (
	"testing"
	"time"

	"github.com/polybasket/polybasket/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func lvl(price, size string) types.Level {
	return types.Level{Price: dec(price), Size: dec(size)}
}

func chg(side, price, size string) types.Change {
	return types.Change{Side: side, Price: dec(price), Size: dec(size)}
}

func TestApplySnapshot_Top(t *testing.T) {
	b := NewBook()
	asOf := time.Now()

	b.ApplySnapshot(
		[]types.Level{lvl("0.40", "100"), lvl("0.42", "50"), lvl("0.41", "10")},
		[]types.Level{lvl("0.45", "20"), lvl("0.44", "5"), lvl("0.48", "1")},
		asOf, nil,
	)

	top := b.Top()
	require.True(t, top.BestBid.Valid)
	require.True(t, top.BestAsk.Valid)
	assert.Equal(t, "0.42", top.BestBid.Decimal.String())
	assert.Equal(t, "0.44", top.BestAsk.Decimal.String())
	assert.Equal(t, asOf, top.AsOf)

	mid := top.Mid()
	require.True(t, mid.Valid)
	assert.True(t, mid.Decimal.Equal(dec("0.43")))
}

func TestApplySnapshot_ClearsPreviousState(t *testing.T) {
	b := NewBook()

	b.ApplySnapshot([]types.Level{lvl("0.40", "1")}, []types.Level{lvl("0.60", "1")}, time.Now(), nil)
	b.ApplySnapshot([]types.Level{lvl("0.30", "1")}, nil, time.Now(), nil)

	top := b.Top()
	assert.Equal(t, "0.3", top.BestBid.Decimal.String())
	assert.False(t, top.BestAsk.Valid, "ask side emptied by second snapshot")
	assert.False(t, top.Mid().Valid)
}

func TestApplySnapshot_DropsNonPositiveSizes(t *testing.T) {
	b := NewBook()

	b.ApplySnapshot(
		[]types.Level{lvl("0.50", "0"), lvl("0.45", "-3"), lvl("0.40", "2")},
		[]types.Level{lvl("0.55", "0")},
		time.Now(), nil,
	)

	top := b.Top()
	assert.Equal(t, "0.4", top.BestBid.Decimal.String())
	assert.False(t, top.BestAsk.Valid)
}

func TestApplySnapshot_DuplicatePriceLastWins(t *testing.T) {
	b := NewBook()

	b.ApplySnapshot(
		[]types.Level{lvl("0.40", "1"), lvl("0.40", "0")},
		nil, time.Now(), nil,
	)

	// Last level for 0.40 has size 0, so the price is absent.
	assert.False(t, b.Top().BestBid.Valid)
}

func TestApplySnapshot_Idempotent(t *testing.T) {
	bids := []types.Level{lvl("0.40", "100"), lvl("0.42", "50")}
	asks := []types.Level{lvl("0.45", "20")}
	asOf := time.Now()

	b := NewBook()
	b.ApplySnapshot(bids, asks, asOf, nil)
	first := b.Top()

	b.ApplySnapshot(bids, asks, asOf, nil)
	second := b.Top()

	assert.True(t, first.BestBid.Decimal.Equal(second.BestBid.Decimal))
	assert.True(t, first.BestAsk.Decimal.Equal(second.BestAsk.Decimal))
}

func TestApplyChanges(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot(
		[]types.Level{lvl("0.40", "100")},
		[]types.Level{lvl("0.45", "20")},
		time.Now(), nil,
	)

	b.ApplyChanges([]types.Change{
		chg("buy", "0.41", "10"),  // improves bid
		chg("sell", "0.45", "0"),  // removes current best ask
		chg("ask", "0.46", "7"),   // new best ask via alternate tag
		chg("hold", "0.99", "99"), // unknown side: ignored
	}, time.Now(), nil)

	top := b.Top()
	assert.Equal(t, "0.41", top.BestBid.Decimal.String())
	assert.Equal(t, "0.46", top.BestAsk.Decimal.String())
}

func TestApplyChanges_RemoveMissingLevelIsNoop(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot([]types.Level{lvl("0.40", "1")}, nil, time.Now(), nil)

	b.ApplyChanges([]types.Change{chg("buy", "0.33", "0")}, time.Now(), nil)

	assert.Equal(t, "0.4", b.Top().BestBid.Decimal.String())
}

func TestDeltaLaw(t *testing.T) {
	// apply_snapshot(S); apply_changes(D) must equal apply_snapshot(S+D).
	baseBids := []types.Level{lvl("0.40", "100"), lvl("0.39", "50")}
	baseAsks := []types.Level{lvl("0.45", "20"), lvl("0.47", "5")}
	deltas := []types.Change{
		chg("bid", "0.40", "0"),
		chg("bid", "0.41", "30"),
		chg("ask", "0.44", "2"),
	}

	incremental := NewBook()
	incremental.ApplySnapshot(baseBids, baseAsks, time.Now(), nil)
	incremental.ApplyChanges(deltas, time.Now(), nil)

	merged := NewBook()
	merged.ApplySnapshot(
		[]types.Level{lvl("0.39", "50"), lvl("0.41", "30")},
		[]types.Level{lvl("0.45", "20"), lvl("0.47", "5"), lvl("0.44", "2")},
		time.Now(), nil,
	)

	assert.True(t, incremental.Top().BestBid.Decimal.Equal(merged.Top().BestBid.Decimal))
	assert.True(t, incremental.Top().BestAsk.Decimal.Equal(merged.Top().BestAsk.Decimal))
}

func TestApplyTop_AuthoritativeOverDepth(t *testing.T) {
	b := NewBook()
	b.ApplySnapshot([]types.Level{lvl("0.40", "1")}, []types.Level{lvl("0.45", "1")}, time.Now(), nil)

	// Delta removes the resting best bid, then a top-only update restores one.
	b.ApplyChanges([]types.Change{chg("buy", "0.40", "0")}, time.Now(), nil)
	assert.False(t, b.Top().BestBid.Valid)

	b.ApplyTop(types.NullDec(dec("0.43")), types.NullDec(dec("0.44")), time.Now(), nil)

	top := b.Top()
	assert.Equal(t, "0.43", top.BestBid.Decimal.String())
	assert.Equal(t, "0.44", top.BestAsk.Decimal.String())
}

func TestTop_CrossedNever(t *testing.T) {
	// After any snapshot/changes sequence over one-sided inserts the derived
	// tops never cross.
	b := NewBook()
	b.ApplySnapshot(
		[]types.Level{lvl("0.40", "1"), lvl("0.41", "2"), lvl("0.42", "3")},
		[]types.Level{lvl("0.42", "1"), lvl("0.43", "2")},
		time.Now(), nil,
	)

	top := b.Top()
	assert.True(t, top.BestBid.Decimal.LessThanOrEqual(top.BestAsk.Decimal))

	// best_bid == best_ask is permitted; mid equals that value.
	mid := top.Mid()
	require.True(t, mid.Valid)
	assert.True(t, mid.Decimal.Equal(dec("0.42")))
}

func TestSet_LazyCreation(t *testing.T) {
	s := NewSet()

	_, ok := s.Lookup("a")
	assert.False(t, ok)

	b := s.Get("a")
	require.NotNil(t, b)
	assert.Equal(t, 1, s.Len())

	again := s.Get("a")
	assert.Same(t, b, again)

	tops := s.Tops()
	assert.Len(t, tops, 1)
}
