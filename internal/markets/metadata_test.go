package markets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFetcher struct {
	markets map[int64]map[string]any
	calls   int
}

func (f *fakeFetcher) GetMarket(_ context.Context, id int64) (map[string]any, error) {
	f.calls++
	m, ok := f.markets[id]
	if !ok {
		return nil, fmt.Errorf("market %d not found", id)
	}
	return m, nil
}

func binaryMarket(question, yesID, noID string) map[string]any {
	return map[string]any{
		"question":     question,
		"outcomes":     []any{"Yes", "No"},
		"clobTokenIds": []any{yesID, noID},
	}
}

func TestFetchBasket(t *testing.T) {
	f := &fakeFetcher{markets: map[int64]map[string]any{
		601697: binaryMarket("A?", "a-yes", "a-no"),
		601698: binaryMarket("B?", "b-yes", "b-no"),
	}}

	basket, err := FetchBasket(context.Background(), f, []int64{601697, 601698}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, basket, 2)

	assert.Equal(t, int64(601697), basket[0].MarketID)
	assert.Equal(t, "a-yes", basket[0].YesAssetID)
	assert.Equal(t, "a-no", basket[0].NoAssetID)
	assert.Equal(t, "B?", basket[1].Question)
}

func TestFetchBasket_AnyFailureFailsAll(t *testing.T) {
	f := &fakeFetcher{markets: map[int64]map[string]any{
		1: binaryMarket("A?", "a-yes", "a-no"),
	}}

	_, err := FetchBasket(context.Background(), f, []int64{1, 2}, zap.NewNop())
	assert.Error(t, err)
}

func TestTokensFromMarket_StringEncodedArrays(t *testing.T) {
	raw := map[string]any{
		"question":     "Stringly?",
		"outcomes":     `["Yes","No"]`,
		"clobTokenIds": `["tok-yes","tok-no"]`,
	}

	mt, err := tokensFromMarket(7, raw, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tok-yes", mt.YesAssetID)
	assert.Equal(t, "tok-no", mt.NoAssetID)
}

func TestTokensFromMarket_CaseInsensitiveOutcomes(t *testing.T) {
	raw := map[string]any{
		"outcomes":     []any{"NO", "yes"},
		"clobTokenIds": []any{"tok-no", "tok-yes"},
	}

	mt, err := tokensFromMarket(7, raw, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "tok-yes", mt.YesAssetID)
	assert.Equal(t, "tok-no", mt.NoAssetID)
}

func TestTokensFromMarket_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"missing clobTokenIds", map[string]any{
			"outcomes": []any{"Yes", "No"},
		}},
		{"short clobTokenIds", map[string]any{
			"outcomes":     []any{"Yes", "No"},
			"clobTokenIds": []any{"only-one"},
		}},
		{"missing outcomes", map[string]any{
			"clobTokenIds": []any{"a", "b"},
		}},
		{"no yes/no pair", map[string]any{
			"outcomes":     []any{"Up", "Down"},
			"clobTokenIds": []any{"a", "b"},
		}},
		{"undecodable string field", map[string]any{
			"outcomes":     "not json",
			"clobTokenIds": []any{"a", "b"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokensFromMarket(1, tt.raw, zap.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestGammaClient_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"question":"Q?","outcomes":["Yes","No"],"clobTokenIds":["y","n"]}`)
	}))
	defer srv.Close()

	c := NewGammaClient(srv.URL, zap.NewNop())
	c.baseDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	raw, err := c.GetMarket(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Q?", raw["question"])
	assert.Equal(t, int32(3), hits.Load())
}

func TestGammaClient_GivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGammaClient(srv.URL, zap.NewNop())
	c.baseDelay = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := c.GetMarket(ctx, 42)
	require.Error(t, err)
	assert.Equal(t, int32(retryAttempts), hits.Load())
}

func TestCachedClient(t *testing.T) {
	f := &fakeFetcher{markets: map[int64]map[string]any{
		1: binaryMarket("A?", "a-yes", "a-no"),
	}}
	mem := newMemCache()
	c := NewCachedClient(f, mem)

	first, err := c.GetMarket(context.Background(), 1)
	require.NoError(t, err)
	second, err := c.GetMarket(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.calls, "second fetch must be served from cache")
}

type memCache struct {
	values map[string]any
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string]any)}
}

func (m *memCache) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memCache) Set(key string, value any, _ time.Duration) bool {
	m.values[key] = value
	return true
}

func (m *memCache) Delete(key string) { delete(m.values, key) }
func (m *memCache) Clear()            { m.values = make(map[string]any) }
func (m *memCache) Close()            {}
