package nisab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanah/zakat-service/internal/zakat"
)

func ref(gold, silver int64) zakat.NisabReference {
	return zakat.NisabReference{
		GoldPricePerGram:   decimal.NewFromInt(gold),
		SilverPricePerGram: decimal.NewFromInt(silver),
	}
}

func TestStaticProvider(t *testing.T) {
	p, err := NewStaticProvider(ref(1_000_000, 14_000))
	require.NoError(t, err)
	got, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, got.GoldPricePerGram.Equal(decimal.NewFromInt(1_000_000)))

	_, err = NewStaticProvider(ref(0, 14_000))
	assert.True(t, errors.Is(err, ErrInvalidReference))
}

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"gold_price_per_gram":"1250000.50","silver_price_per_gram":15000}`))
	}))
	defer srv.Close()

	got, err := NewHTTPProvider(srv.URL, time.Second).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1250000.5", got.GoldPricePerGram.String())
	assert.Equal(t, "15000", got.SilverPricePerGram.String())
}

func TestHTTPProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, `{}`, ErrUpstream},
		{"garbage", http.StatusOK, `not json`, ErrUpstream},
		{"non-finite", http.StatusOK, `{"gold_price_per_gram":"NaN","silver_price_per_gram":"1"}`, ErrUpstream},
		{"zero price", http.StatusOK, `{"gold_price_per_gram":"0","silver_price_per_gram":"1"}`, ErrInvalidReference},
		{"negative", http.StatusOK, `{"gold_price_per_gram":"5","silver_price_per_gram":"-1"}`, ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPProvider(srv.URL, time.Second).Current(context.Background())
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

type fakeProvider struct {
	ref zakat.NisabReference
	err error
}

func (f *fakeProvider) Current(context.Context) (zakat.NisabReference, error) {
	return f.ref, f.err
}

type memCache struct {
	snap  Snapshot
	ok    bool
	saves int
}

func (c *memCache) Load(context.Context) (Snapshot, bool) { return c.snap, c.ok }
func (c *memCache) Save(_ context.Context, s Snapshot)   { c.snap, c.ok = s, true; c.saves++ }

func TestRefresher_FallbackUntilRefreshed(t *testing.T) {
	up := &fakeProvider{ref: ref(1_100_000, 15_000)}
	var events []Snapshot
	r := NewRefresher(up, ref(1_000_000, 14_000), nil, func(s Snapshot) { events = append(events, s) })

	got, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, got.GoldPricePerGram.Equal(decimal.NewFromInt(1_000_000)))
	assert.Equal(t, "fallback", r.Snapshot().Source)

	require.NoError(t, r.Refresh(context.Background()))
	got, _ = r.Current(context.Background())
	assert.True(t, got.GoldPricePerGram.Equal(decimal.NewFromInt(1_100_000)))
	assert.Equal(t, "upstream", r.Snapshot().Source)
	require.Len(t, events, 1)

	// Same prices again: no change event.
	require.NoError(t, r.Refresh(context.Background()))
	assert.Len(t, events, 1)
}

func TestRefresher_UpstreamFailureUsesCache(t *testing.T) {
	up := &fakeProvider{err: ErrUpstream}
	cache := &memCache{snap: Snapshot{Reference: ref(1_200_000, 16_000)}, ok: true}
	r := NewRefresher(up, ref(1_000_000, 14_000), cache, nil)

	err := r.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrUpstream))

	snap := r.Snapshot()
	assert.Equal(t, "cache", snap.Source)
	assert.True(t, snap.Reference.GoldPricePerGram.Equal(decimal.NewFromInt(1_200_000)))
}

func TestRefresher_UpstreamFailureKeepsLastGood(t *testing.T) {
	up := &fakeProvider{ref: ref(1_100_000, 15_000)}
	cache := &memCache{}
	r := NewRefresher(up, ref(1_000_000, 14_000), cache, nil)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, cache.saves)

	up.err = ErrUpstream
	cache.ok = false
	assert.Error(t, r.Refresh(context.Background()))
	assert.True(t, r.Snapshot().Reference.GoldPricePerGram.Equal(decimal.NewFromInt(1_100_000)))
}
