// Package nisab supplies current gold and silver prices to callers of the
// zakat engine. The engine never fetches or caches prices itself; this
// package owns freshness, fallback and sharing across instances.
package nisab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/zakat"
)

var (
	// ErrInvalidReference is returned when a source yields non-positive prices.
	ErrInvalidReference = errors.New("nisab: invalid reference prices")

	// ErrUpstream is returned when the price source cannot be reached or
	// answers with a non-200 status.
	ErrUpstream = errors.New("nisab: upstream price source failed")
)

// Provider returns the current nisab reference.
type Provider interface {
	Current(ctx context.Context) (zakat.NisabReference, error)
}

// StaticProvider always returns the configured reference.
type StaticProvider struct {
	Reference zakat.NisabReference
}

// NewStaticProvider validates ref and wraps it.
func NewStaticProvider(ref zakat.NisabReference) (*StaticProvider, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return &StaticProvider{Reference: ref}, nil
}

func (p *StaticProvider) Current(_ context.Context) (zakat.NisabReference, error) {
	return p.Reference, nil
}

// HTTPProvider fetches prices from a JSON endpoint of the form
//
//	{"gold_price_per_gram": "1000000", "silver_price_per_gram": "14000"}
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider for url with a request timeout.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type priceResponse struct {
	GoldPricePerGram   decimal.Decimal `json:"gold_price_per_gram"`
	SilverPricePerGram decimal.Decimal `json:"silver_price_per_gram"`
}

func (p *HTTPProvider) Current(ctx context.Context) (zakat.NisabReference, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return zakat.NisabReference{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return zakat.NisabReference{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zakat.NisabReference{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return zakat.NisabReference{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}

	ref := zakat.NisabReference{
		GoldPricePerGram:   body.GoldPricePerGram,
		SilverPricePerGram: body.SilverPricePerGram,
	}
	if err := ref.Validate(); err != nil {
		return zakat.NisabReference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return ref, nil
}
