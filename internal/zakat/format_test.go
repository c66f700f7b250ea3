package zakat

import (
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

func TestFormatCurrency_Indonesian(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{3_000_000, "Rp 3.000.000"},
		{2_125_000, "Rp 2.125.000"},
		{1_499.5, "Rp 1.500"},
		{1_499.49, "Rp 1.499"},
		{0, "Rp 0"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(d(tt.amount), DefaultLocale, DefaultCurrencySymbol); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatCurrency_EnglishGrouping(t *testing.T) {
	if got := FormatCurrency(d(1_234_567.8), language.English, "$"); got != "$ 1,234,568" {
		t.Errorf("got %q", got)
	}
	if got := FormatCurrency(d(-24_000_000), language.English, ""); got != "-24,000,000" {
		t.Errorf("got %q", got)
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(DefaultStandardRate); got != "2.5%" {
		t.Errorf("got %q", got)
	}
	if got := FormatRate(DefaultNaturalIrrigationRate); got != "10%" {
		t.Errorf("got %q", got)
	}
}

func TestDisplayAmount_ClampsOnlyNegatives(t *testing.T) {
	if got := DisplayAmount(d(-24_000_000)); !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
	if got := DisplayAmount(d(48_000_000)); !got.Equal(d(48_000_000)) {
		t.Errorf("expected unchanged, got %s", got)
	}
}

func TestFormatCurrency_BeyondInt64(t *testing.T) {
	// 1e18 a month annualises to 1.2e19, past math.MaxInt64.
	r, err := Calculate(IncomeInput{
		MonthlyIncome: decimal.New(1, 18),
		NisabAmount:   d(85_000_000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatCurrency(r.NetAmount, DefaultLocale, DefaultCurrencySymbol); got != "Rp 12.000.000.000.000.000.000" {
		t.Errorf("got %q", got)
	}
	if got := FormatCurrency(r.NetAmount.Neg(), language.English, "$"); got != "-$ 12,000,000,000,000,000,000" {
		t.Errorf("got %q", got)
	}
	if got := FormatCurrency(decimal.RequireFromString("123456789012345678901.5"), language.English, ""); got != "123,456,789,012,345,678,902" {
		t.Errorf("got %q", got)
	}
}
