package zakat

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is the display locale used when none is configured.
var DefaultLocale = language.Indonesian

// DefaultCurrencySymbol is prefixed to formatted amounts.
const DefaultCurrencySymbol = "Rp"

// FormatCurrency renders amount as a whole-unit currency string with the
// grouping of tag, e.g. "Rp 3.000.000" for Indonesian. Amounts are rounded to
// the nearest unit first; no fractional subunits are shown. Values outside
// the int64 range are grouped digit by digit with the locale's separator.
func FormatCurrency(amount decimal.Decimal, tag language.Tag, symbol string) string {
	p := message.NewPrinter(tag)
	whole := new(big.Int).Set(amount.Round(0).BigInt())
	negative := whole.Sign() < 0
	whole.Abs(whole)

	var digits string
	if whole.IsInt64() {
		digits = p.Sprintf("%d", whole.Int64())
	} else {
		digits = groupDigits(whole.String(), groupSeparator(p))
	}

	switch {
	case symbol == "" && negative:
		return "-" + digits
	case symbol == "":
		return digits
	case negative:
		return "-" + symbol + " " + digits
	}
	return symbol + " " + digits
}

// groupSeparator is whatever the locale prints between thousands.
func groupSeparator(p *message.Printer) string {
	s := p.Sprintf("%d", 1000)
	return strings.TrimSuffix(strings.TrimPrefix(s, "1"), "000")
}

func groupDigits(digits, sep string) string {
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatRate renders a rate such as 0.025 as "2.5%".
func FormatRate(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

// DisplayAmount clamps negative net amounts to zero. The engine itself keeps
// the signed value; only presentation clamps.
func DisplayAmount(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
