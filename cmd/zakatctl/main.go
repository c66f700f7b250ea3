// Command zakatctl evaluates zakat from the command line without running
// the service.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/amanah/zakat-service/internal/config"
	"github.com/amanah/zakat-service/internal/zakat"
)

var version = "dev"

// options are the persistent flags shared by every subcommand.
type options struct {
	policyFile string
	asJSON     bool
	locale     string
	symbol     string
}

func (o *options) engine() (*zakat.Engine, error) {
	policy := zakat.DefaultPolicy()
	if o.policyFile != "" {
		p, err := config.LoadPolicy(o.policyFile)
		if err != nil {
			return nil, err
		}
		policy = p
	}
	return zakat.NewEngine(policy)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "zakatctl",
		Short:         "Zakat calculator CLI",
		Long:          "Evaluate zakat on income, gold, silver, trade and agriculture from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.policyFile, "policy", "", "YAML policy file overriding nisab thresholds and rates")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	root.PersistentFlags().StringVar(&opts.locale, "locale", zakat.DefaultLocale.String(), "display locale (BCP 47)")
	root.PersistentFlags().StringVar(&opts.symbol, "symbol", zakat.DefaultCurrencySymbol, "currency symbol for display")

	root.AddCommand(newCalcCmd(opts), newNisabCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "zakatctl %s\n", version)
		},
	}
}

// render prints a result as JSON or as an aligned, locale-formatted table.
func render(w io.Writer, opts *options, r zakat.Result) error {
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	tag, err := language.Parse(opts.locale)
	if err != nil {
		return fmt.Errorf("invalid --locale %q: %w", opts.locale, err)
	}
	money := func(d decimal.Decimal) string { return zakat.FormatCurrency(d, tag, opts.symbol) }
	wajib := "no"
	if r.IsWajib {
		wajib = "yes"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Type:\t%s\n", r.Category)
	fmt.Fprintf(tw, "Net amount:\t%s\n", money(zakat.DisplayAmount(r.NetAmount)))
	fmt.Fprintf(tw, "Nisab:\t%s\n", money(r.NisabAmount))
	fmt.Fprintf(tw, "Wajib:\t%s\n", wajib)
	fmt.Fprintf(tw, "Rate:\t%s\n", zakat.FormatRate(r.ZakatRate))
	fmt.Fprintf(tw, "Zakat:\t%s\n", money(r.ZakatAmount))
	return tw.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
