package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/amanah/zakat-service/internal/zakat"
)

// amount reads a float flag and converts it at the decimal boundary, so
// NaN, ±Inf and negatives are rejected with the engine's field name.
func amount(cmd *cobra.Command, flag, field string) (decimal.Decimal, error) {
	v, err := cmd.Flags().GetFloat64(flag)
	if err != nil {
		return decimal.Zero, err
	}
	return zakat.FromFloat(field, v)
}

// nisabAmount resolves --nisab, falling back to the gold equivalent of
// --gold-price under the active policy.
func nisabAmount(cmd *cobra.Command, policy zakat.Policy) (decimal.Decimal, error) {
	if cmd.Flags().Changed("nisab") {
		return amount(cmd, "nisab", "nisab_amount")
	}
	if !cmd.Flags().Changed("gold-price") {
		return decimal.Zero, zakat.Invalid("nisab_amount", zakat.ReasonRequired)
	}
	price, err := amount(cmd, "gold-price", "gold_price_per_gram")
	if err != nil {
		return decimal.Zero, err
	}
	return policy.GoldNisabGrams.Mul(price), nil
}

type inputBuilder func(cmd *cobra.Command, policy zakat.Policy) (zakat.Input, error)

func calcSubcommand(opts *options, use, short string, build inputBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			in, err := build(cmd, engine.Policy())
			if err != nil {
				return err
			}
			res, err := engine.Calculate(in)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts, res)
		},
	}
}

func newCalcCmd(opts *options) *cobra.Command {
	calc := &cobra.Command{
		Use:   "calc",
		Short: "Calculate zakat for one asset category",
	}

	income := calcSubcommand(opts, "income", "Zakat on salary income (annualised from monthly figures)",
		func(cmd *cobra.Command, policy zakat.Policy) (zakat.Input, error) {
			monthly, err := amount(cmd, "monthly-income", "monthly_income")
			if err != nil {
				return nil, err
			}
			debt, err := amount(cmd, "monthly-debt", "monthly_debt")
			if err != nil {
				return nil, err
			}
			nisab, err := nisabAmount(cmd, policy)
			if err != nil {
				return nil, err
			}
			return zakat.IncomeInput{MonthlyIncome: monthly, MonthlyDebt: debt, NisabAmount: nisab}, nil
		})
	income.Flags().Float64("monthly-income", 0, "gross monthly income")
	income.Flags().Float64("monthly-debt", 0, "monthly debt repayments")
	income.Flags().Float64("nisab", 0, "nisab threshold in currency")
	income.Flags().Float64("gold-price", 0, "gold price per gram, used when --nisab is omitted")
	income.MarkFlagRequired("monthly-income")

	gold := calcSubcommand(opts, "gold", "Zakat on stored gold",
		func(cmd *cobra.Command, _ zakat.Policy) (zakat.Input, error) {
			weight, err := amount(cmd, "weight", "gold_weight_grams")
			if err != nil {
				return nil, err
			}
			price, err := amount(cmd, "price", "gold_price_per_gram")
			if err != nil {
				return nil, err
			}
			return zakat.GoldInput{WeightGrams: weight, PricePerGram: price}, nil
		})
	gold.Flags().Float64("weight", 0, "weight in grams")
	gold.Flags().Float64("price", 0, "price per gram")
	gold.MarkFlagRequired("weight")
	gold.MarkFlagRequired("price")

	silver := calcSubcommand(opts, "silver", "Zakat on stored silver",
		func(cmd *cobra.Command, _ zakat.Policy) (zakat.Input, error) {
			weight, err := amount(cmd, "weight", "silver_weight_grams")
			if err != nil {
				return nil, err
			}
			price, err := amount(cmd, "price", "silver_price_per_gram")
			if err != nil {
				return nil, err
			}
			return zakat.SilverInput{WeightGrams: weight, PricePerGram: price}, nil
		})
	silver.Flags().Float64("weight", 0, "weight in grams")
	silver.Flags().Float64("price", 0, "price per gram")
	silver.MarkFlagRequired("weight")
	silver.MarkFlagRequired("price")

	trade := calcSubcommand(opts, "trade", "Zakat on business assets",
		func(cmd *cobra.Command, policy zakat.Policy) (zakat.Input, error) {
			assets, err := amount(cmd, "assets", "business_assets")
			if err != nil {
				return nil, err
			}
			debt, err := amount(cmd, "debt", "debt")
			if err != nil {
				return nil, err
			}
			nisab, err := nisabAmount(cmd, policy)
			if err != nil {
				return nil, err
			}
			return zakat.TradeInput{BusinessAssets: assets, Debt: debt, NisabAmount: nisab}, nil
		})
	trade.Flags().Float64("assets", 0, "business assets")
	trade.Flags().Float64("debt", 0, "business debt")
	trade.Flags().Float64("nisab", 0, "nisab threshold in currency")
	trade.Flags().Float64("gold-price", 0, "gold price per gram, used when --nisab is omitted")
	trade.MarkFlagRequired("assets")

	agriculture := calcSubcommand(opts, "agriculture", "Zakat on a harvest",
		func(cmd *cobra.Command, _ zakat.Policy) (zakat.Input, error) {
			output, err := amount(cmd, "output", "farm_output_value")
			if err != nil {
				return nil, err
			}
			method, _ := cmd.Flags().GetString("irrigation")
			irrigation, err := zakat.ParseIrrigation(method)
			if err != nil {
				return nil, err
			}
			return zakat.AgricultureInput{OutputValue: output, Irrigation: irrigation}, nil
		})
	agriculture.Flags().Float64("output", 0, "harvest value")
	agriculture.Flags().String("irrigation", "", "natural or artificial")
	agriculture.MarkFlagRequired("output")
	agriculture.MarkFlagRequired("irrigation")

	calc.AddCommand(income, gold, silver, trade, agriculture)
	return calc
}

// newNisabCmd prints the currency nisab thresholds for given metal prices.
func newNisabCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nisab",
		Short: "Show nisab thresholds for the given metal prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			gold, err := amount(cmd, "gold-price", "gold_price_per_gram")
			if err != nil {
				return err
			}
			silver, err := amount(cmd, "silver-price", "silver_price_per_gram")
			if err != nil {
				return err
			}
			ref := zakat.NisabReference{GoldPricePerGram: gold, SilverPricePerGram: silver}
			if err := ref.Validate(); err != nil {
				return err
			}

			policy := engine.Policy()
			tag, err := language.Parse(opts.locale)
			if err != nil {
				return fmt.Errorf("invalid --locale %q: %w", opts.locale, err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Gold (%s g):\t%s\n", policy.GoldNisabGrams, zakat.FormatCurrency(ref.GoldEquivalent(policy), tag, opts.symbol))
			fmt.Fprintf(tw, "Silver (%s g):\t%s\n", policy.SilverNisabGrams, zakat.FormatCurrency(ref.SilverEquivalent(policy), tag, opts.symbol))
			fmt.Fprintf(tw, "Agriculture:\t%s\n", zakat.FormatCurrency(policy.AgricultureNisab, tag, opts.symbol))
			return tw.Flush()
		},
	}
	cmd.Flags().Float64("gold-price", 0, "gold price per gram")
	cmd.Flags().Float64("silver-price", 0, "silver price per gram")
	cmd.MarkFlagRequired("gold-price")
	cmd.MarkFlagRequired("silver-price")
	return cmd
}
