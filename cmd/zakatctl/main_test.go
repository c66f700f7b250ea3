package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanah/zakat-service/internal/zakat"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "zakatctl", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"calc", "nisab", "version"})
}

func TestCalcIncome_Table(t *testing.T) {
	out, err := run(t, "calc", "income", "--monthly-income", "10000000", "--monthly-debt", "2000000", "--nisab", "85000000")
	require.NoError(t, err)

	assert.Contains(t, out, "income")
	assert.Contains(t, out, "Rp 96.000.000")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "2.5%")
	assert.Contains(t, out, "Rp 2.400.000")
}

func TestCalcIncome_GoldPriceNisab(t *testing.T) {
	out, err := run(t, "--json", "calc", "income", "--monthly-income", "7000000", "--gold-price", "1000000")
	require.NoError(t, err)

	var r zakat.Result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "85000000", r.NisabAmount.String())
	assert.False(t, r.IsWajib)
	assert.True(t, r.ZakatAmount.IsZero())
}

func TestCalcIncome_MissingNisab(t *testing.T) {
	_, err := run(t, "calc", "income", "--monthly-income", "1000")
	var ie *zakat.InvalidInputError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "nisab_amount", ie.Field)
}

func TestCalcGold_JSON(t *testing.T) {
	out, err := run(t, "calc", "gold", "--weight", "85", "--price", "1000000", "--json")
	require.NoError(t, err)

	var r zakat.Result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, zakat.CategoryGold, r.Category)
	assert.True(t, r.IsWajib)
	assert.Equal(t, "2125000", r.ZakatAmount.String())
}

func TestCalc_RejectsNonFinite(t *testing.T) {
	_, err := run(t, "calc", "silver", "--weight", "NaN", "--price", "14000")
	var ie *zakat.InvalidInputError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "silver_weight_grams", ie.Field)
	assert.Equal(t, zakat.ReasonNonFinite, ie.Reason)
}

func TestCalcAgriculture(t *testing.T) {
	out, err := run(t, "--locale", "en", "--symbol", "$", "calc", "agriculture", "--output", "10000000", "--irrigation", "natural")
	require.NoError(t, err)
	assert.Contains(t, out, "10%")
	assert.Contains(t, out, "$ 1,000,000")

	_, err = run(t, "calc", "agriculture", "--output", "10000000", "--irrigation", "drip")
	assert.True(t, errors.Is(err, zakat.ErrInvalidInput), "got %v", err)

	_, err = run(t, "calc", "agriculture", "--output", "10000000")
	assert.Error(t, err, "irrigation is a required flag")
}

func TestCalc_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agriculture_nisab: 20000000\n"), 0o600))

	out, err := run(t, "--policy", path, "--json", "calc", "agriculture", "--output", "10000000", "--irrigation", "natural")
	require.NoError(t, err)

	var r zakat.Result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.False(t, r.IsWajib)
}

func TestNisab(t *testing.T) {
	out, err := run(t, "nisab", "--gold-price", "1000000", "--silver-price", "14000")
	require.NoError(t, err)
	assert.Contains(t, out, "Rp 85.000.000")
	assert.Contains(t, out, "Rp 8.330.000")
	assert.Contains(t, out, "Rp 6.530.000")

	_, err = run(t, "nisab", "--gold-price", "0", "--silver-price", "14000")
	assert.True(t, errors.Is(err, zakat.ErrInvalidInput), "got %v", err)
}
