package main

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
)

func memoryEnv(t *testing.T) (*cliEnv, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := &app.Config{Storage: app.StorageMemory, RateLimit: 1, BaseCurrency: "EGP"}
	c, err := app.NewContainer(context.Background(), cfg, nil, app.ContainerOptions{})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	env := &cliEnv{
		open: func(context.Context) (*app.Container, func(), error) { return c, func() {}, nil },
		out:  out,
		err:  errOut,
	}
	return env, out, errOut
}

func execute(t *testing.T, env *cliEnv, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet("posctl", flag.ContinueOnError)
	cdr := subcommands.NewCommander(fs, "posctl")
	for _, c := range commands(env) {
		cdr.Register(c, "")
	}
	cdr.Register(&migrateCmd{env: env}, "")
	require.NoError(t, fs.Parse(args))
	return cdr.Execute(context.Background())
}

func TestLedgerCommands(t *testing.T) {
	env, out, errOut := memoryEnv(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "product-add", "-sku", "CBL-1", "-name", "Cable"))
	require.Contains(t, out.String(), "registered product 1 (CBL-1)")

	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "purchase", "-product", "1", "-qty", "10", "-cost", "5", "-d", "2024-01-02"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "purchase", "-product", "1", "-qty", "10", "-cost", "140", "-currency", "USD", "-rate", "0.05", "-d", "2024-01-03"))
	require.Contains(t, out.String(), "qty 20 avg cost 6 EGP")

	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "sell", "-product", "1", "-qty", "5", "-price", "9", "-d", "2024-01-04"))
	require.Contains(t, out.String(), "revenue 45 cogs 30, 15 left")

	require.Equal(t, subcommands.ExitFailure, execute(t, env, "sell", "-product", "1", "-qty", "100", "-price", "9"))
	require.Contains(t, errOut.String(), "insufficient stock")

	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "other", "-kind", "expense", "-category", "rent", "-amount", "5", "-d", "2024-01-05"))

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "pnl", "-s", "2024-01-01", "-d", "2024-01-31", "-csv"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, "Net Profit,10", lines[len(lines)-1])

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "products"))
	require.Contains(t, out.String(), "CBL-1")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "valuation"))
	require.Contains(t, out.String(), "TOTAL")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "valuation", "-csv"))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{"ID,SKU,Name,Qty,AvgCost(EGP),Value(EGP)", "1,CBL-1,Cable,15,6,90", ",,Total,,,90"}, lines)
}

func TestReportCommands(t *testing.T) {
	env, out, errOut := memoryEnv(t)

	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "product-add", "-sku", "CBL-1", "-name", "Cable"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "purchase", "-product", "1", "-qty", "10", "-cost", "140", "-currency", "USD", "-rate", "0.05", "-d", "2024-01-03"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "sell", "-product", "1", "-qty", "4", "-price", "9", "-d", "2024-01-04"))
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "other", "-kind", "expense", "-category", "rent", "-amount", "5", "-d", "2024-01-05"))

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "sales", "-s", "2024-01-01", "-d", "2024-01-31", "-csv"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "ID,SKU,Name,Date,Qty,UnitPrice,Total(EGP),COGS(EGP),Notes", lines[0])
	require.Equal(t, "1,CBL-1,Cable,2024-01-04,4,9,36,28,", lines[1])

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "sales"))
	require.Contains(t, out.String(), "CBL-1")
	require.Contains(t, out.String(), "Cable")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "purchases", "-csv"))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, "1,CBL-1,Cable,2024-01-03,10,140,USD,0.05,7,70,", lines[1])

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "others", "-s", "2024-01-05", "-csv"))
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{"ID,Date,Type,Category,Amount(EGP),Notes", "1,2024-01-05,expense,rent,5,"}, lines)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, execute(t, env, "others", "-d", "2024-01-04"))
	require.NotContains(t, out.String(), "rent")

	require.Equal(t, subcommands.ExitUsageError, execute(t, env, "sales", "-s", "2024-02-01", "-d", "2024-01-01"))
	require.Contains(t, errOut.String(), "Error:")
}

func TestUsageErrors(t *testing.T) {
	env, _, errOut := memoryEnv(t)

	require.Equal(t, subcommands.ExitUsageError, execute(t, env, "product-add"))
	require.Equal(t, subcommands.ExitUsageError, execute(t, env, "pnl", "-s", "2024-02-01", "-d", "2024-01-01"))
	require.Equal(t, subcommands.ExitFailure, execute(t, env, "migrate"))
	require.Contains(t, errOut.String(), "STORAGE=postgres")
}
