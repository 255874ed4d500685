package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/pnl"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

func commands(env *cliEnv) []subcommands.Command {
	return []subcommands.Command{
		&productAddCmd{env: env},
		&productsCmd{env: env},
		&purchaseCmd{env: env},
		&sellCmd{env: env},
		&otherCmd{env: env},
		&valuationCmd{env: env},
		&purchasesCmd{reportFlags: reportFlags{env: env}},
		&salesCmd{reportFlags: reportFlags{env: env}},
		&othersCmd{reportFlags: reportFlags{env: env}},
		&pnlCmd{env: env},
	}
}

// decimalFlag is a flag.Value holding an optional decimal.
type decimalFlag struct {
	decimal.NullDecimal
}

func (d *decimalFlag) String() string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	d.NullDecimal = decimal.NewNullDecimal(v)
	return nil
}

func (d *decimalFlag) value() decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

type productAddCmd struct {
	env  *cliEnv
	sku  string
	name string
}

func (*productAddCmd) Name() string     { return "product-add" }
func (*productAddCmd) Synopsis() string { return "register a product with zero stock" }
func (*productAddCmd) Usage() string {
	return `posctl product-add -sku <sku> [-name <name>]

  Registers a new product. The SKU must be unique.
`
}

func (p *productAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.sku, "sku", "", "Unique stock keeping unit.")
	f.StringVar(&p.name, "name", "", "Display name.")
}

func (p *productAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.sku == "" {
		fmt.Fprintln(p.env.err, "Error: -sku is required.")
		return subcommands.ExitUsageError
	}
	return p.env.run(ctx, func(c *app.Container) error {
		product, err := c.Inventory.RegisterProduct(ctx, inventory.RegisterInput{SKU: p.sku, Name: p.name})
		if err != nil {
			return err
		}
		fmt.Fprintf(p.env.out, "registered product %d (%s)\n", product.ID, product.SKU)
		return nil
	})
}

type productsCmd struct {
	env *cliEnv
}

func (*productsCmd) Name() string     { return "products" }
func (*productsCmd) Synopsis() string { return "list products with stock and average cost" }
func (*productsCmd) Usage() string {
	return `posctl products

  Lists every product ordered by name.
`
}

func (*productsCmd) SetFlags(*flag.FlagSet) {}

func (p *productsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.env.run(ctx, func(c *app.Container) error {
		products, err := c.Inventory.ListProducts(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(p.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSKU\tNAME\tQTY\tAVG COST\t")
		for _, product := range products {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", product.ID, product.SKU, product.Name, product.Qty, product.AvgCost)
		}
		return tw.Flush()
	})
}

type purchaseCmd struct {
	env      *cliEnv
	product  int64
	qty      decimalFlag
	cost     decimalFlag
	currency string
	rate     decimalFlag
	date     string
	note     string
	ref      string
}

func (*purchaseCmd) Name() string     { return "purchase" }
func (*purchaseCmd) Synopsis() string { return "record a stock purchase" }
func (*purchaseCmd) Usage() string {
	return `posctl purchase -product <id> -qty <n> -cost <unit cost> [-currency <ISO code> -rate <to base>] [-d <date>] [-note <text>] [-ref <uuid>]

  Adds stock and updates the weighted average cost. Foreign costs are converted with -rate.
`
}

func (p *purchaseCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.product, "product", 0, "Product ID.")
	f.Var(&p.qty, "qty", "Quantity received.")
	f.Var(&p.cost, "cost", "Unit cost in -currency.")
	f.StringVar(&p.currency, "currency", "", "ISO 4217 code of the cost. Defaults to the base currency.")
	f.Var(&p.rate, "rate", "Conversion rate from -currency to base. Defaults to 1.")
	f.StringVar(&p.date, "d", "", "Transaction date YYYY-MM-DD. Defaults to today.")
	f.StringVar(&p.note, "note", "", "Free text note.")
	f.StringVar(&p.ref, "ref", "", "Idempotency reference (UUID).")
}

func (p *purchaseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := journal.ParseDate(p.date)
	if err != nil {
		fmt.Fprintln(p.env.err, "Error:", err)
		return subcommands.ExitUsageError
	}
	return p.env.run(ctx, func(c *app.Container) error {
		res, err := c.Inventory.RecordPurchase(ctx, inventory.PurchaseInput{
			ProductID: p.product,
			Date:      date,
			Qty:       p.qty.value(),
			UnitCost:  p.cost.value(),
			Currency:  p.currency,
			Rate:      p.rate.NullDecimal,
			Note:      p.note,
			Ref:       p.ref,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(p.env.out, "purchase %d: qty %s avg cost %s %s\n",
			res.Purchase.ID, res.Product.Qty, res.Product.AvgCost, c.Inventory.BaseCurrency())
		return nil
	})
}

type sellCmd struct {
	env     *cliEnv
	product int64
	qty     decimalFlag
	price   decimalFlag
	date    string
	note    string
	ref     string
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "record a sale at the current average cost" }
func (*sellCmd) Usage() string {
	return `posctl sell -product <id> -qty <n> -price <unit price> [-d <date>] [-note <text>] [-ref <uuid>]

  Removes stock, recording revenue and cost of goods sold.
`
}

func (p *sellCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&p.product, "product", 0, "Product ID.")
	f.Var(&p.qty, "qty", "Quantity sold.")
	f.Var(&p.price, "price", "Unit selling price in base currency.")
	f.StringVar(&p.date, "d", "", "Transaction date YYYY-MM-DD. Defaults to today.")
	f.StringVar(&p.note, "note", "", "Free text note.")
	f.StringVar(&p.ref, "ref", "", "Idempotency reference (UUID).")
}

func (p *sellCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := journal.ParseDate(p.date)
	if err != nil {
		fmt.Fprintln(p.env.err, "Error:", err)
		return subcommands.ExitUsageError
	}
	return p.env.run(ctx, func(c *app.Container) error {
		res, err := c.Inventory.RecordSale(ctx, inventory.SaleInput{
			ProductID: p.product,
			Date:      date,
			Qty:       p.qty.value(),
			UnitPrice: p.price.value(),
			Note:      p.note,
			Ref:       p.ref,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(p.env.out, "sale %d: revenue %s cogs %s, %s left\n",
			res.Sale.ID, res.Sale.Revenue, res.Sale.COGS, res.Product.Qty)
		return nil
	})
}

type otherCmd struct {
	env      *cliEnv
	kind     string
	category string
	amount   decimalFlag
	date     string
	note     string
}

func (*otherCmd) Name() string     { return "other" }
func (*otherCmd) Synopsis() string { return "record a revenue or expense outside inventory" }
func (*otherCmd) Usage() string {
	return `posctl other -kind revenue|expense -category <name> -amount <n> [-d <date>] [-note <text>]
`
}

func (p *otherCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.kind, "kind", "", "revenue or expense.")
	f.StringVar(&p.category, "category", "", "Category, e.g. rent or service.")
	f.Var(&p.amount, "amount", "Amount in base currency.")
	f.StringVar(&p.date, "d", "", "Entry date YYYY-MM-DD. Defaults to today.")
	f.StringVar(&p.note, "note", "", "Free text note.")
}

func (p *otherCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	date, err := journal.ParseDate(p.date)
	if err != nil {
		fmt.Fprintln(p.env.err, "Error:", err)
		return subcommands.ExitUsageError
	}
	return p.env.run(ctx, func(c *app.Container) error {
		entry, err := c.Journal.RecordOther(ctx, journal.OtherInput{
			Date:     date,
			Kind:     journal.EntryKind(p.kind),
			Category: p.category,
			Amount:   p.amount.value(),
			Note:     p.note,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(p.env.out, "entry %d: %s %s %s\n", entry.ID, entry.Kind, entry.Category, entry.Amount)
		return nil
	})
}

type valuationCmd struct {
	env *cliEnv
	csv bool
}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "show inventory value at average cost" }
func (*valuationCmd) Usage() string {
	return `posctl valuation [-csv]
`
}

func (p *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.csv, "csv", false, "Write CSV instead of a table.")
}

func (p *valuationCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.env.run(ctx, func(c *app.Container) error {
		report, err := c.Inventory.Valuation(ctx)
		if err != nil {
			return err
		}
		if p.csv {
			return inventory.WriteValuationCSV(p.env.out, report)
		}
		tw := tabwriter.NewWriter(p.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SKU\tNAME\tQTY\tAVG COST\tVALUE\t")
		for _, line := range report.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", line.SKU, line.Name, line.Qty, line.AvgCost, pnl.FormatAmount(line.Value, report.Currency))
		}
		fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t\n", pnl.FormatAmount(report.Total, report.Currency))
		return tw.Flush()
	})
}

// reportFlags holds the date window and output switch shared by the journal reports.
type reportFlags struct {
	env  *cliEnv
	from string
	to   string
	csv  bool
}

func (r *reportFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.from, "s", "", "Start date YYYY-MM-DD, inclusive.")
	f.StringVar(&r.to, "d", "", "End date YYYY-MM-DD, inclusive.")
	f.BoolVar(&r.csv, "csv", false, "Write CSV instead of a table.")
}

// execute parses the window and runs fn against the container.
func (r *reportFlags) execute(ctx context.Context, fn func(*app.Container, journal.Range) error) subcommands.ExitStatus {
	rng, err := journal.ParseRange(r.from, r.to)
	if err != nil {
		fmt.Fprintln(r.env.err, "Error:", err)
		return subcommands.ExitUsageError
	}
	return r.env.run(ctx, func(c *app.Container) error {
		return fn(c, rng)
	})
}

type purchasesCmd struct {
	reportFlags
}

func (*purchasesCmd) Name() string     { return "purchases" }
func (*purchasesCmd) Synopsis() string { return "list purchases in a date range" }
func (*purchasesCmd) Usage() string {
	return `posctl purchases [-s <start date>] [-d <end date>] [-csv]
`
}

func (p *purchasesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.execute(ctx, func(c *app.Container, rng journal.Range) error {
		rows, err := c.Journal.Purchases(ctx, rng)
		if err != nil {
			return err
		}
		if p.csv {
			return journal.WritePurchasesCSV(p.env.out, rows, c.Journal.Currency())
		}
		tw := tabwriter.NewWriter(p.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tSKU\tNAME\tQTY\tUNIT COST\tTOTAL\t")
		for _, l := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s %s\t%s\t\n",
				l.ID, l.Date.Format(journal.DateLayout), l.SKU, l.Name, l.Qty, l.UnitCost, l.Currency,
				pnl.FormatAmount(l.TotalBase, c.Journal.Currency()))
		}
		return tw.Flush()
	})
}

type salesCmd struct {
	reportFlags
}

func (*salesCmd) Name() string     { return "sales" }
func (*salesCmd) Synopsis() string { return "list sales with revenue and cost of goods sold" }
func (*salesCmd) Usage() string {
	return `posctl sales [-s <start date>] [-d <end date>] [-csv]
`
}

func (p *salesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.execute(ctx, func(c *app.Container, rng journal.Range) error {
		rows, err := c.Journal.Sales(ctx, rng)
		if err != nil {
			return err
		}
		if p.csv {
			return journal.WriteSalesCSV(p.env.out, rows, c.Journal.Currency())
		}
		cur := c.Journal.Currency()
		tw := tabwriter.NewWriter(p.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tSKU\tNAME\tQTY\tUNIT PRICE\tREVENUE\tCOGS\t")
		for _, l := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				l.ID, l.Date.Format(journal.DateLayout), l.SKU, l.Name, l.Qty, l.UnitPrice,
				pnl.FormatAmount(l.Revenue, cur), pnl.FormatAmount(l.COGS, cur))
		}
		return tw.Flush()
	})
}

type othersCmd struct {
	reportFlags
}

func (*othersCmd) Name() string     { return "others" }
func (*othersCmd) Synopsis() string { return "list revenues and expenses outside inventory" }
func (*othersCmd) Usage() string {
	return `posctl others [-s <start date>] [-d <end date>] [-csv]
`
}

func (p *othersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.execute(ctx, func(c *app.Container, rng journal.Range) error {
		rows, err := c.Journal.Others(ctx, rng)
		if err != nil {
			return err
		}
		if p.csv {
			return journal.WriteOthersCSV(p.env.out, rows, c.Journal.Currency())
		}
		tw := tabwriter.NewWriter(p.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\t")
		for _, e := range rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
				e.ID, e.Date.Format(journal.DateLayout), e.Kind, e.Category, pnl.FormatAmount(e.Amount, c.Journal.Currency()))
		}
		return tw.Flush()
	})
}

type pnlCmd struct {
	env  *cliEnv
	from string
	to   string
	csv  bool
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "compute profit and loss for a date range" }
func (*pnlCmd) Usage() string {
	return `posctl pnl [-s <start date>] [-d <end date>] [-csv]

  Computes revenue, cost of goods sold and net profit. Missing bounds are open.
`
}

func (p *pnlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "s", "", "Start date YYYY-MM-DD, inclusive.")
	f.StringVar(&p.to, "d", "", "End date YYYY-MM-DD, inclusive.")
	f.BoolVar(&p.csv, "csv", false, "Write CSV instead of a formatted report.")
}

func (p *pnlCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rng, err := journal.ParseRange(p.from, p.to)
	if err != nil {
		fmt.Fprintln(p.env.err, "Error:", err)
		return subcommands.ExitUsageError
	}
	return p.env.run(ctx, func(c *app.Container) error {
		summary, err := c.PnL.Compute(ctx, rng)
		if err != nil {
			return err
		}
		if p.csv {
			return pnl.WriteCSV(p.env.out, summary)
		}
		return pnl.Render(p.env.out, summary)
	})
}

type migrateCmd struct {
	env *cliEnv
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply the database schema" }
func (*migrateCmd) Usage() string {
	return `posctl migrate

  Creates missing tables and indexes. Safe to run repeatedly.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (p *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return p.env.run(ctx, func(c *app.Container) error {
		if c.Pool == nil {
			return fmt.Errorf("migrate needs STORAGE=%s", app.StoragePostgres)
		}
		if err := db.Migrate(ctx, c.Pool); err != nil {
			return err
		}
		fmt.Fprintln(p.env.out, "schema up to date")
		return nil
	})
}

type warmupCmd struct {
	env  *cliEnv
	from string
	to   string
}

func (*warmupCmd) Name() string     { return "warmup" }
func (*warmupCmd) Synopsis() string { return "queue a P&L cache warmup on the worker" }
func (*warmupCmd) Usage() string {
	return `posctl warmup [-s <start date>] [-d <end date>]
`
}

func (p *warmupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.from, "s", "", "Start date YYYY-MM-DD.")
	f.StringVar(&p.to, "d", "", "End date YYYY-MM-DD.")
}

func (p *warmupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	payload := jobs.PnLWarmupPayload{From: p.from, To: p.to}
	if _, err := payload.Range(); err != nil {
		fmt.Fprintln(p.env.err, "Error:", err)
		return subcommands.ExitUsageError
	}
	return p.env.run(ctx, func(c *app.Container) error {
		if c.Redis == nil {
			return fmt.Errorf("warmup needs redis at %s", c.Config.RedisAddr)
		}
		client, err := jobs.NewClient(redisOpts(c.Config))
		if err != nil {
			return err
		}
		defer client.Close()
		info, err := client.EnqueuePnLWarmup(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.env.out, "queued %s on %s\n", info.ID, info.Queue)
		return nil
	})
}
