package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
)

type seedProduct struct {
	sku, name string
	purchases []seedPurchase
	sales     []seedSale
}

type seedPurchase struct {
	qty, cost, rate string
	currency        string
	daysAgo         int
}

type seedSale struct {
	qty, price string
	daysAgo    int
}

var catalogue = []seedProduct{
	{
		sku: "DRL-18V", name: "Cordless drill 18V",
		purchases: []seedPurchase{
			{qty: "10", cost: "1500", daysAgo: 40},
			{qty: "5", cost: "35", currency: "USD", rate: "48.5", daysAgo: 20},
		},
		sales: []seedSale{{qty: "4", price: "2200", daysAgo: 15}, {qty: "3", price: "2150", daysAgo: 3}},
	},
	{
		sku: "CBL-CAT6", name: "CAT6 cable 305m",
		purchases: []seedPurchase{{qty: "20", cost: "900", daysAgo: 30}},
		sales:     []seedSale{{qty: "12", price: "1250", daysAgo: 10}},
	},
	{
		sku: "GLV-L", name: "Work gloves L",
		purchases: []seedPurchase{{qty: "100", cost: "4", currency: "EUR", rate: "52", daysAgo: 25}},
		sales:     []seedSale{{qty: "60", price: "300", daysAgo: 5}},
	},
}

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	c, err := app.NewContainer(ctx, cfg, nil, app.ContainerOptions{})
	if err != nil {
		log.Fatalf("wire services: %v", err)
	}
	defer c.Close()

	today := journal.Today()
	for _, item := range catalogue {
		fmt.Printf("→ Seeding %s...\n", item.sku)
		product, err := c.Inventory.RegisterProduct(ctx, inventory.RegisterInput{SKU: item.sku, Name: item.name})
		if errors.Is(err, inventory.ErrDuplicateProductKey) {
			fmt.Printf("  %s already present, skipping\n", item.sku)
			continue
		}
		if err != nil {
			log.Fatalf("register %s: %v", item.sku, err)
		}
		for _, p := range item.purchases {
			rate := decimal.NullDecimal{}
			if p.rate != "" {
				rate = decimal.NewNullDecimal(decimal.RequireFromString(p.rate))
			}
			if _, err := c.Inventory.RecordPurchase(ctx, inventory.PurchaseInput{
				ProductID: product.ID,
				Date:      today.AddDate(0, 0, -p.daysAgo),
				Qty:       decimal.RequireFromString(p.qty),
				UnitCost:  decimal.RequireFromString(p.cost),
				Currency:  p.currency,
				Rate:      rate,
				Note:      "seed",
			}); err != nil {
				log.Fatalf("purchase %s: %v", item.sku, err)
			}
		}
		for _, s := range item.sales {
			if _, err := c.Inventory.RecordSale(ctx, inventory.SaleInput{
				ProductID: product.ID,
				Date:      today.AddDate(0, 0, -s.daysAgo),
				Qty:       decimal.RequireFromString(s.qty),
				UnitPrice: decimal.RequireFromString(s.price),
				Note:      "seed",
			}); err != nil {
				log.Fatalf("sale %s: %v", item.sku, err)
			}
		}
	}

	fmt.Println("→ Seeding other entries...")
	others := []journal.OtherInput{
		{Date: today.AddDate(0, 0, -28), Kind: journal.KindExpense, Category: "rent", Amount: decimal.NewFromInt(8000)},
		{Date: today.AddDate(0, 0, -12), Kind: journal.KindRevenue, Category: "installation", Amount: decimal.NewFromInt(1500)},
		{Date: today.AddDate(0, 0, -2), Kind: journal.KindExpense, Category: "utilities", Amount: decimal.RequireFromString("640.75")},
	}
	for _, in := range others {
		if _, err := c.Journal.RecordOther(ctx, in); err != nil {
			log.Fatalf("other entry %s: %v", in.Category, err)
		}
	}

	summary, err := c.PnL.Compute(ctx, journal.Range{})
	if err != nil {
		log.Fatalf("compute pnl: %v", err)
	}
	fmt.Printf("✓ Seed complete at %s, net profit %s %s\n", time.Now().UTC().Format(time.RFC3339), summary.NetProfit, summary.Currency)
}
