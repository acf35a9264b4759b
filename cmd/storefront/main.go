// The storefront binary wires the full client stack against a running backend
// and walks one shopper session: refresh the session, load the catalog, fill
// the cart, and print the derived totals. It doubles as a smoke test for the
// composition root.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/mkrogh/storefront/internal/backend"
	"github.com/mkrogh/storefront/internal/cart"
	"github.com/mkrogh/storefront/internal/catalog"
	"github.com/mkrogh/storefront/internal/session"
	"github.com/mkrogh/storefront/internal/views"
	"github.com/mkrogh/storefront/pkg/config"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/metrics"
	"github.com/mkrogh/storefront/pkg/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	logg := logger.New(logger.Options{ServiceName: "storefront"})
	ctx := context.Background()

	if dotErr := godotenv.Load(); dotErr != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	repo, err := cart.NewSQLiteRepository(cfg.Cart)
	if err != nil {
		return fmt.Errorf("opening cart repository: %w", err)
	}
	defer func() {
		err = multierr.Append(err, repo.Close())
	}()

	client, err := backend.NewClient(cfg.Backend, logg, metrics.NewBackendMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		return fmt.Errorf("building backend client: %w", err)
	}

	cartStore, err := cart.NewStore(ctx, repo, logg)
	if err != nil {
		return fmt.Errorf("building cart store: %w", err)
	}
	sessionCache, err := session.NewCache(client, logg)
	if err != nil {
		return fmt.Errorf("building session cache: %w", err)
	}
	catalogCache, err := catalog.NewCache(client, logg)
	if err != nil {
		return fmt.Errorf("building catalog cache: %w", err)
	}

	state := sessionCache.Refresh(ctx)
	fmt.Printf("session: %s\n", state)
	if identity, ok := sessionCache.Current(); ok {
		fmt.Printf("logged in as %s (admin=%v)\n", identity.Email, identity.Admin)
	}

	relations := []types.Relation{types.RelationManufacturer, types.RelationDetails}
	if err := catalogCache.FetchList(ctx, relations); err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}
	printCatalog(catalogCache.Products())

	fmt.Printf("\ncart (%d entries, rehydrated from %s):\n", cartStore.Len(), cfg.Cart.DBPath)
	for _, entry := range cartStore.Snapshot() {
		line := "?"
		if total, lineErr := views.CartLineTotal(entry, catalogCache); lineErr == nil {
			line = total.StringFixed(2)
		}
		fmt.Printf("  product %d x%d = %s\n", entry.ProductID, entry.Quantity, line)
	}
	if total, totalErr := views.CartGrandTotal(cartStore.Snapshot(), catalogCache); totalErr == nil {
		fmt.Printf("  total: %s\n", total.StringFixed(2))
	}

	return nil
}

// printCatalog renders the generic debugging table: columns inferred from the
// first record's shape.
func printCatalog(products []types.Product) {
	records := make([]map[string]any, 0, len(products))
	for _, p := range products {
		encoded, err := json.Marshal(p)
		if err != nil {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(encoded, &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	columns := views.InferredColumns(records)
	fmt.Println(columns)
	for _, record := range records {
		row := make([]any, 0, len(columns))
		for _, column := range columns {
			row = append(row, record[column])
		}
		fmt.Println(row...)
	}
}
