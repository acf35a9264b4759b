package catalog

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/types"
)

type productFetcher interface {
	FetchProducts(ctx context.Context, relations []types.Relation) ([]types.Product, error)
	FetchProduct(ctx context.Context, id int, relations []types.Relation) (*types.Product, error)
}

// Cache holds the products needed by one rendered view. It is scoped per view
// instance and replaced wholesale on fetch, never merged, so concurrent
// fetches for different relation sets cannot interleave partial state.
type Cache struct {
	mu       sync.Mutex
	products []types.Product
	index    map[int]int
	gen      uint64
	fetcher  productFetcher
	logg     *logger.Logger
}

func NewCache(fetcher productFetcher, logg *logger.Logger) (*Cache, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("product fetcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Cache{fetcher: fetcher, logg: logg}, nil
}

// FetchList loads the full product collection with the named relations. On
// failure the previous cache contents stay untouched. A response that arrives
// after a newer fetch was issued, or after ctx was cancelled, is discarded.
func (c *Cache) FetchList(ctx context.Context, relations []types.Relation) error {
	if err := validateRelations(relations); err != nil {
		return err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	products, err := c.fetcher.FetchProducts(ctx, relations)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logg.Debug(ctx, "discarding superseded catalog fetch")
		return nil
	}
	if ctx.Err() != nil {
		c.logg.Debug(ctx, "discarding catalog fetch for cancelled view")
		return pkgerrors.Wrap(pkgerrors.CodeTransport, ctx.Err(), "view navigated away")
	}
	c.replaceLocked(products)
	return nil
}

// FetchOne loads a single product. Failure is always an explicit error so the
// product page can distinguish "failed / not found" from "not yet loaded".
func (c *Cache) FetchOne(ctx context.Context, id int, relations []types.Relation) (*types.Product, error) {
	if err := validateRelations(relations); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	product, err := c.fetcher.FetchProduct(ctx, id, relations)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logg.Debug(ctx, "discarding superseded product fetch")
		return product, nil
	}
	if ctx.Err() != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, ctx.Err(), "view navigated away")
	}
	c.replaceLocked([]types.Product{*product})
	return product, nil
}

// Lookup is a pure read of the current cache.
func (c *Cache) Lookup(id int) (types.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return types.Product{}, false
	}
	return c.products[idx], true
}

// Products returns a copy of the cached list in backend order.
func (c *Cache) Products() []types.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products)
}

func (c *Cache) replaceLocked(products []types.Product) {
	c.products = products
	c.index = make(map[int]int, len(products))
	for i, p := range products {
		c.index[p.ID] = i
	}
}

func validateRelations(relations []types.Relation) error {
	for _, rel := range relations {
		if !rel.Valid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown relation %q", rel))
		}
	}
	return nil
}
