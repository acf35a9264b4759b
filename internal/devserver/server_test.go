package devserver_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/storefront/internal/backend"
	"github.com/mkrogh/storefront/internal/cart"
	"github.com/mkrogh/storefront/internal/catalog"
	"github.com/mkrogh/storefront/internal/checkout"
	"github.com/mkrogh/storefront/internal/devserver"
	"github.com/mkrogh/storefront/internal/session"
	"github.com/mkrogh/storefront/internal/views"
	"github.com/mkrogh/storefront/pkg/config"
	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/types"
)

type harness struct {
	client  *backend.Client
	cart    *cart.Store
	catalog *catalog.Cache
	session *session.Cache
	flow    *checkout.Flow
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	server, err := devserver.NewServer(config.DevServerConfig{JWTSecret: "test-secret", Seed: true}, logg)
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(config.BackendConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, logg, nil)
	require.NoError(t, err)

	cartStore, err := cart.NewStore(context.Background(), cart.NewMemoryRepository(), logg)
	require.NoError(t, err)
	catalogCache, err := catalog.NewCache(client, logg)
	require.NoError(t, err)
	sessionCache, err := session.NewCache(client, logg)
	require.NoError(t, err)
	flow, err := checkout.NewFlow(cartStore, client, logg, nil)
	require.NoError(t, err)

	return &harness{client: client, cart: cartStore, catalog: catalogCache, session: sessionCache, flow: flow}
}

func TestProductListWithRelations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	relations := []types.Relation{
		types.RelationManufacturer,
		types.RelationManufacturerProducts,
		types.RelationDetails,
	}
	require.NoError(t, h.catalog.FetchList(ctx, relations))
	require.Equal(t, 5, h.catalog.Len())

	product, ok := h.catalog.Lookup(2)
	require.True(t, ok)
	require.NotNil(t, product.Manufacturer)
	require.Equal(t, "Kellogg's", product.Manufacturer.Name)
	require.NotEmpty(t, product.Manufacturer.Products)
	require.NotNil(t, product.Details)

	others := views.OtherProductsByManufacturer(product)
	require.NotEmpty(t, others)
	for _, sibling := range others {
		require.NotEqual(t, product.ID, sibling.ID)
	}
}

func TestProductListWithoutRelations(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.catalog.FetchList(context.Background(), nil))

	product, ok := h.catalog.Lookup(1)
	require.True(t, ok)
	require.Nil(t, product.Manufacturer)
	require.Nil(t, product.Details)
}

func TestFetchOneUnknownProduct(t *testing.T) {
	h := newHarness(t)
	_, err := h.catalog.FetchOne(context.Background(), 999, nil)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCheckoutRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.catalog.FetchList(ctx, nil))
	require.NoError(t, h.cart.AddOrIncrement(ctx, 1, 2))
	require.NoError(t, h.cart.AddOrIncrement(ctx, 5, 1))

	total, err := views.CartGrandTotal(h.cart.Snapshot(), h.catalog)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.RequireFromString("17.00")), "got %s", total)

	require.Equal(t, session.StateAbsent, h.session.Refresh(ctx))
	require.NoError(t, h.session.Login(ctx, "a@a", "123"))
	require.Equal(t, session.StatePresent, h.session.State())
	require.True(t, h.session.IsAdmin())

	contact, err := h.flow.Prefill(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bobby", contact.Name)
	contact.Email = "a@a.dk" // seeded email is not RFC-shaped

	orderID, err := h.flow.Submit(ctx, contact)
	require.NoError(t, err)
	require.NotEmpty(t, orderID)
	require.Empty(t, h.cart.Snapshot())

	// stock was decremented server-side
	product, err := h.catalog.FetchOne(ctx, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 38, product.Stock)

	// the order shows up in the user's history with the server-computed price
	info, err := h.client.UserInfo(ctx)
	require.NoError(t, err)
	require.Len(t, info.Orders, 1)
	require.True(t, info.Orders[0].Price.Equal(decimal.RequireFromString("17.00")))
}

func TestCheckoutInsufficientStockPreservesCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.cart.AddOrIncrement(ctx, 5, 500))
	_, err := h.flow.Submit(ctx, checkout.Contact{Email: "b@b.dk", Name: "B", Address: "Vej 1"})
	require.Error(t, err)

	result, message := h.flow.LastResult()
	require.Equal(t, checkout.ResultFailed, result)
	require.Equal(t, "Not enough products in stock", message)
	require.Equal(t, []cart.Entry{{ProductID: 5, Quantity: 500}}, h.cart.Snapshot())
}

func TestSignupLoginLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.Signup(ctx, backend.SignupInput{
		Email:    "shopper@example.com",
		Name:     "Shopper",
		Address:  "Hovedgaden 1",
		Password: "hunter2",
	}))
	identity, present := h.session.Current()
	require.True(t, present)
	require.Equal(t, "shopper@example.com", identity.Email)
	require.False(t, h.session.IsAdmin())

	// duplicate signup is rejected with the backend's reason
	err := h.session.Signup(ctx, backend.SignupInput{Email: "shopper@example.com", Password: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	require.NoError(t, h.cart.AddOrIncrement(ctx, 1, 1))
	require.NoError(t, h.session.Logout(ctx))
	require.Equal(t, session.StateAbsent, h.session.State())
	require.NotEmpty(t, h.cart.Snapshot(), "logout must not clear the cart")

	// wrong password
	err = h.session.Login(ctx, "shopper@example.com", "wrong")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, "invalid login", typed.Message())

	require.NoError(t, h.session.Login(ctx, "shopper@example.com", "hunter2"))
	require.Equal(t, session.StatePresent, h.session.State())
}

func TestDeleteProductRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.client.DeleteProduct(ctx, 4)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	require.NoError(t, h.session.Signup(ctx, backend.SignupInput{Email: "plain@example.com", Password: "pw"}))
	err = h.client.DeleteProduct(ctx, 4)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	require.NoError(t, h.session.Login(ctx, "a@a", "123"))
	require.NoError(t, h.client.DeleteProduct(ctx, 4))

	_, err = h.client.FetchProduct(ctx, 4, nil)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
