package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrogh/storefront/pkg/config"
	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(config.BackendConfig{BaseURL: srv.URL, TimeoutSeconds: 5}, logg, nil)
	require.NoError(t, err)
	return client
}

func TestFetchProductsSendsMappers(t *testing.T) {
	var gotMappers []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/get/product", r.URL.Path)
		var req struct {
			Mappers []string `json:"mappers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotMappers = req.Mappers
		json.NewEncoder(w).Encode([]types.Product{{ID: 1, Name: "Oat Rings"}})
	}))

	products, err := client.FetchProducts(context.Background(), []types.Relation{types.RelationManufacturer})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, []string{"manufacturer"}, gotMappers)
}

func TestFetchProductsUnknownRelationNoRequest(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := client.FetchProducts(context.Background(), []types.Relation{"orders"})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	require.False(t, called, "unsupported relation must be a caller error, not a request")
}

func TestFetchProductNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "no such product")
	}))

	_, err := client.FetchProduct(context.Background(), 99, nil)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestFetchProductNullBodyIsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "null")
	}))

	_, err := client.FetchProduct(context.Background(), 99, nil)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestLoginFailureSurfacesReasonVerbatim(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, "invalid login")
	}))

	err := client.Login(context.Background(), "a@a", "wrong")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	require.Equal(t, "invalid login", typed.Message())
}

func TestSubmitOrderReturnsID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/order", r.URL.Path)
		io.WriteString(w, "7")
	}))

	id, err := client.SubmitOrder(context.Background(), types.Order{
		Email:         "a@a",
		Name:          "Bobby",
		Address:       "Abevej 123",
		OrderProducts: []types.OrderProduct{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "7", id)
}

func TestTransportErrorCode(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}, logg, nil)
	require.NoError(t, err)

	_, err = client.FetchProducts(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeTransport, pkgerrors.CodeOf(err))
}

func TestSessionCookiePersistsAcrossCalls(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: "access_token_cookie", Value: "tok"})
			io.WriteString(w, "OK")
		case "/api/user/info":
			if c, err := r.Cookie("access_token_cookie"); err != nil || c.Value != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(types.UserInfo{Email: "a@a"})
		}
	}))

	require.NoError(t, client.Login(context.Background(), "a@a", "123"))
	info, err := client.UserInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a@a", info.Email)
}
