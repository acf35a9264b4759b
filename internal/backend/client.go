package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkrogh/storefront/pkg/config"
	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/metrics"
	"github.com/mkrogh/storefront/pkg/types"
)

// Client is the typed HTTP client for the storefront backend contract. The
// cookie jar carries the session cookie set by login/signup across calls.
type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
	metrics *metrics.BackendMetrics
}

func NewClient(cfg config.BackendConfig, logg *logger.Logger, m *metrics.BackendMetrics) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: cfg.Timeout(),
			Jar:     jar,
		},
		logg:    logg,
		metrics: m,
	}, nil
}

type mappersRequest struct {
	Mappers []string `json:"mappers"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput is the payload for account creation.
type SignupInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// FetchProducts requests the full product collection with the named relations
// attached.
func (c *Client) FetchProducts(ctx context.Context, relations []types.Relation) ([]types.Product, error) {
	if err := validateRelations(relations); err != nil {
		return nil, err
	}
	status, body, err := c.do(ctx, "fetch_products", http.MethodPost, "/api/get/product", mappersRequest{Mappers: types.RelationStrings(relations)})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, backendError(status, body)
	}
	var products []types.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "decoding product list")
	}
	return products, nil
}

// FetchProduct requests a single product by id. A missing product is reported
// as CodeNotFound, never as a silent nil.
func (c *Client) FetchProduct(ctx context.Context, id int, relations []types.Relation) (*types.Product, error) {
	if err := validateRelations(relations); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/get/product/%d", id)
	status, body, err := c.do(ctx, "fetch_product", http.MethodPost, path, mappersRequest{Mappers: types.RelationStrings(relations)})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
	}
	if status != http.StatusOK {
		return nil, backendError(status, body)
	}
	var product *types.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "decoding product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
	}
	return product, nil
}

// Login authenticates the user; on success the backend sets the session cookie
// which the jar retains for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	status, body, err := c.do(ctx, "login", http.MethodPost, "/api/login", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, reasonFrom(body, "invalid login"))
	}
	return nil
}

// Signup creates an account and leaves the caller logged in.
func (c *Client) Signup(ctx context.Context, input SignupInput) error {
	status, body, err := c.do(ctx, "signup", http.MethodPost, "/api/user", input)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeBackend, reasonFrom(body, "signup rejected"))
	}
	return nil
}

// UserInfo returns the current user's profile and order history.
func (c *Client) UserInfo(ctx context.Context) (*types.UserInfo, error) {
	status, body, err := c.do(ctx, "user_info", http.MethodGet, "/api/user/info", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
	}
	if status != http.StatusOK {
		return nil, backendError(status, body)
	}
	var info types.UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeBackend, err, "decoding user info")
	}
	return &info, nil
}

// SubmitOrder places the order and returns the backend-assigned order id.
func (c *Client) SubmitOrder(ctx context.Context, order types.Order) (string, error) {
	status, body, err := c.do(ctx, "submit_order", http.MethodPost, "/api/order", order)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeBackend, reasonFrom(body, "order rejected"))
	}
	return strings.TrimSpace(string(body)), nil
}

// Logout clears the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	status, body, err := c.do(ctx, "logout", http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeBackend, reasonFrom(body, "logout rejected"))
	}
	return nil
}

// DeleteProduct removes a product. Requires an admin session.
func (c *Client) DeleteProduct(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/delete/product/%d", id)
	status, body, err := c.do(ctx, "delete_product", http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "not logged in")
	case http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeForbidden, reasonFrom(body, "admin rights required"))
	default:
		return backendError(status, body)
	}
}

func (c *Client) do(ctx context.Context, operation, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	lctx := c.logg.WithRequestID(ctx, requestID)
	lctx = c.logg.WithField(lctx, "operation", operation)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.IncRequest(operation, "transport_error")
		c.logg.Error(lctx, "backend request failed", err)
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncRequest(operation, "transport_error")
		return resp.StatusCode, nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "reading response body")
	}

	outcome := "success"
	if resp.StatusCode >= 400 {
		outcome = "backend_error"
	}
	c.metrics.IncRequest(operation, outcome)

	lctx = c.logg.WithFields(lctx, map[string]any{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	c.logg.Debug(lctx, "backend request completed")

	return resp.StatusCode, body, nil
}

func validateRelations(relations []types.Relation) error {
	for _, rel := range relations {
		if !rel.Valid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown relation %q", rel))
		}
	}
	return nil
}

func backendError(status int, body []byte) error {
	return pkgerrors.New(pkgerrors.CodeBackend, reasonFrom(body, fmt.Sprintf("backend returned status %d", status)))
}

func reasonFrom(body []byte, fallback string) string {
	reason := strings.TrimSpace(string(body))
	if reason == "" {
		return fallback
	}
	return reason
}
