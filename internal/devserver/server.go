// Package devserver is an in-memory implementation of the storefront backend
// contract. It backs local development and the integration tests; it is not a
// production server.
package devserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/mkrogh/storefront/pkg/config"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/types"
)

type user struct {
	id           int
	email        string
	name         string
	address      string
	passwordHash []byte
	admin        bool
	orders       []types.OrderRecord
}

type Server struct {
	mu            sync.Mutex
	products      []types.Product
	details       map[int]types.ProductDetails
	manufacturers map[int]types.Manufacturer
	users         map[string]*user
	usersByID     map[int]*user
	nextUserID    int
	nextOrderID   int

	jwtSecret []byte
	logg      *logger.Logger
	router    chi.Router
}

func NewServer(cfg config.DevServerConfig, logg *logger.Logger) (*Server, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}

	s := &Server{
		details:       map[int]types.ProductDetails{},
		manufacturers: map[int]types.Manufacturer{},
		users:         map[string]*user{},
		usersByID:     map[int]*user{},
		nextUserID:    1,
		nextOrderID:   1,
		jwtSecret:     []byte(cfg.JWTSecret),
		logg:          logg,
	}
	if cfg.Seed {
		if err := s.seed(); err != nil {
			return nil, fmt.Errorf("seeding dev data: %w", err)
		}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Post("/api/get/product", s.handleProductList)
	r.Post("/api/get/product/{id}", s.handleProductGet)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/user", s.handleSignup)
	r.Get("/api/user/info", s.handleUserInfo)
	r.Post("/api/order", s.handleOrder)
	r.Post("/api/logout", s.handleLogout)
	r.Delete("/api/delete/product/{id}", s.handleDeleteProduct)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

type mappersRequest struct {
	Mappers []string `json:"mappers"`
}

func readMappers(r *http.Request) []string {
	var req mappersRequest
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil
	}
	return req.Mappers
}

func (s *Server) handleProductList(w http.ResponseWriter, r *http.Request) {
	mappers := readMappers(r)

	s.mu.Lock()
	out := make([]types.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, s.expandLocked(p, mappers))
	}
	s.mu.Unlock()

	writeJSON(w, out)
}

func (s *Server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeReason(w, http.StatusBadRequest, "invalid product id")
		return
	}
	mappers := readMappers(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			writeJSON(w, s.expandLocked(p, mappers))
			return
		}
	}
	writeReason(w, http.StatusNotFound, "product not found")
}

// expandLocked attaches the requested relations to a product view. Asking for
// manufacturer.products implies the manufacturer expansion.
func (s *Server) expandLocked(p types.Product, mappers []string) types.Product {
	out := p
	if hasMapper(mappers, string(types.RelationManufacturer)) || hasMapper(mappers, string(types.RelationManufacturerProducts)) {
		if m, ok := s.manufacturers[p.ManufacturerID]; ok {
			expanded := types.Manufacturer{ID: m.ID, Name: m.Name}
			if hasMapper(mappers, string(types.RelationManufacturerProducts)) {
				for _, sibling := range s.products {
					if sibling.ManufacturerID == m.ID {
						expanded.Products = append(expanded.Products, sibling)
					}
				}
			}
			out.Manufacturer = &expanded
		}
	}
	if hasMapper(mappers, string(types.RelationDetails)) {
		if d, ok := s.details[p.DetailsID]; ok {
			detail := d
			out.Details = &detail
		}
	}
	return out
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var order types.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeReason(w, http.StatusBadRequest, "invalid order payload")
		return
	}

	quantity := 0
	for _, op := range order.OrderProducts {
		quantity += op.Quantity
	}
	if quantity == 0 {
		writeReason(w, http.StatusBadRequest, "No items in cart")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// validate availability before mutating any stock
	price := decimal.Zero
	for _, op := range order.OrderProducts {
		product := s.productLocked(op.ProductID)
		if product == nil {
			writeReason(w, http.StatusBadRequest, fmt.Sprintf("unknown product %d", op.ProductID))
			return
		}
		if product.Stock < op.Quantity {
			writeReason(w, http.StatusBadRequest, "Not enough products in stock")
			return
		}
		price = price.Add(product.Price.Mul(decimal.NewFromInt(int64(op.Quantity))))
	}
	for _, op := range order.OrderProducts {
		product := s.productLocked(op.ProductID)
		product.Stock -= op.Quantity
	}

	record := types.OrderRecord{
		ID:            s.nextOrderID,
		Price:         price,
		Status:        "Ordered",
		Address:       order.Address,
		OrderProducts: order.OrderProducts,
	}
	s.nextOrderID++

	if u := s.userFromRequestLocked(r); u != nil {
		u.orders = append(u.orders, record)
	}

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, strconv.Itoa(record.ID))
}

func (s *Server) productLocked(id int) *types.Product {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i]
		}
	}
	return nil
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.userFromRequestLocked(r)
	if u == nil {
		writeReason(w, http.StatusUnauthorized, "Need to be logged to access this endpoint!")
		return
	}
	if !u.admin {
		writeReason(w, http.StatusForbidden, "Admin rights are required to access this endpoint!")
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeReason(w, http.StatusBadRequest, "invalid product id")
		return
	}
	for i := range s.products {
		if s.products[i].ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, "deleted")
			return
		}
	}
	writeReason(w, http.StatusNotFound, "product not found")
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

func writeReason(w http.ResponseWriter, status int, reason string) {
	w.WriteHeader(status)
	io.WriteString(w, reason)
}

func hasMapper(mappers []string, name string) bool {
	for _, mapper := range mappers {
		if strings.EqualFold(strings.TrimSpace(mapper), name) {
			return true
		}
	}
	return false
}

// Run serves until the listener fails. Used by cmd/devbackend.
func (s *Server) Run(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
