package checkout

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mkrogh/storefront/internal/cart"
	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/metrics"
	"github.com/mkrogh/storefront/pkg/types"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
)

type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultFailed
)

type cartStore interface {
	Snapshot() []cart.Entry
	Clear(ctx context.Context) error
}

type orderClient interface {
	SubmitOrder(ctx context.Context, order types.Order) (string, error)
	UserInfo(ctx context.Context) (*types.UserInfo, error)
}

// Contact carries the user-supplied checkout fields.
type Contact struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Flow drives order submission: Idle -> Submitting -> back to Idle with the
// last result recorded. Each submission is a single attempt; there is no
// automatic retry.
type Flow struct {
	mu      sync.Mutex
	state   State
	result  Result
	message string

	cart     cartStore
	client   orderClient
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	validate *validator.Validate
}

func NewFlow(cartStore cartStore, client orderClient, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Flow, error) {
	if cartStore == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if client == nil {
		return nil, fmt.Errorf("order client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Flow{
		cart:     cartStore,
		client:   client,
		logg:     logg,
		metrics:  m,
		validate: newValidator(),
	}, nil
}

// Submit validates locally, projects the cart into an order, and sends it.
// Success clears the cart atomically; failure leaves the cart and the entered
// contact fields untouched so the user can resubmit.
func (f *Flow) Submit(ctx context.Context, contact Contact) (string, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return "", pkgerrors.New(pkgerrors.CodeValidation, "a submission is already in progress")
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.state = StateIdle
		f.mu.Unlock()
	}()

	if err := f.validateContact(contact); err != nil {
		f.recordFailure(err.Message())
		f.metrics.IncSubmission("rejected")
		return "", err
	}

	entries := f.cart.Snapshot()
	if len(entries) == 0 {
		err := pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		f.recordFailure(err.Message())
		f.metrics.IncSubmission("rejected")
		return "", err
	}

	order := buildOrder(contact, entries)

	orderID, err := f.client.SubmitOrder(ctx, order)
	if err != nil {
		message := err.Error()
		if typed := pkgerrors.As(err); typed != nil {
			message = typed.Message()
		}
		f.recordFailure(message)
		f.metrics.IncSubmission("failed")
		return "", err
	}

	// The order is placed; a failed local clear must not fail the checkout.
	if err := f.cart.Clear(ctx); err != nil {
		f.logg.Error(ctx, "clearing cart after successful checkout", err)
	}

	f.mu.Lock()
	f.result = ResultSuccess
	f.message = ""
	f.mu.Unlock()
	f.metrics.IncSubmission("success")

	f.logg.Info(f.logg.WithField(ctx, "order_id", orderID), "order placed")
	return orderID, nil
}

// Prefill returns contact fields from the user's profile when a session
// exists, so the form starts populated.
func (f *Flow) Prefill(ctx context.Context) (Contact, error) {
	info, err := f.client.UserInfo(ctx)
	if err != nil {
		return Contact{}, err
	}
	return Contact{Email: info.Email, Name: info.Name, Address: info.Address}, nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastResult reports the outcome of the most recent submission and its error
// message when it failed.
func (f *Flow) LastResult() (Result, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.message
}

func (f *Flow) recordFailure(message string) {
	f.mu.Lock()
	f.result = ResultFailed
	f.message = message
	f.mu.Unlock()
}

// buildOrder is a pure projection of the cart snapshot against the contact
// fields; every product id in the order exists in the snapshot by
// construction.
func buildOrder(contact Contact, entries []cart.Entry) types.Order {
	orderProducts := make([]types.OrderProduct, 0, len(entries))
	for _, entry := range entries {
		orderProducts = append(orderProducts, types.OrderProduct{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
		})
	}
	return types.Order{
		Email:         contact.Email,
		Name:          contact.Name,
		Address:       contact.Address,
		OrderProducts: orderProducts,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func (f *Flow) validateContact(contact Contact) *pkgerrors.Error {
	err := f.validate.Struct(contact)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "contact details are invalid").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "contact details are invalid")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
