package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
	shopx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/shop"
)

// Backend collaborator contracts, one per intent family. Each signals a
// distinguishable not-found/empty/conflict condition via sentinel errors.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*shopx.Order, error)
	GetMyOrders(ctx context.Context, userID string) ([]shopx.Order, error)
}

type UserService interface {
	UpdateProfile(ctx context.Context, userID, email string) (*shopx.User, error)
}

type ProductService interface {
	SearchProducts(ctx context.Context, productType string, priceRange *shopx.PriceRange) ([]shopx.Product, error)
}

// requiredParams is static for the process lifetime. Intents absent from
// the table require nothing.
var requiredParams = map[contractx.Intent][]string{
	contractx.IntentGetOrder:       {"order_id"},
	contractx.IntentGetMyOrders:    {},
	contractx.IntentUpdateProfile:  {"email"},
	contractx.IntentSearchProducts: {"query"},
	contractx.IntentChat:           {},
}

// Registry maps each executable intent to its required parameters and
// backend executor.
type Registry struct {
	orders   OrderService
	users    UserService
	products ProductService
}

func New(orders OrderService, users UserService, products ProductService) (*Registry, error) {
	if orders == nil {
		return nil, errors.New("order service is required")
	}
	if users == nil {
		return nil, errors.New("user service is required")
	}
	if products == nil {
		return nil, errors.New("product service is required")
	}
	return &Registry{
		orders:   orders,
		users:    users,
		products: products,
	}, nil
}

func (r *Registry) RequiredParameters(intent contractx.Intent) []string {
	required, ok := requiredParams[intent]
	if !ok || len(required) == 0 {
		return nil
	}
	return append([]string(nil), required...)
}

// Execute dispatches the intent to its backend operation. Collaborator
// failures are converted into a structured error result; nothing escapes
// as a Go error past this point.
func (r *Registry) Execute(ctx context.Context, intent contractx.Intent, userID string, params map[string]string) contractx.ExecutionResult {
	switch intent {
	case contractx.IntentGetOrder:
		return r.executeGetOrder(ctx, params)
	case contractx.IntentGetMyOrders:
		return r.executeGetMyOrders(ctx, userID)
	case contractx.IntentUpdateProfile:
		return r.executeUpdateProfile(ctx, userID, params)
	case contractx.IntentSearchProducts:
		return r.executeSearchProducts(ctx, params)
	case contractx.IntentChat, contractx.IntentUnknown:
		return contractx.ExecutionResult{
			Error: contractx.NewExecError(contractx.CodeUnknownIntent,
				fmt.Sprintf("intent %q has no backend action", intent)),
		}
	default:
		return contractx.ExecutionResult{
			Error: contractx.NewExecError(contractx.CodeUnknownIntent,
				fmt.Sprintf("unknown intent %q", intent)),
		}
	}
}

func (r *Registry) executeGetOrder(ctx context.Context, params map[string]string) contractx.ExecutionResult {
	orderID := strings.TrimSpace(params["order_id"])
	if orderID == "" {
		return failure(contractx.CodeInvalidParameter, "order_id is required")
	}

	order, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, shopx.ErrOrderNotFound) {
			return failure(contractx.CodeNotFound, fmt.Sprintf("order %s was not found", orderID))
		}
		return backendFailure(err)
	}
	return contractx.ExecutionResult{Payload: order}
}

func (r *Registry) executeGetMyOrders(ctx context.Context, userID string) contractx.ExecutionResult {
	orders, err := r.orders.GetMyOrders(ctx, userID)
	if err != nil {
		if errors.Is(err, shopx.ErrNoOrders) {
			return failure(contractx.CodeEmpty, "you have no orders yet")
		}
		return backendFailure(err)
	}
	return contractx.ExecutionResult{Payload: orders}
}

func (r *Registry) executeUpdateProfile(ctx context.Context, userID string, params map[string]string) contractx.ExecutionResult {
	email := strings.TrimSpace(params["email"])
	if email == "" {
		return failure(contractx.CodeInvalidParameter, "email is required")
	}
	if !strings.Contains(email, "@") {
		return failure(contractx.CodeInvalidParameter, fmt.Sprintf("%q does not look like an email address", email))
	}

	user, err := r.users.UpdateProfile(ctx, userID, email)
	if err != nil {
		switch {
		case errors.Is(err, shopx.ErrUserNotFound):
			return failure(contractx.CodeNotFound, "your profile was not found")
		case errors.Is(err, shopx.ErrEmailConflict):
			return failure(contractx.CodeConflict, fmt.Sprintf("email %s is already in use", email))
		default:
			return backendFailure(err)
		}
	}
	return contractx.ExecutionResult{Payload: user}
}

func (r *Registry) executeSearchProducts(ctx context.Context, params map[string]string) contractx.ExecutionResult {
	productType := strings.TrimSpace(params["query"])
	if productType == "" {
		return failure(contractx.CodeInvalidParameter, "query is required")
	}

	priceRange, err := parsePriceRange(params)
	if err != nil {
		return failure(contractx.CodeInvalidParameter, err.Error())
	}

	products, err := r.products.SearchProducts(ctx, productType, priceRange)
	if err != nil {
		return backendFailure(err)
	}
	return contractx.ExecutionResult{Payload: products}
}

// parsePriceRange reads the optional min_price/max_price parameters the
// extraction may have picked up alongside the product type.
func parsePriceRange(params map[string]string) (*shopx.PriceRange, error) {
	parse := func(key string) (*float64, error) {
		raw := strings.TrimSpace(params[key])
		if raw == "" {
			return nil, nil
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q is not a number", key, raw)
		}
		if value < 0 {
			return nil, fmt.Errorf("%s must not be negative", key)
		}
		return &value, nil
	}

	minPrice, err := parse("min_price")
	if err != nil {
		return nil, err
	}
	maxPrice, err := parse("max_price")
	if err != nil {
		return nil, err
	}
	if minPrice == nil && maxPrice == nil {
		return nil, nil
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return nil, errors.New("min_price must not exceed max_price")
	}
	return &shopx.PriceRange{Min: minPrice, Max: maxPrice}, nil
}

func failure(code, message string) contractx.ExecutionResult {
	return contractx.ExecutionResult{Error: contractx.NewExecError(code, message)}
}

func backendFailure(err error) contractx.ExecutionResult {
	return contractx.ExecutionResult{
		Error: contractx.NewExecError(contractx.CodeBackendError, err.Error()),
	}
}
