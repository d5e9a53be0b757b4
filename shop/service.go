package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailConflict = errors.New("email already in use")
	ErrNoOrders      = errors.New("no orders for user")
)

// PriceRange is an optional price filter for product search. A nil bound
// leaves that side open.
type PriceRange struct {
	Min *float64
	Max *float64
}

// Service exposes the backend operations the action registry dispatches to.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("database handle is required")
	}
	return &Service{db: db}, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	order := new(Order)
	err := s.db.NewSelect().
		Model(order).
		Where("o.order_id = ?", strings.TrimSpace(orderID)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

func (s *Service) GetMyOrders(ctx context.Context, userID string) ([]Order, error) {
	var orders []Order
	err := s.db.NewSelect().
		Model(&orders).
		Where("o.user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	return orders, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID, email string) (*User, error) {
	email = strings.TrimSpace(email)

	exists, err := s.db.NewSelect().
		Model((*User)(nil)).
		Where("u.email = ?", email).
		Where("u.user_id != ?", userID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrEmailConflict, email)
	}

	res, err := s.db.NewUpdate().
		Model((*User)(nil)).
		Set("email = ?", email).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, fmt.Errorf("%w: id=%s", ErrUserNotFound, userID)
	}

	user := new(User)
	if err := s.db.NewSelect().Model(user).Where("u.user_id = ?", userID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return user, nil
}

func (s *Service) SearchProducts(ctx context.Context, productType string, priceRange *PriceRange) ([]Product, error) {
	var products []Product
	query := s.db.NewSelect().
		Model(&products).
		Where("p.type = ?", strings.TrimSpace(productType)).
		Where("p.in_stock")
	if priceRange != nil {
		if priceRange.Min != nil {
			query = query.Where("p.price >= ?", *priceRange.Min)
		}
		if priceRange.Max != nil {
			query = query.Where("p.price <= ?", *priceRange.Max)
		}
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return products, nil
}
