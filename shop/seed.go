package shop

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// Seed creates the schema and, when the users table is empty, inserts a
// small sample catalog so a fresh deployment has something to talk about.
func Seed(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Product)(nil),
		(*Order)(nil),
		(*Conversation)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	count, err := db.NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	users := []User{
		{UserID: uuid.New(), Name: "Ada Lovelace", Email: "ada@example.com"},
		{UserID: uuid.New(), Name: "Grace Hopper", Email: "grace@example.com"},
		{UserID: uuid.New(), Name: "Alan Turing", Email: "alan@example.com"},
	}
	if _, err := db.NewInsert().Model(&users).Exec(ctx); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	products := []Product{
		{ProductID: uuid.New(), Name: "Nimbus Pro", Type: "laptop", Price: 1499.00, Specs: `{"ram":"16GB","color":"silver"}`, InStock: true},
		{ProductID: uuid.New(), Name: "Nimbus Air", Type: "laptop", Price: 999.00, Specs: `{"ram":"8GB","color":"gray"}`, InStock: true},
		{ProductID: uuid.New(), Name: "Pulse X", Type: "phone", Price: 749.50, Specs: `{"ram":"8GB","color":"black"}`, InStock: true},
		{ProductID: uuid.New(), Name: "Pulse Mini", Type: "phone", Price: 429.00, Specs: `{"ram":"6GB","color":"blue"}`, InStock: false},
		{ProductID: uuid.New(), Name: "Echo Buds", Type: "headphones", Price: 129.99, Specs: `{"color":"white"}`, InStock: true},
	}
	if _, err := db.NewInsert().Model(&products).Exec(ctx); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	orders := []Order{
		{OrderID: uuid.New(), UserID: users[0].UserID, ProductID: products[0].ProductID, Quantity: 1, Status: OrderShipped},
		{OrderID: uuid.New(), UserID: users[0].UserID, ProductID: products[4].ProductID, Quantity: 2, Status: OrderPending},
		{OrderID: uuid.New(), UserID: users[1].UserID, ProductID: products[2].ProductID, Quantity: 1, Status: OrderDelivered},
	}
	if _, err := db.NewInsert().Model(&orders).Exec(ctx); err != nil {
		return fmt.Errorf("seed orders: %w", err)
	}

	log.Info().
		Int("users", len(users)).
		Int("products", len(products)).
		Int("orders", len(orders)).
		Msg("seeded sample data")
	return nil
}
