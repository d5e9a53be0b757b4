package shop

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID    uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ProductID uuid.UUID `bun:"product_id,pk,type:uuid" json:"product_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Type      string    `bun:"type,notnull" json:"type"`
	Price     float64   `bun:"price,notnull" json:"price"`
	Specs     string    `bun:"specs" json:"specs,omitempty"`
	InStock   bool      `bun:"in_stock,notnull,default:true" json:"in_stock"`
}

// Order statuses.
const (
	OrderPending   = "pending"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID   uuid.UUID `bun:"order_id,pk,type:uuid" json:"order_id"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	ProductID uuid.UUID `bun:"product_id,notnull,type:uuid" json:"product_id"`
	Quantity  int       `bun:"quantity,notnull" json:"quantity"`
	Status    string    `bun:"status,notnull" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ConvID    uuid.UUID `bun:"conv_id,pk,type:uuid" json:"conv_id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`
	Message   string    `bun:"message,notnull" json:"message"`
	Direction string    `bun:"direction,notnull" json:"direction"`
}
