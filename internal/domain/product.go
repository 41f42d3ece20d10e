package domain

import (
	"strings"
	"time"
)

// GeneralSubcategory is the sentinel value marking a product that belongs to
// the general catalog list rather than a dedicated category page.
const GeneralSubcategory = "all"

// Product is a single catalog entry. Products are immutable once fetched and
// owned by the catalog index for the session lifetime.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Game        string  `json:"game"`
	Subcategory string  `json:"subcategory,omitempty"`
	InStock     bool    `json:"in_stock"`
	ImageFileID string  `json:"image_file_id,omitempty"`
	ImagePath   string  `json:"image_path,omitempty"`
}

// IsGeneral reports whether the product belongs to the general list of its
// game, i.e. it carries no subcategory or the "all" sentinel.
func (p Product) IsGeneral() bool {
	sub := strings.TrimSpace(p.Subcategory)
	return sub == "" || sub == GeneralSubcategory
}

// HasImage reports whether the product carries any image reference.
func (p Product) HasImage() bool {
	return p.ImageFileID != "" || p.ImagePath != ""
}

// OrderStatus enumerates the lifecycle states an order can be displayed in.
type OrderStatus string

const (
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
)

// Paid reports whether the order has been paid for. Pickup codes are only
// revealed for paid orders.
func (s OrderStatus) Paid() bool {
	return s == OrderStatusPaid || s == OrderStatusCompleted
}

// Order is a read-only view of a past purchase shown in the profile page.
type Order struct {
	ID          int64       `json:"id"`
	ProductName string      `json:"product_name"`
	Amount      float64     `json:"amount"`
	Status      OrderStatus `json:"status"`
	Game        string      `json:"game"`
	PickupCode  string      `json:"pickup_code,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// UserProfile summarises the account shown on the profile page. It is
// replaced wholesale on each successful fetch, never partially merged.
type UserProfile struct {
	UID         int64   `json:"uid"`
	OrdersCount int     `json:"orders_count"`
	TotalSpent  float64 `json:"total_spent"`
}
