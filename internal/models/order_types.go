package models

import "time"

// Order statuses. Only the cancel path enforces a transition precondition
// (pending -> cancelled); status updates are otherwise unguarded.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentMethodCreditCard     = "credit_card"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodWallet         = "wallet"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

const (
	ShippingMethodStandard = "standard"
	ShippingMethodExpress  = "express"
)

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCreditCard, PaymentMethodCashOnDelivery, PaymentMethodWallet:
		return true
	}
	return false
}

func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

func ValidShippingMethod(method string) bool {
	switch method {
	case ShippingMethodStandard, ShippingMethodExpress:
		return true
	}
	return false
}

// Order is the model for the 'orders' table.
// TotalAmount = Subtotal + ShippingCost + TaxAmount - DiscountAmount, computed
// once at creation and never recomputed.
type Order struct {
	ID          int64  `json:"id" db:"id"`
	OrderNumber string `json:"orderNumber" db:"order_number"`
	UserID      int64  `json:"userId" db:"user_id"`
	Status      string `json:"status" db:"status"`

	PaymentMethod  string `json:"paymentMethod" db:"payment_method"`
	PaymentStatus  string `json:"paymentStatus" db:"payment_status"`
	ShippingMethod string `json:"shippingMethod" db:"shipping_method"`

	Subtotal       float64 `json:"subtotal" db:"subtotal"`
	ShippingCost   float64 `json:"shippingCost" db:"shipping_cost"`
	TaxAmount      float64 `json:"taxAmount" db:"tax_amount"`
	DiscountAmount float64 `json:"discountAmount" db:"discount_amount"`
	TotalAmount    float64 `json:"totalAmount" db:"total_amount"`

	ShippingAddress string  `json:"shippingAddress" db:"shipping_address"`
	PhoneNumber     string  `json:"phoneNumber" db:"phone_number"`
	Notes           *string `json:"notes,omitempty" db:"notes"`
	DiscountCode    *string `json:"discountCode,omitempty" db:"discount_code"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Items []OrderItem `json:"items,omitempty" db:"-"`
}

// OrderItem is the model for the 'order_items' table. UnitPrice is the product
// price captured at order time and is immutable once written.
type OrderItem struct {
	ID        int64     `json:"id" db:"id"`
	OrderID   int64     `json:"orderId" db:"order_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	UnitPrice float64   `json:"unitPrice" db:"unit_price"`
	Subtotal  float64   `json:"subtotal" db:"subtotal"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
