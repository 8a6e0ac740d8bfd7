package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// The usual progression is pending → paid → processing → packed → shipped →
// in_transit → delivered, with cancelled reachable from any non-terminal
// state. Nothing enforces that order.
const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusPacked     OrderStatus = "packed"
	StatusShipped    OrderStatus = "shipped"
	StatusInTransit  OrderStatus = "in_transit"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusPaid,
	StatusProcessing,
	StatusPacked,
	StatusShipped,
	StatusInTransit,
	StatusDelivered,
	StatusCancelled,
}

var statusDescriptions = map[OrderStatus]string{
	StatusPending:    "Pesanan berhasil dibuat dan menunggu pembayaran",
	StatusPaid:       "Pembayaran telah diterima",
	StatusProcessing: "Pesanan sedang diproses",
	StatusPacked:     "Pesanan telah dikemas",
	StatusShipped:    "Pesanan telah dikirim",
	StatusInTransit:  "Pesanan dalam perjalanan",
	StatusDelivered:  "Pesanan telah diterima",
	StatusCancelled:  "Pesanan dibatalkan",
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := statusDescriptions[s]
	return ok
}

// Terminal reports whether s ends the lifecycle by convention.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DefaultDescription is the tracking text used when none is supplied.
func (s OrderStatus) DefaultDescription() string {
	return statusDescriptions[s]
}

// Payment methods accepted at checkout.
const (
	PaymentCreditCard   = "credit_card"
	PaymentEWallet      = "e_wallet"
	PaymentBankTransfer = "bank_transfer"
)

// IsPaymentMethod reports whether m is an accepted payment method.
func IsPaymentMethod(m string) bool {
	switch m {
	case PaymentCreditCard, PaymentEWallet, PaymentBankTransfer:
		return true
	}
	return false
}

type Order struct {
	ID              string          `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	CustomerName    string          `json:"customer_name" bson:"customer_name"`
	CustomerEmail   string          `gorm:"index" json:"customer_email" bson:"customer_email"`
	CustomerPhone   string          `json:"customer_phone" bson:"customer_phone"`
	CustomerAddress string          `json:"customer_address" bson:"customer_address"`
	TotalAmount     float64         `json:"total_amount" bson:"total_amount"`
	DiscountAmount  float64         `json:"discount_amount" bson:"discount_amount"`
	PromoCode       *string         `json:"promo_code" bson:"promo_code"`
	PaymentMethod   string          `gorm:"type:varchar(32)" json:"payment_method" bson:"payment_method"`
	Status          OrderStatus     `gorm:"type:varchar(32);index" json:"status" bson:"status"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty" bson:"-"`
	Tracking        []OrderTracking `gorm:"foreignKey:OrderID" json:"tracking,omitempty" bson:"-"`
}

// OrderItem is a priced line captured when the order was placed.
type OrderItem struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	OrderID      string    `gorm:"type:varchar(64);index" json:"order_id" bson:"order_id"`
	LineNo       int       `json:"line_no" bson:"line_no"`
	ProductID    string    `gorm:"type:varchar(64)" json:"product_id" bson:"product_id"`
	ProductName  string    `json:"product_name" bson:"product_name"`
	ProductPrice float64   `json:"product_price" bson:"product_price"`
	Quantity     int       `json:"quantity" bson:"quantity"`
	Subtotal     float64   `json:"subtotal" bson:"subtotal"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// OrderTracking is one entry of an order's append-only status history.
type OrderTracking struct {
	ID          string      `gorm:"type:varchar(64);primaryKey" json:"id" bson:"_id"`
	OrderID     string      `gorm:"type:varchar(64);index" json:"order_id" bson:"order_id"`
	Sequence    int         `json:"sequence" bson:"sequence"`
	Status      OrderStatus `gorm:"type:varchar(32)" json:"status" bson:"status"`
	Description string      `json:"description" bson:"description"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

func (OrderTracking) TableName() string {
	return "order_tracking"
}
