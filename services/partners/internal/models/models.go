package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	SKU         string          `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Name        string          `gorm:"size:200;not null"            json:"name"`
	Category    string          `gorm:"size:100;index"               json:"category"`
	Barcode     string          `gorm:"size:64;index"                json:"barcode"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"cost_price"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"sale_price"`
	Quantity    int             `gorm:"not null;default:0"           json:"quantity"`
	MinQuantity int             `gorm:"not null;default:0"           json:"min_quantity"`
	Active      bool            `gorm:"not null"                     json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p Product) LowStock() bool {
	return p.Quantity <= p.MinQuantity
}

const (
	MovementSale       = "sale"
	MovementRefund     = "refund"
	MovementAdjustment = "adjustment"
	MovementImport     = "import"
)

type StockMovement struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SKU        string    `gorm:"size:64;index;not null"   json:"sku"`
	Delta      int       `gorm:"not null"                 json:"delta"`
	Before     int       `gorm:"not null"                 json:"before"`
	After      int       `gorm:"not null"                 json:"after"`
	Reason     string    `gorm:"size:32;not null"         json:"reason"`
	Reference  string    `gorm:"size:64"                  json:"reference,omitempty"`
	OperatorID uint      `json:"operator_id"`
	CreatedAt  time.Time `gorm:"index"                    json:"created_at"`
}

type CartItem struct {
	ID               uint             `gorm:"primaryKey;autoIncrement"                       json:"id"`
	OperatorID       uint             `gorm:"uniqueIndex:idx_operator_sku;not null"          json:"operator_id"`
	SKU              string           `gorm:"size:64;uniqueIndex:idx_operator_sku;not null"  json:"sku"`
	Quantity         int              `gorm:"not null;check:quantity>0"                      json:"quantity"`
	PriceOverride    *decimal.Decimal `gorm:"type:decimal(12,2)"                             json:"price_override,omitempty"`
	DiscountOverride *decimal.Decimal `gorm:"type:decimal(12,2)"                             json:"discount_override,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `gorm:"index"                                          json:"updated_at"`
}

type Customer struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:200;not null"        json:"name"`
	Phone     *string   `gorm:"size:32;uniqueIndex"      json:"phone,omitempty"`
	Email     string    `gorm:"size:200"                 json:"email,omitempty"`
	Address   string    `gorm:"size:500"                 json:"address,omitempty"`
	Notes     string    `gorm:"size:1000"                json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	PaymentCash         = "cash"
	PaymentCard         = "card"
	PaymentWallet       = "wallet"
	PaymentBankTransfer = "bank_transfer"
)

var PaymentMethods = []string{PaymentCash, PaymentCard, PaymentWallet, PaymentBankTransfer}

const (
	PaymentStatusPending           = "pending"
	PaymentStatusPaid              = "paid"
	PaymentStatusPartiallyRefunded = "partially_refunded"
	PaymentStatusRefunded          = "refunded"
)

var PaymentStatuses = []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusPartiallyRefunded, PaymentStatusRefunded}

const (
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusOnHold    = "on_hold"
)

var OrderStatuses = []string{OrderStatusCompleted, OrderStatusCancelled, OrderStatusOnHold}

type OrderLine struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

type Order struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"      json:"id"`
	Number        string          `gorm:"size:32;uniqueIndex;not null"  json:"number"`
	CustomerID    *uint           `gorm:"index"                         json:"customer_id,omitempty"`
	CustomerName  string          `gorm:"size:200"                      json:"customer_name,omitempty"`
	CustomerPhone string          `gorm:"size:32"                       json:"customer_phone,omitempty"`
	CustomerEmail string          `gorm:"size:200"                      json:"customer_email,omitempty"`
	Items         []OrderLine     `gorm:"serializer:json;type:text"     json:"items"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"subtotal"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"discount_total"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"tax"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"   json:"total"`
	PaymentMethod string          `gorm:"size:32;not null"              json:"payment_method"`
	PaymentStatus string          `gorm:"size:32;not null;index"        json:"payment_status"`
	Status        string          `gorm:"size:32;not null;index"        json:"status"`
	OperatorID    uint            `gorm:"index;not null"                json:"operator_id"`
	ShiftID       *uint           `gorm:"index"                         json:"shift_id,omitempty"`
	CreatedAt     time.Time       `gorm:"index"                         json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuantityOf returns how many units of sku the order sold.
func (o Order) QuantityOf(sku string) int {
	n := 0
	for _, l := range o.Items {
		if l.SKU == sku {
			n += l.Quantity
		}
	}
	return n
}

const (
	PaymentKindSale   = "sale"
	PaymentKindRefund = "refund"
)

type Payment struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	OrderID   uint            `gorm:"index;not null"               json:"order_id"`
	RefundID  *uint           `gorm:"index"                        json:"refund_id,omitempty"`
	Kind      string          `gorm:"size:16;not null"             json:"kind"`
	Method    string          `gorm:"size:32;not null"             json:"method"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"amount"`
	Tendered  decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"tendered"`
	Change    decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"change"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	RefundPending   = "pending"
	RefundApproved  = "approved"
	RefundRejected  = "rejected"
	RefundProcessed = "processed"
)

const (
	ConditionUnopened = "unopened"
	ConditionOpened   = "opened"
	ConditionDamaged  = "damaged"
)

const (
	RefundItemPending   = "pending"
	RefundItemApproved  = "approved"
	RefundItemRejected  = "rejected"
	RefundItemRestocked = "restocked"
)

type RefundRequest struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	Number      string          `gorm:"size:32;uniqueIndex;not null" json:"number"`
	OrderID     uint            `gorm:"index;not null"               json:"order_id"`
	Reason      string          `gorm:"size:500;not null"            json:"reason"`
	Status      string          `gorm:"size:16;not null;index"       json:"status"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"amount"`
	ReviewNote  string          `gorm:"size:500"                     json:"review_note,omitempty"`
	ReviewedBy  *uint           `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	Items       []RefundItem    `gorm:"foreignKey:RefundID"          json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type RefundItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"     json:"id"`
	RefundID  uint            `gorm:"index;not null"               json:"refund_id"`
	SKU       string          `gorm:"size:64;not null"             json:"sku"`
	Quantity  int             `gorm:"not null;check:quantity>0"    json:"quantity"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"  json:"amount"`
	Condition string          `gorm:"size:16;not null"             json:"condition"`
	Status    string          `gorm:"size:16;not null"             json:"status"`
}

const (
	ShiftActive = "active"
	ShiftClosed = "closed"
)

type Shift struct {
	ID               uint             `gorm:"primaryKey;autoIncrement"     json:"id"`
	OperatorID       uint             `gorm:"index;not null"               json:"operator_id"`
	Status           string           `gorm:"size:16;not null;index"       json:"status"`
	StartedAt        time.Time        `gorm:"not null"                     json:"started_at"`
	EndedAt          *time.Time       `json:"ended_at,omitempty"`
	StartingCash     decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"starting_cash"`
	EndingCash       *decimal.Decimal `gorm:"type:decimal(12,2)"           json:"ending_cash,omitempty"`
	ExpectedCash     *decimal.Decimal `gorm:"type:decimal(12,2)"           json:"expected_cash,omitempty"`
	CashDifference   *decimal.Decimal `gorm:"type:decimal(12,2)"           json:"cash_difference,omitempty"`
	TotalSales       decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"total_sales"`
	CashSales        decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"cash_sales"`
	RefundsTotal     decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"refunds_total"`
	CashRefunds      decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"cash_refunds"`
	TransactionCount int              `gorm:"not null;default:0"           json:"transaction_count"`
	Note             string           `gorm:"size:500"                     json:"note,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func All() []any {
	return []any{
		&Product{}, &StockMovement{}, &CartItem{}, &Customer{},
		&Order{}, &Payment{}, &RefundRequest{}, &RefundItem{}, &Shift{},
	}
}
