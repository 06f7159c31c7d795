package transport

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	SKU         string          `json:"sku"          validate:"required,max=64"`
	Name        string          `json:"name"         validate:"required,max=200"`
	Category    string          `json:"category"     validate:"max=100"`
	Barcode     string          `json:"barcode"      validate:"max=64"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Quantity    int             `json:"quantity"     validate:"gte=0"`
	MinQuantity int             `json:"min_quantity" validate:"gte=0"`
	Active      *bool           `json:"active"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"         validate:"omitempty,min=1,max=200"`
	Category    *string          `json:"category"     validate:"omitempty,max=100"`
	Barcode     *string          `json:"barcode"      validate:"omitempty,max=64"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	MinQuantity *int             `json:"min_quantity" validate:"omitempty,gte=0"`
	Active      *bool            `json:"active"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"max=200"`
}

type PrintBarcodeRequest struct {
	Copies int `json:"copies" validate:"omitempty,min=1,max=100"`
}

type AddCartItemRequest struct {
	SKU      string `json:"sku"      validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// PatchCartItemRequest changes quantity and overrides of one cart line.
// Clear* flags drop an override back to the catalog value.
type PatchCartItemRequest struct {
	Quantity         *int             `json:"quantity"          validate:"omitempty,min=1"`
	PriceOverride    *decimal.Decimal `json:"price_override"`
	DiscountOverride *decimal.Decimal `json:"discount_override"`
	ClearPrice       bool             `json:"clear_price"`
	ClearDiscount    bool             `json:"clear_discount"`
}

type CheckoutRequest struct {
	PaymentMethod  string           `json:"payment_method"  validate:"required,oneof=cash card wallet bank_transfer"`
	AmountTendered *decimal.Decimal `json:"amount_tendered"`
	CustomerID     *uint            `json:"customer_id"`
	CustomerName   string           `json:"customer_name"   validate:"max=200"`
	CustomerPhone  string           `json:"customer_phone"  validate:"max=32"`
	CustomerEmail  string           `json:"customer_email"  validate:"omitempty,email,max=200"`
}

type UpdateOrderStatusRequest struct {
	Status        *string `json:"status"         validate:"omitempty,oneof=completed cancelled on_hold"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=pending paid partially_refunded refunded"`
}

type CreateCustomerRequest struct {
	Name    string `json:"name"    validate:"required,max=200"`
	Phone   string `json:"phone"   validate:"max=32"`
	Email   string `json:"email"   validate:"omitempty,email,max=200"`
	Address string `json:"address" validate:"max=500"`
	Notes   string `json:"notes"   validate:"max=1000"`
}

type RefundItemRequest struct {
	SKU       string          `json:"sku"       validate:"required"`
	Quantity  int             `json:"quantity"  validate:"required,min=1"`
	Amount    decimal.Decimal `json:"amount"`
	Condition string          `json:"condition" validate:"required,oneof=unopened opened damaged"`
}

type CreateRefundRequest struct {
	OrderID uint                `json:"order_id" validate:"required"`
	Reason  string              `json:"reason"   validate:"required,max=500"`
	Items   []RefundItemRequest `json:"items"    validate:"required,min=1,dive"`
}

type ReviewRefundRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type OpenShiftRequest struct {
	StartingCash decimal.Decimal `json:"starting_cash"`
	Note         string          `json:"note" validate:"max=500"`
}

type CloseShiftRequest struct {
	EndingCash decimal.Decimal `json:"ending_cash"`
	Note       string          `json:"note" validate:"max=500"`
}

type NotifyRequest struct {
	Title string `json:"title" validate:"required,max=100"`
	Body  string `json:"body"  validate:"max=1000"`
	Level string `json:"level" validate:"omitempty,oneof=info warning error"`
}
