package devices

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
)

const lineWidth = 42

type ReceiptLine struct {
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Discount  string `json:"discount"`
	LineTotal string `json:"line_total"`
}

type Receipt struct {
	StoreName     string        `json:"store_name"`
	Number        string        `json:"number"`
	IssuedAt      time.Time     `json:"issued_at"`
	Cashier       string        `json:"cashier"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Lines         []ReceiptLine `json:"lines"`
	Subtotal      string        `json:"subtotal"`
	DiscountTotal string        `json:"discount_total"`
	Tax           string        `json:"tax"`
	TaxRate       string        `json:"tax_rate"`
	Total         string        `json:"total"`
	PaymentMethod string        `json:"payment_method"`
	Tendered      string        `json:"tendered,omitempty"`
	Change        string        `json:"change,omitempty"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func NewReceipt(store, cashier string, rate decimal.Decimal, o *models.Order, p *models.Payment) Receipt {
	r := Receipt{
		StoreName:     store,
		Number:        o.Number,
		IssuedAt:      o.CreatedAt,
		Cashier:       cashier,
		CustomerName:  o.CustomerName,
		Subtotal:      money(o.Subtotal),
		DiscountTotal: money(o.DiscountTotal),
		Tax:           money(o.Tax),
		TaxRate:       rate.Mul(decimal.NewFromInt(100)).String() + "%",
		Total:         money(o.Total),
		PaymentMethod: o.PaymentMethod,
	}
	for _, l := range o.Items {
		r.Lines = append(r.Lines, ReceiptLine{
			Name:      l.Name,
			SKU:       l.SKU,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			Discount:  money(l.UnitDiscount),
			LineTotal: money(l.LineTotal),
		})
	}
	if p != nil && o.PaymentMethod == models.PaymentCash {
		r.Tendered = money(p.Tendered)
		r.Change = money(p.Change)
	}
	return r
}

func row(b *strings.Builder, left, right string) {
	pad := lineWidth - len(left) - len(right)
	if pad < 1 {
		left = left[:max(0, len(left)+pad-1)]
		pad = 1
	}
	b.WriteString(left)
	b.WriteString(strings.Repeat(" ", pad))
	b.WriteString(right)
	b.WriteByte('\n')
}

func center(b *strings.Builder, s string) {
	if len(s) < lineWidth {
		b.WriteString(strings.Repeat(" ", (lineWidth-len(s))/2))
	}
	b.WriteString(s)
	b.WriteByte('\n')
}

func rule(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", lineWidth))
	b.WriteByte('\n')
}

// Render lays the receipt out for a 42 column thermal printer.
func (r Receipt) Render() string {
	var b strings.Builder
	center(&b, r.StoreName)
	center(&b, "Receipt "+r.Number)
	center(&b, r.IssuedAt.Format("2006-01-02 15:04"))
	if r.Cashier != "" {
		row(&b, "Cashier", r.Cashier)
	}
	if r.CustomerName != "" {
		row(&b, "Customer", r.CustomerName)
	}
	rule(&b)
	for _, l := range r.Lines {
		row(&b, l.Name, l.LineTotal)
		detail := fmt.Sprintf("  %d x %s", l.Quantity, l.UnitPrice)
		if l.Discount != "" && l.Discount != "0.00" {
			detail += " -" + l.Discount
		}
		row(&b, detail, "")
	}
	rule(&b)
	row(&b, "Subtotal", r.Subtotal)
	if r.DiscountTotal != "0.00" {
		row(&b, "Discount", "-"+r.DiscountTotal)
	}
	row(&b, "Tax "+r.TaxRate, r.Tax)
	row(&b, "TOTAL", r.Total)
	row(&b, "Paid by", r.PaymentMethod)
	if r.Tendered != "" {
		row(&b, "Tendered", r.Tendered)
		row(&b, "Change", r.Change)
	}
	rule(&b)
	center(&b, "Thank you")
	return b.String()
}

type ShiftSummary struct {
	ShiftID          uint      `json:"shift_id"`
	Operator         string    `json:"operator"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	StartingCash     string    `json:"starting_cash"`
	TotalSales       string    `json:"total_sales"`
	CashSales        string    `json:"cash_sales"`
	RefundsTotal     string    `json:"refunds_total"`
	ExpectedCash     string    `json:"expected_cash"`
	EndingCash       string    `json:"ending_cash"`
	CashDifference   string    `json:"cash_difference"`
	TransactionCount int       `json:"transaction_count"`
}

func optMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return money(*d)
}

func NewShiftSummary(operator string, s *models.Shift) ShiftSummary {
	out := ShiftSummary{
		ShiftID:          s.ID,
		Operator:         operator,
		StartedAt:        s.StartedAt,
		StartingCash:     money(s.StartingCash),
		TotalSales:       money(s.TotalSales),
		CashSales:        money(s.CashSales),
		RefundsTotal:     money(s.RefundsTotal),
		ExpectedCash:     optMoney(s.ExpectedCash),
		EndingCash:       optMoney(s.EndingCash),
		CashDifference:   optMoney(s.CashDifference),
		TransactionCount: s.TransactionCount,
	}
	if s.EndedAt != nil {
		out.EndedAt = *s.EndedAt
	}
	return out
}

func (s ShiftSummary) Render() string {
	var b strings.Builder
	center(&b, fmt.Sprintf("Shift #%d", s.ShiftID))
	if s.Operator != "" {
		row(&b, "Operator", s.Operator)
	}
	row(&b, "Opened", s.StartedAt.Format("2006-01-02 15:04"))
	if !s.EndedAt.IsZero() {
		row(&b, "Closed", s.EndedAt.Format("2006-01-02 15:04"))
	}
	rule(&b)
	row(&b, "Transactions", fmt.Sprint(s.TransactionCount))
	row(&b, "Sales", s.TotalSales)
	row(&b, "Cash sales", s.CashSales)
	row(&b, "Refunds", s.RefundsTotal)
	rule(&b)
	row(&b, "Starting cash", s.StartingCash)
	row(&b, "Expected cash", s.ExpectedCash)
	row(&b, "Counted cash", s.EndingCash)
	row(&b, "Difference", s.CashDifference)
	return b.String()
}
