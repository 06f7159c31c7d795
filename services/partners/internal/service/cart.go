package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/pricing"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
	Calc *pricing.Calculator
}

type CartLine struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
	InStock      int             `json:"in_stock"`
	Available    bool            `json:"available"`
	Overridden   bool            `json:"overridden"`
}

type CartView struct {
	Items  []CartLine     `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

// pricingLine resolves the effective price and discount of a cart line:
// overrides win over the catalog sale price.
func pricingLine(it models.CartItem, p models.Product) pricing.Line {
	l := pricing.Line{Price: p.SalePrice, Quantity: it.Quantity, Discount: decimal.Zero}
	if it.PriceOverride != nil {
		l.Price = *it.PriceOverride
	}
	if it.DiscountOverride != nil {
		l.Discount = *it.DiscountOverride
	}
	return l
}

func (s *CartService) View(ctx context.Context, operatorID uint) (*CartView, error) {
	items, err := s.Repo.GetCart(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	skus := make([]string, 0, len(items))
	for _, it := range items {
		skus = append(skus, it.SKU)
	}
	prods, err := s.Repo.ProductsBySKU(ctx, skus)
	if err != nil {
		return nil, err
	}

	// lines the catalog can no longer price stay listed as unavailable and
	// are left out of the totals
	view := &CartView{Items: make([]CartLine, 0, len(items))}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p, ok := prods[it.SKU]
		pl := pricingLine(it, p)
		priced := ok && s.Calc.Validate(pl) == nil
		line := CartLine{
			SKU:          it.SKU,
			Name:         p.Name,
			Quantity:     it.Quantity,
			UnitPrice:    pl.Price,
			UnitDiscount: pl.Discount,
			InStock:      p.Quantity,
			Available:    priced && p.Active && p.Quantity >= it.Quantity,
			Overridden:   it.PriceOverride != nil || it.DiscountOverride != nil,
		}
		if priced {
			line.LineTotal = pricing.LineTotal(pl).Round(2)
			lines = append(lines, pl)
		}
		view.Items = append(view.Items, line)
	}

	totals, err := s.Calc.Compute(lines)
	if err != nil {
		return nil, translate(err, "cart")
	}
	view.Totals = totals.Round(2)
	return view, nil
}

func (s *CartService) sellable(ctx context.Context, sku string) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, sku)
	if err != nil {
		return nil, translate(err, "product "+sku)
	}
	if !p.Active {
		return nil, fmt.Errorf("product %s is inactive: %w", sku, ErrValidation)
	}
	return p, nil
}

func (s *CartService) findLine(ctx context.Context, operatorID uint, sku string) (*models.CartItem, error) {
	items, err := s.Repo.GetCart(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].SKU == sku {
			return &items[i], nil
		}
	}
	return nil, nil
}

// AddItem adds qty units of sku, merging into an existing line.
func (s *CartService) AddItem(ctx context.Context, operatorID uint, sku string, qty int) (*CartView, error) {
	sku = strings.TrimSpace(sku)
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}
	p, err := s.sellable(ctx, sku)
	if err != nil {
		return nil, err
	}

	existing, err := s.findLine(ctx, operatorID, sku)
	if err != nil {
		return nil, err
	}
	want := qty
	if existing != nil {
		want += existing.Quantity
	}
	if want > p.Quantity {
		return nil, fmt.Errorf("product %s: %d requested, %d in stock: %w", sku, want, p.Quantity, ErrInsufficientStock)
	}

	if err := s.Repo.AddToCart(ctx, &models.CartItem{OperatorID: operatorID, SKU: sku, Quantity: qty}); err != nil {
		return nil, err
	}
	return s.View(ctx, operatorID)
}

func (s *CartService) PatchItem(ctx context.Context, operatorID uint, sku string, req transport.PatchCartItemRequest) (*CartView, error) {
	existing, err := s.findLine(ctx, operatorID, sku)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("cart item %s: %w", sku, ErrNotFound)
	}
	p, err := s.sellable(ctx, sku)
	if err != nil {
		return nil, err
	}

	next := *existing
	if req.Quantity != nil {
		next.Quantity = *req.Quantity
	}
	if req.ClearPrice {
		next.PriceOverride = nil
	} else if req.PriceOverride != nil {
		next.PriceOverride = req.PriceOverride
	}
	if req.ClearDiscount {
		next.DiscountOverride = nil
	} else if req.DiscountOverride != nil {
		next.DiscountOverride = req.DiscountOverride
	}

	if err := s.Calc.Validate(pricingLine(next, *p)); err != nil {
		return nil, translate(err, "cart item "+sku)
	}
	if next.Quantity > p.Quantity {
		return nil, fmt.Errorf("product %s: %d requested, %d in stock: %w", sku, next.Quantity, p.Quantity, ErrInsufficientStock)
	}

	if _, err := s.Repo.PatchCartItem(ctx, operatorID, sku, req); err != nil {
		return nil, translate(err, "cart item "+sku)
	}
	return s.View(ctx, operatorID)
}

func (s *CartService) RemoveItem(ctx context.Context, operatorID uint, sku string) (*CartView, error) {
	if err := s.Repo.RemoveFromCart(ctx, operatorID, sku); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %s: %w", sku, ErrNotFound)
		}
		return nil, err
	}
	return s.View(ctx, operatorID)
}

func (s *CartService) Clear(ctx context.Context, operatorID uint) error {
	return s.Repo.ClearCart(ctx, operatorID)
}
