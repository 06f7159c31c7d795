package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/partners_pos/pkg/events"
	"github.com/Skotchmaster/partners_pos/pkg/logging"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/devices"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/models"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/search"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CatalogService struct {
	Repo    *repo.GormRepo
	Index   search.Index
	Events  events.Publisher
	Devices devices.Dispatcher
}

type ProductEvent struct {
	Type      string    `json:"type"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name,omitempty"`
	Quantity  int       `json:"quantity"`
	Active    bool      `json:"active"`
	Timestamp time.Time `json:"timestamp"`
}

func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s must not be negative: %w", field, ErrValidation)
	}
	if !v.Equal(v.Round(2)) {
		return fmt.Errorf("%s must have at most 2 decimal places: %w", field, ErrValidation)
	}
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, sku string) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, sku)
	return p, translate(err, "product "+sku)
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

// SearchProducts prefers the search index and falls back to SQL matching.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query required: %w", ErrValidation)
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to sql", "error", err)
	}
	active := true
	return s.Repo.ListProducts(ctx, repo.ProductFilter{Query: q, Active: &active}, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest, operatorID uint) (*models.Product, error) {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	if req.SKU == "" || req.Name == "" {
		return nil, fmt.Errorf("sku and name required: %w", ErrValidation)
	}
	if err := validateMoney("cost_price", req.CostPrice); err != nil {
		return nil, err
	}
	if err := validateMoney("sale_price", req.SalePrice); err != nil {
		return nil, err
	}
	if req.Quantity < 0 || req.MinQuantity < 0 {
		return nil, fmt.Errorf("quantities must not be negative: %w", ErrValidation)
	}

	prod := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Category:    strings.TrimSpace(req.Category),
		Barcode:     strings.TrimSpace(req.Barcode),
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		Active:      req.Active == nil || *req.Active,
	}
	if err := s.Repo.CreateProduct(ctx, prod, operatorID); err != nil {
		return nil, translate(err, "product "+prod.SKU)
	}

	s.productChanged(ctx, "product_created", prod)
	return prod, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, sku string, req transport.PatchProductRequest) (*models.Product, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name must not be empty: %w", ErrValidation)
	}
	if req.CostPrice != nil {
		if err := validateMoney("cost_price", *req.CostPrice); err != nil {
			return nil, err
		}
	}
	if req.SalePrice != nil {
		if err := validateMoney("sale_price", *req.SalePrice); err != nil {
			return nil, err
		}
	}
	if req.MinQuantity != nil && *req.MinQuantity < 0 {
		return nil, fmt.Errorf("min_quantity must not be negative: %w", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, sku, req)
	if err != nil {
		return nil, translate(err, "product "+sku)
	}

	s.productChanged(ctx, "product_updated", prod)
	return prod, nil
}

func (s *CatalogService) DeactivateProduct(ctx context.Context, sku string) error {
	if err := s.Repo.DeactivateProduct(ctx, sku); err != nil {
		return translate(err, "product "+sku)
	}
	if prod, err := s.Repo.GetProduct(ctx, sku); err == nil {
		s.productChanged(ctx, "product_deactivated", prod)
	}
	return nil
}

func (s *CatalogService) AdjustStock(ctx context.Context, sku string, delta int, reason string, operatorID uint) (*models.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta must not be zero: %w", ErrValidation)
	}
	prod, err := s.Repo.AdjustStock(ctx, sku, delta, models.MovementAdjustment, strings.TrimSpace(reason), operatorID)
	if err != nil {
		return nil, translate(err, "product "+sku)
	}

	s.productChanged(ctx, "stock_adjusted", prod)
	if delta < 0 && crossedThreshold(*prod, -delta) {
		s.notifyLowStock(ctx, []models.Product{*prod})
	}
	return prod, nil
}

func (s *CatalogService) Movements(ctx context.Context, sku string, offset, limit int) (int64, []models.StockMovement, error) {
	if _, err := s.GetProduct(ctx, sku); err != nil {
		return 0, nil, err
	}
	return s.Repo.ListMovements(ctx, sku, offset, limit)
}

func (s *CatalogService) LowStock(ctx context.Context) ([]models.Product, error) {
	return s.Repo.LowStockProducts(ctx)
}

func (s *CatalogService) PrintBarcode(ctx context.Context, sku string, copies int) error {
	prod, err := s.GetProduct(ctx, sku)
	if err != nil {
		return err
	}
	code := prod.Barcode
	if code == "" {
		code = prod.SKU
	}
	return s.Devices.PrintBarcode(ctx, devices.BarcodeLabel{
		SKU:     prod.SKU,
		Barcode: code,
		Name:    prod.Name,
		Price:   prod.SalePrice.StringFixed(2),
		Copies:  copies,
	})
}

func (s *CatalogService) productChanged(ctx context.Context, typ string, p *models.Product) {
	afterCommit(ctx, "publish_"+typ, func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, events.TopicProducts, p.SKU, ProductEvent{
			Type:      typ,
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Active:    p.Active,
			Timestamp: time.Now().UTC(),
		})
	})
	if s.Index != nil {
		afterCommit(ctx, "index_product", func(ctx context.Context) error {
			return s.Index.IndexProduct(ctx, p)
		})
	}
}

// crossedThreshold reports whether removing sold units moved p to or below
// its minimum quantity.
func crossedThreshold(p models.Product, sold int) bool {
	return p.Quantity <= p.MinQuantity && p.Quantity+sold > p.MinQuantity
}

func (s *CatalogService) notifyLowStock(ctx context.Context, prods []models.Product) {
	notifyLowStock(ctx, s.Devices, prods)
}

func notifyLowStock(ctx context.Context, d devices.Dispatcher, prods []models.Product) {
	if len(prods) == 0 {
		return
	}
	parts := make([]string, 0, len(prods))
	for _, p := range prods {
		parts = append(parts, fmt.Sprintf("%s (%s): %d left", p.Name, p.SKU, p.Quantity))
	}
	afterCommit(ctx, "notify_low_stock", func(ctx context.Context) error {
		return d.ShowNotification(ctx, devices.Notification{
			Title: "Low stock",
			Body:  strings.Join(parts, "\n"),
			Level: "warning",
		})
	})
}

type productCSV struct {
	SKU         string `csv:"sku"`
	Name        string `csv:"name"`
	Category    string `csv:"category"`
	Barcode     string `csv:"barcode"`
	CostPrice   string `csv:"cost_price"`
	SalePrice   string `csv:"sale_price"`
	Quantity    string `csv:"quantity"`
	MinQuantity string `csv:"min_quantity"`
	Active      string `csv:"active"`
}

func (s *CatalogService) ExportCSV(ctx context.Context, w io.Writer) error {
	prods, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return err
	}
	rows := make([]*productCSV, 0, len(prods))
	for _, p := range prods {
		rows = append(rows, &productCSV{
			SKU:         p.SKU,
			Name:        p.Name,
			Category:    p.Category,
			Barcode:     p.Barcode,
			CostPrice:   p.CostPrice.StringFixed(2),
			SalePrice:   p.SalePrice.StringFixed(2),
			Quantity:    strconv.Itoa(p.Quantity),
			MinQuantity: strconv.Itoa(p.MinQuantity),
			Active:      strconv.FormatBool(p.Active),
		})
	}
	return gocsv.Marshal(&rows, w)
}

func parseCSVRow(i int, row *productCSV) (models.Product, error) {
	bad := func(field string, err error) error {
		return fmt.Errorf("row %d: %s: %v: %w", i+2, field, err, ErrValidation)
	}

	p := models.Product{
		SKU:      strings.TrimSpace(row.SKU),
		Name:     strings.TrimSpace(row.Name),
		Category: strings.TrimSpace(row.Category),
		Barcode:  strings.TrimSpace(row.Barcode),
		Active:   true,
	}
	if p.SKU == "" || p.Name == "" {
		return p, bad("sku/name", fmt.Errorf("required"))
	}

	var err error
	if p.CostPrice, err = parseMoney(row.CostPrice); err != nil {
		return p, bad("cost_price", err)
	}
	if p.SalePrice, err = parseMoney(row.SalePrice); err != nil {
		return p, bad("sale_price", err)
	}
	if p.Quantity, err = parseCount(row.Quantity); err != nil {
		return p, bad("quantity", err)
	}
	if p.MinQuantity, err = parseCount(row.MinQuantity); err != nil {
		return p, bad("min_quantity", err)
	}
	if v := strings.TrimSpace(row.Active); v != "" {
		if p.Active, err = strconv.ParseBool(v); err != nil {
			return p, bad("active", err)
		}
	}
	return p, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return d, err
	}
	if err := validateMoney("amount", d); err != nil {
		return d, err
	}
	return d, nil
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

// ImportCSV upserts products by SKU. The whole file is rejected on the first
// bad row.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader, operatorID uint) (repo.ImportResult, error) {
	var rows []*productCSV
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return repo.ImportResult{}, fmt.Errorf("parse csv: %v: %w", err, ErrValidation)
	}
	if len(rows) == 0 {
		return repo.ImportResult{}, fmt.Errorf("csv has no rows: %w", ErrValidation)
	}

	seen := make(map[string]bool, len(rows))
	prods := make([]models.Product, 0, len(rows))
	for i, row := range rows {
		p, err := parseCSVRow(i, row)
		if err != nil {
			return repo.ImportResult{}, err
		}
		if seen[p.SKU] {
			return repo.ImportResult{}, fmt.Errorf("row %d: duplicate sku %s: %w", i+2, p.SKU, ErrValidation)
		}
		seen[p.SKU] = true
		prods = append(prods, p)
	}

	res, err := s.Repo.UpsertProducts(ctx, prods, operatorID)
	if err != nil {
		return res, translate(err, "import")
	}

	afterCommit(ctx, "publish_catalog_imported", func(ctx context.Context) error {
		return s.Events.PublishEvent(ctx, events.TopicProducts, "import", map[string]any{
			"type":      "catalog_imported",
			"created":   res.Created,
			"updated":   res.Updated,
			"timestamp": time.Now().UTC(),
		})
	})
	if s.Index != nil {
		for i := range prods {
			p := prods[i]
			afterCommit(ctx, "index_product", func(ctx context.Context) error {
				return s.Index.IndexProduct(ctx, &p)
			})
		}
	}
	return res, nil
}
