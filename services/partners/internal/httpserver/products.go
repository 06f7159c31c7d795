package httpserver

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/partners_pos/pkg/logging"
	authmw "github.com/Skotchmaster/partners_pos/pkg/middleware/auth"
	"github.com/Skotchmaster/partners_pos/pkg/validate"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/repo"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/service"
	"github.com/Skotchmaster/partners_pos/services/partners/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	active, err := queryBool(c, "active")
	if err != nil {
		return fail(l, "list_products_failed", err)
	}
	lowStock, err := queryBool(c, "low_stock")
	if err != nil {
		return fail(l, "list_products_failed", err)
	}

	f := repo.ProductFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Active:   active,
		LowStock: lowStock != nil && *lowStock,
	}
	p := pageFrom(c)
	total, items, err := h.Svc.ListProducts(ctx, f, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_products_failed", err)
	}

	l.Info("list_products_success", "total", total)
	return paged(c, p, items, total)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	prod, err := h.Svc.GetProduct(ctx, c.Param("sku"))
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	p := pageFrom(c)
	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), p.offset, p.limit)
	if err != nil {
		return fail(l, "search_products_failed", err)
	}

	l.Info("search_products_success", "total", total)
	return paged(c, p, items, total)
}

func (h *CatalogHTTP) LowStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.low_stock")

	items, err := h.Svc.LowStock(ctx)
	if err != nil {
		return fail(l, "low_stock_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.CreateProductRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "create_product_failed", err)
	}

	prod, err := h.Svc.CreateProduct(ctx, req, opID)
	if err != nil {
		return fail(l, "create_product_failed", err)
	}

	l.Info("create_product_success", "sku", prod.SKU)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	var req transport.PatchProductRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "patch_product_failed", err)
	}

	prod, err := h.Svc.PatchProduct(ctx, c.Param("sku"), req)
	if err != nil {
		return fail(l, "patch_product_failed", err)
	}

	l.Info("patch_product_success", "sku", prod.SKU)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeactivateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.deactivate")

	if err := h.Svc.DeactivateProduct(ctx, c.Param("sku")); err != nil {
		return fail(l, "deactivate_product_failed", err)
	}

	l.Info("deactivate_product_success", "sku", c.Param("sku"))
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.adjust_stock")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}
	var req transport.AdjustStockRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "adjust_stock_failed", err)
	}

	prod, err := h.Svc.AdjustStock(ctx, c.Param("sku"), req.Delta, req.Reason, opID)
	if err != nil {
		return fail(l, "adjust_stock_failed", err)
	}

	l.Info("adjust_stock_success", "sku", prod.SKU, "delta", req.Delta, "quantity", prod.Quantity)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) Movements(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.movements")

	p := pageFrom(c)
	total, items, err := h.Svc.Movements(ctx, c.Param("sku"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_movements_failed", err)
	}
	return paged(c, p, items, total)
}

func (h *CatalogHTTP) ExportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.export_csv")

	var buf bytes.Buffer
	if err := h.Svc.ExportCSV(ctx, &buf); err != nil {
		return fail(l, "export_products_failed", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportCSV accepts either a multipart "file" field or a raw text/csv body.
func (h *CatalogHTTP) ImportCSV(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.import_csv")

	opID, err := authmw.OperatorID(c)
	if err != nil {
		return err
	}

	body := c.Request().Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fail(l, "import_products_failed", echo.NewHTTPError(http.StatusBadRequest, "cannot read upload"))
		}
		defer f.Close()
		body = f
	}

	res, err := h.Svc.ImportCSV(ctx, body, opID)
	if err != nil {
		return fail(l, "import_products_failed", err)
	}

	l.Info("import_products_success", "created", res.Created, "updated", res.Updated)
	return c.JSON(http.StatusOK, res)
}

func (h *CatalogHTTP) PrintBarcode(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.print_barcode")

	var req transport.PrintBarcodeRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return fail(l, "print_barcode_failed", err)
	}

	if err := h.Svc.PrintBarcode(ctx, c.Param("sku"), req.Copies); err != nil {
		return fail(l, "print_barcode_failed", err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}
