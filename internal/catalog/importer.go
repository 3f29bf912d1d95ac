package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"go-adega-pos/internal/models"
	"go-adega-pos/internal/money"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportResult counts what an import did. A bad row is reported and skipped;
// it never aborts the rest of the file.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors,omitempty"`
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportCSV reads a ';'-separated product sheet with a header row.
func (r *Repository) ImportCSV(ctx context.Context, rd io.Reader, userID uint) (*ImportResult, error) {
	cr := csv.NewReader(rd)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return r.importRecords(ctx, records, userID)
}

// ImportXLSX reads the first sheet of a workbook laid out like the CSV.
func (r *Repository) ImportXLSX(ctx context.Context, rd io.Reader, userID uint) (*ImportResult, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return r.importRecords(ctx, rows, userID)
}

// importRecords upserts products by SKU. New products book their stock as
// an "import" movement. On update the stock level is kept: stock only
// changes through sales and audited adjustments.
func (r *Repository) importRecords(ctx context.Context, records [][]string, userID uint) (*ImportResult, error) {
	if len(records) == 0 {
		return nil, errors.New("file is empty")
	}
	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := header["sku"]; !ok {
		return nil, errors.New("header must contain a sku column")
	}

	res := &ImportResult{}
	for n, rec := range records[1:] {
		row := n + 2
		get := func(col string) string {
			if i, ok := header[col]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		if strings.Join(rec, "") == "" {
			continue
		}

		p, err := parseRow(get)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Error: err.Error()})
			continue
		}

		var existing models.Product
		err = r.db.WithContext(ctx).Where("sku = ?", p.SKU).Limit(1).Find(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing.ID != 0 {
			_, err = r.UpdateProduct(ctx, existing.ID, p)
			if err == nil {
				res.Updated++
			}
		} else {
			err = r.CreateWithStock(ctx, p, userID, "import")
			if err == nil {
				res.Created++
			}
		}
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row, Error: err.Error()})
		}
	}
	log.Printf("catalog import: %d created, %d updated, %d errors", res.Created, res.Updated, len(res.Errors))
	return res, nil
}

func parseRow(get func(string) string) (*models.Product, error) {
	p := &models.Product{
		SKU:      get("sku"),
		Name:     get("name"),
		Category: get("category"),
		Brand:    get("brand"),
		Varietal: get("varietal"),
		Country:  get("country"),
		Region:   get("region"),
		Active:   true,
	}

	p.ItemType = models.ItemOther
	if raw := get("item_type"); raw != "" {
		t, err := models.ParseItemType(raw)
		if err != nil {
			return nil, err
		}
		p.ItemType = t
	}
	if code := get("barcode"); code != "" {
		p.Barcode = &code
	}
	if lot := get("lot_code"); lot != "" {
		p.LotCode = &lot
	}

	var err error
	if p.Vintage, err = optionalInt(get("vintage")); err != nil {
		return nil, fmt.Errorf("vintage: %w", err)
	}
	if p.VolumeML, err = optionalInt(get("volume_ml")); err != nil {
		return nil, fmt.Errorf("volume_ml: %w", err)
	}
	supplier, err := optionalInt(get("supplier_id"))
	if err != nil {
		return nil, fmt.Errorf("supplier_id: %w", err)
	}
	if supplier != nil && *supplier > 0 {
		id := uint(*supplier)
		p.SupplierID = &id
	}
	if p.StockQty, err = intOrZero(get("stock_qty")); err != nil {
		return nil, fmt.Errorf("stock_qty: %w", err)
	}
	if p.MinStock, err = intOrZero(get("min_stock")); err != nil {
		return nil, fmt.Errorf("min_stock: %w", err)
	}
	if raw := get("active"); raw != "" {
		p.Active = raw != "0" && !strings.EqualFold(raw, "false")
	}

	if p.ABV, err = decimalOrZero(get("abv")); err != nil {
		return nil, fmt.Errorf("abv: %w", err)
	}
	if p.CostPrice, err = decimalOrZero(get("cost_price")); err != nil {
		return nil, fmt.Errorf("cost_price: %w", err)
	}
	if p.MarginPct, err = decimalOrZero(get("margin_pct")); err != nil {
		return nil, fmt.Errorf("margin_pct: %w", err)
	}
	if raw := get("sale_price"); raw != "" {
		if p.SalePrice, err = parseDecimal(raw); err != nil {
			return nil, fmt.Errorf("sale_price: %w", err)
		}
	} else {
		p.SalePrice = SuggestedPrice(p.CostPrice, p.MarginPct)
	}

	if raw := get("expiry"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			if t, err = time.Parse("02/01/2006", raw); err != nil {
				return nil, fmt.Errorf("expiry %q: use YYYY-MM-DD", raw)
			}
		}
		p.Expiry = &t
	}
	return p, nil
}

// SuggestedPrice is cost marked up by margin percent, rounded to cents.
func SuggestedPrice(cost, marginPct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(marginPct.Div(decimal.NewFromInt(100)))
	return money.Round(cost.Mul(factor))
}

// parseDecimal accepts "12.50" and the Brazilian "12,50".
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func decimalOrZero(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(raw)
}

func intOrZero(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func optionalInt(raw string) (*int, error) {
	if raw == "" || raw == "0" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
