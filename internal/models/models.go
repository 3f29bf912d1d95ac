package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrImmutable is returned by the ledger hooks: sales are append-only.
var ErrImmutable = errors.New("sales are append-only and cannot be modified")

// User - The person ringing up sales
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // salt_hex:hash_hex
	Role         Role      `gorm:"size:10;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Supplier - Who we buy stock from
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:120;not null" json:"name" binding:"required"`
	Document  string    `gorm:"size:40" json:"document"`
	Phone     string    `gorm:"size:40" json:"phone"`
	Email     string    `gorm:"size:120" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Product - The inventory. SalePrice is stored as entered; it is never
// recomputed from CostPrice and MarginPct.
type Product struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	SKU        string          `gorm:"uniqueIndex;size:40;not null" json:"sku"`
	Barcode    *string         `gorm:"uniqueIndex;size:32" json:"barcode,omitempty"`
	Name       string          `gorm:"size:180;not null" json:"name"`
	ItemType   ItemType        `gorm:"size:10;not null" json:"item_type"`
	Category   string          `gorm:"size:80;index" json:"category"`
	Brand      string          `gorm:"size:120;index" json:"brand"`
	Varietal   string          `gorm:"size:120" json:"varietal"`
	Vintage    *int            `json:"vintage,omitempty"`
	VolumeML   *int            `gorm:"column:volume_ml" json:"volume_ml,omitempty"`
	ABV        decimal.Decimal `gorm:"column:abv;type:decimal(5,2);not null;default:0" json:"abv"`
	Country    string          `gorm:"size:80" json:"country"`
	Region     string          `gorm:"size:120" json:"region"`
	SupplierID *uint           `json:"supplier_id,omitempty"`
	Supplier   *Supplier       `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL" json:"supplier,omitempty"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost_price"`
	MarginPct  decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"margin_pct"`
	SalePrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"sale_price"`
	StockQty   int             `gorm:"not null;default:0;check:stock_qty >= 0" json:"stock_qty"`
	MinStock   int             `gorm:"not null;default:0;check:min_stock >= 0" json:"min_stock"`
	LotCode    *string         `gorm:"size:60" json:"lot_code,omitempty"`
	Expiry     *time.Time      `gorm:"type:date" json:"expiry,omitempty"`
	Active     bool            `gorm:"not null" json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Validate checks prices, enums and stock bounds of a product row.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.SKU) == "" || strings.TrimSpace(p.Name) == "" {
		return errors.New("sku and name are required")
	}
	if !p.ItemType.Valid() {
		return &EnumError{Kind: "item type", Value: string(p.ItemType)}
	}
	if p.CostPrice.IsNegative() || p.MarginPct.IsNegative() || p.SalePrice.IsNegative() || p.ABV.IsNegative() {
		return errors.New("prices, margin and abv must be non-negative")
	}
	if p.StockQty < 0 || p.MinStock < 0 {
		return errors.New("stock quantities must be non-negative")
	}
	return nil
}

// LowStock reports whether the product is at or below its minimum.
func (p *Product) LowStock() bool {
	return p.StockQty <= p.MinStock
}

// StockMovement - Audit row for manual inventory adjustments
type StockMovement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `gorm:"index;not null" json:"product_id"`
	UserID      uint      `json:"user_id"`
	Delta       int       `gorm:"not null" json:"delta"`
	StockBefore int       `gorm:"not null" json:"stock_before"`
	StockAfter  int       `gorm:"not null" json:"stock_after"`
	Reason      string    `gorm:"size:200" json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sale - The transaction header. Written once by checkout, never edited.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Reference     string          `gorm:"uniqueIndex;size:36;not null" json:"reference"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UserID        uint            `gorm:"not null" json:"user_id"` // cashier
	Cashier       *User           `gorm:"foreignKey:UserID" json:"-"`
	PaymentMethod PaymentMethod   `gorm:"size:10;not null" json:"payment_method"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Received      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"received"`
	ChangeDue     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"change_due"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
}

func (s *Sale) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }
func (s *Sale) BeforeDelete(tx *gorm.DB) error { return ErrImmutable }

// SaleItem - One cart line. Prices, cost, margin and name are snapshots
// taken at checkout and stay fixed when the product changes later.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"index;not null" json:"sale_id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"-"`
	ProductName string          `gorm:"size:180;not null" json:"product_name"`
	Qty         int             `gorm:"not null;check:qty > 0" json:"qty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_cost"`
	MarginPct   decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"margin_pct"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
	LineProfit  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_profit"`
}

func (i *SaleItem) BeforeUpdate(tx *gorm.DB) error { return ErrImmutable }
func (i *SaleItem) BeforeDelete(tx *gorm.DB) error { return ErrImmutable }

// USBPrinter holds hex ids as configured on the printer label.
type USBPrinter struct {
	VendorID    string `gorm:"size:8" json:"vendor_id"`
	ProductID   string `gorm:"size:8" json:"product_id"`
	InEndpoint  string `gorm:"size:8" json:"in_ep"`
	OutEndpoint string `gorm:"size:8" json:"out_ep"`
}

type SerialPrinter struct {
	Device string `gorm:"size:120" json:"device"`
	Baud   int    `json:"baud"`
}

type NetworkPrinter struct {
	Host string `gorm:"size:120" json:"host"`
	Port int    `json:"port"`
}

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

// Settings - Store identity, receipt and printer configuration (singleton)
type Settings struct {
	ID              uint           `gorm:"primaryKey;autoIncrement:false" json:"-"`
	StoreName       string         `gorm:"size:120;not null" json:"store_name"`
	StoreDocument   string         `gorm:"size:40" json:"store_document"`
	StoreAddress    string         `gorm:"size:200" json:"store_address"`
	StorePhone      string         `gorm:"size:60" json:"store_phone"`
	ReceiptFooter   string         `gorm:"size:240" json:"receipt_footer"`
	PrintEnabled    bool           `gorm:"not null" json:"print_enabled"`
	PrinterKind     PrinterKind    `gorm:"size:10;not null" json:"printer_kind"`
	USB             USBPrinter     `gorm:"embedded;embeddedPrefix:usb_" json:"usb"`
	Serial          SerialPrinter  `gorm:"embedded;embeddedPrefix:serial_" json:"serial"`
	Network         NetworkPrinter `gorm:"embedded;embeddedPrefix:network_" json:"network"`
	PixKey          string         `gorm:"size:140" json:"pix_key"`
	PixMerchantCity string         `gorm:"size:60" json:"pix_merchant_city"`
	PrimaryColor    string         `gorm:"size:7" json:"primary_color"`
	AccentColor     string         `gorm:"size:7" json:"accent_color"`
}

// DefaultSettings is the row written on first start.
func DefaultSettings() Settings {
	return Settings{
		ID:              SettingsID,
		StoreName:       "Minha Adega",
		ReceiptFooter:   "SEM VALOR FISCAL",
		PrinterKind:     PrinterUSB,
		Serial:          SerialPrinter{Baud: 9600},
		Network:         NetworkPrinter{Port: 9100},
		PixMerchantCity: "SAO PAULO",
		PrimaryColor:    "#6A1B2D",
		AccentColor:     "#9A2C4A",
	}
}

// maxPixKey is what fits the BR Code merchant account template.
const maxPixKey = 77

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate checks the fields required by the selected printer kind.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.StoreName) == "" {
		return errors.New("store_name is required")
	}
	if !s.PrinterKind.Valid() {
		return &EnumError{Kind: "printer kind", Value: string(s.PrinterKind)}
	}
	if len(strings.TrimSpace(s.PixKey)) > maxPixKey {
		return fmt.Errorf("pix_key must have at most %d characters", maxPixKey)
	}
	for _, c := range []string{s.PrimaryColor, s.AccentColor} {
		if c != "" && !hexColor.MatchString(c) {
			return fmt.Errorf("invalid color %q", c)
		}
	}
	if !s.PrintEnabled {
		return nil
	}
	switch s.PrinterKind {
	case PrinterUSB:
		for _, id := range []string{s.USB.VendorID, s.USB.ProductID} {
			if _, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(id), "0x"), 16, 16); err != nil {
				return fmt.Errorf("usb printer needs hex vendor_id and product_id, got %q", id)
			}
		}
	case PrinterSerial:
		if s.Serial.Device == "" || s.Serial.Baud <= 0 {
			return errors.New("serial printer needs device and baud")
		}
	case PrinterNetwork:
		if s.Network.Host == "" || s.Network.Port <= 0 || s.Network.Port > 65535 {
			return errors.New("network printer needs host and a valid port")
		}
	}
	return nil
}
