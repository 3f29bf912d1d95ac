package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// EnumError reports a value outside one of the closed sets below.
type EnumError struct {
	Kind  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Value)
}

// ItemType classifies a product.
type ItemType string

const (
	ItemWine   ItemType = "wine"
	ItemBeer   ItemType = "beer"
	ItemSpirit ItemType = "spirit"
	ItemOther  ItemType = "other"
)

var itemTypes = []ItemType{ItemWine, ItemBeer, ItemSpirit, ItemOther}

func ParseItemType(s string) (ItemType, error) { return parseEnum("item type", s, itemTypes) }

func (t ItemType) Valid() bool { return contains(itemTypes, t) }

func (t *ItemType) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, t, ParseItemType) }

func (t *ItemType) Scan(v any) error { return scanEnum(v, t, ParseItemType) }

func (t ItemType) Value() (driver.Value, error) { return valueEnum("item type", t, itemTypes) }

// PaymentMethod is how a sale was settled. PIX is the instant-transfer rail.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentDebit  PaymentMethod = "debit"
	PaymentPix    PaymentMethod = "pix"
)

var paymentMethods = []PaymentMethod{PaymentCash, PaymentCredit, PaymentDebit, PaymentPix}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	return parseEnum("payment method", s, paymentMethods)
}

func (m PaymentMethod) Valid() bool { return contains(paymentMethods, m) }

// Label is the human name printed on receipts.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Dinheiro"
	case PaymentCredit:
		return "Credito"
	case PaymentDebit:
		return "Debito"
	case PaymentPix:
		return "PIX"
	}
	return string(m)
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, m, ParsePaymentMethod)
}

func (m *PaymentMethod) Scan(v any) error { return scanEnum(v, m, ParsePaymentMethod) }

func (m PaymentMethod) Value() (driver.Value, error) { return valueEnum("payment method", m, paymentMethods) }

// Role gates what a user may do.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

var roles = []Role{RoleAdmin, RoleManager, RoleCashier}

func ParseRole(s string) (Role, error) { return parseEnum("role", s, roles) }

func (r Role) Valid() bool { return contains(roles, r) }

func (r *Role) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, r, ParseRole) }

func (r *Role) Scan(v any) error { return scanEnum(v, r, ParseRole) }

func (r Role) Value() (driver.Value, error) { return valueEnum("role", r, roles) }

// PrinterKind selects which printer fields of Settings apply.
type PrinterKind string

const (
	PrinterUSB     PrinterKind = "usb"
	PrinterSerial  PrinterKind = "serial"
	PrinterNetwork PrinterKind = "network"
)

var printerKinds = []PrinterKind{PrinterUSB, PrinterSerial, PrinterNetwork}

func ParsePrinterKind(s string) (PrinterKind, error) {
	return parseEnum("printer kind", s, printerKinds)
}

func (k PrinterKind) Valid() bool { return contains(printerKinds, k) }

func (k *PrinterKind) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, k, ParsePrinterKind)
}

func (k *PrinterKind) Scan(v any) error { return scanEnum(v, k, ParsePrinterKind) }

func (k PrinterKind) Value() (driver.Value, error) { return valueEnum("printer kind", k, printerKinds) }

func parseEnum[T ~string](kind, raw string, allowed []T) (T, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	for _, v := range allowed {
		if string(v) == norm {
			return v, nil
		}
	}
	return "", &EnumError{Kind: kind, Value: raw}
}

func contains[T ~string](allowed []T, v T) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func unmarshalEnum[T ~string](b []byte, dst *T, parse func(string) (T, error)) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func scanEnum[T ~string](src any, dst *T, parse func(string) (T, error)) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into enum", src)
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func valueEnum[T ~string](kind string, v T, allowed []T) (driver.Value, error) {
	if !contains(allowed, v) {
		return nil, &EnumError{Kind: kind, Value: string(v)}
	}
	return string(v), nil
}
