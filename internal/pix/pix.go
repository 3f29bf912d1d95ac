// Package pix builds static PIX "copia e cola" payloads (EMV BR Code).
package pix

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Merchant identifies who receives the transfer.
type Merchant struct {
	Key  string
	Name string
	City string
}

// MaxKeyLen is the longest key that fits the two-digit length of the
// merchant account template.
const MaxKeyLen = 99 - len("0014BR.GOV.BCB.PIX") - len("01nn")

// Payload returns the BR Code for amount, or "" when the merchant has no
// usable key. A zero amount leaves the value to the payer.
func Payload(m Merchant, amount decimal.Decimal, txid string) string {
	key := strings.TrimSpace(m.Key)
	if key == "" || len(key) > MaxKeyLen {
		return ""
	}
	name := field(m.Name, 25, "LOJA")
	city := field(strings.ReplaceAll(m.City, " ", ""), 15, "CIDADE")
	txid = field(txid, 25, "***")

	var b strings.Builder
	b.WriteString(tlv("00", "01"))
	b.WriteString(tlv("26", tlv("00", "BR.GOV.BCB.PIX")+tlv("01", key)))
	b.WriteString(tlv("52", "0000"))
	b.WriteString(tlv("53", "986"))
	if amount.IsPositive() {
		b.WriteString(tlv("54", amount.StringFixed(2)))
	}
	b.WriteString(tlv("58", "BR"))
	b.WriteString(tlv("59", name))
	b.WriteString(tlv("60", city))
	b.WriteString(tlv("62", tlv("05", txid)))
	b.WriteString("6304")

	return b.String() + fmt.Sprintf("%04X", CRC16([]byte(b.String())))
}

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// field upper-cases s, strips accents (BR Code text is ASCII) and truncates.
func field(s string, max int, def string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToUpper(strings.TrimSpace(s))) {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		out = def
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// CRC16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF), as the BR Code
// checksum requires.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range data {
		crc ^= uint16(c) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
