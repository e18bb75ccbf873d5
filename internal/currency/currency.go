// Package currency converts base-currency (VND) amounts into the display
// currencies offered by the storefront. Rates are static configuration.
package currency

import (
	"strings"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Code string

const (
	VND Code = "VND"
	USD Code = "USD"
	JPY Code = "JPY"
	KRW Code = "KRW"
)

// Base is the internal unit of account.
const Base = VND

type SymbolPosition int

const (
	Prefix SymbolPosition = iota
	Suffix
)

// Definition describes one display currency. Rate is the number of base
// units per one unit of this currency.
type Definition struct {
	Code     Code           `json:"code"`
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	Rate     float64        `json:"rate"`
	Decimals int            `json:"decimals"`
	Position SymbolPosition `json:"-"`
	Locale   language.Tag   `json:"-"`
}

var table = map[Code]Definition{
	VND: {Code: VND, Name: "Vietnamese Dong", Symbol: "₫", Rate: 1, Decimals: 0, Position: Suffix, Locale: language.Vietnamese},
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", Rate: 25000, Decimals: 2, Position: Prefix, Locale: language.AmericanEnglish},
	JPY: {Code: JPY, Name: "Japanese Yen", Symbol: "¥", Rate: 165, Decimals: 0, Position: Prefix, Locale: language.Japanese},
	KRW: {Code: KRW, Name: "South Korean Won", Symbol: "₩", Rate: 18.5, Decimals: 0, Position: Prefix, Locale: language.Korean},
}

// order used when listing currencies
var codes = []Code{VND, USD, JPY, KRW}

func unknown(code Code) error {
	return errors.ConfigurationError("Unknown currency code").WithDetail(string(code))
}

// Lookup returns the definition for code or a ConfigurationError.
func Lookup(code Code) (Definition, error) {
	def, ok := table[code]
	if !ok {
		return Definition{}, unknown(code)
	}
	return def, nil
}

// Parse normalises user input ("usd", " Usd ") into a known Code.
func Parse(raw string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if _, err := Lookup(code); err != nil {
		return "", err
	}
	return code, nil
}

// All lists the supported currencies in display order.
func All() []Definition {
	defs := make([]Definition, 0, len(codes))
	for _, c := range codes {
		defs = append(defs, table[c])
	}
	return defs
}

// Convert expresses a base amount in the target currency. No rounding.
func Convert(amountBase int64, target Code) (float64, error) {
	def, err := Lookup(target)
	if err != nil {
		return 0, err
	}
	return float64(amountBase) / def.Rate, nil
}

// ToBase is the inverse of Convert.
func ToBase(amount float64, from Code) (float64, error) {
	def, err := Lookup(from)
	if err != nil {
		return 0, err
	}
	return amount * def.Rate, nil
}

// Format renders a base amount in the target currency using the currency's
// locale grouping, precision and symbol placement.
func Format(amountBase int64, target Code) (string, error) {
	def, err := Lookup(target)
	if err != nil {
		return "", err
	}

	value := float64(amountBase) / def.Rate

	p := message.NewPrinter(def.Locale)
	digits := p.Sprint(number.Decimal(value,
		number.MinFractionDigits(def.Decimals),
		number.MaxFractionDigits(def.Decimals),
	))

	if def.Position == Suffix {
		return digits + " " + def.Symbol, nil
	}
	return def.Symbol + digits, nil
}
