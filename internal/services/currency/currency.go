// Package currency formats amounts for display in the user's currency.
package currency

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"blinq/internal/models"
)

type style struct {
	locale language.Tag
	symbol string
}

var styles = map[models.Currency]style{
	models.USD: {language.MustParse("en-US"), "$"},
	models.EUR: {language.MustParse("en-GB"), "€"},
	models.GBP: {language.MustParse("en-GB"), "£"},
	models.CAD: {language.MustParse("en-CA"), "$"},
	models.INR: {language.MustParse("en-IN"), "₹"},
}

func styleOf(c models.Currency) style {
	if s, ok := styles[c]; ok {
		return s
	}
	return styles[models.DefaultCurrency]
}

// Symbol returns the display symbol of c
func Symbol(c models.Currency) string {
	return styleOf(c).symbol
}

// Parse accepts a supported currency code in any case
func Parse(code string) (models.Currency, error) {
	c, ok := models.ParseCurrency(code)
	if !ok {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}

// Format renders amount with the currency symbol, locale grouping and
// between zero and two fraction digits
func Format(amount float64, c models.Currency) string {
	s := styleOf(c)
	p := message.NewPrinter(s.locale)

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	amount = math.Round(amount*100) / 100

	return sign + s.symbol + p.Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
}

// FormatCompact abbreviates large amounts: Crore, Lakh and thousand for
// INR; million and thousand for the others. Smaller and negative amounts
// use Format.
func FormatCompact(amount float64, c models.Currency) string {
	s := styleOf(c)

	if c == models.INR {
		switch {
		case amount >= 1e7:
			return fmt.Sprintf("%s%.1fCr", s.symbol, amount/1e7)
		case amount >= 1e5:
			return fmt.Sprintf("%s%.1fL", s.symbol, amount/1e5)
		case amount >= 1e3:
			return fmt.Sprintf("%s%.1fK", s.symbol, amount/1e3)
		}
		return Format(amount, c)
	}

	switch {
	case amount >= 1e6:
		return fmt.Sprintf("%s%.1fM", s.symbol, amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("%s%.1fK", s.symbol, amount/1e3)
	}
	return Format(amount, c)
}
