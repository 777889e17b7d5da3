package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinq/internal/models"
)

func TestFormatCompactINR(t *testing.T) {
	assert.Equal(t, "₹1.2Cr", FormatCompact(12345678, models.INR))
	assert.Equal(t, "₹1.5L", FormatCompact(150000, models.INR))
	assert.Equal(t, "₹2.5K", FormatCompact(2500, models.INR))
	assert.Equal(t, "₹999", FormatCompact(999, models.INR))
}

func TestFormatCompactOthers(t *testing.T) {
	assert.Equal(t, "$2.5M", FormatCompact(2500000, models.USD))
	assert.Equal(t, "£1.5K", FormatCompact(1500, models.GBP))
	assert.Equal(t, "€12", FormatCompact(12, models.EUR))
	assert.Equal(t, "-$5,000", FormatCompact(-5000, models.USD), "negative amounts are not abbreviated")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234.5", Format(1234.5, models.USD))
	assert.Equal(t, "$1,234.57", Format(1234.567, models.USD))
	assert.Equal(t, "€0", Format(0, models.EUR))
	assert.Equal(t, "-£10.25", Format(-10.25, models.GBP))
	assert.Equal(t, "$7", Format(7, models.CAD))
}

func TestParse(t *testing.T) {
	c, err := Parse(" usd ")
	require.NoError(t, err)
	assert.Equal(t, models.USD, c)

	_, err = Parse("JPY")
	assert.Error(t, err)

	assert.Equal(t, "₹", Symbol("nope"))
}
