package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateForRange_TwoDigitYear(t *testing.T) {
	got, err := GenerateForRange("rb", 2025, time.December, 2026, time.February)
	require.NoError(t, err)
	assert.Equal(t, []string{"rb2512.SHFE", "rb2601.SHFE", "rb2602.SHFE"}, got)
}

func TestGenerateForRange_CZCESingleDigitYear(t *testing.T) {
	got, err := GenerateForRange("SA", 2025, time.October, 2025, time.December)
	require.NoError(t, err)
	assert.Equal(t, []string{"SA510.CZCE", "SA511.CZCE", "SA512.CZCE"}, got)
}

func TestGenerateForRange_DottedProductPassThrough(t *testing.T) {
	got, err := GenerateForRange("rb2501.SHFE", 2025, time.January, 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, []string{"rb2501.SHFE"}, got)
}

func TestGenerateForRange_UnknownProduct(t *testing.T) {
	_, err := GenerateForRange("zz", 2025, time.January, 2025, time.February)
	assert.Error(t, err)
}

func TestGenerateRecent(t *testing.T) {
	now := time.Date(2025, time.November, 15, 10, 0, 0, 0, time.UTC)
	got, err := GenerateRecent("IF", now, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"IF2511.CFFEX", "IF2512.CFFEX", "IF2601.CFFEX"}, got)
}
