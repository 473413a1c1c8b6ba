package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFutureSelector_FrontMonth(t *testing.T) {
	s := NewFutureSelector(0)
	today := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)

	got, ok := s.SelectDominant([]string{"rb2505", "rb2501"}, today)
	assert.True(t, ok)
	assert.Equal(t, "rb2501", got)
}

func TestFutureSelector_RolloverNearExpiry(t *testing.T) {
	s := NewFutureSelector(0)
	today := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	got, ok := s.SelectDominant([]string{"rb2501", "rb2505"}, today)
	assert.True(t, ok)
	assert.Equal(t, "rb2505", got)
}

func TestFutureSelector_NoLaterMonthKeepsFront(t *testing.T) {
	s := NewFutureSelector(0)
	today := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	got, ok := s.SelectDominant([]string{"rb2501"}, today)
	assert.True(t, ok)
	assert.Equal(t, "rb2501", got)
}

func TestFutureSelector_Empty(t *testing.T) {
	s := NewFutureSelector(0)

	_, ok := s.SelectDominant(nil, time.Now())
	assert.False(t, ok)
}

func TestFutureSelector_VTSymbolsAndCZCE(t *testing.T) {
	s := NewFutureSelector(0)
	today := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	got, ok := s.SelectDominant([]string{"SA505.CZCE", "SA509.CZCE"}, today)
	assert.True(t, ok)
	assert.Equal(t, "SA505.CZCE", got)
}

func TestContractMonthStart_SingleDigitYear(t *testing.T) {
	ref := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	start, ok := contractMonthStart("SA509", ref)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), start)

	// Un dígito de año por detrás de la fecha de referencia salta de década.
	start, ok = contractMonthStart("SA301", ref)
	assert.True(t, ok)
	assert.Equal(t, 2033, start.Year())
}
