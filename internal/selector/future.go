// Package selector elige el contrato dominante de futuros y la opción
// virtual objetivo dentro de una cadena.
package selector

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultRolloverDays es el umbral de días a vencimiento que dispara
// el cambio al mes siguiente.
const DefaultRolloverDays = 7

// FutureSelector escoge el contrato dominante de una lista de
// símbolos de futuros del mismo producto.
type FutureSelector struct {
	rolloverDays int
}

// NewFutureSelector construye un selector; days ≤ 0 usa el valor por defecto.
func NewFutureSelector(days int) *FutureSelector {
	if days <= 0 {
		days = DefaultRolloverDays
	}
	return &FutureSelector{rolloverDays: days}
}

var contractMonthRe = regexp.MustCompile(`^[a-zA-Z]+([0-9]{3,4})`)

// contractMonthStart devuelve el primer día del mes de contrato del
// símbolo. Los símbolos CZCE llevan el año en un solo dígito, que se
// resuelve contra la década de la fecha de referencia.
func contractMonthStart(symbol string, ref time.Time) (time.Time, bool) {
	base := symbol
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	m := contractMonthRe.FindStringSubmatch(base)
	if m == nil {
		return time.Time{}, false
	}
	digits := m[1]
	var year, month int
	if len(digits) == 4 {
		yy, _ := strconv.Atoi(digits[:2])
		month, _ = strconv.Atoi(digits[2:])
		year = 2000 + yy
	} else {
		d, _ := strconv.Atoi(digits[:1])
		month, _ = strconv.Atoi(digits[1:])
		year = ref.Year()/10*10 + d
		if year < ref.Year()-1 {
			year += 10
		}
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

// daysToExpiry aproxima el vencimiento del futuro al día 15 del mes de
// contrato y devuelve los días naturales restantes.
func daysToExpiry(symbol string, today time.Time) (int, bool) {
	start, ok := contractMonthStart(symbol, today)
	if !ok {
		return 0, false
	}
	expiry := time.Date(start.Year(), start.Month(), 15, 0, 0, 0, 0, time.UTC)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(day).Hours() / 24), true
}

// SelectDominant devuelve el contrato dominante: el primer mes en
// orden lexicográfico, saltando al siguiente cuando quedan pocos días
// a vencimiento. Devuelve false si la lista está vacía.
func (s *FutureSelector) SelectDominant(symbols []string, today time.Time) (string, bool) {
	if len(symbols) == 0 {
		return "", false
	}
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	front := sorted[0]
	if days, ok := daysToExpiry(front, today); ok && days <= s.rolloverDays && len(sorted) > 1 {
		return sorted[1], true
	}
	return front, true
}
