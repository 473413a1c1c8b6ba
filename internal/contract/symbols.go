package contract

import (
	"fmt"
	"time"
)

// GenerateForRange genera los vt_symbols de futuros del producto entre
// los meses de contrato from y to inclusive. Un producto que ya
// contiene un punto se devuelve tal cual. CZCE usa año de un dígito.
func GenerateForRange(product string, fromYear int, fromMonth time.Month, toYear int, toMonth time.Month) ([]string, error) {
	for _, r := range product {
		if r == '.' {
			return []string{product}, nil
		}
	}
	ex, err := ResolveExchange(product)
	if err != nil {
		return nil, fmt.Errorf("contract.GenerateForRange: %w", err)
	}

	var symbols []string
	cur := time.Date(fromYear, fromMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(toYear, toMonth, 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		var sym string
		if ex == ExchangeCZCE {
			sym = fmt.Sprintf("%s%d%02d", product, cur.Year()%10, int(cur.Month()))
		} else {
			sym = fmt.Sprintf("%s%02d%02d", product, cur.Year()%100, int(cur.Month()))
		}
		symbols = append(symbols, sym+"."+ex)
		cur = cur.AddDate(0, 1, 0)
	}
	return symbols, nil
}

// GenerateRecent genera los símbolos de los próximos months meses de
// contrato a partir de now, incluyendo el mes corriente.
func GenerateRecent(product string, now time.Time, months int) ([]string, error) {
	if months < 1 {
		months = 1
	}
	end := now.AddDate(0, months-1, 0)
	return GenerateForRange(product, now.Year(), now.Month(), end.Year(), end.Month())
}
