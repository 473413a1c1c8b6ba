package contract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Info es el resultado de parsear un vt_symbol: identidad del
// contrato, especificación estática y, para opciones, strike, tipo,
// subyacente y vencimiento.
type Info struct {
	VTSymbol    string
	Symbol      string
	Exchange    string
	ProductCode string
	Size        float64
	PriceTick   float64

	IsOption         bool
	OptionType       domain.OptionType
	Strike           float64
	UnderlyingSymbol string
	Expiry           time.Time
}

var (
	productCodeRe  = regexp.MustCompile(`^([a-zA-Z]+)`)
	optionSymbolRe = regexp.MustCompile(`^([a-zA-Z]+[0-9]+)(?:-)?([CPcp])(?:-)?([0-9]+(?:\.[0-9]+)?)$`)
	contractDateRe = regexp.MustCompile(`([0-9]{2})([0-9]{2})$`)
	czceDateRe     = regexp.MustCompile(`[a-zA-Z]([0-9])([0-9]{2})$`)
)

// Params devuelve los parámetros de redondeo y tamaño del contrato.
func (i *Info) Params() domain.ContractParams {
	return domain.ContractParams{Size: i.Size, PriceTick: i.PriceTick}
}

// Parse descompone un vt_symbol "simbolo.EXCHANGE" en su Info. Para
// opciones rellena subyacente y vencimiento usando el calendario dado.
func Parse(vtSymbol string, cal *Calendar) (*Info, error) {
	idx := strings.LastIndex(vtSymbol, ".")
	if idx <= 0 || idx == len(vtSymbol)-1 {
		return nil, fmt.Errorf("contract.Parse: malformed vt_symbol %q", vtSymbol)
	}
	symbol, exchange := vtSymbol[:idx], vtSymbol[idx+1:]

	m := productCodeRe.FindStringSubmatch(symbol)
	if m == nil {
		return nil, fmt.Errorf("contract.Parse: no product code in %q", vtSymbol)
	}
	productCode := m[1]
	spec := SpecFor(productCode)

	info := &Info{
		VTSymbol:    vtSymbol,
		Symbol:      symbol,
		Exchange:    exchange,
		ProductCode: productCode,
		Size:        spec.Size,
		PriceTick:   spec.PriceTick,
	}

	om := optionSymbolRe.FindStringSubmatch(symbol)
	if om == nil {
		return info, nil
	}

	underlying := om[1]
	strike, err := strconv.ParseFloat(om[3], 64)
	if err != nil {
		return nil, fmt.Errorf("contract.Parse: bad strike in %q: %w", vtSymbol, err)
	}
	info.IsOption = true
	info.Strike = strike
	if om[2] == "C" || om[2] == "c" {
		info.OptionType = domain.OptionCall
	} else {
		info.OptionType = domain.OptionPut
	}

	// Para productos de opción sobre índice el subyacente real es el
	// futuro correspondiente con el mismo sufijo numérico.
	if futureProduct, ok := FutureProductFor(productCode); ok {
		underlying = futureProduct + underlying[len(productCode):]
	}
	info.UnderlyingSymbol = underlying

	if cal != nil {
		if dm := contractDateRe.FindStringSubmatch(underlying); dm != nil {
			yy, _ := strconv.Atoi(dm[1])
			mm, _ := strconv.Atoi(dm[2])
			if mm >= 1 && mm <= 12 {
				info.Expiry = cal.Calculate(productCode, 2000+yy, time.Month(mm))
			}
		} else if dm := czceDateRe.FindStringSubmatch(underlying); dm != nil {
			// La CZCE codifica el año con un solo dígito.
			d, _ := strconv.Atoi(dm[1])
			mm, _ := strconv.Atoi(dm[2])
			if mm >= 1 && mm <= 12 {
				info.Expiry = cal.Calculate(productCode, czceYear(d, time.Now()), time.Month(mm))
			}
		}
	}
	return info, nil
}

// czceYear resuelve el dígito de año de la CZCE contra la década en
// curso. Un resultado que quedó más de cinco años atrás corresponde a
// la década siguiente.
func czceYear(digit int, now time.Time) int {
	year := now.Year()/10*10 + digit
	if year < now.Year()-5 {
		year += 10
	}
	return year
}
