package contract

import (
	"fmt"
	"time"
)

// Calendar calcula fechas de vencimiento de opciones por exchange.
// Los días de trading excluyen fines de semana y el conjunto de
// festivos configurado. Los overrides manuales tienen prioridad
// absoluta sobre las reglas.
type Calendar struct {
	holidays  map[string]struct{}
	overrides map[string]time.Time
}

// NewCalendar construye un calendario con los festivos dados
// (formato YYYY-MM-DD) y overrides manuales por clave "{producto}{aa}{mm}".
func NewCalendar(holidays []string, overrides map[string]time.Time) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	ov := make(map[string]time.Time, len(overrides))
	for k, v := range overrides {
		ov[k] = v
	}
	return &Calendar{holidays: set, overrides: ov}
}

// IsTradingDay indica si la fecha es día hábil de mercado.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d.Format("2006-01-02")]
	return !holiday
}

// tradingDays devuelve los días hábiles de un mes en orden ascendente.
func (c *Calendar) tradingDays(year int, month time.Month) []time.Time {
	var days []time.Time
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Month() == month {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// overrideKey forma la clave de override: producto + año de dos dígitos + mes.
func overrideKey(product string, year int, month time.Month) string {
	return fmt.Sprintf("%s%02d%02d", product, year%100, int(month))
}

// Calculate devuelve la fecha de vencimiento de la opción sobre el
// producto con mes de contrato year/month. Productos desconocidos caen
// al día 15 del mes de contrato.
func (c *Calendar) Calculate(product string, year int, month time.Month) time.Time {
	if ov, ok := c.overrides[overrideKey(product, year, month)]; ok {
		return ov
	}
	ex, err := ResolveExchange(product)
	if err != nil {
		return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
	}
	switch ex {
	case ExchangeCFFEX:
		return c.cffexExpiry(year, month)
	case ExchangeDCE:
		return c.nthTradingDayPriorMonth(year, month, 12)
	case ExchangeCZCE:
		return c.nthTradingDayPriorMonth(year, month, 15)
	case ExchangeSHFE, ExchangeINE:
		return c.shfeExpiry(year, month)
	default:
		return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
	}
}

// cffexExpiry es el tercer viernes del mes de contrato, desplazado
// hacia adelante si cae en festivo.
func (c *Calendar) cffexExpiry(year int, month time.Month) time.Time {
	var fridays []time.Time
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Month() == month {
		if d.Weekday() == time.Friday {
			fridays = append(fridays, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	if len(fridays) < 3 {
		return time.Date(year, month, 15, 0, 0, 0, 0, time.UTC)
	}
	expiry := fridays[2]
	for !c.IsTradingDay(expiry) {
		expiry = expiry.AddDate(0, 0, 1)
	}
	return expiry
}

// nthTradingDayPriorMonth devuelve el n-ésimo día hábil del mes
// anterior al de contrato. Si el mes no alcanza n días hábiles usa el
// último, y si no hay ninguno el día 28.
func (c *Calendar) nthTradingDayPriorMonth(year int, month time.Month, n int) time.Time {
	prior := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	days := c.tradingDays(prior.Year(), prior.Month())
	if len(days) >= n {
		return days[n-1]
	}
	if len(days) > 0 {
		return days[len(days)-1]
	}
	return time.Date(prior.Year(), prior.Month(), 28, 0, 0, 0, 0, time.UTC)
}

// shfeExpiry es el quinto día hábil contando desde el final del mes
// anterior al de contrato. Sin suficientes días hábiles usa el primero,
// y sin ninguno el día 1.
func (c *Calendar) shfeExpiry(year int, month time.Month) time.Time {
	prior := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	days := c.tradingDays(prior.Year(), prior.Month())
	if len(days) >= 5 {
		return days[len(days)-5]
	}
	if len(days) > 0 {
		return days[0]
	}
	return time.Date(prior.Year(), prior.Month(), 1, 0, 0, 0, 0, time.UTC)
}
