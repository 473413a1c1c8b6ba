// Package contract resuelve la gramática de contratos de futuros y
// opciones chinos: mapeo producto→exchange, especificaciones estáticas,
// generación de símbolos, parsing de opciones y calendario de vencimientos.
//
// Las tablas son inmutables a nivel de proceso; se inicializan una vez
// y no requieren sincronización.
package contract

import "fmt"

// Exchanges soportados.
const (
	ExchangeSHFE  = "SHFE"
	ExchangeCZCE  = "CZCE"
	ExchangeDCE   = "DCE"
	ExchangeCFFEX = "CFFEX"
	ExchangeINE   = "INE"
)

// exchangeMap mapea código de producto → exchange.
var exchangeMap = map[string]string{
	// SHFE
	"ag": ExchangeSHFE, "rb": ExchangeSHFE, "ao": ExchangeSHFE, "cu": ExchangeSHFE,
	"al": ExchangeSHFE, "zn": ExchangeSHFE, "au": ExchangeSHFE, "ru": ExchangeSHFE,
	"sn": ExchangeSHFE, "ni": ExchangeSHFE, "bu": ExchangeSHFE, "sp": ExchangeSHFE,
	"fu": ExchangeSHFE, "br": ExchangeSHFE, "pb": ExchangeSHFE, "ss": ExchangeSHFE,
	"hc": ExchangeSHFE, "wr": ExchangeSHFE,
	// CZCE
	"FG": ExchangeCZCE, "SA": ExchangeCZCE, "MA": ExchangeCZCE, "SR": ExchangeCZCE,
	"TA": ExchangeCZCE, "RM": ExchangeCZCE, "CF": ExchangeCZCE, "OI": ExchangeCZCE,
	"PK": ExchangeCZCE, "SF": ExchangeCZCE, "SM": ExchangeCZCE, "PX": ExchangeCZCE,
	"UR": ExchangeCZCE, "CJ": ExchangeCZCE, "AP": ExchangeCZCE,
	// DCE
	"m": ExchangeDCE, "i": ExchangeDCE, "p": ExchangeDCE, "y": ExchangeDCE,
	"c": ExchangeDCE, "jd": ExchangeDCE, "a": ExchangeDCE, "b": ExchangeDCE,
	"pp": ExchangeDCE, "l": ExchangeDCE, "v": ExchangeDCE, "eg": ExchangeDCE,
	"eb": ExchangeDCE, "pg": ExchangeDCE, "lh": ExchangeDCE, "si": ExchangeDCE,
	// CFFEX
	"IF": ExchangeCFFEX, "IH": ExchangeCFFEX, "IC": ExchangeCFFEX, "IM": ExchangeCFFEX,
	"IO": ExchangeCFFEX, "HO": ExchangeCFFEX, "MO": ExchangeCFFEX,
	"T": ExchangeCFFEX, "TF": ExchangeCFFEX, "TS": ExchangeCFFEX,
	// INE
	"sc": ExchangeINE, "lu": ExchangeINE, "nr": ExchangeINE, "bc": ExchangeINE,
}

// futureOptionMap mapea producto de futuro → producto de su opción.
var futureOptionMap = map[string]string{
	"IF": "IO",
	"IM": "MO",
	"IH": "HO",
}

// optionFutureMap es el mapeo inverso opción → futuro.
var optionFutureMap = map[string]string{
	"IO": "IF",
	"MO": "IM",
	"HO": "IH",
}

// ResolveExchange devuelve el exchange de un producto.
func ResolveExchange(productCode string) (string, error) {
	ex, ok := exchangeMap[productCode]
	if !ok {
		return "", fmt.Errorf("contract.ResolveExchange: unknown product code %q", productCode)
	}
	return ex, nil
}

// IsCZCE indica si el producto cotiza en CZCE, que usa el formato de
// símbolo con año de un dígito.
func IsCZCE(productCode string) bool {
	return exchangeMap[productCode] == ExchangeCZCE
}

// OptionProductFor devuelve el producto de opción de un futuro, si existe.
func OptionProductFor(futureProduct string) (string, bool) {
	p, ok := futureOptionMap[futureProduct]
	return p, ok
}

// FutureProductFor devuelve el producto de futuro de una opción, si existe.
func FutureProductFor(optionProduct string) (string, bool) {
	p, ok := optionFutureMap[optionProduct]
	return p, ok
}

// ProductSpec es la especificación estática de un producto.
type ProductSpec struct {
	Size      float64
	PriceTick float64
}

// productSpecs recoge multiplicador y tick por producto.
var productSpecs = map[string]ProductSpec{
	// CFFEX indices
	"IF": {300, 0.2},
	"IH": {300, 0.2},
	"IC": {200, 0.2},
	"IM": {200, 0.2},
	"IO": {100, 0.2},
	"HO": {100, 0.2},
	"MO": {100, 0.2},
	// SHFE
	"rb": {10, 1.0},
	"hc": {10, 1.0},
	"ag": {15, 1.0},
	"au": {1000, 0.02},
	// INE
	"sc": {1000, 0.1},
	"lu": {10, 1.0},
	// DCE
	"m": {10, 1.0},
	"i": {100, 0.5},
	// CZCE
	"SA": {20, 1.0},
	"MA": {10, 1.0},
}

// defaultProductSpec se aplica a productos sin especificación propia.
var defaultProductSpec = ProductSpec{Size: 10, PriceTick: 1.0}

// SpecFor devuelve la especificación del producto, o la por defecto.
func SpecFor(productCode string) ProductSpec {
	if spec, ok := productSpecs[productCode]; ok {
		return spec
	}
	return defaultProductSpec
}
