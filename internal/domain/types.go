package domain

import (
	"math"
	"time"
)

// Direction es el sentido de una orden o posición.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionNet   Direction = "net"
)

// Opposite devuelve la dirección contraria. Net se devuelve tal cual.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionLong:
		return DirectionShort
	case DirectionShort:
		return DirectionLong
	}
	return d
}

// Offset indica si la orden abre o cierra posición.
type Offset string

const (
	OffsetOpen           Offset = "open"
	OffsetClose          Offset = "close"
	OffsetCloseToday     Offset = "closetoday"
	OffsetCloseYesterday Offset = "closeyesterday"
)

// IsClose devuelve true para cualquier variante de cierre.
func (o Offset) IsClose() bool {
	return o == OffsetClose || o == OffsetCloseToday || o == OffsetCloseYesterday
}

// OrderType es el tipo de orden soportado por el gateway.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
	OrderTypeFAK    OrderType = "fak"
	OrderTypeFOK    OrderType = "fok"
)

// OrderStatus es el estado de una orden reportado por el gateway.
type OrderStatus string

const (
	StatusSubmitting OrderStatus = "submitting"
	StatusNotTraded  OrderStatus = "nottraded"
	StatusPartTraded OrderStatus = "parttraded"
	StatusAllTraded  OrderStatus = "alltraded"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRejected   OrderStatus = "rejected"
)

// IsTerminal devuelve true si el estado es absorbente: la orden no vuelve a cambiar.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusAllTraded || s == StatusCancelled || s == StatusRejected
}

// IsActive devuelve true si la orden sigue viva en el exchange.
func (s OrderStatus) IsActive() bool {
	return !s.IsTerminal()
}

// ParseOrderStatus normaliza el string de estado del gateway al enum.
// Estados desconocidos se tratan como submitting.
func ParseOrderStatus(raw string) OrderStatus {
	switch OrderStatus(raw) {
	case StatusSubmitting, StatusNotTraded, StatusPartTraded,
		StatusAllTraded, StatusCancelled, StatusRejected:
		return OrderStatus(raw)
	}
	return StatusSubmitting
}

// OrderInstruction es la intención de orden que produce la capa de dominio.
// Price 0 significa orden a mercado.
type OrderInstruction struct {
	VTSymbol  string
	Direction Direction
	Offset    Offset
	Volume    float64
	Price     float64
	Signal    string
	OrderType OrderType
}

// AccountSnapshot es la vista de cuenta reportada por el gateway.
type AccountSnapshot struct {
	ID        string
	Balance   float64
	Available float64
	Frozen    float64
}

// Used devuelve el margen comprometido.
func (a AccountSnapshot) Used() float64 {
	return a.Balance - a.Available
}

// PositionSnapshot es la posición según el exchange, usada para reconciliación.
type PositionSnapshot struct {
	VTSymbol  string
	Direction Direction
	Volume    float64
	Frozen    float64
	AvgPrice  float64
	PnL       float64
	YdVolume  float64
}

// ContractParams son los parámetros estáticos de un contrato.
type ContractParams struct {
	VTSymbol      string
	Size          float64
	PriceTick     float64
	MinVolume     float64
	MaxVolume     float64
	StopSupported bool
	NetPosition   bool
}

// RoundPrice alinea un precio al tick del contrato.
// Con tick <= 0 devuelve el precio sin tocar.
func (c ContractParams) RoundPrice(price float64) float64 {
	return RoundToTick(price, c.PriceTick)
}

// RoundToTick alinea un precio a un múltiplo del tick dado.
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Round(price/tick) * tick
}

// TradeReport es la ejecución reportada por el gateway.
type TradeReport struct {
	VTTradeID string
	VTOrderID string
	VTSymbol  string
	Direction Direction
	Offset    Offset
	Price     float64
	Volume    float64
	Datetime  time.Time
}

// OrderReport es el callback de estado de orden del gateway.
type OrderReport struct {
	VTOrderID string
	VTSymbol  string
	Direction Direction
	Offset    Offset
	Volume    float64
	Traded    float64
	Price     float64
	Status    string
	Datetime  time.Time
}
