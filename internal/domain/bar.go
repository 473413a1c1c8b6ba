package domain

import "time"

// Bar es una vela OHLCV de un instrumento. Inmutable una vez creada.
type Bar struct {
	Datetime time.Time `json:"datetime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Tick es una cotización puntual con el primer nivel del libro.
type Tick struct {
	VTSymbol   string
	Datetime   time.Time
	LastPrice  float64
	Volume     float64
	BidPrice1  float64
	BidVolume1 float64
	AskPrice1  float64
	AskVolume1 float64
}

// Spread devuelve el spread bid/ask del tick.
func (t Tick) Spread() float64 {
	return t.AskPrice1 - t.BidPrice1
}
