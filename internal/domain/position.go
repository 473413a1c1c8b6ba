package domain

import "time"

// Position es una posición abierta por la propia estrategia.
// Se distingue de PositionSnapshot, que es la vista del exchange.
type Position struct {
	VTSymbol           string
	UnderlyingVTSymbol string
	Signal             string
	TargetVolume       float64
	Volume             float64
	Direction          Direction
	OpenPrice          float64
	CreateTime         time.Time
	OpenTime           time.Time
	CloseTime          time.Time
	IsClosed           bool
	IsManuallyClosed   bool
}

// NewPosition crea una posición pendiente de fill.
func NewPosition(vtSymbol, underlying, signal string, direction Direction, targetVolume float64, now time.Time) *Position {
	return &Position{
		VTSymbol:           vtSymbol,
		UnderlyingVTSymbol: underlying,
		Signal:             signal,
		TargetVolume:       targetVolume,
		Direction:          direction,
		CreateTime:         now,
	}
}

// IsActive devuelve true si la posición tiene volumen vivo.
func (p *Position) IsActive() bool {
	return !p.IsClosed && p.Volume > 0
}

// AddFill incorpora una ejecución de apertura. El primer fill fija
// open_price y open_time; los siguientes actualizan el precio medio
// ponderado por volumen.
func (p *Position) AddFill(volume, price float64, at time.Time) {
	if volume <= 0 {
		return
	}
	if p.Volume == 0 {
		p.OpenPrice = price
		p.OpenTime = at
		p.Volume = volume
		return
	}
	total := p.Volume + volume
	p.OpenPrice = (p.OpenPrice*p.Volume + price*volume) / total
	p.Volume = total
}

// ReduceVolume descuenta volumen por un fill de cierre. Al llegar a cero
// la posición queda cerrada con close_time estampado.
func (p *Position) ReduceVolume(volume float64, at time.Time) {
	if volume <= 0 {
		return
	}
	p.Volume -= volume
	if p.Volume <= 0 {
		p.Volume = 0
		p.IsClosed = true
		p.CloseTime = at
	}
}

// MarkManuallyClosed registra un cierre detectado por reconciliación
// contra el reporte del exchange.
func (p *Position) MarkManuallyClosed(volume float64, at time.Time) {
	p.IsManuallyClosed = true
	p.ReduceVolume(volume, at)
}

// PositionState es la forma serializable de Position.
type PositionState struct {
	VTSymbol           string    `json:"vt_symbol"`
	UnderlyingVTSymbol string    `json:"underlying_vt_symbol"`
	Signal             string    `json:"signal"`
	TargetVolume       float64   `json:"target_volume"`
	Volume             float64   `json:"volume"`
	Direction          Direction `json:"direction"`
	OpenPrice          float64   `json:"open_price"`
	CreateTime         time.Time `json:"create_time"`
	OpenTime           time.Time `json:"open_time,omitzero"`
	CloseTime          time.Time `json:"close_time,omitzero"`
	IsClosed           bool      `json:"is_closed"`
	IsManuallyClosed   bool      `json:"is_manually_closed"`
}

// Snapshot devuelve el estado serializable de la posición.
func (p *Position) Snapshot() PositionState {
	return PositionState{
		VTSymbol:           p.VTSymbol,
		UnderlyingVTSymbol: p.UnderlyingVTSymbol,
		Signal:             p.Signal,
		TargetVolume:       p.TargetVolume,
		Volume:             p.Volume,
		Direction:          p.Direction,
		OpenPrice:          p.OpenPrice,
		CreateTime:         p.CreateTime,
		OpenTime:           p.OpenTime,
		CloseTime:          p.CloseTime,
		IsClosed:           p.IsClosed,
		IsManuallyClosed:   p.IsManuallyClosed,
	}
}

// PositionFromState reconstruye la posición desde su snapshot.
func PositionFromState(s PositionState) *Position {
	return &Position{
		VTSymbol:           s.VTSymbol,
		UnderlyingVTSymbol: s.UnderlyingVTSymbol,
		Signal:             s.Signal,
		TargetVolume:       s.TargetVolume,
		Volume:             s.Volume,
		Direction:          s.Direction,
		OpenPrice:          s.OpenPrice,
		CreateTime:         s.CreateTime,
		OpenTime:           s.OpenTime,
		CloseTime:          s.CloseTime,
		IsClosed:           s.IsClosed,
		IsManuallyClosed:   s.IsManuallyClosed,
	}
}
