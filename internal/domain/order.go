package domain

import "time"

// Order es una orden registrada por la estrategia, actualizada con los
// callbacks del gateway.
type Order struct {
	VTOrderID  string
	VTSymbol   string
	Direction  Direction
	Offset     Offset
	Volume     float64
	Price      float64
	Signal     string
	Status     OrderStatus
	Traded     float64
	CreateTime time.Time
	UpdateTime time.Time
}

// NewOrder registra una orden recién enviada, en estado submitting.
func NewOrder(vtOrderID string, inst OrderInstruction, now time.Time) *Order {
	return &Order{
		VTOrderID:  vtOrderID,
		VTSymbol:   inst.VTSymbol,
		Direction:  inst.Direction,
		Offset:     inst.Offset,
		Volume:     inst.Volume,
		Price:      inst.Price,
		Signal:     inst.Signal,
		Status:     StatusSubmitting,
		CreateTime: now,
		UpdateTime: now,
	}
}

// ApplyReport actualiza estado y volumen ejecutado desde un callback.
// Los estados terminales son absorbentes: un reporte posterior no los revierte.
// traded nunca supera volume.
func (o *Order) ApplyReport(rep OrderReport) {
	if o.Status.IsTerminal() {
		return
	}
	o.Status = ParseOrderStatus(rep.Status)
	o.Traded = rep.Traded
	if o.Traded > o.Volume {
		o.Traded = o.Volume
	}
	o.UpdateTime = rep.Datetime
}

// Remaining devuelve el volumen aún no ejecutado.
func (o *Order) Remaining() float64 {
	return o.Volume - o.Traded
}

// OrderState es la forma serializable de Order.
type OrderState struct {
	VTOrderID  string      `json:"vt_orderid"`
	VTSymbol   string      `json:"vt_symbol"`
	Direction  Direction   `json:"direction"`
	Offset     Offset      `json:"offset"`
	Volume     float64     `json:"volume"`
	Price      float64     `json:"price"`
	Signal     string      `json:"signal"`
	Status     OrderStatus `json:"status"`
	Traded     float64     `json:"traded"`
	CreateTime time.Time   `json:"create_time"`
	UpdateTime time.Time   `json:"update_time"`
}

// Snapshot devuelve el estado serializable de la orden.
func (o *Order) Snapshot() OrderState {
	return OrderState{
		VTOrderID:  o.VTOrderID,
		VTSymbol:   o.VTSymbol,
		Direction:  o.Direction,
		Offset:     o.Offset,
		Volume:     o.Volume,
		Price:      o.Price,
		Signal:     o.Signal,
		Status:     o.Status,
		Traded:     o.Traded,
		CreateTime: o.CreateTime,
		UpdateTime: o.UpdateTime,
	}
}

// OrderFromState reconstruye la orden desde su snapshot.
func OrderFromState(s OrderState) *Order {
	return &Order{
		VTOrderID:  s.VTOrderID,
		VTSymbol:   s.VTSymbol,
		Direction:  s.Direction,
		Offset:     s.Offset,
		Volume:     s.Volume,
		Price:      s.Price,
		Signal:     s.Signal,
		Status:     s.Status,
		Traded:     s.Traded,
		CreateTime: s.CreateTime,
		UpdateTime: s.UpdateTime,
	}
}
