// Package execution implementa la ejecución de órdenes: precios
// adaptativos con control de timeout y reintentos, y el planificador
// de órdenes avanzadas (iceberg, TWAP, VWAP y troceo temporal).
package execution

import (
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Valores por defecto de la ejecución adaptativa.
const (
	DefaultTimeoutSeconds = 30.0
	DefaultMaxRetries     = 3
	DefaultSlippageTicks  = 2.0
)

// ManagedOrder es una orden viva bajo control de timeout y reintentos.
type ManagedOrder struct {
	VTOrderID   string
	Instruction domain.OrderInstruction
	SubmitTime  time.Time
	RetryCount  int
	Active      bool
}

// Executor calcula precios adaptativos contra el libro, vigila
// timeouts y prepara reintentos más agresivos. No llama al gateway;
// devuelve instrucciones.
type Executor struct {
	cfg    domain.OrderExecutionConfig
	orders map[string]*ManagedOrder
}

// NewExecutor construye un ejecutor; los campos a cero de la
// configuración toman los valores por defecto.
func NewExecutor(cfg domain.OrderExecutionConfig) *Executor {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.SlippageTicks <= 0 {
		cfg.SlippageTicks = DefaultSlippageTicks
	}
	return &Executor{cfg: cfg, orders: make(map[string]*ManagedOrder)}
}

// AdaptivePrice calcula el precio de envío contra el libro: las ventas
// ceden slippage por debajo del bid y las compras lo pagan por encima
// del ask. Sin lado disponible devuelve el precio de la instrucción
// tal cual, sin realinear al tick.
func (e *Executor) AdaptivePrice(instr domain.OrderInstruction, bidPrice, askPrice, priceTick float64) float64 {
	var price float64
	if instr.Direction == domain.DirectionShort {
		if bidPrice <= 0 {
			return instr.Price
		}
		price = bidPrice - e.cfg.SlippageTicks*priceTick
	} else {
		if askPrice <= 0 {
			return instr.Price
		}
		price = askPrice + e.cfg.SlippageTicks*priceTick
	}
	return domain.RoundToTick(price, priceTick)
}

// RegisterOrder pone una orden recién enviada bajo vigilancia.
func (e *Executor) RegisterOrder(vtOrderID string, instr domain.OrderInstruction, submitTime time.Time) *ManagedOrder {
	order := &ManagedOrder{
		VTOrderID:   vtOrderID,
		Instruction: instr,
		SubmitTime:  submitTime,
		Active:      true,
	}
	e.orders[vtOrderID] = order
	return order
}

// Order devuelve la orden gestionada, o nil si no existe.
func (e *Executor) Order(vtOrderID string) *ManagedOrder {
	return e.orders[vtOrderID]
}

// CheckTimeouts devuelve los IDs de órdenes vivas que superaron el
// timeout, junto con sus eventos.
func (e *Executor) CheckTimeouts(now time.Time) ([]string, []domain.Event) {
	var cancelIDs []string
	var events []domain.Event
	for id, order := range e.orders {
		if !order.Active {
			continue
		}
		elapsed := now.Sub(order.SubmitTime).Seconds()
		if elapsed >= e.cfg.TimeoutSeconds {
			cancelIDs = append(cancelIDs, id)
			events = append(events, domain.NewOrderTimeoutEvent(id, order.Instruction.VTSymbol, elapsed, now))
		}
	}
	return cancelIDs, events
}

// MarkFilled saca la orden de la vigilancia de timeout.
func (e *Executor) MarkFilled(vtOrderID string) {
	if order, ok := e.orders[vtOrderID]; ok {
		order.Active = false
	}
}

// MarkCancelled saca la orden de la vigilancia de timeout.
func (e *Executor) MarkCancelled(vtOrderID string) {
	if order, ok := e.orders[vtOrderID]; ok {
		order.Active = false
	}
}

// PrepareRetry devuelve la instrucción de reintento con precio un tick
// más agresivo, o false cuando se agotaron los reintentos.
func (e *Executor) PrepareRetry(order *ManagedOrder, priceTick float64) (domain.OrderInstruction, bool) {
	if order.RetryCount >= e.cfg.MaxRetries {
		return domain.OrderInstruction{}, false
	}

	instr := order.Instruction
	if instr.Direction == domain.DirectionShort {
		instr.Price -= priceTick
	} else {
		instr.Price += priceTick
	}
	instr.Price = domain.RoundToTick(instr.Price, priceTick)

	order.RetryCount++
	return instr, true
}

// MaxRetries expone el límite configurado de reintentos.
func (e *Executor) MaxRetries() int {
	return e.cfg.MaxRetries
}
