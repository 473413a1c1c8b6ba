package execution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// AdvancedOrderType distingue las estrategias de troceo.
type AdvancedOrderType string

const (
	OrderTypeIceberg    AdvancedOrderType = "iceberg"
	OrderTypeTimedSplit AdvancedOrderType = "timed_split"
	OrderTypeTWAP       AdvancedOrderType = "twap"
	OrderTypeVWAP       AdvancedOrderType = "vwap"
)

// AdvancedOrderStatus es el ciclo de vida de una orden avanzada.
type AdvancedOrderStatus string

const (
	StatusExecuting AdvancedOrderStatus = "executing"
	StatusCompleted AdvancedOrderStatus = "completed"
	StatusCancelled AdvancedOrderStatus = "cancelled"
)

// ChildOrder es una rebanada de la orden padre.
type ChildOrder struct {
	ChildID       string
	ParentID      string
	Volume        float64
	ScheduledTime time.Time
	Submitted     bool
	Filled        bool
}

// AdvancedOrder agrupa las rebanadas y su progreso.
type AdvancedOrder struct {
	OrderID      string
	Type         AdvancedOrderType
	Instruction  domain.OrderInstruction
	Status       AdvancedOrderStatus
	Children     []*ChildOrder
	FilledVolume float64
}

// Scheduler gestiona el troceo y el ciclo de vida de las órdenes
// avanzadas. Las rebanadas iceberg se liberan en secuencia estricta;
// TWAP y VWAP por hora programada.
type Scheduler struct {
	orders  map[string]*AdvancedOrder
	orderID []string
}

// NewScheduler construye un planificador vacío.
func NewScheduler() *Scheduler {
	return &Scheduler{orders: make(map[string]*AdvancedOrder)}
}

func (s *Scheduler) register(order *AdvancedOrder) {
	s.orders[order.OrderID] = order
	s.orderID = append(s.orderID, order.OrderID)
}

// SubmitIceberg trocea la instrucción en tandas de batchSize que se
// liberan una a una conforme se completan.
func (s *Scheduler) SubmitIceberg(instr domain.OrderInstruction, batchSize float64) (*AdvancedOrder, error) {
	if instr.Volume <= 0 {
		return nil, fmt.Errorf("execution.SubmitIceberg: total volume must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("execution.SubmitIceberg: batch size must be positive")
	}

	orderID := uuid.NewString()
	var children []*ChildOrder
	remaining := instr.Volume
	for idx := 0; remaining > 0; idx++ {
		vol := math.Min(batchSize, remaining)
		children = append(children, &ChildOrder{
			ChildID:  fmt.Sprintf("%s_child_%d", orderID, idx),
			ParentID: orderID,
			Volume:   vol,
		})
		remaining -= vol
	}

	order := &AdvancedOrder{
		OrderID:     orderID,
		Type:        OrderTypeIceberg,
		Instruction: instr,
		Status:      StatusExecuting,
		Children:    children,
	}
	s.register(order)
	return order, nil
}

// SubmitTimedSplit trocea en rebanadas de tamaño fijo espaciadas por
// un intervalo regular desde startTime.
func (s *Scheduler) SubmitTimedSplit(instr domain.OrderInstruction, intervalSeconds int, perOrderVolume float64, startTime time.Time) (*AdvancedOrder, error) {
	if instr.Volume <= 0 {
		return nil, fmt.Errorf("execution.SubmitTimedSplit: total volume must be positive")
	}
	if intervalSeconds <= 0 {
		return nil, fmt.Errorf("execution.SubmitTimedSplit: interval must be positive")
	}
	if perOrderVolume <= 0 {
		return nil, fmt.Errorf("execution.SubmitTimedSplit: per order volume must be positive")
	}

	orderID := uuid.NewString()
	var children []*ChildOrder
	remaining := instr.Volume
	for idx := 0; remaining > 0; idx++ {
		vol := math.Min(perOrderVolume, remaining)
		children = append(children, &ChildOrder{
			ChildID:       fmt.Sprintf("%s_child_%d", orderID, idx),
			ParentID:      orderID,
			Volume:        vol,
			ScheduledTime: startTime.Add(time.Duration(intervalSeconds*idx) * time.Second),
		})
		remaining -= vol
	}

	order := &AdvancedOrder{
		OrderID:     orderID,
		Type:        OrderTypeTimedSplit,
		Instruction: instr,
		Status:      StatusExecuting,
		Children:    children,
	}
	s.register(order)
	return order, nil
}

// SubmitTWAP reparte el volumen uniformemente en numSlices rebanadas a
// lo largo de la ventana; el resto entero va a las primeras.
func (s *Scheduler) SubmitTWAP(instr domain.OrderInstruction, timeWindowSeconds, numSlices int, startTime time.Time) (*AdvancedOrder, error) {
	if instr.Volume <= 0 {
		return nil, fmt.Errorf("execution.SubmitTWAP: total volume must be positive")
	}
	if timeWindowSeconds <= 0 {
		return nil, fmt.Errorf("execution.SubmitTWAP: time window must be positive")
	}
	if numSlices <= 0 {
		return nil, fmt.Errorf("execution.SubmitTWAP: slice count must be positive")
	}

	total := int(instr.Volume)
	base := total / numSlices
	remainder := total % numSlices
	interval := float64(timeWindowSeconds) / float64(numSlices)

	orderID := uuid.NewString()
	children := make([]*ChildOrder, 0, numSlices)
	for i := 0; i < numSlices; i++ {
		vol := base
		if i < remainder {
			vol++
		}
		children = append(children, &ChildOrder{
			ChildID:       fmt.Sprintf("%s_child_%d", orderID, i),
			ParentID:      orderID,
			Volume:        float64(vol),
			ScheduledTime: startTime.Add(time.Duration(math.Round(interval*float64(i))) * time.Second),
		})
	}

	order := &AdvancedOrder{
		OrderID:     orderID,
		Type:        OrderTypeTWAP,
		Instruction: instr,
		Status:      StatusExecuting,
		Children:    children,
	}
	s.register(order)
	return order, nil
}

// SubmitVWAP reparte el volumen en proporción al perfil de volumen,
// con el método del mayor resto para que la suma cuadre exacta.
func (s *Scheduler) SubmitVWAP(instr domain.OrderInstruction, timeWindowSeconds int, volumeProfile []float64, startTime time.Time) (*AdvancedOrder, error) {
	if instr.Volume <= 0 {
		return nil, fmt.Errorf("execution.SubmitVWAP: total volume must be positive")
	}
	if timeWindowSeconds <= 0 {
		return nil, fmt.Errorf("execution.SubmitVWAP: time window must be positive")
	}
	if len(volumeProfile) == 0 {
		return nil, fmt.Errorf("execution.SubmitVWAP: empty volume profile")
	}
	var totalWeight float64
	for _, w := range volumeProfile {
		if w <= 0 {
			return nil, fmt.Errorf("execution.SubmitVWAP: profile weights must be positive")
		}
		totalWeight += w
	}

	total := int(instr.Volume)
	numSlices := len(volumeProfile)
	raw := make([]float64, numSlices)
	volumes := make([]int, numSlices)
	assigned := 0
	for i, w := range volumeProfile {
		raw[i] = float64(total) * w / totalWeight
		volumes[i] = int(raw[i])
		assigned += volumes[i]
	}

	// Reparto del resto por parte fraccionaria descendente.
	type frac struct {
		part float64
		idx  int
	}
	fracs := make([]frac, numSlices)
	for i := range raw {
		fracs[i] = frac{part: raw[i] - float64(volumes[i]), idx: i}
	}
	sort.SliceStable(fracs, func(i, j int) bool { return fracs[i].part > fracs[j].part })
	for j := 0; j < total-assigned; j++ {
		volumes[fracs[j].idx]++
	}

	interval := float64(timeWindowSeconds) / float64(numSlices)
	orderID := uuid.NewString()
	children := make([]*ChildOrder, 0, numSlices)
	for i := 0; i < numSlices; i++ {
		children = append(children, &ChildOrder{
			ChildID:       fmt.Sprintf("%s_child_%d", orderID, i),
			ParentID:      orderID,
			Volume:        float64(volumes[i]),
			ScheduledTime: startTime.Add(time.Duration(math.Round(interval*float64(i))) * time.Second),
		})
	}

	order := &AdvancedOrder{
		OrderID:     orderID,
		Type:        OrderTypeVWAP,
		Instruction: instr,
		Status:      StatusExecuting,
		Children:    children,
	}
	s.register(order)
	return order, nil
}

// OnChildFilled procesa el fill de una rebanada. Cuando la última se
// completa marca la orden COMPLETED y emite el evento de su tipo.
func (s *Scheduler) OnChildFilled(childID string, now time.Time) []domain.Event {
	for _, id := range s.orderID {
		order := s.orders[id]
		for _, child := range order.Children {
			if child.ChildID != childID || child.Filled {
				continue
			}
			child.Filled = true
			order.FilledVolume += child.Volume

			allFilled := true
			for _, c := range order.Children {
				if !c.Filled {
					allFilled = false
					break
				}
			}
			if !allFilled {
				return nil
			}
			order.Status = StatusCompleted

			vtSymbol := order.Instruction.VTSymbol
			total := order.Instruction.Volume
			switch order.Type {
			case OrderTypeIceberg:
				return []domain.Event{domain.NewIcebergCompleteEvent(order.OrderID, vtSymbol, total, now)}
			case OrderTypeTWAP:
				return []domain.Event{domain.NewTWAPCompleteEvent(order.OrderID, vtSymbol, total, now)}
			case OrderTypeVWAP:
				return []domain.Event{domain.NewVWAPCompleteEvent(order.OrderID, vtSymbol, total, now)}
			}
			return nil
		}
	}
	return nil
}

// PendingChildren devuelve las rebanadas que tocan enviarse ahora: la
// siguiente tanda iceberg cuando las anteriores se completaron, y las
// rebanadas programadas que vencieron.
func (s *Scheduler) PendingChildren(now time.Time) []*ChildOrder {
	var pending []*ChildOrder
	for _, id := range s.orderID {
		order := s.orders[id]
		if order.Status != StatusExecuting {
			continue
		}

		if order.Type == OrderTypeIceberg {
			for i, child := range order.Children {
				if child.Submitted || child.Filled {
					continue
				}
				prevFilled := true
				for _, prev := range order.Children[:i] {
					if !prev.Filled {
						prevFilled = false
						break
					}
				}
				if prevFilled {
					pending = append(pending, child)
				}
				break
			}
			continue
		}

		for _, child := range order.Children {
			if !child.Submitted && !child.Filled && !child.ScheduledTime.IsZero() && !now.Before(child.ScheduledTime) {
				pending = append(pending, child)
			}
		}
	}
	return pending
}

// HasExecutingFor indica si hay una orden avanzada en curso sobre el
// contrato. Evita encolar coberturas duplicadas barra a barra.
func (s *Scheduler) HasExecutingFor(vtSymbol string) bool {
	for _, order := range s.orders {
		if order.Status == StatusExecuting && order.Instruction.VTSymbol == vtSymbol {
			return true
		}
	}
	return false
}

// MarkChildSubmitted marca la rebanada como enviada al gateway.
func (s *Scheduler) MarkChildSubmitted(childID string) {
	for _, order := range s.orders {
		for _, child := range order.Children {
			if child.ChildID == childID {
				child.Submitted = true
				return
			}
		}
	}
}

// CancelOrder cancela una orden avanzada viva y devuelve los IDs de
// rebanadas enviadas sin completar que hay que retirar del mercado.
func (s *Scheduler) CancelOrder(orderID string, now time.Time) ([]string, []domain.Event) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	if order.Status == StatusCompleted || order.Status == StatusCancelled {
		return nil, nil
	}
	order.Status = StatusCancelled

	var cancelIDs []string
	var remaining float64
	for _, child := range order.Children {
		if child.Submitted && !child.Filled {
			cancelIDs = append(cancelIDs, child.ChildID)
		}
		if !child.Filled {
			remaining += child.Volume
		}
	}

	var events []domain.Event
	if order.Type == OrderTypeIceberg {
		events = append(events, domain.NewIcebergCancelledEvent(order.OrderID, order.Instruction.VTSymbol, order.FilledVolume, remaining, now))
	}
	return cancelIDs, events
}

// Order devuelve la orden avanzada por ID, o nil.
func (s *Scheduler) Order(orderID string) *AdvancedOrder {
	return s.orders[orderID]
}
