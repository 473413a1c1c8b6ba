package domain

import "sort"

// InstrumentManager es el agregado de solo-lectura frente a eventos:
// mantiene los instrumentos observados y el contrato dominante por producto.
// No emite eventos de dominio.
type InstrumentManager struct {
	instruments     map[string]*TargetInstrument
	activeContracts map[string]string // producto → vt_symbol dominante
}

// NewInstrumentManager crea un gestor vacío.
func NewInstrumentManager() *InstrumentManager {
	return &InstrumentManager{
		instruments:     make(map[string]*TargetInstrument),
		activeContracts: make(map[string]string),
	}
}

// UpdateBar añade la barra al instrumento, creándolo en la primera barra.
func (m *InstrumentManager) UpdateBar(vtSymbol string, bar Bar) *TargetInstrument {
	inst, ok := m.instruments[vtSymbol]
	if !ok {
		inst = NewTargetInstrument(vtSymbol)
		m.instruments[vtSymbol] = inst
	}
	inst.AppendBar(bar)
	return inst
}

// Instrument devuelve el instrumento si existe.
func (m *InstrumentManager) Instrument(vtSymbol string) (*TargetInstrument, bool) {
	inst, ok := m.instruments[vtSymbol]
	return inst, ok
}

// Symbols devuelve los vt_symbols observados, ordenados para iterar
// de forma estable.
func (m *InstrumentManager) Symbols() []string {
	out := make([]string, 0, len(m.instruments))
	for s := range m.instruments {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SetActiveContract fija el contrato dominante de un producto.
func (m *InstrumentManager) SetActiveContract(product, vtSymbol string) {
	m.activeContracts[product] = vtSymbol
}

// ActiveContract devuelve el contrato dominante de un producto.
func (m *InstrumentManager) ActiveContract(product string) (string, bool) {
	s, ok := m.activeContracts[product]
	return s, ok
}

// AllActiveContracts devuelve una copia del mapa producto → dominante.
func (m *InstrumentManager) AllActiveContracts() map[string]string {
	out := make(map[string]string, len(m.activeContracts))
	for k, v := range m.activeContracts {
		out[k] = v
	}
	return out
}

// HasActiveContracts indica si hay algún dominante configurado.
func (m *InstrumentManager) HasActiveContracts() bool {
	return len(m.activeContracts) > 0
}

// InstrumentManagerState es la forma serializable del gestor.
type InstrumentManagerState struct {
	Instruments     map[string]InstrumentState `json:"instruments"`
	ActiveContracts map[string]string          `json:"active_contracts"`
}

// Snapshot devuelve el estado serializable del gestor.
func (m *InstrumentManager) Snapshot() InstrumentManagerState {
	insts := make(map[string]InstrumentState, len(m.instruments))
	for s, inst := range m.instruments {
		insts[s] = inst.Snapshot()
	}
	active := make(map[string]string, len(m.activeContracts))
	for k, v := range m.activeContracts {
		active[k] = v
	}
	return InstrumentManagerState{Instruments: insts, ActiveContracts: active}
}

// InstrumentManagerFromState reconstruye el gestor desde su snapshot.
func InstrumentManagerFromState(s InstrumentManagerState) *InstrumentManager {
	m := NewInstrumentManager()
	for sym, st := range s.Instruments {
		m.instruments[sym] = InstrumentFromState(st)
	}
	for k, v := range s.ActiveContracts {
		m.activeContracts[k] = v
	}
	return m
}
