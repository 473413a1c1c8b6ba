package domain

import "time"

// RuntimeStateVersion es la versión actual del formato de snapshot.
// La cadena de migraciones del adaptador de almacenamiento eleva
// snapshots antiguos hasta esta versión.
const RuntimeStateVersion = 3

// RuntimeState es el estado completo de la estrategia tal y como se
// persiste: agregado de instrumentos y agregado de posiciones.
type RuntimeState struct {
	Version           int                    `json:"version"`
	SavedAt           time.Time              `json:"saved_at"`
	TargetAggregate   InstrumentManagerState `json:"target_aggregate"`
	PositionAggregate PositionAggregateState `json:"position_aggregate"`
}
