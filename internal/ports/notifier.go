package ports

import (
	"context"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Notifier entrega eventos de dominio a un canal externo. La entrega
// es best effort: un fallo no debe propagarse al motor.
type Notifier interface {
	// Notify publica el evento.
	Notify(ctx context.Context, event domain.Event) error
}
