package ports

import "time"

// Clock abstrae el tiempo para que el backtest pueda avanzarlo a su
// ritmo.
type Clock interface {
	Now() time.Time
}

// SystemClock es el reloj de pared.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
