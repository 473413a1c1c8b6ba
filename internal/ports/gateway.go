// Package ports define los contratos entre el motor de estrategia y
// el mundo exterior: gateways de mercado y ejecución, repositorios y
// notificadores. Los adaptadores los implementan.
package ports

import (
	"context"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// MarketDataGateway entrega datos de mercado y gestiona suscripciones.
type MarketDataGateway interface {
	// Subscribe suscribe los vt_symbols dados al flujo de ticks y barras.
	Subscribe(ctx context.Context, vtSymbols []string) error

	// QueryBars descarga barras históricas de 1 minuto del rango dado.
	QueryBars(ctx context.Context, vtSymbol string, start, end time.Time) ([]domain.Bar, error)
}

// QuoteGateway consulta cotizaciones y metadatos de contratos.
type QuoteGateway interface {
	// LatestTick devuelve el último tick conocido del contrato.
	LatestTick(ctx context.Context, vtSymbol string) (domain.Tick, error)

	// OptionChain devuelve la cadena de opciones viva del subyacente.
	OptionChain(ctx context.Context, underlyingVTSymbol string) ([]domain.OptionContract, error)

	// ContractParams devuelve multiplicador y tick del contrato.
	ContractParams(ctx context.Context, vtSymbol string) (domain.ContractParams, error)
}

// AccountGateway consulta cuenta y posiciones del broker.
type AccountGateway interface {
	// Account devuelve el snapshot de cuenta actual.
	Account(ctx context.Context) (domain.AccountSnapshot, error)

	// Positions devuelve las posiciones reportadas por el broker.
	Positions(ctx context.Context) ([]domain.PositionSnapshot, error)
}

// TradeExecutionGateway envía y cancela órdenes.
type TradeExecutionGateway interface {
	// SendOrder envía la instrucción y devuelve el vt_orderid asignado.
	SendOrder(ctx context.Context, instr domain.OrderInstruction) (string, error)

	// CancelOrder cancela una orden viva por su vt_orderid.
	CancelOrder(ctx context.Context, vtOrderID string) error
}
