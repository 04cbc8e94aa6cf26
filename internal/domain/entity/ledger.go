package entity

import "time"

// LedgerKey clave compuesta de una fila del libro de stock.
type LedgerKey struct {
	ProductID  string
	LocationID string
}

// LedgerRow stock actual de un producto en una ubicación o sub-ubicación.
// Version se incrementa con cada escritura (concurrencia optimista).
type LedgerRow struct {
	ProductID  string
	LocationID string
	Quantity   int64
	Version    int64
	UpdatedAt  time.Time
}

// Key devuelve la clave compuesta de la fila.
func (r LedgerRow) Key() LedgerKey {
	return LedgerKey{ProductID: r.ProductID, LocationID: r.LocationID}
}

// LedgerDelta cambio con signo a aplicar sobre una fila.
// ExpectedVersion es la versión leída al tomar la instantánea (0 si la fila no existía).
type LedgerDelta struct {
	ProductID       string
	LocationID      string
	Amount          int64
	ExpectedVersion int64
}

// Key devuelve la clave compuesta del delta.
func (d LedgerDelta) Key() LedgerKey {
	return LedgerKey{ProductID: d.ProductID, LocationID: d.LocationID}
}
