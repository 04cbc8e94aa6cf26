package entity

import "time"

// Customer representa un cliente externo. En el grafo de ubicaciones es un nodo sumidero:
// puede ser origen o destino de un traslado pero no posee filas de stock.
type Customer struct {
	ID        string
	Name      string
	TaxID     string // NIT o Cédula (Colombia)
	CreatedAt time.Time
	UpdatedAt time.Time
}
