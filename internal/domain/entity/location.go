package entity

import "time"

// LocationKind tipo de nodo de inventario.
type LocationKind string

const (
	LocationKindWarehouse LocationKind = "WAREHOUSE" // bodega
	LocationKindStore     LocationKind = "STORE"     // tienda
	LocationKindCustomer  LocationKind = "CUSTOMER"  // cliente (sumidero sin stock propio)
)

// Location representa una ubicación principal (bodega o tienda) o una sub-ubicación.
// ParentID vacío => ubicación principal; no vacío => sub-ubicación de ese padre (profundidad máxima 2).
type Location struct {
	ID        string
	Name      string
	Kind      LocationKind
	ParentID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsMain indica si es una ubicación principal.
func (l *Location) IsMain() bool { return l.ParentID == "" }

// Node vista unificada de ubicación o cliente dentro del grafo.
type Node struct {
	ID       string
	Name     string
	Kind     LocationKind
	ParentID string
}

// IsCustomer indica si el nodo es un cliente.
func (n Node) IsCustomer() bool { return n.Kind == LocationKindCustomer }

// IsMain indica si el nodo es una ubicación principal.
func (n Node) IsMain() bool { return !n.IsCustomer() && n.ParentID == "" }

// IsSub indica si el nodo es una sub-ubicación.
func (n Node) IsSub() bool { return !n.IsCustomer() && n.ParentID != "" }

// TracksStock indica si el nodo tiene filas en el libro de stock.
func (n Node) TracksStock() bool { return !n.IsCustomer() }
