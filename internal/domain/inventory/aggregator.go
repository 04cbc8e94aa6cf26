package inventory

import (
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// Quantity cantidad efectiva; Applicable=false para clientes (distinto de cero).
type Quantity struct {
	Value      int64
	Applicable bool
}

// Of construye una cantidad aplicable.
func Of(v int64) Quantity { return Quantity{Value: v, Applicable: true} }

// NotApplicable cantidad de un nodo sin stock propio (cliente).
func NotApplicable() Quantity { return Quantity{} }

// Int devuelve el valor o ErrNotApplicable.
func (q Quantity) Int() (int64, error) {
	if !q.Applicable {
		return 0, domain.ErrNotApplicable
	}
	return q.Value, nil
}

// Snapshot copia de solo lectura de filas del libro, indexada por clave compuesta.
type Snapshot struct {
	rows map[entity.LedgerKey]entity.LedgerRow
}

// NewSnapshot indexa las filas leídas del libro.
func NewSnapshot(rows []entity.LedgerRow) *Snapshot {
	s := &Snapshot{rows: make(map[entity.LedgerKey]entity.LedgerRow, len(rows))}
	for _, r := range rows {
		s.rows[r.Key()] = r
	}
	return s
}

// Row devuelve la fila o una fila vacía (cantidad 0, versión 0) si no existe.
func (s *Snapshot) Row(productID, locationID string) entity.LedgerRow {
	key := entity.LedgerKey{ProductID: productID, LocationID: locationID}
	if r, ok := s.rows[key]; ok {
		return r
	}
	return entity.LedgerRow{ProductID: productID, LocationID: locationID}
}

// Quantity devuelve la cantidad almacenada de la fila (0 si no existe).
func (s *Snapshot) Quantity(productID, locationID string) int64 {
	return s.Row(productID, locationID).Quantity
}

// ProductIDs devuelve los productos con al menos una fila en las ubicaciones dadas.
func (s *Snapshot) ProductIDs(locationIDs []string) map[string]struct{} {
	in := make(map[string]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		in[id] = struct{}{}
	}
	out := make(map[string]struct{})
	for k := range s.rows {
		if _, ok := in[k.LocationID]; ok {
			out[k.ProductID] = struct{}{}
		}
	}
	return out
}

// Aggregator calcula cantidades efectivas sobre el grafo de ubicaciones (solo lectura).
type Aggregator struct {
	graph *LocationGraph
	snap  *Snapshot
}

// NewAggregator construye el agregador sobre una instantánea.
func NewAggregator(graph *LocationGraph, snap *Snapshot) *Aggregator {
	return &Aggregator{graph: graph, snap: snap}
}

// EffectiveQuantity cantidad efectiva de un producto en un nodo:
// sub-ubicación => su fila; principal => su fila + filas de sus hijos; cliente => no aplicable.
func (a *Aggregator) EffectiveQuantity(productID, locationID string) (Quantity, error) {
	n, err := a.graph.MustExist(locationID)
	if err != nil {
		return Quantity{}, err
	}
	if n.IsCustomer() {
		return NotApplicable(), nil
	}
	total := a.snap.Quantity(productID, locationID)
	if n.IsMain() {
		for _, child := range a.graph.children[locationID] {
			total += a.snap.Quantity(productID, child)
		}
	}
	return Of(total), nil
}

// EffectiveQuantityOf suma sobre la selección normalizada: una sub-ubicación cuyo padre
// está seleccionado no se vuelve a sumar. Si solo hay clientes el resultado no es aplicable.
func (a *Aggregator) EffectiveQuantityOf(productID string, locationIDs []string) (Quantity, error) {
	norm, err := a.graph.Normalize(locationIDs)
	if err != nil {
		return Quantity{}, err
	}
	result := NotApplicable()
	for _, id := range norm {
		q, err := a.EffectiveQuantity(productID, id)
		if err != nil {
			return Quantity{}, err
		}
		if !q.Applicable {
			continue
		}
		result.Applicable = true
		result.Value += q.Value
	}
	return result, nil
}
