package inventory

import (
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// LocationGraph jerarquía de dos niveles (ubicación principal -> sub-ubicaciones) más clientes.
// Es una instantánea de solo lectura; se reconstruye a partir de los repositorios.
type LocationGraph struct {
	nodes    map[string]entity.Node
	children map[string][]string
	order    []string
}

// NewLocationGraph construye el grafo validando la profundidad máxima de 2 niveles
// y que los clientes no compartan ID con ninguna ubicación.
func NewLocationGraph(locations []*entity.Location, customers []*entity.Customer) (*LocationGraph, error) {
	g := &LocationGraph{
		nodes:    make(map[string]entity.Node, len(locations)+len(customers)),
		children: make(map[string][]string),
	}
	for _, l := range locations {
		if l == nil {
			continue
		}
		if l.ID == "" {
			return nil, fmt.Errorf("%w: ubicación sin id", domain.ErrInvalidInput)
		}
		if _, dup := g.nodes[l.ID]; dup {
			return nil, fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, l.ID)
		}
		if l.Kind == entity.LocationKindCustomer {
			return nil, fmt.Errorf("%w: la ubicación %s no puede ser de tipo cliente", domain.ErrInvalidInput, l.ID)
		}
		g.nodes[l.ID] = entity.Node{ID: l.ID, Name: l.Name, Kind: l.Kind, ParentID: l.ParentID}
		g.order = append(g.order, l.ID)
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if n.ParentID == "" {
			continue
		}
		parent, ok := g.nodes[n.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: padre %s de %s", domain.ErrNotFound, n.ParentID, id)
		}
		if parent.ParentID != "" {
			return nil, fmt.Errorf("%w: %s cuelga de una sub-ubicación (profundidad máxima 2)", domain.ErrInvalidInput, id)
		}
		g.children[parent.ID] = append(g.children[parent.ID], id)
	}
	for _, c := range customers {
		if c == nil {
			continue
		}
		if _, dup := g.nodes[c.ID]; dup {
			return nil, fmt.Errorf("%w: el cliente %s comparte id con una ubicación", domain.ErrDuplicate, c.ID)
		}
		g.nodes[c.ID] = entity.Node{ID: c.ID, Name: c.Name, Kind: entity.LocationKindCustomer}
		g.order = append(g.order, c.ID)
	}
	return g, nil
}

// Node devuelve el nodo (ubicación o cliente) por ID.
func (g *LocationGraph) Node(id string) (entity.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// MustExist devuelve el nodo o ErrNotFound.
func (g *LocationGraph) MustExist(id string) (entity.Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return entity.Node{}, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, id)
	}
	return n, nil
}

// ChildrenOf devuelve las sub-ubicaciones de una ubicación principal.
// Para sub-ubicaciones y clientes devuelve un conjunto vacío.
func (g *LocationGraph) ChildrenOf(mainLocationID string) ([]string, error) {
	if _, err := g.MustExist(mainLocationID); err != nil {
		return nil, err
	}
	return append([]string(nil), g.children[mainLocationID]...), nil
}

// MainLocations devuelve las ubicaciones principales en orden de carga.
func (g *LocationGraph) MainLocations() []entity.Node {
	var out []entity.Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.IsMain() {
			out = append(out, n)
		}
	}
	return out
}

// Normalize elimina duplicados y descarta sub-ubicaciones cuyo padre también está seleccionado,
// de modo que ninguna fila se cuente dos veces. Conserva el orden de entrada.
func (g *LocationGraph) Normalize(ids []string) ([]string, error) {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, err := g.MustExist(id); err != nil {
			return nil, err
		}
		selected[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if n := g.nodes[id]; n.IsSub() {
			if _, parentSelected := selected[n.ParentID]; parentSelected {
				continue
			}
		}
		out = append(out, id)
	}
	return out, nil
}

// Expand devuelve las filas de libro cubiertas por la selección: cada ubicación principal
// aporta su propia fila y las de sus hijos. Los clientes no aportan filas.
func (g *LocationGraph) Expand(ids []string) ([]string, error) {
	norm, err := g.Normalize(ids)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, id := range norm {
		n := g.nodes[id]
		if n.IsCustomer() {
			continue
		}
		out = append(out, id)
		if n.IsMain() {
			out = append(out, g.children[id]...)
		}
	}
	return out, nil
}

// Covers indica si el nodo id queda cubierto por la selección (directamente o vía su padre).
func (g *LocationGraph) Covers(selection []string, id string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	for _, s := range selection {
		if s == id || (n.ParentID != "" && s == n.ParentID) {
			return true
		}
	}
	return false
}
