package inventory

import (
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// ItemRule regla de validación sobre un ítem; devuelve nil si el ítem la cumple.
type ItemRule func(item entity.MovementItem) *domain.ValidationError

// SelectionSet lista de trabajo de un borrador: un ítem por producto, en orden de inserción.
// No es segura para uso concurrente; el motor la protege con el candado del borrador.
type SelectionSet struct {
	items []entity.MovementItem
	index map[string]int
}

// NewSelectionSet crea una selección vacía.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{index: make(map[string]int)}
}

// Add agrega un ítem; si el producto ya estaba lo reemplaza conservando su posición.
func (s *SelectionSet) Add(item entity.MovementItem) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: ítem sin producto", domain.ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return domain.ValidationErrors{negativeQuantity(item.ProductID)}
	}
	if i, ok := s.index[item.ProductID]; ok {
		s.items[i] = item
		return nil
	}
	s.index[item.ProductID] = len(s.items)
	s.items = append(s.items, item)
	return nil
}

// Remove quita el ítem del producto; devuelve false si no estaba.
func (s *SelectionSet) Remove(productID string) bool {
	i, ok := s.index[productID]
	if !ok {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ProductID] = j
	}
	return true
}

// Get devuelve una copia del ítem del producto.
func (s *SelectionSet) Get(productID string) (entity.MovementItem, bool) {
	i, ok := s.index[productID]
	if !ok {
		return entity.MovementItem{}, false
	}
	return s.items[i], true
}

// Update aplica fn sobre el ítem del producto en sitio.
func (s *SelectionSet) Update(productID string, fn func(item *entity.MovementItem)) error {
	i, ok := s.index[productID]
	if !ok {
		return fmt.Errorf("%w: producto %s no está en la selección", domain.ErrNotFound, productID)
	}
	fn(&s.items[i])
	return nil
}

// SetQuantity fija la magnitud propuesta del ítem. Las cantidades negativas se rechazan.
func (s *SelectionSet) SetQuantity(productID string, quantity int64) error {
	if quantity < 0 {
		return domain.ValidationErrors{negativeQuantity(productID)}
	}
	return s.Update(productID, func(item *entity.MovementItem) { item.Quantity = quantity })
}

// SetReason fija el motivo (catálogo o texto libre) de un ítem de ajuste.
func (s *SelectionSet) SetReason(productID, reasonID, customReason string) error {
	return s.Update(productID, func(item *entity.MovementItem) {
		item.ReasonID = reasonID
		item.CustomReason = customReason
	})
}

// Clear vacía la selección.
func (s *SelectionSet) Clear() {
	s.items = nil
	s.index = make(map[string]int)
}

// Clone copia la selección; los cambios sobre la copia no afectan al original.
func (s *SelectionSet) Clone() *SelectionSet {
	out := &SelectionSet{
		items: append([]entity.MovementItem(nil), s.items...),
		index: make(map[string]int, len(s.index)),
	}
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// Len cantidad de ítems.
func (s *SelectionSet) Len() int { return len(s.items) }

// Items devuelve una copia de los ítems en orden.
func (s *SelectionSet) Items() []entity.MovementItem {
	return append([]entity.MovementItem(nil), s.items...)
}

// Validate evalúa todas las reglas sobre todos los ítems y devuelve todas las violaciones.
// Una selección vacía siempre es inválida.
func (s *SelectionSet) Validate(rules ...ItemRule) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if len(s.items) == 0 {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeEmptySelection,
			Field:   "items",
			Message: "debe seleccionar al menos un producto",
		})
		return errs
	}
	for _, item := range s.items {
		for _, rule := range rules {
			if v := rule(item); v != nil {
				errs = append(errs, *v)
			}
		}
	}
	return errs
}

func negativeQuantity(productID string) domain.ValidationError {
	return domain.ValidationError{
		Code:      domain.CodeNegativeQuantity,
		Field:     "quantity",
		ProductID: productID,
		Message:   "la cantidad no puede ser negativa",
	}
}
