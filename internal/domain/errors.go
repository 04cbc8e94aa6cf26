package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrValidation          = errors.New("validación fallida")
	ErrInvalidState        = errors.New("estado inválido para la operación")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia: el stock cambió desde la última lectura")
	ErrNotApplicable       = errors.New("cantidad no aplicable")
)

// Códigos de validación usados por los flujos de movimiento.
const (
	CodeMissingLocation      = "MISSING_LOCATION"
	CodeMissingSupplier      = "MISSING_SUPPLIER"
	CodeSingleTarget         = "SINGLE_TARGET_REQUIRED"
	CodeCustomerNotAllowed   = "CUSTOMER_NOT_ALLOWED"
	CodeSingleDestination    = "SINGLE_DESTINATION_REQUIRED"
	CodeOverlappingLocations = "OVERLAPPING_LOCATIONS"
	CodeUnknownLocation      = "UNKNOWN_LOCATION"
	CodeEmptySelection       = "EMPTY_SELECTION"
	CodeZeroQuantity         = "ZERO_QUANTITY"
	CodeNegativeQuantity     = "NEGATIVE_QUANTITY"
	CodeMissingReason        = "MISSING_REASON"
	CodeUnknownReason        = "UNKNOWN_REASON"
	CodeExceedsAvailable     = "QUANTITY_EXCEEDS_AVAILABLE"
	CodeExceedsStock         = "QUANTITY_EXCEEDS_STOCK"
	CodeItemLocation         = "INVALID_ITEM_LOCATION"
)

// ValidationError describe una regla violada al avanzar de paso o al confirmar.
type ValidationError struct {
	Code      string
	Field     string
	ProductID string // vacío si la regla no es de un ítem
	Message   string
}

func (e ValidationError) Error() string {
	if e.ProductID != "" {
		return e.Code + " (" + e.ProductID + "): " + e.Message
	}
	return e.Code + ": " + e.Message
}

// Is permite errors.Is(err, ErrValidation).
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors lista de violaciones; nunca se aplica parcialmente.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, ErrValidation).
func (v ValidationErrors) Is(target error) bool { return target == ErrValidation }

// HasCode indica si alguna violación tiene el código dado.
func (v ValidationErrors) HasCode(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// OrNil devuelve nil cuando no hay violaciones (evita interfaces no-nil con slice vacío).
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
