package stock

import (
	"strings"
	"unicode"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold normaliza para búsqueda: sin tildes y sin distinguir mayúsculas ("Café" == "cafe").
// Los transformadores de x/text guardan estado, por eso se crean en cada llamada.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

type matcher struct {
	search   string
	category string
}

func newMatcher(f dto.AvailabilityFilter) matcher {
	return matcher{search: fold(strings.TrimSpace(f.Search)), category: f.Category}
}

func (m matcher) match(p *entity.Product) bool {
	if m.category != "" && p.Category != m.category {
		return false
	}
	if m.search == "" {
		return true
	}
	return strings.Contains(fold(p.Name), m.search) || strings.Contains(fold(p.SKU), m.search)
}
