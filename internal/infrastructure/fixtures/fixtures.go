// Package fixtures carga catálogos y stock inicial desde un archivo JSON.
// El stock entra al libro siempre por movimientos Receive, nunca escribiendo filas directamente.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// File estructura del archivo de fixtures.
type File struct {
	Actor     string     `json:"actor"`
	Locations []Location `json:"locations"`
	Customers []Customer `json:"customers"`
	Products  []Product  `json:"products"`
	Reasons   []Reason   `json:"reasons"`
	Stock     []Stock    `json:"stock"`
}

type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	ParentID string `json:"parent_id"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

type Product struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
}

type Reason struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Stock línea de stock inicial; el primer registro de cada producto es su stock de apertura.
type Stock struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Quantity   int64  `json:"quantity"`
}

// decoderFor devuelve el decodificador del juego de caracteres; nil para UTF-8.
func decoderFor(charset string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	}
	return nil, fmt.Errorf("%w: juego de caracteres %q", domain.ErrInvalidInput, charset)
}

// Parse lee el JSON en el juego de caracteres indicado (utf-8, iso-8859-1 o windows-1252).
func Parse(r io.Reader, charset string) (*File, error) {
	dec, err := decoderFor(charset)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec)
	}
	var f File
	jd := json.NewDecoder(r)
	jd.DisallowUnknownFields()
	if err := jd.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// ParseFile abre y lee un archivo de fixtures.
func ParseFile(path, charset string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer fh.Close()
	return Parse(fh, charset)
}

// Engine operaciones del motor que usa la carga.
type Engine interface {
	CreateProduct(ctx context.Context, in dto.CreateProductInput) (*entity.Product, *entity.MovementRecord, error)
	CreateDraft(ctx context.Context, in dto.DraftInput) (*entity.MovementRecord, error)
	SetSelection(ctx context.Context, draftID string, items []dto.SelectionInput) error
	AdvanceStep(ctx context.Context, draftID string) (entity.Step, error)
	Commit(ctx context.Context, draftID string) (*entity.MovementRecord, error)
	Cancel(ctx context.Context, draftID string) (*entity.MovementRecord, error)
}

// Catalogs repositorios de catálogo que se pueblan directamente (no son parte del libro).
type Catalogs struct {
	Locations repository.LocationRepository
	Customers repository.CustomerRepository
	Reasons   repository.ReasonRepository
}

// Result conteo de lo cargado.
type Result struct {
	Locations int
	Customers int
	Products  int
	Reasons   int
	Movements int
}

// Apply carga el archivo: catálogos, productos con su stock de apertura y un Receive por
// ubicación con el resto de las líneas de stock. Los duplicados de catálogo se omiten.
func Apply(ctx context.Context, f *File, cat Catalogs, eng Engine, now func() time.Time) (*Result, error) {
	if now == nil {
		now = time.Now
	}
	res := &Result{}
	ts := now()

	// Principales antes que sub-ubicaciones para respetar la clave foránea parent_id.
	locs := append([]Location(nil), f.Locations...)
	sort.SliceStable(locs, func(i, j int) bool { return locs[i].ParentID == "" && locs[j].ParentID != "" })
	for _, l := range locs {
		err := cat.Locations.Create(ctx, &entity.Location{
			ID: l.ID, Name: l.Name, Kind: entity.LocationKind(strings.ToUpper(l.Kind)), ParentID: l.ParentID,
			CreatedAt: ts, UpdatedAt: ts,
		})
		if skip, err := duplicate(err); err != nil {
			return res, fmt.Errorf("ubicación %s: %w", l.ID, err)
		} else if !skip {
			res.Locations++
		}
	}
	for _, c := range f.Customers {
		err := cat.Customers.Create(ctx, &entity.Customer{ID: c.ID, Name: c.Name, TaxID: c.TaxID, CreatedAt: ts, UpdatedAt: ts})
		if skip, err := duplicate(err); err != nil {
			return res, fmt.Errorf("cliente %s: %w", c.ID, err)
		} else if !skip {
			res.Customers++
		}
	}
	for _, r := range f.Reasons {
		err := cat.Reasons.Create(ctx, &entity.AdjustmentReason{ID: r.ID, Name: r.Name, Description: r.Description})
		if skip, err := duplicate(err); err != nil {
			return res, fmt.Errorf("motivo %s: %w", r.ID, err)
		} else if !skip {
			res.Reasons++
		}
	}

	opening := make(map[string]Stock)
	var rest []Stock
	for _, s := range f.Stock {
		if s.Quantity <= 0 {
			continue
		}
		if _, ok := opening[s.ProductID]; !ok {
			opening[s.ProductID] = s
			continue
		}
		rest = append(rest, s)
	}

	for _, p := range f.Products {
		in := dto.CreateProductInput{
			ID: p.ID, SKU: p.SKU, Name: p.Name, Category: p.Category, Image: p.Image,
			Price: p.Price, Cost: p.Cost, Actor: f.Actor,
		}
		if s, ok := opening[p.ID]; ok {
			in.InitialLocationID = s.LocationID
			in.InitialQuantity = s.Quantity
		}
		_, rec, err := eng.CreateProduct(ctx, in)
		if skip, err := duplicate(err); err != nil {
			return res, fmt.Errorf("producto %s: %w", p.SKU, err)
		} else if skip {
			continue
		}
		res.Products++
		if rec != nil {
			res.Movements++
		}
	}

	n, err := receiveRest(ctx, eng, f.Actor, rest)
	res.Movements += n
	return res, err
}

// receiveRest agrupa las líneas por ubicación y confirma un Receive por grupo.
func receiveRest(ctx context.Context, eng Engine, actor string, lines []Stock) (int, error) {
	byLocation := make(map[string]map[string]int64)
	var order []string
	for _, s := range lines {
		items, ok := byLocation[s.LocationID]
		if !ok {
			items = make(map[string]int64)
			byLocation[s.LocationID] = items
			order = append(order, s.LocationID)
		}
		items[s.ProductID] += s.Quantity
	}

	count := 0
	for _, loc := range order {
		var sel []dto.SelectionInput
		for pid, q := range byLocation[loc] {
			sel = append(sel, dto.SelectionInput{ProductID: pid, Quantity: q, LocationID: loc})
		}
		sort.Slice(sel, func(i, j int) bool { return sel[i].ProductID < sel[j].ProductID })
		if err := receive(ctx, eng, actor, loc, sel); err != nil {
			return count, fmt.Errorf("stock en %s: %w", loc, err)
		}
		count++
	}
	return count, nil
}

func receive(ctx context.Context, eng Engine, actor, location string, sel []dto.SelectionInput) error {
	d, err := eng.CreateDraft(ctx, dto.DraftInput{
		Type:                   entity.MovementTypeReceive,
		Actor:                  actor,
		Note:                   "carga inicial",
		SupplierID:             entity.SupplierOpening,
		DestinationLocationIDs: []string{location},
	})
	if err != nil {
		return err
	}
	steps := []func() error{
		func() error { _, err := eng.AdvanceStep(ctx, d.ID); return err },
		func() error { return eng.SetSelection(ctx, d.ID, sel) },
		func() error { _, err := eng.AdvanceStep(ctx, d.ID); return err },
		func() error { _, err := eng.Commit(ctx, d.ID); return err },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			if _, cerr := eng.Cancel(ctx, d.ID); cerr != nil {
				return errors.Join(err, fmt.Errorf("cancelar borrador %s: %w", d.ID, cerr))
			}
			return err
		}
	}
	return nil
}

// duplicate indica si err es un duplicado (se omite); cualquier otro error se devuelve.
func duplicate(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if errors.Is(err, domain.ErrDuplicate) {
		return true, nil
	}
	return false, err
}
