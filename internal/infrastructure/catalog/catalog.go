// Package catalog carga productos y bodegas desde un CSV exportado de otro sistema.
// El núcleo de inventario no administra el catálogo; solo lo lee.
//
// Formato, una fila por registro (la primera columna indica el tipo):
//
//	producto,<id>,<sku>,<nombre>,<unidad>,<mínimo>,<máximo opcional>
//	bodega,<id>,<nombre>,<dirección>
//
// Las líneas vacías y las que empiezan con # se ignoran.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

// Catalog productos y bodegas leídos del archivo.
type Catalog struct {
	Products   []entity.Product
	Warehouses []entity.Warehouse
}

// Parse lee el CSV. charset "latin1" (o "iso-8859-1") decodifica exportaciones heredadas; vacío = UTF-8.
func Parse(r io.Reader, charset string) (*Catalog, error) {
	switch strings.ToLower(charset) {
	case "", "utf8", "utf-8":
	case "latin1", "iso-8859-1", "iso8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		r = transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return nil, fmt.Errorf("charset %q no soportado: %w", charset, domain.ErrInvalidInput)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	now := time.Now().UTC()
	out := &Catalog{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catálogo: %w", err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		row, _ := cr.FieldPos(0)
		switch strings.ToLower(strings.TrimSpace(rec[0])) {
		case "producto":
			p, err := parseProduct(rec)
			if err != nil {
				return nil, fmt.Errorf("catálogo fila %d: %w", row, err)
			}
			p.CreatedAt, p.UpdatedAt = now, now
			out.Products = append(out.Products, p)
		case "bodega":
			if len(rec) < 3 || strings.TrimSpace(rec[1]) == "" {
				return nil, fmt.Errorf("catálogo fila %d: bodega requiere id y nombre: %w", row, domain.ErrInvalidInput)
			}
			w := entity.Warehouse{ID: strings.TrimSpace(rec[1]), Name: strings.TrimSpace(rec[2]), Active: true, CreatedAt: now, UpdatedAt: now}
			if len(rec) > 3 {
				w.Address = strings.TrimSpace(rec[3])
			}
			out.Warehouses = append(out.Warehouses, w)
		default:
			return nil, fmt.Errorf("catálogo fila %d: tipo %q desconocido: %w", row, rec[0], domain.ErrInvalidInput)
		}
	}
	return out, nil
}

func parseProduct(rec []string) (entity.Product, error) {
	if len(rec) < 6 || strings.TrimSpace(rec[1]) == "" {
		return entity.Product{}, fmt.Errorf("producto requiere id, sku, nombre, unidad y mínimo: %w", domain.ErrInvalidInput)
	}
	minimum, err := decimal.NewFromString(strings.TrimSpace(rec[5]))
	if err != nil || minimum.IsNegative() {
		return entity.Product{}, fmt.Errorf("mínimo %q inválido: %w", rec[5], domain.ErrInvalidInput)
	}
	p := entity.Product{
		ID:           strings.TrimSpace(rec[1]),
		SKU:          strings.TrimSpace(rec[2]),
		Name:         strings.TrimSpace(rec[3]),
		UnitMeasure:  strings.TrimSpace(rec[4]),
		MinimumStock: minimum,
	}
	if len(rec) > 6 && strings.TrimSpace(rec[6]) != "" {
		maximum, err := decimal.NewFromString(strings.TrimSpace(rec[6]))
		if err != nil || maximum.LessThan(minimum) {
			return entity.Product{}, fmt.Errorf("máximo %q inválido: %w", rec[6], domain.ErrInvalidInput)
		}
		p.MaximumStock = &maximum
	}
	return p, nil
}

// Result cuántos registros se crearon y cuántos ya existían.
type Result struct {
	ProductsCreated   int
	WarehousesCreated int
	Skipped           int
}

// Load crea en repos los registros que aún no existen. Los existentes no se modifican.
func Load(ctx context.Context, repos repository.TxRepos, c *Catalog) (Result, error) {
	var res Result
	for i := range c.Warehouses {
		w := c.Warehouses[i]
		existing, err := repos.Warehouses.GetByID(ctx, w.ID)
		if err != nil {
			return res, err
		}
		if existing != nil {
			res.Skipped++
			continue
		}
		if err := repos.Warehouses.Create(ctx, &w); err != nil {
			return res, fmt.Errorf("bodega %s: %w", w.ID, err)
		}
		res.WarehousesCreated++
	}
	for i := range c.Products {
		p := c.Products[i]
		existing, err := repos.Products.GetByID(ctx, p.ID)
		if err != nil {
			return res, err
		}
		if existing != nil {
			res.Skipped++
			continue
		}
		if err := repos.Products.Create(ctx, &p); err != nil {
			return res, fmt.Errorf("producto %s: %w", p.ID, err)
		}
		res.ProductsCreated++
	}
	return res, nil
}
