package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mariano55555/bodega-sub009/internal/domain"
	"github.com/mariano55555/bodega-sub009/internal/domain/entity"
	"github.com/mariano55555/bodega-sub009/internal/domain/repository"
)

type documentRepo struct{ t *tx }

var _ repository.DocumentRepository = documentRepo{}

func (r documentRepo) get(id string) (*entity.Document, bool) {
	if d, ok := r.t.documents[id]; ok {
		return d.Clone(), true
	}
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	d, ok := r.t.s.documents[id]
	return d.Clone(), ok
}

func (r documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if _, ok := r.get(doc.ID); ok {
		return fmt.Errorf("documento %s: %w", doc.ID, domain.ErrDuplicate)
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	r.t.documents[doc.ID] = doc.Clone()
	r.t.newDocs[doc.ID] = true
	return r.t.flush()
}

func (r documentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	d, ok := r.get(id)
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (r documentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	if err := r.t.lock(ctx, "doc|"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r documentRepo) Update(ctx context.Context, doc *entity.Document) error {
	if _, ok := r.get(doc.ID); !ok {
		return fmt.Errorf("documento %s: %w", doc.ID, domain.ErrNotFound)
	}
	r.t.documents[doc.ID] = doc.Clone()
	return r.t.flush()
}

func (r documentRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	merged := make(map[string]*entity.Document)
	r.t.s.mu.Lock()
	for id, d := range r.t.s.documents {
		merged[id] = d.Clone()
	}
	r.t.s.mu.Unlock()
	for id, d := range r.t.documents {
		merged[id] = d.Clone()
	}

	out := make([]*entity.Document, 0, len(merged))
	for _, d := range merged {
		if f.Kind != "" && d.Kind != f.Kind {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	return page(out, f.Offset, f.Limit), nil
}

// NextNumber consume el consecutivo de inmediato; un rollback deja un hueco en la numeración.
func (r documentRepo) NextNumber(ctx context.Context, kind entity.DocumentKind, period string) (int64, error) {
	r.t.s.mu.Lock()
	defer r.t.s.mu.Unlock()
	k := string(kind) + "|" + period
	r.t.s.sequences[k]++
	return r.t.s.sequences[k], nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
