package service

import (
	"context"
	"database/sql"
	"sort"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
)

func (f *fakeProducts) ListByAttraction(_ context.Context, attractionID int) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.products {
		if p.IsActive && p.AttractionID != nil && *p.AttractionID == attractionID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	p.ID = len(f.products) + 1
	p.IsActive = true
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	cur, ok := f.products[p.ID]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsActive = cur.IsActive
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Deactivate(_ context.Context, id int) error {
	p, ok := f.products[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.IsActive = false
	return nil
}

func (f *fakeAttractions) List(_ context.Context, includeInactive bool) ([]models.Attraction, error) {
	out := []models.Attraction{}
	for _, a := range f.items {
		if includeInactive || a.IsActive {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAttractions) Create(_ context.Context, a *models.Attraction) error {
	a.ID = len(f.items) + 1
	a.IsActive = true
	cp := *a
	f.items[a.ID] = &cp
	return nil
}

func (f *fakeAttractions) Update(_ context.Context, a *models.Attraction) error {
	cur, ok := f.items[a.ID]
	if !ok {
		return sql.ErrNoRows
	}
	a.IsActive = cur.IsActive
	cp := *a
	f.items[a.ID] = &cp
	return nil
}

func (f *fakeAttractions) Deactivate(_ context.Context, id int) error {
	a, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.IsActive = false
	return nil
}

type fakeOperators struct {
	items map[int]*models.Operator
}

func newFakeOperators() *fakeOperators {
	return &fakeOperators{items: map[int]*models.Operator{}}
}

func (f *fakeOperators) GetByUsername(_ context.Context, username string) (*models.Operator, error) {
	for _, op := range f.items {
		if op.Username == username {
			cp := *op
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOperators) GetByID(_ context.Context, id int) (*models.Operator, error) {
	op, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *op
	return &cp, nil
}

func (f *fakeOperators) ListActive(context.Context) ([]models.Operator, error) {
	out := []models.Operator{}
	for _, op := range f.items {
		if op.IsActive {
			out = append(out, *op)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeOperators) Count(context.Context) (int, error) { return len(f.items), nil }

func (f *fakeOperators) Create(_ context.Context, op *models.Operator) error {
	for _, cur := range f.items {
		if cur.Username == op.Username {
			return repository.ErrDuplicateKey
		}
	}
	op.ID = len(f.items) + 1
	op.IsActive = true
	cp := *op
	f.items[op.ID] = &cp
	return nil
}

func (f *fakeOperators) Deactivate(_ context.Context, id int) error {
	op, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	op.IsActive = false
	return nil
}
