package entities

import (
	"context"

	"github.com/dmitrijs2005/admindata/internal/models"
)

// LocationNode is a country, province or city with its children.
type LocationNode struct {
	Record   models.Record
	Children []*LocationNode
}

// Lister returns every record matching its current filters.
type Lister interface {
	GetAllUnbounded(ctx context.Context) ([]models.Record, error)
}

// BuildLocationTree nests provinces under countries (by countryId) and
// cities under provinces (by provinceId). A city without a known province
// hangs directly under its country. Records whose parent is missing are
// dropped. Input order is preserved.
func BuildLocationTree(countries, provinces, cities []models.Record) []*LocationNode {
	roots := make([]*LocationNode, 0, len(countries))
	byCountry := make(map[string]*LocationNode, len(countries))
	for _, c := range countries {
		n := &LocationNode{Record: c}
		roots = append(roots, n)
		byCountry[c.ID()] = n
	}

	byProvince := make(map[string]*LocationNode, len(provinces))
	for _, p := range provinces {
		parent, ok := byCountry[p.String("countryId")]
		if !ok {
			continue
		}
		n := &LocationNode{Record: p}
		parent.Children = append(parent.Children, n)
		byProvince[p.ID()] = n
	}

	for _, c := range cities {
		n := &LocationNode{Record: c}
		if parent, ok := byProvince[c.String("provinceId")]; ok {
			parent.Children = append(parent.Children, n)
			continue
		}
		if parent, ok := byCountry[c.String("countryId")]; ok {
			parent.Children = append(parent.Children, n)
		}
	}
	return roots
}

// LoadLocationTree reads the three entity sets unbounded and builds the tree.
func LoadLocationTree(ctx context.Context, countries, provinces, cities Lister) ([]*LocationNode, error) {
	cs, err := countries.GetAllUnbounded(ctx)
	if err != nil {
		return nil, err
	}
	ps, err := provinces.GetAllUnbounded(ctx)
	if err != nil {
		return nil, err
	}
	ts, err := cities.GetAllUnbounded(ctx)
	if err != nil {
		return nil, err
	}
	return BuildLocationTree(cs, ps, ts), nil
}
