// Package seed supplies built-in starter data for known collections and
// persists it the first time an empty collection is read.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"storefront/internal/models"
	"storefront/internal/store"
)

// Seeder maps collection names to their default records
type Seeder struct {
	static  map[string]func() []interface{}
	derived map[string]func() ([]models.Record, error)
}

// New creates a Seeder with the built-in defaults
func New() *Seeder {
	s := &Seeder{
		static: map[string]func() []interface{}{
			models.CollectionPlatforms: func() []interface{} {
				return toAny(defaultPlatforms)
			},
			models.CollectionServices: func() []interface{} {
				return toAny(defaultServices)
			},
			models.CollectionPaymentSettings: func() []interface{} {
				return toAny(defaultPaymentMethods)
			},
			models.CollectionAdminCredentials: func() []interface{} {
				return toAny(defaultAdminCredentials)
			},
		},
	}
	s.derived = map[string]func() ([]models.Record, error){
		models.CollectionPackages:      s.defaultPackages,
		models.CollectionMostRequested: s.defaultMostRequested,
	}
	return s
}

func toAny[T any](items []T) []interface{} {
	out := make([]interface{}, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

// HasDefaults reports whether a collection has built-in data
func (s *Seeder) HasDefaults(name string) bool {
	if _, ok := s.static[name]; ok {
		return true
	}
	_, ok := s.derived[name]
	return ok
}

// Defaults returns a fresh copy of the default records for a collection, or
// an empty slice if it has none.
func (s *Seeder) Defaults(name string) ([]models.Record, error) {
	if build, ok := s.derived[name]; ok {
		return build()
	}
	if items, ok := s.static[name]; ok {
		return toRecords(items())
	}
	return []models.Record{}, nil
}

// Seed persists the defaults of an empty collection and returns them. A
// collection that already holds records is returned unchanged, so seeding
// twice is a no-op. The boolean reports whether anything was written.
func (s *Seeder) Seed(ctx context.Context, st store.Store, name string, current []models.Record) ([]models.Record, bool, error) {
	if len(current) > 0 || !s.HasDefaults(name) {
		return current, false, nil
	}

	defaults, err := s.Defaults(name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build defaults for %s: %w", name, err)
	}
	if len(defaults) == 0 {
		return current, false, nil
	}

	if err := st.WriteCollection(ctx, name, defaults); err != nil {
		return nil, false, err
	}
	return defaults, true, nil
}

// defaultPackages derives tiers for every default service, priced linearly
// from the service's per-1000 price.
func (s *Seeder) defaultPackages() ([]models.Record, error) {
	visible := true
	var pkgs []interface{}
	for _, svc := range defaultServices {
		if svc.Prices == nil {
			continue
		}
		for idx, units := range PackageTiers {
			u := float64(units)
			orderIndex := float64(idx)
			pkgs = append(pkgs, models.PackageOption{
				ID:        fmt.Sprintf("%s-%d", svc.ID, units),
				ServiceID: svc.ID,
				Units:     &u,
				Price: &models.Prices{
					SAR: scalePrice(svc.Prices.SAR, units),
					EGP: scalePrice(svc.Prices.EGP, units),
					USD: scalePrice(svc.Prices.USD, units),
				},
				Visible:    &visible,
				OrderIndex: &orderIndex,
			})
		}
	}
	return toRecords(pkgs)
}

// defaultMostRequested pins the first visible default services
func (s *Seeder) defaultMostRequested() ([]models.Record, error) {
	visible := true
	var list []interface{}
	for _, svc := range defaultServices {
		if len(list) == MostRequestedCount {
			break
		}
		if svc.Visible != nil && !*svc.Visible {
			continue
		}
		position := float64(len(list))
		list = append(list, models.MostRequested{
			ID:        svc.ID,
			ServiceID: svc.ID,
			Visible:   &visible,
			Position:  &position,
		})
	}
	return toRecords(list)
}

// scalePrice converts a per-1000 price to the price of units, rounded to cents
func scalePrice(perThousand float64, units int) float64 {
	return math.Round(perThousand*float64(units)/1000*100) / 100
}

// toRecords converts typed defaults to the generic stored form
func toRecords(items []interface{}) ([]models.Record, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return models.DecodeRecords(data)
}
