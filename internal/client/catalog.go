package client

import (
	"context"
	"net/url"
	"sort"

	"storefront/internal/models"
)

// GetPlatforms returns every platform
func (c *Client) GetPlatforms(ctx context.Context) ([]models.Platform, error) {
	var platforms []models.Platform
	if err := c.List(ctx, models.CollectionPlatforms, nil, &platforms); err != nil {
		return nil, err
	}
	return platforms, nil
}

// GetServices returns every service
func (c *Client) GetServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	if err := c.List(ctx, models.CollectionServices, nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// GetServicesByPlatform returns the services of one platform
func (c *Client) GetServicesByPlatform(ctx context.Context, platformID string) ([]models.Service, error) {
	var services []models.Service
	filters := url.Values{"platform": {platformID}}
	if err := c.List(ctx, models.CollectionServices, filters, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// AddService creates a service; an empty ID is generated by the server
func (c *Client) AddService(ctx context.Context, svc models.Service) (*models.Service, error) {
	var created models.Service
	if err := c.Create(ctx, models.CollectionServices, svc, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateService merges updates onto the service with id
func (c *Client) UpdateService(ctx context.Context, id string, updates models.Record) (*models.Service, error) {
	var updated models.Service
	if err := c.Update(ctx, models.CollectionServices, withID(id, updates), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteService removes a service. Its packages are left in place.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.Delete(ctx, models.CollectionServices, id)
}

// GetPackages returns every package
func (c *Client) GetPackages(ctx context.Context) ([]models.PackageOption, error) {
	var packages []models.PackageOption
	if err := c.List(ctx, models.CollectionPackages, nil, &packages); err != nil {
		return nil, err
	}
	return packages, nil
}

// GetPackagesByService returns the packages of one service ordered by orderIndex
func (c *Client) GetPackagesByService(ctx context.Context, serviceID string) ([]models.PackageOption, error) {
	var packages []models.PackageOption
	filters := url.Values{"serviceId": {serviceID}}
	if err := c.List(ctx, models.CollectionPackages, filters, &packages); err != nil {
		return nil, err
	}

	sort.SliceStable(packages, func(i, j int) bool {
		return floatOrZero(packages[i].OrderIndex) < floatOrZero(packages[j].OrderIndex)
	})
	return packages, nil
}

// AddPackage creates a package. A missing orderIndex becomes 0.
func (c *Client) AddPackage(ctx context.Context, pkg models.PackageOption) (*models.PackageOption, error) {
	if pkg.OrderIndex == nil {
		zero := 0.0
		pkg.OrderIndex = &zero
	}

	var created models.PackageOption
	if err := c.Create(ctx, models.CollectionPackages, pkg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdatePackage merges updates onto the package with id
func (c *Client) UpdatePackage(ctx context.Context, id string, updates models.Record) (*models.PackageOption, error) {
	var updated models.PackageOption
	if err := c.Update(ctx, models.CollectionPackages, withID(id, updates), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePackage removes a package
func (c *Client) DeletePackage(ctx context.Context, id string) error {
	return c.Delete(ctx, models.CollectionPackages, id)
}

// GetMostRequested returns the highlight list ordered by position
func (c *Client) GetMostRequested(ctx context.Context) ([]models.MostRequested, error) {
	var entries []models.MostRequested
	if err := c.List(ctx, models.CollectionMostRequested, nil, &entries); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return floatOrZero(entries[i].Position) < floatOrZero(entries[j].Position)
	})
	return entries, nil
}

// SetMostRequested replaces the highlight list. Entries are keyed by service
// id and positioned in list order; entries missing from list are removed.
// This takes one request per changed entry and is not atomic.
func (c *Client) SetMostRequested(ctx context.Context, list []models.MostRequested) error {
	current, err := c.GetMostRequested(ctx)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(current))
	for _, entry := range current {
		existing[entry.ID] = true
	}

	keep := make(map[string]bool, len(list))
	for i, entry := range list {
		position := float64(i)
		visible := true
		if entry.Visible != nil {
			visible = *entry.Visible
		}
		record := models.Record{
			"id":        entry.ServiceID,
			"serviceId": entry.ServiceID,
			"visible":   visible,
			"position":  position,
		}
		keep[entry.ServiceID] = true

		if existing[entry.ServiceID] {
			err = c.Update(ctx, models.CollectionMostRequested, record, nil)
		} else {
			err = c.Create(ctx, models.CollectionMostRequested, record, nil)
		}
		if err != nil {
			return err
		}
	}

	for _, entry := range current {
		if keep[entry.ID] {
			continue
		}
		if err := c.Delete(ctx, models.CollectionMostRequested, entry.ID); err != nil && !IsNotFound(err) {
			return err
		}
	}
	return nil
}

// withID returns a copy of updates carrying id
func withID(id string, updates models.Record) models.Record {
	body := updates.Clone()
	body["id"] = id
	return body
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
