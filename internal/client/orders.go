package client

import (
	"context"
	"time"

	"storefront/internal/models"
)

// GetOrders returns every order
func (c *Client) GetOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.List(ctx, models.CollectionOrders, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// AddOrder places an order. New orders start as pending; the server stamps createdAt.
func (c *Client) AddOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	var created models.Order
	if err := c.Create(ctx, models.CollectionOrders, order, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOrderStatus moves an order to status
func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	var updated models.Order
	body := models.Record{"id": id, "status": status}
	if err := c.Update(ctx, models.CollectionOrders, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddAnalyticsEvent records a storefront interaction, stamped now
func (c *Client) AddAnalyticsEvent(ctx context.Context, event models.AnalyticsEvent) (*models.AnalyticsEvent, error) {
	if event.Timestamp == "" {
		event.Timestamp = models.Timestamp(time.Now())
	}

	var created models.AnalyticsEvent
	if err := c.Create(ctx, models.CollectionAnalytics, event, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetAnalyticsEvents returns every analytics event
func (c *Client) GetAnalyticsEvents(ctx context.Context) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	if err := c.List(ctx, models.CollectionAnalytics, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
