package client

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

// DefaultWatchInterval is the polling interval used when Watch gets zero
const DefaultWatchInterval = 2 * time.Second

// Watch polls a collection every interval and calls fn with the records on
// the first successful fetch and whenever they change. Fetch errors are
// logged and retried on the next tick. Watch returns when ctx is done.
func (c *Client) Watch(ctx context.Context, collection string, interval time.Duration, fn func([]models.Record)) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []byte
	for {
		var records []models.Record
		if err := c.List(ctx, collection, nil, &records); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.WithFields(logrus.Fields{
				"collection": collection,
				"error":      err,
			}).Warn("Watch poll failed")
		} else if current, err := json.Marshal(records); err == nil && (last == nil || !bytes.Equal(current, last)) {
			last = current
			fn(records)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
