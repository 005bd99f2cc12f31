package nmc

import (
	"context"
	"fmt"
	"time"

	"nmc-mcp/internal/client"
	"nmc-mcp/pkg/logging"
)

const notificationBatch = 50

// NotificationsAPI reads NMC notifications. The API only supports
// limit/offset paging and returns newest first.
type NotificationsAPI struct{ doer client.Doer }

// List returns one page.
func (a *NotificationsAPI) List(ctx context.Context, limit, offset int) (Page[Notification], error) {
	if limit <= 0 {
		limit = notificationBatch
	}
	return getPage[Notification](ctx, a.doer, NotificationsPath, limit, offset)
}

// ListAll follows pagination up to max notifications (default 1000).
func (a *NotificationsAPI) ListAll(ctx context.Context, max int) ([]Notification, error) {
	if max <= 0 {
		max = defaultNotificationMax
	}
	return listAll[Notification](ctx, a.doer, NotificationsPath, max)
}

func (a *NotificationsAPI) Get(ctx context.Context, id int64) (Notification, error) {
	var n Notification
	err := getJSON(ctx, a.doer, fmt.Sprintf("%s%d/", NotificationsPath, id), nil, &n)
	return n, err
}

// Since returns notifications dated at or after since, reading pages until a
// page holds only older notifications or max have been collected.
// Notifications with unparseable dates are kept.
func (a *NotificationsAPI) Since(ctx context.Context, since time.Time, max int) ([]Notification, error) {
	if max <= 0 {
		max = defaultNotificationMax
	}

	var out []Notification
	offset := 0
	for len(out) < max {
		page, err := a.List(ctx, notificationBatch, offset)
		if err != nil {
			return nil, err
		}
		older := 0
		for _, n := range page.Items {
			if t, ok := n.Time(); ok && t.Before(since) {
				older++
				continue
			}
			out = append(out, n)
		}
		logging.Debug("NMC", "Notification batch at offset %d: %d items, %d outside window", offset, len(page.Items), older)

		if len(page.Items) == 0 || page.Next == "" || older == len(page.Items) {
			break
		}
		offset += len(page.Items)
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}
