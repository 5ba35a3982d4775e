// Package webhook delega la agenda de notificaciones a un push gateway HTTP.
//
//	PUT    {base}/notifications/{id}   programa o reemplaza
//	DELETE {base}/notifications/{id}   cancela
//	DELETE {base}/notifications        cancela todo
//	GET    {base}/notifications/count  {"pending": n}
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pet-care-tracker/internal/platform/httpclient"
	"pet-care-tracker/internal/ports/notify"
)

type Notifier struct {
	c *httpclient.Client
}

func New(baseURL, token string, timeout time.Duration) (*Notifier, error) {
	if baseURL == "" {
		return nil, errors.New("webhook: base url is required")
	}
	c, err := httpclient.New(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	if token != "" {
		c.Header["Authorization"] = "Bearer " + token
	}
	return &Notifier{c: c}, nil
}

type scheduleRequest struct {
	Payload   notify.Payload `json:"payload"`
	TriggerAt time.Time      `json:"trigger_at"`
	Repeating bool           `json:"repeating"`
}

type countResponse struct {
	Pending int `json:"pending"`
}

func (n *Notifier) Schedule(ctx context.Context, id string, p notify.Payload, trigger time.Time, repeating bool) error {
	req := scheduleRequest{Payload: p, TriggerAt: trigger.UTC(), Repeating: repeating}
	if err := n.c.DoJSON(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("webhook schedule %s: %w", id, err)
	}
	return nil
}

func (n *Notifier) Cancel(ctx context.Context, id string) error {
	err := n.c.DoJSON(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
	var he *httpclient.HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("webhook cancel %s: %w", id, err)
	}
	return nil
}

func (n *Notifier) CancelAll(ctx context.Context) error {
	if err := n.c.DoJSON(ctx, http.MethodDelete, "/notifications", nil, nil); err != nil {
		return fmt.Errorf("webhook cancel all: %w", err)
	}
	return nil
}

func (n *Notifier) PendingCount(ctx context.Context) (int, error) {
	var out countResponse
	if err := n.c.DoJSON(ctx, http.MethodGet, "/notifications/count", nil, &out); err != nil {
		return 0, fmt.Errorf("webhook count: %w", err)
	}
	return out.Pending, nil
}
