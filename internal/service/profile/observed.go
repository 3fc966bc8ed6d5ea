package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/janisto/cv-builder/internal/platform/events"
	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/metrics"
)

// Observed decorates a Service with operation metrics, audit logging for
// mutations and domain event publishing. Publish failures are logged and never
// change the result of the wrapped call.
type Observed struct {
	next    Service
	metrics *metrics.Metrics
	events  events.Publisher
	now     func() time.Time
}

// NewObserved wraps next. A nil publisher disables events.
func NewObserved(next Service, m *metrics.Metrics, pub events.Publisher) *Observed {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Observed{next: next, metrics: m, events: pub, now: time.Now}
}

func (o *Observed) observe(op string, err error) {
	o.metrics.ObserveOperation(op, categorizeError(err))
}

func (o *Observed) audit(ctx context.Context, action, ownerID, resourceID string, err error) {
	result := "success"
	var details map[string]any
	if err != nil {
		result = "failure"
		details = map[string]any{"error": categorizeError(err)}
	}
	applog.LogAuditEvent(ctx, action, ownerID, "profile", resourceID, result, details)
}

func (o *Observed) publish(ctx context.Context, eventType string, p *Profile) {
	err := o.events.Publish(ctx, events.Event{
		Type:       eventType,
		OwnerID:    p.OwnerID,
		ProfileID:  p.ID,
		Username:   p.Username,
		IsPublic:   p.IsPublic,
		OccurredAt: o.now().UTC(),
	})
	o.metrics.ObserveEvent(eventType, err)
	if err != nil {
		applog.LogError(ctx, "event publish failed", err,
			slog.String("event.type", eventType),
			slog.String("owner_id", p.OwnerID))
	}
}

func (o *Observed) Create(ctx context.Context, ownerID string, params CreateParams) (*Profile, error) {
	p, err := o.next.Create(ctx, ownerID, params)
	o.observe("create", err)

	resourceID := params.Username
	if p != nil {
		resourceID = p.ID
	}
	o.audit(ctx, "create", ownerID, resourceID, err)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, events.TypeProfileCreated, p)
	return p, nil
}

func (o *Observed) Get(ctx context.Context, ownerID string) (*Profile, error) {
	p, err := o.next.Get(ctx, ownerID)
	o.observe("get", err)
	return p, err
}

func (o *Observed) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	p, err := o.next.GetByUsername(ctx, username)
	o.observe("get_by_username", err)
	return p, err
}

func (o *Observed) UsernameExists(ctx context.Context, username string) (bool, error) {
	ok, err := o.next.UsernameExists(ctx, username)
	o.observe("username_exists", err)
	return ok, err
}

func (o *Observed) Replace(ctx context.Context, ownerID string, params ReplaceParams) (*Profile, error) {
	wasPublic := false
	if prev, err := o.next.Get(ctx, ownerID); err == nil {
		wasPublic = prev.IsPublic
	}

	p, err := o.next.Replace(ctx, ownerID, params)
	o.observe("replace", err)

	resourceID := ""
	if p != nil {
		resourceID = p.ID
	}
	o.audit(ctx, "replace", ownerID, resourceID, err)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, events.TypeProfileUpdated, p)
	switch {
	case p.IsPublic && !wasPublic:
		o.publish(ctx, events.TypeProfilePublished, p)
	case !p.IsPublic && wasPublic:
		o.publish(ctx, events.TypeProfileUnpublished, p)
	}
	return p, nil
}

func (o *Observed) ListPublic(ctx context.Context) ([]*Profile, error) {
	list, err := o.next.ListPublic(ctx)
	o.observe("list_public", err)
	return list, err
}

var _ Service = (*Observed)(nil)
