package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RefKind names the collection a reference field points into.
type RefKind int

const (
	RefUser RefKind = iota
	RefLead
	RefProperty
)

// Ref is one reference field of a read response, by its JSON name.
type Ref struct {
	Field string
	Kind  RefKind
}

// Reference fields expanded on single-record reads.
var (
	LeadRefs     = []Ref{{"agent", RefUser}}
	CallRefs     = []Ref{{"agent", RefUser}, {"lead", RefLead}}
	TaskRefs     = []Ref{{"agent", RefUser}, {"assignedTo", RefUser}}
	PropertyRefs = []Ref{{"landlord", RefUser}, {"tenant", RefUser}}
	PaymentRefs  = []Ref{{"property", RefProperty}, {"landlord", RefUser}, {"tenant", RefUser}}
	DocumentRefs = []Ref{{"owner", RefUser}, {"property", RefProperty}}
)

// Expander replaces reference IDs in read responses with small embedded
// summaries. It runs after the record itself passed the caller's scope; a
// reference that no longer resolves keeps its raw ID.
type Expander struct {
	users      port.Repository[domain.User]
	leads      port.Repository[domain.Lead]
	properties port.Repository[domain.Property]
	logger     *zap.Logger
}

func NewExpander(users port.Repository[domain.User], leads port.Repository[domain.Lead], properties port.Repository[domain.Property], logger *zap.Logger) *Expander {
	return &Expander{users: users, leads: leads, properties: properties, logger: logger}
}

// Expand returns doc as a JSON object with every non-empty ref replaced by
// its summary. References resolve concurrently.
func (e *Expander) Expand(ctx context.Context, doc any, refs []Ref) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Expander.Expand")
	defer span.End()
	span.SetAttributes(attribute.Int("refs", len(refs)))

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	summaries := make([]any, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		id, _ := out[ref.Field].(string)
		if id == "" {
			continue
		}
		g.Go(func() error {
			s, err := e.resolve(gctx, ref.Kind, id)
			if err != nil {
				return fmt.Errorf("expand %s: %w", ref.Field, err)
			}
			if s == nil {
				e.logger.Debug("dangling reference", zap.String("field", ref.Field), zap.String("id", id))
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, ref := range refs {
		if summaries[i] != nil {
			out[ref.Field] = summaries[i]
		}
	}
	return out, nil
}

func (e *Expander) resolve(ctx context.Context, kind RefKind, id string) (any, error) {
	switch kind {
	case RefUser:
		u, err := e.users.Get(ctx, id, domain.GlobalScope())
		if err != nil {
			return dangling(err)
		}
		return domain.UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}, nil
	case RefLead:
		l, err := e.leads.Get(ctx, id, domain.GlobalScope())
		if err != nil {
			return dangling(err)
		}
		return domain.LeadSummary{ID: l.ID, ClientName: l.ClientName, Phone: l.Phone, Status: l.Status}, nil
	case RefProperty:
		p, err := e.properties.Get(ctx, id, domain.GlobalScope())
		if err != nil {
			return dangling(err)
		}
		return domain.PropertySummary{ID: p.ID, Title: p.Title, Address: p.Address, Status: p.Status}, nil
	default:
		return nil, fmt.Errorf("unknown reference kind %d", kind)
	}
}

// dangling treats a reference to a deleted record as unresolved.
func dangling(err error) (any, error) {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil, nil
	}
	return nil, err
}
