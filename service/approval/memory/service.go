// Package memory provides an in-memory approval.Service backed by the
// generic DAO stores.  It is the default backend and the one unit tests use.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/stewardai/steward/internal/clock"
	"github.com/stewardai/steward/service/approval"
	"github.com/stewardai/steward/service/dao"
	"github.com/stewardai/steward/service/dao/store"
	"github.com/stewardai/steward/service/messaging"
	qmem "github.com/stewardai/steward/service/messaging/memory"
)

type service struct {
	reqDAO dao.Service[string, approval.Request]
	decDAO dao.Service[string, approval.Decision]

	// fan-out queue
	events messaging.Queue[approval.Event]
}

// key selectors - grab ID field
func reqKey(r *approval.Request) string  { return r.ID }
func decKey(d *approval.Decision) string { return d.ID }

// New creates an in-memory approval service.
func New() approval.Service {
	return &service{
		reqDAO: store.NewMemoryStore[string, approval.Request](reqKey),
		decDAO: store.NewMemoryStore[string, approval.Decision](decKey),
		events: qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
}

func (s *service) RequestApproval(ctx context.Context, r *approval.Request) error {
	if r == nil {
		return errors.New("invalid request")
	}
	if r.ID == "" {
		r.ID = r.CallID
	}
	if r.ID == "" {
		return errors.New("request has no identifier")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = clock.Now()
	}

	// Idempotent save - overwrite any previous copy to handle re-submissions
	// gracefully.
	if err := s.reqDAO.Save(ctx, r); err != nil {
		return err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: r})
	return nil
}

func (s *service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	all, err := s.reqDAO.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*approval.Request, 0, len(all))
	for _, r := range all {
		if d, _ := s.decDAO.Load(ctx, r.ID); d == nil {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (s *service) Decide(ctx context.Context, id string, payload json.RawMessage) (*approval.Decision, error) {
	if id == "" {
		return nil, errors.New("empty id")
	}
	request, _ := s.reqDAO.Load(ctx, id)
	if request == nil {
		return nil, fmt.Errorf("request %s not found", id)
	}
	if existing, _ := s.decDAO.Load(ctx, id); existing != nil {
		return existing, nil
	}

	decision, err := approval.Normalize(payload, id)
	if err != nil {
		// Record the payload anyway so that the suspended run resumes;
		// the gate falls back to the original call on an empty type.
		log.Printf("approval: cannot normalize decision for %v: %v", id, err)
		decision = &approval.Decision{ID: id, Raw: payload}
	}
	decision.DecidedAt = clock.Now()

	if err := s.decDAO.Save(ctx, decision); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: decision})
	return decision, nil
}

func (s *service) Resolution(ctx context.Context, id string) (*approval.Decision, error) {
	return s.decDAO.Load(ctx, id)
}

func (s *service) Queue() messaging.Queue[approval.Event] {
	return s.events
}
