// Package events fans out back-office mutations to the audit trail through a
// single actor, so request handlers never wait on the audit store.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/shopdesk/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	OrderCreated        = "order.created"
	OrderUpdated        = "order.updated"
	OrderDelivered      = "order.delivered"
	OrderCanceled       = "order.canceled"
	OrderLineAdded      = "order.line_added"
	OrderLineUpdated    = "order.line_updated"
	OrderLineDeleted    = "order.line_deleted"
	ProductCreated      = "product.created"
	ProductUpdated      = "product.updated"
	ProductDeleted      = "product.deleted"
	ProductPhotoChanged = "product.photo_changed"
)

const (
	EntityOrder   = "order"
	EntityProduct = "product"
)

type Event struct {
	Action     string
	EntityType string
	EntityID   uint64
	ActorID    *uint64
	Data       map[string]interface{}
	At         time.Time
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(e Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// AuditSink stores audit entries.
type AuditSink interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type flush struct{}

type flushed struct{}

// auditActor writes events to the sink one at a time, in arrival order.
type auditActor struct {
	sink    AuditSink
	service string
	timeout time.Duration
	logger  *zap.Logger
}

func (a *auditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *Event:
		a.write(msg)

	case *flush:
		ctx.Respond(&flushed{})

	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopped:
		a.logger.Info("Audit actor stopped")
	}
}

func (a *auditActor) write(e *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	entry := &repository.AuditLog{
		Service:    a.service,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Data:       bson.M(e.Data),
		CreatedAt:  e.At,
	}
	if err := a.sink.CreateAuditLog(ctx, entry); err != nil {
		a.logger.Error("Failed to write audit log",
			zap.String("action", e.Action),
			zap.Uint64("entity_id", e.EntityID),
			zap.Error(err))
	}
}

// Dispatcher owns the actor system hosting the audit actor.
type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewDispatcher(sink AuditSink, service string, logger *zap.Logger) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &auditActor{
			sink:    sink,
			service: service,
			timeout: 5 * time.Second,
			logger:  logger.Named("audit-actor"),
		}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}

	return &Dispatcher{system: system, pid: pid, logger: logger}, nil
}

func (d *Dispatcher) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	d.system.Root.Send(d.pid, &e)
}

// Flush waits until every event published so far has been handled.
func (d *Dispatcher) Flush(timeout time.Duration) error {
	res, err := d.system.Root.RequestFuture(d.pid, &flush{}, timeout).Result()
	if err != nil {
		return fmt.Errorf("failed to flush audit events: %w", err)
	}
	if _, ok := res.(*flushed); !ok {
		return fmt.Errorf("unexpected flush reply %T", res)
	}
	return nil
}

// Close drains pending events and stops the actor system.
func (d *Dispatcher) Close(timeout time.Duration) {
	if err := d.Flush(timeout); err != nil {
		d.logger.Warn("Audit events not drained", zap.Error(err))
	}
	if err := d.system.Root.PoisonFuture(d.pid).Wait(); err != nil {
		d.logger.Warn("Audit actor did not stop cleanly", zap.Error(err))
	}
	d.system.Shutdown()
}
