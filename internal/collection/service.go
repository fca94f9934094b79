// Package collection implements create/read/update/delete over whitelisted,
// lazily seeded record collections.
package collection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/seed"
	"storefront/internal/store"
)

// maxIDAttempts bounds the retries when a generated id collides
const maxIDAttempts = 10

// EventPublisher receives change notifications
type EventPublisher interface {
	Broadcast(event models.ChangeEvent)
}

// Service mediates every read-modify-write of a collection.
//
// Mutations of one collection are serialized by a per-collection mutex, so
// concurrent writers in this process never lose each other's changes. Writers
// in other processes sharing the same backend are not coordinated; across
// processes the last write wins.
type Service struct {
	store   store.Store
	seeder  *seed.Seeder
	events  EventPublisher
	log     logrus.FieldLogger
	now     func() time.Time
	newID   func(time.Time) (string, error)
	allowed map[string]bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithEvents publishes change events to p
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces GenerateID
func WithIDGenerator(gen func(time.Time) (string, error)) Option {
	return func(s *Service) { s.newID = gen }
}

// WithExtraCollections allows names outside the whitelist, such as the
// single collection behind /api/data
func WithExtraCollections(names ...string) Option {
	return func(s *Service) {
		for _, name := range names {
			s.allowed[name] = true
		}
	}
}

// NewService creates a Service over st. seeder may be nil to disable seeding.
func NewService(st store.Store, seeder *seed.Seeder, opts ...Option) *Service {
	s := &Service{
		store:   st,
		seeder:  seeder,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		newID:   GenerateID,
		allowed: make(map[string]bool),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, name := range models.KnownCollections {
		s.allowed[name] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsAllowed reports whether name may be addressed
func (s *Service) IsAllowed(name string) bool {
	return s.allowed[name]
}

// metricLabel keeps rejected names out of metric labels
func (s *Service) metricLabel(name string) string {
	if !s.IsAllowed(name) {
		return "invalid"
	}
	return name
}

// lock returns the mutex guarding a collection
func (s *Service) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// List returns every record of a collection. A collection with defaults that
// has never been stored is seeded and the defaults persisted before they are
// returned. Once stored it is never seeded again, even after it is emptied.
func (s *Service) List(ctx context.Context, name string) (records []models.Record, err error) {
	defer func() { metrics.RecordOperation(s.metricLabel(name), "list", err) }()

	if !s.IsAllowed(name) {
		return nil, ErrInvalidCollection
	}

	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	existed := true
	if s.seeder != nil {
		if existed, err = s.store.Exists(ctx, name); err != nil {
			return nil, err
		}
	}

	records, err = s.store.ReadCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	if !existed {
		seeded, wrote, err := s.seeder.Seed(ctx, s.store, name, records)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"collection": name,
				"error":      err,
			}).Error("Failed to seed collection")
			return nil, err
		}
		if wrote {
			s.log.WithFields(logrus.Fields{
				"collection": name,
				"count":      len(seeded),
			}).Info("Seeded collection with defaults")
			metrics.RecordSeed(name)
			s.publish(models.ChangeEvent{
				EventType:  models.EventSeed,
				Collection: name,
				Count:      len(seeded),
			})
		}
		records = seeded
	}

	metrics.RecordSize(name, len(records))
	return records, nil
}

// Create appends a record. The id is taken from the body when present,
// otherwise generated; createdAt is stamped unless the body carries one.
func (s *Service) Create(ctx context.Context, name string, body models.Record) (item models.Record, err error) {
	defer func() { metrics.RecordOperation(s.metricLabel(name), "create", err) }()

	if !s.IsAllowed(name) {
		return nil, ErrInvalidCollection
	}
	if body == nil {
		return nil, ErrInvalidBody
	}

	id, err := bodyID(body)
	if err != nil {
		return nil, err
	}

	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	records, err := s.store.ReadCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(records))
	for _, rec := range records {
		existing[rec.ID()] = true
	}

	now := s.now()
	if id == "" {
		id, err = s.uniqueID(now, existing)
		if err != nil {
			return nil, err
		}
	} else if existing[id] {
		return nil, ErrDuplicateID
	}

	item = body.Clone()
	item["id"] = id
	if _, ok := item["createdAt"]; !ok {
		item["createdAt"] = models.Timestamp(now)
	}

	if err := models.ValidateRecord(name, item); err != nil {
		return nil, err
	}

	records = append(records, item)
	if err := s.store.WriteCollection(ctx, name, records); err != nil {
		return nil, err
	}

	metrics.RecordSize(name, len(records))
	s.publish(models.ChangeEvent{
		EventType:  models.EventInsert,
		Collection: name,
		RecordID:   id,
		Item:       item,
	})
	return item, nil
}

// Update shallow-merges body onto the record with the same id and stamps
// updatedAt. Fields absent from body keep their previous values.
func (s *Service) Update(ctx context.Context, name string, body models.Record) (item models.Record, err error) {
	defer func() { metrics.RecordOperation(s.metricLabel(name), "update", err) }()

	if !s.IsAllowed(name) {
		return nil, ErrInvalidCollection
	}
	if body == nil {
		return nil, ErrInvalidBody
	}

	id, err := bodyID(body)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrMissingID
	}

	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	records, err := s.store.ReadCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	idx := indexOf(records, id)
	if idx == -1 {
		return nil, ErrNotFound
	}

	item = records[idx].Merge(body)
	item["id"] = records[idx]["id"]
	item["updatedAt"] = models.Timestamp(s.now())

	if err := models.ValidateRecord(name, item); err != nil {
		return nil, err
	}

	records[idx] = item
	if err := s.store.WriteCollection(ctx, name, records); err != nil {
		return nil, err
	}

	s.publish(models.ChangeEvent{
		EventType:  models.EventUpdate,
		Collection: name,
		RecordID:   id,
		Item:       item,
	})
	return item, nil
}

// Delete removes the record with the given id
func (s *Service) Delete(ctx context.Context, name string, id string) (err error) {
	defer func() { metrics.RecordOperation(s.metricLabel(name), "delete", err) }()

	if !s.IsAllowed(name) {
		return ErrInvalidCollection
	}
	if id == "" {
		return ErrMissingID
	}

	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	records, err := s.store.ReadCollection(ctx, name)
	if err != nil {
		return err
	}

	idx := indexOf(records, id)
	if idx == -1 {
		return ErrNotFound
	}

	next := make([]models.Record, 0, len(records)-1)
	next = append(next, records[:idx]...)
	next = append(next, records[idx+1:]...)
	if err := s.store.WriteCollection(ctx, name, next); err != nil {
		return err
	}

	metrics.RecordSize(name, len(next))
	s.publish(models.ChangeEvent{
		EventType:  models.EventDelete,
		Collection: name,
		RecordID:   id,
	})
	return nil
}

// uniqueID generates ids until one is not taken
func (s *Service) uniqueID(now time.Time, existing map[string]bool) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := s.newID(now)
		if err != nil {
			return "", err
		}
		if !existing[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique id after %d attempts", maxIDAttempts)
}

func (s *Service) publish(event models.ChangeEvent) {
	if s.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events.Broadcast(event)
}

// bodyID extracts the id of a request body. A missing, null or empty id
// yields "", an id of any type other than string or number is rejected.
func bodyID(body models.Record) (string, error) {
	raw, ok := body["id"]
	if !ok || raw == nil {
		return "", nil
	}
	id := models.NormalizeID(raw)
	if id == "" {
		if str, isString := raw.(string); isString && str == "" {
			return "", nil
		}
		return "", &models.ValidationError{Field: "id", Message: "must be a string"}
	}
	return id, nil
}

// indexOf returns the position of the record with id, or -1
func indexOf(records []models.Record, id string) int {
	for i, rec := range records {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}
