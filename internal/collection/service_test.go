package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/seed"
	"storefront/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) Broadcast(event models.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []models.ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ChangeEvent(nil), p.events...)
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...Option) (*Service, *store.MemoryStore, *recordingPublisher) {
	t.Helper()

	log, _ := test.NewNullLogger()
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}

	n := 0
	base := []Option{
		WithEvents(pub),
		WithLogger(log),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func(now time.Time) (string, error) {
			n++
			return fmt.Sprintf("%d%03d", now.UnixMilli(), n), nil
		}),
	}
	return NewService(st, seed.New(), append(base, opts...)...), st, pub
}

func mustRecord(t *testing.T, raw string) models.Record {
	t.Helper()
	rec, err := models.DecodeRecord([]byte(raw))
	require.NoError(t, err)
	return rec
}

func TestService_ListSeedsDefaults(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	records, err := svc.List(ctx, models.CollectionServices)
	require.NoError(t, err)
	assert.Len(t, records, 16)

	persisted, err := st.ReadCollection(ctx, models.CollectionServices)
	require.NoError(t, err)
	assert.Len(t, persisted, 16)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventSeed, events[0].EventType)
	assert.Equal(t, 16, events[0].Count)
	assert.Equal(t, fixedNow, events[0].Timestamp)

	// A second read finds data and does not seed again
	_, err = svc.List(ctx, models.CollectionServices)
	require.NoError(t, err)
	assert.Len(t, pub.all(), 1)
}

func TestService_ListWithoutDefaults(t *testing.T) {
	svc, _, pub := newTestService(t)

	records, err := svc.List(context.Background(), models.CollectionOrders)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Empty(t, pub.all())
}

func TestService_ListWithoutSeeder(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewService(store.NewMemoryStore(), nil, WithLogger(log))

	records, err := svc.List(context.Background(), models.CollectionServices)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_InvalidCollection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"users", "", "../etc", models.CollectionData} {
		_, err := svc.List(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidCollection, name)

		_, err = svc.Create(ctx, name, models.Record{"title": "x"})
		assert.ErrorIs(t, err, ErrInvalidCollection, name)

		_, err = svc.Update(ctx, name, models.Record{"id": "1"})
		assert.ErrorIs(t, err, ErrInvalidCollection, name)

		err = svc.Delete(ctx, name, "1")
		assert.ErrorIs(t, err, ErrInvalidCollection, name)
	}
}

func TestService_ExtraCollections(t *testing.T) {
	svc, _, _ := newTestService(t, WithExtraCollections(models.CollectionData))

	assert.True(t, svc.IsAllowed(models.CollectionData))
	item, err := svc.Create(context.Background(), models.CollectionData, models.Record{"anything": true})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID())
}

func TestService_Create(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, models.CollectionOrders, mustRecord(t, `{"serviceId":"fb-likes","quantity":1000}`))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%d001", fixedNow.UnixMilli()), item["id"])
	assert.Equal(t, "2024-06-01T12:00:00.000Z", item["createdAt"])
	assert.Equal(t, "fb-likes", item["serviceId"])

	records, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, item.ID(), records[0].ID())

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventInsert, events[0].EventType)
	assert.Equal(t, item.ID(), events[0].RecordID)
	assert.Equal(t, models.CollectionOrders, events[0].Collection)
}

func TestService_CreateKeepsClientFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	item, err := svc.Create(context.Background(), models.CollectionOrders,
		mustRecord(t, `{"id":"custom","createdAt":"2020-01-01T00:00:00.000Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "custom", item["id"])
	assert.Equal(t, "2020-01-01T00:00:00.000Z", item["createdAt"])
}

func TestService_CreateAppendsInOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": id})
		require.NoError(t, err)
	}

	records, err := svc.List(ctx, models.CollectionOrders)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID())
	assert.Equal(t, "c", records[2].ID())
}

func TestService_CreateDuplicateID(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": "1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, models.CollectionOrders, models.Record{"id": "1", "status": "pending"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	// Numeric and string forms of the same id collide
	_, err = svc.Create(ctx, models.CollectionOrders, mustRecord(t, `{"id":1}`))
	assert.ErrorIs(t, err, ErrDuplicateID)

	records, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestService_CreateRetriesCollidingIDs(t *testing.T) {
	calls := 0
	svc, _, _ := newTestService(t, WithIDGenerator(func(time.Time) (string, error) {
		calls++
		if calls < 3 {
			return "taken", nil
		}
		return "fresh", nil
	}))
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": "taken"})
	require.NoError(t, err)

	item, err := svc.Create(ctx, models.CollectionOrders, models.Record{})
	require.NoError(t, err)
	assert.Equal(t, "fresh", item["id"])
}

func TestService_CreateGeneratorFailure(t *testing.T) {
	svc, _, _ := newTestService(t, WithIDGenerator(func(time.Time) (string, error) {
		return "", errors.New("entropy exhausted")
	}))

	_, err := svc.Create(context.Background(), models.CollectionOrders, models.Record{})
	assert.EqualError(t, err, "entropy exhausted")
}

func TestService_CreateRejects(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CollectionOrders, nil)
	assert.ErrorIs(t, err, ErrInvalidBody)

	_, err = svc.Create(ctx, models.CollectionOrders, models.Record{"status": "shipped"})
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "status", validationErr.Field)

	_, err = svc.Create(ctx, models.CollectionOrders, models.Record{"id": true})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "id", validationErr.Field)

	records, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, pub.all())
}

func TestService_Update(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": "o1", "status": "pending", "price": 10.0})
	require.NoError(t, err)

	item, err := svc.Update(ctx, models.CollectionOrders, models.Record{"id": "o1", "status": "confirmed"})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", item["status"])
	assert.Equal(t, json.Number("10"), item["price"])
	assert.Equal(t, "2024-06-01T12:00:00.000Z", item["updatedAt"])
	assert.Equal(t, "2024-06-01T12:00:00.000Z", item["createdAt"])

	records, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "confirmed", records[0]["status"])

	events := pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventUpdate, events[1].EventType)
	assert.Equal(t, "o1", events[1].RecordID)
}

func TestService_UpdateKeepsStoredIDForm(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.WriteCollection(ctx, models.CollectionOrders, []models.Record{mustRecord(t, `{"id":42,"status":"pending"}`)}))

	item, err := svc.Update(ctx, models.CollectionOrders, models.Record{"id": "42", "status": "completed"})
	require.NoError(t, err)
	assert.Equal(t, "42", item.ID())
	_, isString := item["id"].(string)
	assert.False(t, isString)
}

func TestService_UpdateErrors(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": "o1", "status": "pending"})
	require.NoError(t, err)
	before, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)

	_, err = svc.Update(ctx, models.CollectionOrders, models.Record{"status": "confirmed"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = svc.Update(ctx, models.CollectionOrders, models.Record{"id": "nope", "status": "confirmed"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, models.CollectionOrders, models.Record{"id": "o1", "status": "shipped"})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Update(ctx, models.CollectionOrders, nil)
	assert.ErrorIs(t, err, ErrInvalidBody)

	after, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, pub.all(), 1)
}

func TestService_Delete(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": id})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(ctx, models.CollectionOrders, "b"))

	records, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID())
	assert.Equal(t, "c", records[1].ID())

	events := pub.all()
	last := events[len(events)-1]
	assert.Equal(t, models.EventDelete, last.EventType)
	assert.Equal(t, "b", last.RecordID)

	assert.ErrorIs(t, svc.Delete(ctx, models.CollectionOrders, "b"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, models.CollectionOrders, ""), ErrMissingID)
}

func TestService_EmptiedCollectionStaysEmpty(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	records, err := svc.List(ctx, models.CollectionMostRequested)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	for _, rec := range records {
		require.NoError(t, svc.Delete(ctx, models.CollectionMostRequested, rec.ID()))
	}

	records, err = svc.List(ctx, models.CollectionMostRequested)
	require.NoError(t, err)
	assert.Empty(t, records)

	seeds := 0
	for _, ev := range pub.all() {
		if ev.EventType == models.EventSeed {
			seeds++
		}
	}
	assert.Equal(t, 1, seeds)
}

func TestService_WrittenCollectionIsNotSeeded(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, st.WriteCollection(ctx, models.CollectionServices, []models.Record{}))

	records, err := svc.List(ctx, models.CollectionServices)
	require.NoError(t, err)
	assert.Empty(t, records)

	// A create before the first list also counts as stored
	_, err = svc.Create(ctx, models.CollectionPlatforms, models.Record{"id": "custom", "name": "Custom"})
	require.NoError(t, err)
	records, err = svc.List(ctx, models.CollectionPlatforms)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "custom", records[0].ID())
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	log, hook := test.NewNullLogger()
	st := &failingStore{err: errors.New("disk full"), failReads: true}
	svc := NewService(st, seed.New(), WithLogger(log))
	ctx := context.Background()

	_, err := svc.List(ctx, models.CollectionServices)
	assert.EqualError(t, err, "disk full")

	st.failReads = false
	_, err = svc.List(ctx, models.CollectionServices)
	assert.EqualError(t, err, "disk full")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	_, err = svc.Create(ctx, models.CollectionOrders, models.Record{})
	assert.EqualError(t, err, "disk full")
}

func TestService_ConcurrentCreates(t *testing.T) {
	log, _ := test.NewNullLogger()
	st := store.NewMemoryStore()
	svc := NewService(st, seed.New(), WithLogger(log))
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, models.CollectionOrders, models.Record{"id": fmt.Sprintf("order-%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	records, err := st.ReadCollection(ctx, models.CollectionOrders)
	require.NoError(t, err)
	assert.Len(t, records, writers)
}

func TestService_ConcurrentUpdatesAreNotLost(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewService(store.NewMemoryStore(), nil, WithLogger(log))
	ctx := context.Background()

	const fields = 20
	_, err := svc.Create(ctx, models.CollectionAnalytics, models.Record{"id": "e1"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < fields; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Update(ctx, models.CollectionAnalytics, models.Record{"id": "e1", fmt.Sprintf("f%d", i): i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := svc.List(ctx, models.CollectionAnalytics)
	require.NoError(t, err)
	require.Len(t, records, 1)
	for i := 0; i < fields; i++ {
		assert.Contains(t, records[0], fmt.Sprintf("f%d", i))
	}
}

// failingStore fails every write, and every read while failReads is set
type failingStore struct {
	err       error
	failReads bool
}

func (s *failingStore) ReadCollection(context.Context, string) ([]models.Record, error) {
	if s.failReads {
		return nil, s.err
	}
	return []models.Record{}, nil
}

func (s *failingStore) Exists(context.Context, string) (bool, error) {
	if s.failReads {
		return false, s.err
	}
	return false, nil
}

func (s *failingStore) WriteCollection(context.Context, string, []models.Record) error {
	return s.err
}

func (s *failingStore) Close() error { return nil }
