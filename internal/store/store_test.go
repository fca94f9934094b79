package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func testLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

// backend is a Store plus a way to plant raw bytes for a collection
type backend struct {
	store   Store
	corrupt func(t *testing.T, name string, raw string)
}

func newBackends() map[string]func(t *testing.T) backend {
	return map[string]func(t *testing.T) backend{
		"memory": func(t *testing.T) backend {
			s := NewMemoryStore()
			return backend{store: s, corrupt: func(t *testing.T, name, raw string) {
				s.mu.Lock()
				s.collections[name] = []byte(raw)
				s.mu.Unlock()
			}}
		},
		"json": func(t *testing.T) backend {
			dir := t.TempDir()
			s, err := NewJSONFileStore(dir, testLogger())
			require.NoError(t, err)
			return backend{store: s, corrupt: func(t *testing.T, name, raw string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(raw), 0o644))
			}}
		},
		"sqlite": func(t *testing.T) backend {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"), testLogger())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return backend{store: s, corrupt: func(t *testing.T, name, raw string) {
				_, err := s.db.Exec(`INSERT INTO collections (name, data, updated_at) VALUES (?, ?, 0)
					ON CONFLICT (name) DO UPDATE SET data = excluded.data`, name, raw)
				require.NoError(t, err)
			}}
		},
		"redis": func(t *testing.T) backend {
			fake := newFakeRedis()
			s := newRedisStore(fake, "", testLogger())
			return backend{store: s, corrupt: func(t *testing.T, name, raw string) {
				fake.put(name, raw)
			}}
		},
	}
}

func TestStoreConformance(t *testing.T) {
	ctx := context.Background()

	for name, open := range newBackends() {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Run("empty read", func(t *testing.T) {
				b := open(t)
				records, err := b.store.ReadCollection(ctx, "services")
				require.NoError(t, err)
				assert.NotNil(t, records)
				assert.Empty(t, records)

				// A second read sees the created, still empty collection
				records, err = b.store.ReadCollection(ctx, "services")
				require.NoError(t, err)
				assert.Empty(t, records)
			})

			t.Run("exists after first read or write", func(t *testing.T) {
				b := open(t)
				ok, err := b.store.Exists(ctx, "services")
				require.NoError(t, err)
				assert.False(t, ok)

				_, err = b.store.ReadCollection(ctx, "services")
				require.NoError(t, err)
				ok, err = b.store.Exists(ctx, "services")
				require.NoError(t, err)
				assert.True(t, ok)

				// An emptied collection still exists
				require.NoError(t, b.store.WriteCollection(ctx, "orders", []models.Record{}))
				ok, err = b.store.Exists(ctx, "orders")
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = b.store.Exists(ctx, "platforms")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("round trip preserves order and values", func(t *testing.T) {
				b := open(t)
				in := []models.Record{
					{"id": "b", "title": "Second", "price": 12.5},
					{"id": "a", "title": "First", "visible": false, "meta": map[string]interface{}{"k": "v"}},
					{"id": "c", "tags": []interface{}{"x", "y"}},
				}
				require.NoError(t, b.store.WriteCollection(ctx, "orders", in))

				out, err := b.store.ReadCollection(ctx, "orders")
				require.NoError(t, err)
				require.Len(t, out, 3)
				assert.Equal(t, []string{"b", "a", "c"}, []string{out[0].ID(), out[1].ID(), out[2].ID()})
				assert.Equal(t, json.Number("12.5"), out[0]["price"])
				assert.Equal(t, false, out[1]["visible"])
				assert.Equal(t, "v", out[1]["meta"].(map[string]interface{})["k"])
			})

			t.Run("write replaces whole array", func(t *testing.T) {
				b := open(t)
				require.NoError(t, b.store.WriteCollection(ctx, "packages", []models.Record{{"id": "1"}, {"id": "2"}}))
				require.NoError(t, b.store.WriteCollection(ctx, "packages", []models.Record{{"id": "3"}}))

				out, err := b.store.ReadCollection(ctx, "packages")
				require.NoError(t, err)
				require.Len(t, out, 1)
				assert.Equal(t, "3", out[0].ID())
			})

			t.Run("collections are independent", func(t *testing.T) {
				b := open(t)
				require.NoError(t, b.store.WriteCollection(ctx, "platforms", []models.Record{{"id": "facebook"}}))

				out, err := b.store.ReadCollection(ctx, "analytics")
				require.NoError(t, err)
				assert.Empty(t, out)
			})

			for _, raw := range []string{`{not json`, `{"id":"x"}`, `[1,2,3]`, `[{"id":"a"}] trailing`} {
				raw := raw
				t.Run("corrupt data resets to empty: "+raw, func(t *testing.T) {
					b := open(t)
					b.corrupt(t, "orders", raw)

					out, err := b.store.ReadCollection(ctx, "orders")
					require.NoError(t, err)
					assert.Empty(t, out)

					// The reset is persisted, so writes work normally afterwards
					require.NoError(t, b.store.WriteCollection(ctx, "orders", []models.Record{{"id": "1"}}))
					out, err = b.store.ReadCollection(ctx, "orders")
					require.NoError(t, err)
					assert.Len(t, out, 1)
				})
			}

			t.Run("null is empty", func(t *testing.T) {
				b := open(t)
				b.corrupt(t, "orders", "null")

				out, err := b.store.ReadCollection(ctx, "orders")
				require.NoError(t, err)
				assert.Empty(t, out)
			})

			t.Run("invalid names are rejected", func(t *testing.T) {
				b := open(t)
				for _, bad := range []string{"", "../etc/passwd", "a/b", "orders.json"} {
					_, err := b.store.ReadCollection(ctx, bad)
					var storageErr *StorageError
					assert.ErrorAs(t, err, &storageErr, bad)

					err = b.store.WriteCollection(ctx, bad, nil)
					assert.ErrorAs(t, err, &storageErr, bad)

					_, err = b.store.Exists(ctx, bad)
					assert.ErrorAs(t, err, &storageErr, bad)
				}
			})

			t.Run("reads do not alias stored state", func(t *testing.T) {
				b := open(t)
				require.NoError(t, b.store.WriteCollection(ctx, "services", []models.Record{{"id": "1", "title": "A"}}))

				out, err := b.store.ReadCollection(ctx, "services")
				require.NoError(t, err)
				out[0]["title"] = "changed"

				again, err := b.store.ReadCollection(ctx, "services")
				require.NoError(t, err)
				assert.Equal(t, "A", again[0]["title"])
			})
		})
	}
}

func TestJSONFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "storage")

	s, err := NewJSONFileStore(dir, testLogger())
	require.NoError(t, err)

	_, err = s.ReadCollection(ctx, "orders")
	require.NoError(t, err)

	// First access creates {name}.json containing []
	data, err := os.ReadFile(filepath.Join(dir, "orders.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	require.NoError(t, s.WriteCollection(ctx, "orders", []models.Record{{"id": "1"}}))
	data, err = os.ReadFile(filepath.Join(dir, "orders.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))

	// No temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONFileStore_CorruptionIsLogged(t *testing.T) {
	dir := t.TempDir()
	log, hook := test.NewNullLogger()

	s, err := NewJSONFileStore(dir, log)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services.json"), []byte("garbage"), 0o644))

	_, err = s.ReadCollection(context.Background(), "services")
	require.NoError(t, err)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "services", hook.LastEntry().Data["collection"])
}

func TestJSONFileStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s, err := NewJSONFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.WriteCollection(ctx, "orders", []models.Record{{"id": i}}))
		}(i)
	}
	wg.Wait()

	// Whichever write landed last, the file is a complete array
	out, err := s.ReadCollection(ctx, "orders")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := Open(ctx, Options{Backend: BackendJSON, Dir: dir}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &JSONFileStore{}, st)

	st, err = Open(ctx, Options{Backend: BackendSQLite, Dir: dir}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, st)
	require.NoError(t, st.Close())
	assert.FileExists(t, filepath.Join(dir, "storefront.db"))

	st, err = Open(ctx, Options{Backend: BackendMemory}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	_, err = Open(ctx, Options{Backend: BackendPostgres}, testLogger())
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: BackendMongo}, testLogger())
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "cassandra"}, testLogger())
	assert.Error(t, err)
}

// fakeRedis implements redisClient over a map
type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return redis.NewIntResult(0, f.getErr)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error { return nil }
