package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa/internal/models"
)

func sampleBundle(id string) *models.EventBundle {
	alice := models.Participant{ID: "p1", Name: "Alice", Email: "alice@example.com", Group: "Smiths"}
	bob := models.Participant{ID: "p2", Name: "Bob", Email: "bob@example.com", Wishlist: "socks"}
	return &models.EventBundle{
		Details:      models.EventDetails{ID: id, EventName: "Office party", OrganizerEmail: "boss@example.com", Budget: "20€"},
		Participants: []models.Participant{alice, bob},
		Pairings:     []models.Pairing{{Giver: alice, Receiver: bob}, {Giver: bob, Receiver: alice}},
	}
}

func TestSanitizeID(t *testing.T) {
	got, err := SanitizeID("../../etc/passwd-1")
	require.NoError(t, err)
	assert.Equal(t, "etcpasswd-1", got)

	got, err = SanitizeID("3F2504E0-4F89-11D3-9A0C-0305E82C3301")
	require.NoError(t, err)
	assert.Equal(t, "3F2504E0-4F89-11D3-9A0C-0305E82C3301", got)

	_, err = SanitizeID("../")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func testBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := backend.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	want := sampleBundle("evt-1")
	require.NoError(t, backend.Save(ctx, "evt-1", want))

	got, err := backend.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.Details.EventName = "Renamed"
	require.NoError(t, backend.Save(ctx, "evt-1", want))
	got, err = backend.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Details.EventName)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	testBackend(t, NewFileStore(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
	assert.Equal(t, "evt-1.json", entries[0].Name())
}

func TestFileStore_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o644))

	_, err := NewFileStore(dir).Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestMemoryStore(t *testing.T) {
	testBackend(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "santa.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	testBackend(t, store)
	assert.Equal(t, "sqlite", store.Kind())
}

// fakeKV emulates the subset of the KV REST API the store uses.
type fakeKV struct {
	mu       sync.Mutex
	values   map[string]string
	token    string
	asObject bool
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/set/"):
		body, _ := io.ReadAll(r.Body)
		f.values[strings.TrimPrefix(r.URL.Path, "/set/")] = string(body)
		json.NewEncoder(w).Encode(map[string]any{"result": "OK"})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/get/"):
		v, ok := f.values[strings.TrimPrefix(r.URL.Path, "/get/")]
		switch {
		case !ok:
			json.NewEncoder(w).Encode(map[string]any{"result": nil})
		case f.asObject:
			w.Write([]byte(`{"result":` + v + `}`))
		default:
			json.NewEncoder(w).Encode(map[string]any{"result": v})
		}
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"unknown command"}`))
	}
}

func TestKVStore(t *testing.T) {
	kv := &fakeKV{values: map[string]string{}, token: "secret"}
	srv := httptest.NewServer(kv)
	t.Cleanup(srv.Close)

	store := NewKVStore(srv.URL+"/", "secret", "", time.Second)
	testBackend(t, store)

	kv.mu.Lock()
	_, ok := kv.values["sso_evt-1"]
	kv.mu.Unlock()
	assert.True(t, ok, "keys carry the default prefix")
}

func TestKVStore_ObjectResult(t *testing.T) {
	kv := &fakeKV{values: map[string]string{}, token: "secret", asObject: true}
	srv := httptest.NewServer(kv)
	t.Cleanup(srv.Close)

	store := NewKVStore(srv.URL, "secret", "test_", time.Second)
	require.NoError(t, store.Save(context.Background(), "evt-2", sampleBundle("evt-2")))

	got, err := store.Get(context.Background(), "evt-2")
	require.NoError(t, err)
	assert.Equal(t, "Office party", got.Details.EventName)
}

func TestKVStore_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(&fakeKV{values: map[string]string{}, token: "secret"})
	t.Cleanup(srv.Close)

	store := NewKVStore(srv.URL, "wrong", "", time.Second)
	err := store.Save(context.Background(), "evt", sampleBundle("evt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

type failingBackend struct{ kind string }

func (f failingBackend) Save(context.Context, string, *models.EventBundle) error {
	return errors.New("backend down")
}

func (f failingBackend) Get(context.Context, string) (*models.EventBundle, error) {
	return nil, errors.New("backend down")
}

func (f failingBackend) Kind() string { return f.kind }

func TestTieredStore_RemoteFirst(t *testing.T) {
	ctx := context.Background()
	remote, disk := NewMemoryStore(), NewMemoryStore()
	store := NewTieredStore(remote, disk, false)

	mode, err := store.Save(ctx, sampleBundle("abc"))
	require.NoError(t, err)
	assert.Equal(t, ModeServer, mode)
	assert.Equal(t, "memory", store.Kind())

	_, err = disk.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound, "disk is untouched while the remote works")

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Details.ID)
}

func TestTieredStore_FallsBackToDisk(t *testing.T) {
	ctx := context.Background()
	disk := NewMemoryStore()
	store := NewTieredStore(failingBackend{kind: "redis"}, disk, false)

	mode, err := store.Save(ctx, sampleBundle("abc"))
	require.NoError(t, err)
	assert.Equal(t, ModeServer, mode)
	assert.Equal(t, "redis", store.Kind())

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Office party", got.Details.EventName)
}

// switchableBackend wraps a backend and fails every call while down is set.
type switchableBackend struct {
	Backend
	down bool
}

func (b *switchableBackend) Save(ctx context.Context, id string, bundle *models.EventBundle) error {
	if b.down {
		return errors.New("backend down")
	}
	return b.Backend.Save(ctx, id, bundle)
}

func tickingClock() func() time.Time {
	now := time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestTieredStore_GetReturnsNewestCopy(t *testing.T) {
	ctx := context.Background()
	remote := &switchableBackend{Backend: NewMemoryStore()}
	disk := NewMemoryStore()
	store := NewTieredStore(remote, disk, false)
	store.now = tickingClock()

	v1 := sampleBundle("abc")
	v1.Details.EventName = "v1"
	_, err := store.Save(ctx, v1)
	require.NoError(t, err)

	remote.down = true
	v2 := sampleBundle("abc")
	v2.Details.EventName = "v2"
	mode, err := store.Save(ctx, v2)
	require.NoError(t, err)
	assert.Equal(t, ModeServer, mode)

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Details.EventName, "the disk copy written during the outage is newer")

	remote.down = false
	v3 := sampleBundle("abc")
	v3.Details.EventName = "v3"
	_, err = store.Save(ctx, v3)
	require.NoError(t, err)

	got, err = store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "v3", got.Details.EventName, "a later remote save wins over the leftover disk copy")
	assert.True(t, got.UpdatedAt.After(v2.UpdatedAt))
}

func TestTieredStore_Ephemeral(t *testing.T) {
	store := NewTieredStore(nil, NewMemoryStore(), true)

	mode, err := store.Save(context.Background(), sampleBundle("abc"))
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, mode)
	assert.Equal(t, "ephemeral-tmp", store.Kind())
}

func TestTieredStore_SanitizesIDs(t *testing.T) {
	ctx := context.Background()
	disk := NewMemoryStore()
	store := NewTieredStore(nil, disk, false)

	_, err := store.Save(ctx, sampleBundle("a/b.c"))
	require.NoError(t, err)

	_, err = disk.Get(ctx, "abc")
	require.NoError(t, err)

	_, err = store.Get(ctx, "a.b.c")
	require.NoError(t, err)

	_, err = store.Save(ctx, sampleBundle("///"))
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestTieredStore_AllTiersFail(t *testing.T) {
	store := NewTieredStore(failingBackend{kind: "redis"}, failingBackend{kind: "disk"}, false)

	_, err := store.Save(context.Background(), sampleBundle("abc"))
	assert.Error(t, err)

	_, err = store.Get(context.Background(), "abc")
	assert.Error(t, err)
}
