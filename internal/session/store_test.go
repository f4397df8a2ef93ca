package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

func sampleState(userID string) *coaching.SessionState {
	st := coaching.NewSessionState(userID, "pl")
	st.UserName = "Maria"
	st.MainGoal = "zmiana pracy"
	st.ContextGathered = true
	st.CoachIntroduced = true
	st.KeyFacts = []string{"pracuje w banku"}
	st.CurrentPhase = coaching.PhaseExploration
	st.OpenQuestionsCount = 2
	st.ConversationHistory = []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "Cześć"},
		{Role: engine.RoleAssistant, Content: "Dzień dobry"},
	}
	return st
}

func backends(t *testing.T) map[string]coaching.Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "db", "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	cached, err := NewCachedStore(NewMemoryStore(), 8)
	require.NoError(t, err)

	return map[string]coaching.Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "sessions")),
		"sqlite": sqlite,
		"cached": cached,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := store.Exists(ctx, "maria")
			require.NoError(t, err)
			assert.False(t, ok)

			missing, err := store.Load(ctx, "maria")
			require.NoError(t, err)
			assert.Nil(t, missing)

			require.NoError(t, store.Save(ctx, "maria", sampleState("maria")))

			ok, err = store.Exists(ctx, "maria")
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := store.Load(ctx, "maria")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "Maria", got.UserName)
			assert.Equal(t, "zmiana pracy", got.MainGoal)
			assert.Equal(t, coaching.PhaseExploration, got.CurrentPhase)
			assert.Equal(t, []string{"pracuje w banku"}, got.KeyFacts)
			assert.Equal(t, 2, got.OpenQuestionsCount)
			assert.Len(t, got.ConversationHistory, 2)
			assert.False(t, got.UpdatedAt.IsZero())
		})
	}
}

func TestStoreLoadReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, "maria", sampleState("maria")))

			first, err := store.Load(ctx, "maria")
			require.NoError(t, err)
			first.KeyFacts = append(first.KeyFacts, "mutated")
			first.UserName = "Other"

			second, err := store.Load(ctx, "maria")
			require.NoError(t, err)
			assert.Equal(t, "Maria", second.UserName)
			assert.Equal(t, []string{"pracuje w banku"}, second.KeyFacts)
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st := sampleState("maria")
			require.NoError(t, store.Save(ctx, "maria", st))

			st.CelebrationsCount = 3
			require.NoError(t, store.Save(ctx, "maria", st))

			got, err := store.Load(ctx, "maria")
			require.NoError(t, err)
			assert.Equal(t, 3, got.CelebrationsCount)
		})
	}
}

func TestStoreDeleteAndList(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ids, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)

			require.NoError(t, store.Save(ctx, "zoe", sampleState("zoe")))
			require.NoError(t, store.Save(ctx, "adam", sampleState("adam")))

			ids, err = store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"adam", "zoe"}, ids)

			require.NoError(t, store.Delete(ctx, "zoe"))
			got, err := store.Load(ctx, "zoe")
			require.NoError(t, err)
			assert.Nil(t, got)

			err = store.Delete(ctx, "zoe")
			require.Error(t, err)
			assert.True(t, IsNotFound(err))
			var perr *PersistenceError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "delete", perr.Op)
			assert.Equal(t, "zoe", perr.UserID)
		})
	}
}

func TestStoreRejectsMismatchedUser(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, "maria", sampleState("someone-else"))
			require.Error(t, err)
			var perr *PersistenceError
			assert.True(t, errors.As(err, &perr))

			err = store.Save(ctx, "maria", nil)
			assert.Error(t, err)
		})
	}
}

func TestFileStoreHashesUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)

	id := "../../etc/passwd"
	require.NoError(t, store.Save(ctx, id, sampleState(id)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^u-[0-9a-f]{16}\.json$`, entries[0].Name())

	got, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.UserID)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maria.json"), []byte(`{"user_id":"maria","current_phase":"NOPE"}`), 0644))

	_, err := NewFileStore(dir).Load(ctx, "maria")
	require.Error(t, err)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
}

func TestCachedStoreServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	store, err := NewCachedStore(inner, 4)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "maria", sampleState("maria")))
	assert.Equal(t, 0, store.Len(), "save does not populate the cache")

	_, err = store.Load(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	// a write behind the cache's back is not visible until the entry is dropped
	changed := sampleState("maria")
	changed.UserName = "Changed"
	require.NoError(t, inner.Save(ctx, "maria", changed))

	got, err := store.Load(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, "Maria", got.UserName)

	require.NoError(t, store.Save(ctx, "maria", changed))
	got, err = store.Load(ctx, "maria")
	require.NoError(t, err)
	assert.Equal(t, "Changed", got.UserName)
}

// gatedStore pauses the first Load after it has read the inner store, until
// released.
type gatedStore struct {
	coaching.Store
	armed   atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func (g *gatedStore) Load(ctx context.Context, userID string) (*coaching.SessionState, error) {
	st, err := g.Store.Load(ctx, userID)
	if g.armed.CompareAndSwap(true, false) {
		g.loaded <- struct{}{}
		<-g.release
	}
	return st, err
}

func TestCachedStoreDoesNotCacheStateOlderThanSave(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	old := coaching.NewSessionState("u", "pl")
	require.NoError(t, inner.Save(ctx, "u", old))

	gated := &gatedStore{Store: inner, loaded: make(chan struct{}), release: make(chan struct{})}
	gated.armed.Store(true)
	store, err := NewCachedStore(gated, 4)
	require.NoError(t, err)

	done := make(chan *coaching.SessionState)
	go func() {
		st, err := store.Load(ctx, "u")
		assert.NoError(t, err)
		done <- st
	}()

	<-gated.loaded
	next := coaching.AddUserMessage(old, "Cześć")
	require.NoError(t, store.Save(ctx, "u", next))
	close(gated.release)
	assert.Empty(t, (<-done).ConversationHistory, "the racing load saw the old state")

	got, err := store.Load(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, got.ConversationHistory, 1)
}

func TestFileStoreReservesHashedPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	unsafe := "../maria"
	hashed := strings.TrimSuffix(store.fileName(unsafe), ".json")
	require.True(t, strings.HasPrefix(hashed, "u-"))

	require.NoError(t, store.Save(ctx, unsafe, sampleState(unsafe)))
	require.NoError(t, store.Save(ctx, hashed, sampleState(hashed)))

	a, err := store.Load(ctx, unsafe)
	require.NoError(t, err)
	assert.Equal(t, unsafe, a.UserID)

	b, err := store.Load(ctx, hashed)
	require.NoError(t, err)
	assert.Equal(t, hashed, b.UserID)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{unsafe, hashed}, ids)
}

func TestSQLiteUsesWAL(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, store.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestNewBackends(t *testing.T) {
	dir := t.TempDir()

	store, closer, err := New(Options{Backend: "in_memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closer.Close())

	store, _, err = New(Options{Backend: BackendFile, DataDir: dir, CacheSize: 16})
	require.NoError(t, err)
	assert.IsType(t, &CachedStore{}, store)

	store, closer, err = New(Options{Backend: BackendSQLite, SQLitePath: filepath.Join(dir, "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = New(Options{Backend: BackendFile})
	assert.Error(t, err)

	_, _, err = New(Options{Backend: "redis"})
	assert.Error(t, err)
}

func TestRebindPostgres(t *testing.T) {
	s := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", s.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	s.dialect = DialectSQLite
	assert.Equal(t, "x = ?", s.rebind("x = ?"))
}
