package userconfig

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBackend resolves scopes the same way MongoBackend does, in memory.
type memBackend struct {
	mu      sync.Mutex
	users   map[uuid.UUID][]Module
	domains map[uuid.UUID][]Module
	lookups int
}

func newMemBackend() *memBackend {
	return &memBackend{
		users:   make(map[uuid.UUID][]Module),
		domains: make(map[uuid.UUID][]Module),
	}
}

func (b *memBackend) Lookup(_ context.Context, module, name string, scope Scope) (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lookups++
	if v, ok := find(b.users[scope.UserID], module, name); ok && scope.UserID != uuid.Nil {
		return v, nil
	}
	if v, ok := find(b.domains[scope.DomainID], module, name); ok && scope.DomainID != uuid.Nil {
		return v, nil
	}
	return nil, ErrNotConfigured
}

func (b *memBackend) Modules(_ context.Context, scope Scope) ([]Module, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return merge(merge(nil, b.domains[scope.DomainID]), b.users[scope.UserID]), nil
}

func (b *memBackend) Set(_ context.Context, module, name string, scope Scope, value json.RawMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if scope.UserID != uuid.Nil {
		b.users[scope.UserID] = put(b.users[scope.UserID], module, name, value)
		return nil
	}
	b.domains[scope.DomainID] = put(b.domains[scope.DomainID], module, name, value)
	return nil
}

func testUser() *users.User {
	return &users.User{ID: uuid.New(), PreferredDomainID: uuid.New()}
}

func TestQuery_userValueOverridesDomain(t *testing.T) {
	ctx := context.Background()
	cfg := New(newMemBackend())
	u := testUser()

	require.NoError(t, cfg.Get("homePage").ForDomain(u.PreferredDomainID).Set(ctx, "calendar"))

	v, err := cfg.Get("homePage").ForUser(u).Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `"calendar"`, string(v))

	require.NoError(t, cfg.Get("homePage").ForUser(u).Set(ctx, "unifiedinbox"))

	v, err = cfg.Get("homePage").ForUser(u).Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `"unifiedinbox"`, string(v))
}

func TestQuery_modulesAreSeparate(t *testing.T) {
	ctx := context.Background()
	cfg := New(newMemBackend())
	u := testUser()

	require.NoError(t, cfg.Get("homePage").InModule("linagora.esn.admin").ForUser(u).Set(ctx, true))

	_, err := cfg.Get("homePage").ForUser(u).Get(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	v, err := cfg.Get("homePage").InModule("linagora.esn.admin").ForUser(u).Get(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `true`, string(v))
}

func TestQuery_requiresScope(t *testing.T) {
	cfg := New(newMemBackend())

	_, err := cfg.Get("homePage").Get(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)

	assert.Error(t, cfg.Get("homePage").Set(context.Background(), 1))
}

func TestModulesForUser(t *testing.T) {
	ctx := context.Background()
	cfg := New(newMemBackend())
	u := testUser()

	require.NoError(t, cfg.Get("homePage").ForDomain(u.PreferredDomainID).Set(ctx, true))
	require.NoError(t, cfg.Get("language").ForDomain(u.PreferredDomainID).Set(ctx, "en"))
	require.NoError(t, cfg.Get("language").ForUser(u).Set(ctx, "fr"))

	got, err := cfg.ModulesForUser(ctx, u)
	require.NoError(t, err)
	require.Len(t, got.Modules, 1)
	assert.Equal(t, DefaultModule, got.Modules[0].Name)
	assert.Equal(t, []Configuration{
		{Name: "homePage", Value: json.RawMessage(`true`)},
		{Name: "language", Value: json.RawMessage(`"fr"`)},
	}, got.Modules[0].Configurations)
}

func TestModulesForUser_emptyIsNotNil(t *testing.T) {
	got, err := New(newMemBackend()).ModulesForUser(context.Background(), testUser())
	require.NoError(t, err)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"modules":[]}`, string(raw))
}

func TestMerge_doesNotAliasInputs(t *testing.T) {
	base := []Module{{Name: "core", Configurations: []Configuration{{Name: "a", Value: json.RawMessage(`1`)}}}}
	override := []Module{{Name: "core", Configurations: []Configuration{{Name: "a", Value: json.RawMessage(`2`)}}}}

	out := merge(base, override)

	assert.JSONEq(t, `2`, string(out[0].Configurations[0].Value))
	assert.JSONEq(t, `1`, string(base[0].Configurations[0].Value))
}
