package target

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	StatementStore
	connectErr error
	closeErr   error
	closed     bool
}

func (f *fakeStore) Connect(context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	if _, err := f.BeginConnect(); err != nil {
		return err
	}
	return f.FinishConnect(&recordingSession{}, nil)
}

func (f *fakeStore) DropDatabase(ctx context.Context, confirm core.Confirmer) error {
	if err := f.Confirmed(ctx, confirm); err != nil {
		return err
	}
	f.MarkDropped()
	return nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	if err := f.StatementStore.Close(); err != nil {
		return err
	}
	return f.closeErr
}

func registerFake(t *testing.T, name string, store *fakeStore) {
	t.Helper()
	Register(name, func(cfg core.ConnectionConfig, logger *slog.Logger) (core.Store, error) {
		store.StatementStore = NewStatementStore(cfg, testDialect, logger)
		return store, nil
	})
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, name)
		registryMu.Unlock()
	})
}

func TestRegistry(t *testing.T) {
	registerFake(t, "fake-registry", &fakeStore{})

	f, ok := Get("fake-registry")
	assert.True(t, ok)
	assert.NotNil(t, f)

	assert.True(t, IsRegistered("fake-registry"))
	assert.Contains(t, ListAdapters(), "fake-registry")

	_, ok = Get("missing")
	assert.False(t, ok)
}

func TestNewStore(t *testing.T) {
	registerFake(t, "fake-new", &fakeStore{})

	tests := []struct {
		name    string
		cfg     core.ConnectionConfig
		wantErr any
	}{
		{
			name: "registered adapter",
			cfg:  core.ConnectionConfig{Adapter: "fake-new", Host: "h", Database: "d"},
		},
		{
			name:    "invalid configuration",
			cfg:     core.ConnectionConfig{Adapter: "fake-new", Database: "d"},
			wantErr: new(*core.ConfigurationError),
		},
		{
			name:    "unknown adapter",
			cfg:     core.ConnectionConfig{Adapter: "redis", Host: "h", Database: "d"},
			wantErr: new(*UnknownAdapterError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.cfg, nil)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorAs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, store.HasConnection(), "NewStore never connects")
		})
	}
}

func TestUnknownAdapterError(t *testing.T) {
	err := &UnknownAdapterError{Type: "redis", Available: []string{"cassandra", "mongodb"}}
	assert.Contains(t, err.Error(), `unknown target adapter "redis"`)
	assert.Contains(t, err.Error(), "cassandra")
	assert.Contains(t, err.Error(), "no_sql_connection.adapter")
}

func TestWithStore(t *testing.T) {
	cfg := core.ConnectionConfig{Adapter: "fake-with", Host: "h", Database: "d"}

	t.Run("runs fn on a connected store and closes it", func(t *testing.T) {
		fake := &fakeStore{}
		registerFake(t, "fake-with", fake)

		err := WithStore(context.Background(), cfg, nil, func(s core.Store) error {
			assert.True(t, s.HasConnection())
			return nil
		})
		require.NoError(t, err)
		assert.True(t, fake.closed)
	})

	t.Run("closes on fn failure and joins close error", func(t *testing.T) {
		fake := &fakeStore{closeErr: errors.New("close failed")}
		registerFake(t, "fake-with", fake)

		fnErr := errors.New("fn failed")
		err := WithStore(context.Background(), cfg, nil, func(core.Store) error { return fnErr })
		assert.ErrorIs(t, err, fnErr)
		assert.ErrorContains(t, err, "close failed")
		assert.True(t, fake.closed)
	})

	t.Run("connect failure skips fn", func(t *testing.T) {
		fake := &fakeStore{connectErr: errors.New("refused")}
		registerFake(t, "fake-with", fake)

		called := false
		err := WithStore(context.Background(), cfg, nil, func(core.Store) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
		assert.True(t, fake.closed)
	})
}
