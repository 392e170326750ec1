package controller

import (
	"context"
	"testing"
	"time"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/repository"
	"github.com/modtrackin/modtrackin/internal/utils"
)

var fixedNow = time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC)

type testEnv struct {
	store  *docstore.MemoryStore
	oracle *identity.Static
	deps   repository.Deps
}

func setupEnv(t *testing.T, uid string) *testEnv {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	oracle := identity.NewStatic(uid)
	return &testEnv{
		store:  store,
		oracle: oracle,
		deps: repository.Deps{
			Store:    store,
			Oracle:   oracle,
			Clock:    utils.FixedClock(fixedNow),
			Location: time.UTC,
		},
	}
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

var bg = context.Background()
