package controller

import (
	"context"
	"sync"

	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/identity"
	"github.com/modtrackin/modtrackin/internal/logger"
)

type listenFunc[T any] func(context.Context, func([]T, error)) (docstore.Subscription, error)

// feed keeps a list current through a store subscription. The subscription
// is reopened on every sign-in and dropped on sign-out, when deliver is
// called with nil.
type feed[T any] struct {
	name    string
	listen  listenFunc[T]
	deliver func([]T)

	mu  sync.Mutex
	sub docstore.Subscription
	// gen increases whenever the subscription is replaced or dropped, so a
	// late delivery from an old one is discarded.
	gen        int
	cancelAuth func()
	closed     bool
}

func startFeed[T any](name string, oracle identity.Oracle, listen listenFunc[T], deliver func([]T)) *feed[T] {
	f := &feed[T]{name: name, listen: listen, deliver: deliver}
	f.cancelAuth = oracle.OnAuthStateChange(func(uid string) {
		if uid == "" {
			f.stop()
			f.mu.Lock()
			deliver(nil)
			f.mu.Unlock()
			return
		}
		f.restart()
	})
	if _, ok := oracle.CurrentUser(); ok {
		f.restart()
	}
	return f
}

func (f *feed[T]) restart() {
	f.stop()
	f.mu.Lock()
	gen := f.gen
	f.mu.Unlock()

	// The subscription outlives any request context; close releases it.
	sub, err := f.listen(context.Background(), func(items []T, err error) {
		if err != nil {
			logListenerError(f.name, err)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen != gen {
			return
		}
		f.deliver(items)
	})
	if err != nil {
		logger.Warn("could not start listener", "feature", f.name, "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.gen != gen {
		sub.Close()
		return
	}
	f.sub = sub
}

func (f *feed[T]) stop() {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.gen++
	f.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (f *feed[T]) close() {
	if f.cancelAuth != nil {
		f.cancelAuth()
	}
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.stop()
}
