package middleware

import (
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type senderCtx struct {
	tele.Context
	user *tele.User
}

func (c senderCtx) Sender() *tele.User { return c.user }

// Each delivery wraps the handler through the middleware anew, the way
// telebot applies registered middleware per update. Serialization must come
// from the constructor's shared lock table, not from the wrap.
func deliver(mw tele.MiddlewareFunc, h tele.HandlerFunc, c tele.Context) error {
	return mw(h)(c)
}

func TestSerializeMiddlewareSameUserRunsSequentially(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	handler := func(c tele.Context) error {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	mw := SerializeMiddleware()
	ctx := senderCtx{user: &tele.User{ID: 1}}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = deliver(mw, handler, ctx)
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("max concurrent handlers for one user = %d, expected 1", maxSeen)
	}
}

func TestSerializeMiddlewareDifferentUsersRunInParallel(t *testing.T) {
	release := make(chan struct{})
	started := make(chan int64, 2)

	handler := func(c tele.Context) error {
		started <- c.Sender().ID
		<-release
		return nil
	}

	mw := SerializeMiddleware()
	var wg sync.WaitGroup
	for _, id := range []int64{1, 2} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = deliver(mw, handler, senderCtx{user: &tele.User{ID: id}})
		}(id)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("second user blocked behind the first")
		}
	}
	close(release)
	wg.Wait()
}

func TestSerializeMiddlewareNilSenderPassesThrough(t *testing.T) {
	called := false
	mw := SerializeMiddleware()
	handler := func(c tele.Context) error {
		called = true
		return nil
	}
	if err := deliver(mw, handler, senderCtx{user: nil}); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("handler was not invoked")
	}
}
