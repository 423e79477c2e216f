package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// userLock tracks a per-user mutex together with the number of updates
// currently waiting on it, so idle entries can be pruned.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// SerializeMiddleware returns a middleware that guarantees at most one
// in-flight update per sender. Updates from different users proceed in
// parallel; updates from the same user queue up and run one at a time, which
// keeps conversation state from being mutated by two turns at once.
//
// The lock table lives in the constructor, not in the returned
// MiddlewareFunc: telebot re-applies middleware to the handler on every
// update, so state declared any deeper would reset per update.
func SerializeMiddleware() tele.MiddlewareFunc {
	var (
		tableMu sync.Mutex
		locks   = make(map[int64]*userLock)
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			tableMu.Lock()
			l, ok := locks[user.ID]
			if !ok {
				l = &userLock{}
				locks[user.ID] = l
			}
			l.refs++
			tableMu.Unlock()

			l.mu.Lock()
			err := next(c)
			l.mu.Unlock()

			tableMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(locks, user.ID)
			}
			tableMu.Unlock()

			return err
		}
	}
}
