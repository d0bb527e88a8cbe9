package account

import (
	"github.com/gofiber/fiber/v2/middleware/session"
)

// FiberSessionStore adapts a fiber session to the SessionStore seam the sign
// in flows write through.
type FiberSessionStore struct {
	session *session.Session
}

func NewFiberSessionStore(s *session.Session) *FiberSessionStore {
	return &FiberSessionStore{session: s}
}

func (f *FiberSessionStore) Insert(key string, value any) error {
	f.session.Set(key, value)
	return f.session.Save()
}

func (f *FiberSessionStore) Purge() error {
	return f.session.Destroy()
}

var _ SessionStore = (*FiberSessionStore)(nil)
