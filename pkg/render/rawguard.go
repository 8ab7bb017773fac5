package render

import (
	"sync"
)

// RawGuard holds a terminal in raw mode. Release restores the previous
// mode; it is idempotent so it can be both deferred and called early.
//
//	guard, err := render.AcquireRaw(term)
//	if err != nil {
//		return err
//	}
//	defer guard.Release()
type RawGuard struct {
	once    sync.Once
	restore func() error
	err     error
}

// AcquireRaw switches t to raw mode.
func AcquireRaw(t Terminal) (*RawGuard, error) {
	restore, err := t.MakeRaw()
	if err != nil {
		return nil, err
	}
	return &RawGuard{restore: restore}, nil
}

// Release restores cooked mode. Calls after the first return the first
// call's result.
func (g *RawGuard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		g.err = g.restore()
	})
	return g.err
}
