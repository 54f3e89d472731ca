package dataset

import (
	"errors"
	"fmt"
	"sync"
)

var ErrBusy = errors.New("dataset busy")

// Guard admits one multi-step operation at a time. A second caller is refused
// rather than queued so the operator sees which flow is running.
type Guard struct {
	section string
	mu      sync.Mutex
	holder  string
}

func (g *Guard) Acquire(op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holder != "" {
		return nil, fmt.Errorf("'%s' is currently processing %s: %w", g.section, g.holder, ErrBusy)
	}
	g.holder = op
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.holder = ""
			g.mu.Unlock()
		})
	}, nil
}

func (g *Guard) Holder() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holder
}
