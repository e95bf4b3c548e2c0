package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks running and finished assessments by ID. All state lives
// behind the registry's own lock; there is no package-level registry, so
// independent registries never observe each other.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sup    *Supervisor
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Launch starts an assessment in the background and returns its ID. The
// scan runs under a context derived from ctx; Cancel stops it early.
func (r *Registry) Launch(ctx context.Context, cfg *Config, rawTarget string) string {
	sup := NewSupervisor(cfg)
	runCtx, cancel := context.WithCancel(ctx)

	id := uuid.NewString()
	e := &entry{sup: sup, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()

	go func() {
		defer close(e.done)
		defer cancel()
		sup.Run(runCtx, rawTarget)
	}()

	return id
}

// Status returns the current snapshot of an assessment.
func (r *Registry) Status(id string) (Assessment, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Assessment{}, err
	}
	return e.sup.Status(), nil
}

// Cancel requests cancellation of a running assessment. Cancelling an
// already terminal assessment is a no-op.
func (r *Registry) Cancel(id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.cancel()
	return nil
}

// Wait blocks until the assessment reaches a terminal state, then returns
// its final snapshot.
func (r *Registry) Wait(id string) (Assessment, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Assessment{}, err
	}
	<-e.done
	return e.sup.Status(), nil
}

// Active returns the IDs of assessments not yet in a terminal state.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, e := range r.entries {
		if !e.sup.Status().State.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Remove drops a terminal assessment from the registry. Removing a
// non-terminal assessment is an error; cancel it first.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("scan %s: not found", id)
	}
	if !e.sup.Status().State.Terminal() {
		return fmt.Errorf("scan %s: still running", id)
	}
	delete(r.entries, id)
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("scan %s: not found", id)
	}
	return e, nil
}
