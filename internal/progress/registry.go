package progress

import (
	"container/list"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity bounds the registry when no capacity is configured.
const DefaultCapacity = 512

var (
	// ErrDuplicateHandle is returned when a handle already has a lifecycle.
	ErrDuplicateHandle = errors.New("progress: handle already registered")
	// ErrUnknownHandle is returned when updating a handle that is not tracked.
	ErrUnknownHandle = errors.New("progress: unknown handle")
	// ErrInvalidTransition is returned when an update would break the monotonic status order.
	ErrInvalidTransition = errors.New("progress: invalid status transition")
)

// Progress is the snapshot observers see for one call.
type Progress struct {
	Handle             string    `json:"handle"`
	Status             Status    `json:"status"`
	AttendeeName       string    `json:"attendee_name"`
	PhoneNumber        string    `json:"phone_number"`
	MeetingDescription string    `json:"meeting_description"`
	CallStatus         string    `json:"call_status,omitempty"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	ReportID           *int64    `json:"report_id,omitempty"`
	ReportPath         string    `json:"report_path,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	StartedAt          time.Time `json:"started_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (p Progress) clone() Progress {
	if p.ReportID != nil {
		id := *p.ReportID
		p.ReportID = &id
	}
	return p
}

func (p Progress) validate() error {
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, p.Status)
	}
	failing := p.Status == StatusFailed || p.Status == StatusError
	if failing && strings.TrimSpace(p.ErrorMessage) == "" {
		return fmt.Errorf("%w: %s requires an error message", ErrInvalidTransition, p.Status)
	}
	if !failing && p.ErrorMessage != "" {
		return fmt.Errorf("%w: error message set on %s entry", ErrInvalidTransition, p.Status)
	}
	if p.ReportID != nil && p.Status != StatusCompleted {
		return fmt.Errorf("%w: report id set on %s entry", ErrInvalidTransition, p.Status)
	}
	return nil
}

type entry struct {
	progress Progress
	elem     *list.Element
}

// Registry is a bounded, mutex-guarded map from call handle to progress.
type Registry struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*entry
	// order holds handles, most recently updated at the front.
	order *list.List
	now   func() time.Time
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for StartedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry constructs a registry holding at most capacity entries.
func NewRegistry(capacity int, opts ...Option) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Registry{
		capacity: capacity,
		entries:  make(map[string]*entry),
		order:    list.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register records the initial progress for a new lifecycle.
func (r *Registry) Register(handle string, initial Progress) error {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return errors.New("progress: handle is required")
	}
	initial.Handle = handle
	if initial.Status == "" {
		initial.Status = StatusInitiated
	}
	if err := initial.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[handle]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandle, handle)
	}
	now := r.now()
	if initial.StartedAt.IsZero() {
		initial.StartedAt = now
	}
	initial.UpdatedAt = now

	r.evictLocked()
	e := &entry{progress: initial.clone()}
	e.elem = r.order.PushFront(handle)
	r.entries[handle] = e
	return nil
}

// Get returns a copy of the progress for handle.
func (r *Registry) Get(handle string) (Progress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[handle]
	if !ok {
		return Progress{}, false
	}
	return e.progress.clone(), true
}

// Update applies mutate to a copy of the entry and stores it when the result
// is a valid monotonic successor. A rejected update leaves the entry as it was.
func (r *Registry) Update(handle string, mutate func(*Progress)) (Progress, error) {
	if mutate == nil {
		return Progress{}, errors.New("progress: mutator is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[handle]
	if !ok {
		return Progress{}, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	current := e.progress
	next := current.clone()
	mutate(&next)
	next.Handle = current.Handle
	next.StartedAt = current.StartedAt

	if current.Status.Terminal() {
		return current.clone(), fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current.Status)
	}
	if !CanTransition(current.Status, next.Status) {
		return current.clone(), fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next.Status)
	}
	if err := next.validate(); err != nil {
		return current.clone(), err
	}

	next.UpdatedAt = r.now()
	e.progress = next
	r.order.MoveToFront(e.elem)
	return next.clone(), nil
}

// Len reports the number of tracked entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Active reports how many tracked lifecycles have not reached a terminal status.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if !e.progress.Status.Terminal() {
			count++
		}
	}
	return count
}

// Snapshot returns copies of every entry, most recently started first.
func (r *Registry) Snapshot() []Progress {
	r.mu.Lock()
	out := make([]Progress, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.progress.clone())
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].Handle < out[j].Handle
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// evictLocked makes room for one more entry. Terminal entries go first, least
// recently updated first; in-flight entries are evicted only when nothing
// else is left.
func (r *Registry) evictLocked() {
	for len(r.entries) >= r.capacity {
		victim := r.oldestLocked(true)
		if victim == nil {
			victim = r.oldestLocked(false)
		}
		if victim == nil {
			return
		}
		handle := victim.Value.(string)
		r.order.Remove(victim)
		delete(r.entries, handle)
	}
}

func (r *Registry) oldestLocked(terminalOnly bool) *list.Element {
	for elem := r.order.Back(); elem != nil; elem = elem.Prev() {
		if !terminalOnly {
			return elem
		}
		if r.entries[elem.Value.(string)].progress.Status.Terminal() {
			return elem
		}
	}
	return nil
}
