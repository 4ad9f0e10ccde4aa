// Package tasks keeps the visible task list consistent with the remote
// store under latency and partial failure.
//
// Toggle and delete apply locally first and issue the remote call after;
// a failed call rolls the local change back. Rollbacks are guarded by a
// per-task revision so that, when two in-flight mutations race on the same
// id, the last settled call wins and a stale rollback never resurrects
// state a later call legitimately replaced.
package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"

	"taskdeck/internal/model"
)

var (
	// ErrNotFound is returned for mutations on an id not in the list.
	ErrNotFound = errors.New("task not found")

	// ErrEmptyTitle is returned by Add for blank titles.
	ErrEmptyTitle = errors.New("empty title")
)

// Remote is the slice of the API client the list drives. *api.Client
// satisfies it.
type Remote interface {
	ListTodos(ctx context.Context) ([]model.Task, error)
	CreateTodo(ctx context.Context, title string) (model.Task, error)
	ToggleTodo(ctx context.Context, id string) error
	DeleteTodo(ctx context.Context, id string) error
}

// List is the in-memory ordered task collection. Methods are safe for
// concurrent use; the lock is never held across a remote call, so actions
// on different ids proceed independently.
type List struct {
	mu     sync.Mutex
	tasks  []model.Task
	rev    map[string]uint64 // per-id revision, bumped on every settled local change
	seq    uint64            // list-wide change counter
	remote Remote
}

// NewList creates an empty list backed by the given remote.
func NewList(remote Remote) *List {
	return &List{
		rev:    make(map[string]uint64),
		remote: remote,
	}
}

// Refresh replaces the whole local list with the server's current list.
// This is the only read path; there is no incremental refresh. Pending
// rollbacks from before the refresh are disarmed.
func (l *List) Refresh(ctx context.Context) error {
	fetched, err := l.remote.ListTodos(ctx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.tasks = fetched
	l.rev = make(map[string]uint64)
	l.seq++
	l.mu.Unlock()
	return nil
}

// Add creates a task. There is no optimistic insert: the id comes from the
// server, so the task is appended only once the create call succeeds. On
// failure nothing changes and the caller keeps its draft for a retry.
func (l *List) Add(ctx context.Context, title string) (model.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Task{}, ErrEmptyTitle
	}
	created, err := l.remote.CreateTodo(ctx, title)
	if err != nil {
		return model.Task{}, err
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, created)
	l.seq++
	l.mu.Unlock()
	return created, nil
}

// Toggle flips a task's completed flag locally, then remotely. A failed
// call flips it back unless a later mutation on the same id has settled
// in the meantime.
func (l *List) Toggle(ctx context.Context, id string) error {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	prev := l.tasks[i].Completed
	l.tasks[i].Completed = !prev
	l.seq++
	l.rev[id]++
	rev := l.rev[id]
	l.mu.Unlock()

	if err := l.remote.ToggleTodo(ctx, id); err != nil {
		l.mu.Lock()
		if l.rev[id] == rev {
			if j := l.index(id); j >= 0 {
				l.tasks[j].Completed = prev
				l.seq++
				l.rev[id]++
			}
		}
		l.mu.Unlock()
		return err
	}
	return nil
}

// Delete removes a task locally, then remotely. On failure the prior list
// is restored verbatim when nothing else changed in between; otherwise
// only the deleted task is re-inserted at its old slot, and only if no
// later mutation on its id settled first.
func (l *List) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	i := l.index(id)
	if i < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	snapshot := make([]model.Task, len(l.tasks))
	copy(snapshot, l.tasks)
	removed := l.tasks[i]
	l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
	l.seq++
	snapSeq := l.seq
	l.rev[id]++
	rev := l.rev[id]
	l.mu.Unlock()

	if err := l.remote.DeleteTodo(ctx, id); err != nil {
		l.mu.Lock()
		if l.rev[id] == rev {
			if l.seq == snapSeq {
				l.tasks = snapshot
			} else {
				at := i
				if at > len(l.tasks) {
					at = len(l.tasks)
				}
				l.tasks = append(l.tasks[:at], append([]model.Task{removed}, l.tasks[at:]...)...)
			}
			l.seq++
			l.rev[id]++
		}
		l.mu.Unlock()
		return err
	}

	// settled for good; disarm any older in-flight rollback on this id
	l.mu.Lock()
	delete(l.rev, id)
	l.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current list for rendering. The copy is
// taken under the lock, so a reader sees either the pre- or post-mutation
// list, never a torn one.
func (l *List) Snapshot() []model.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Get returns the task with the given id.
func (l *List) Get(id string) (model.Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(id); i >= 0 {
		return l.tasks[i], true
	}
	return model.Task{}, false
}

// Len returns the number of visible tasks.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Stats counts completed and pending tasks for the list header.
func (l *List) Stats() (done, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.tasks {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// index returns the slot of id, or -1. Caller holds the lock.
func (l *List) index(id string) int {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
