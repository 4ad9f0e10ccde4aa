package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"taskdeck/internal/model"
)

var errRemote = errors.New("remote says no")

// fakeRemote is an in-memory server with per-operation error injection and
// optional gates to hold calls in flight.
type fakeRemote struct {
	mu     sync.Mutex
	tasks  []model.Task
	nextID int

	listErr   error
	createErr error
	toggleErr error
	deleteErr error

	toggleGate chan struct{} // when set, ToggleTodo blocks until closed
	deleteGate chan struct{} // when set, DeleteTodo blocks until closed
}

func newFakeRemote(titles ...string) *fakeRemote {
	f := &fakeRemote{}
	for _, title := range titles {
		f.nextID++
		f.tasks = append(f.tasks, model.Task{
			ID:        fmt.Sprintf("t%d", f.nextID),
			Title:     title,
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return f
}

func (f *fakeRemote) ListTodos(ctx context.Context) ([]model.Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeRemote) CreateTodo(ctx context.Context, title string) (model.Task, error) {
	if f.createErr != nil {
		return model.Task{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := model.Task{
		ID:        fmt.Sprintf("t%d", f.nextID),
		Title:     title,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeRemote) ToggleTodo(ctx context.Context, id string) error {
	if f.toggleGate != nil {
		<-f.toggleGate
	}
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Completed = !f.tasks[i].Completed
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRemote) DeleteTodo(ctx context.Context, id string) error {
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func ids(snap []model.Task) []string {
	out := make([]string, len(snap))
	for i, t := range snap {
		out[i] = t.ID
	}
	return out
}

func mustRefresh(t *testing.T, l *List) {
	t.Helper()
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func TestAddAppendsServerTask(t *testing.T) {
	remote := newFakeRemote()
	l := NewList(remote)
	mustRefresh(t, l)

	created, err := l.Add(context.Background(), "Buy milk")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.ID != "t1" || created.Title != "Buy milk" || created.Completed {
		t.Errorf("unexpected created task: %+v", created)
	}
	snap := l.Snapshot()
	if len(snap) != 1 || snap[0].ID != "t1" {
		t.Errorf("expected list [t1], got %v", ids(snap))
	}
}

func TestAddFailureLeavesListUntouched(t *testing.T) {
	remote := newFakeRemote("Existing")
	remote.createErr = errRemote
	l := NewList(remote)
	mustRefresh(t, l)

	if _, err := l.Add(context.Background(), "Doomed"); !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if got := l.Len(); got != 1 {
		t.Errorf("expected 1 task after failed add, got %d", got)
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	l := NewList(newFakeRemote())
	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := l.Add(context.Background(), title); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("title %q: expected ErrEmptyTitle, got %v", title, err)
		}
	}
}

func TestToggleCommits(t *testing.T) {
	remote := newFakeRemote("Buy milk")
	l := NewList(remote)
	mustRefresh(t, l)

	if err := l.Toggle(context.Background(), "t1"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	got, ok := l.Get("t1")
	if !ok || !got.Completed {
		t.Errorf("expected t1 completed, got %+v", got)
	}
}

func TestToggleFailureRevertsFlip(t *testing.T) {
	remote := newFakeRemote("Buy milk")
	remote.toggleErr = errRemote
	l := NewList(remote)
	mustRefresh(t, l)

	if err := l.Toggle(context.Background(), "t1"); !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	got, _ := l.Get("t1")
	if got.Completed {
		t.Errorf("expected revert to completed=false, got %+v", got)
	}
}

func TestToggleUnknownID(t *testing.T) {
	l := NewList(newFakeRemote("A"))
	mustRefresh(t, l)
	if err := l.Toggle(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCommits(t *testing.T) {
	remote := newFakeRemote("A", "B", "C")
	l := NewList(remote)
	mustRefresh(t, l)

	if err := l.Delete(context.Background(), "t2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	snap := l.Snapshot()
	if len(snap) != 2 || snap[0].ID != "t1" || snap[1].ID != "t3" {
		t.Errorf("expected [t1 t3], got %v", ids(snap))
	}
}

func TestDeleteFailureRestoresListVerbatim(t *testing.T) {
	remote := newFakeRemote("A", "B", "C")
	remote.deleteErr = errRemote
	l := NewList(remote)
	mustRefresh(t, l)
	before := l.Snapshot()

	if err := l.Delete(context.Background(), "t2"); !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	after := l.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("expected %d tasks, got %d", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("slot %d: expected %+v, got %+v", i, before[i], after[i])
		}
	}
}

func TestRefreshReplacesWholeList(t *testing.T) {
	remote := newFakeRemote("A", "B")
	l := NewList(remote)
	mustRefresh(t, l)

	remote.mu.Lock()
	remote.tasks = remote.tasks[:1]
	remote.mu.Unlock()

	mustRefresh(t, l)
	if snap := l.Snapshot(); len(snap) != 1 || snap[0].ID != "t1" {
		t.Errorf("expected [t1], got %v", ids(snap))
	}
}

// A toggle that fails after a delete on the same id settled must not
// resurrect the task.
func TestStaleToggleRollbackDoesNotResurrect(t *testing.T) {
	remote := newFakeRemote("A")
	remote.toggleGate = make(chan struct{})
	remote.toggleErr = errRemote
	l := NewList(remote)
	mustRefresh(t, l)

	toggleDone := make(chan error, 1)
	go func() { toggleDone <- l.Toggle(context.Background(), "t1") }()

	// wait for the optimistic flip to land
	waitFor(t, func() bool {
		got, ok := l.Get("t1")
		return ok && got.Completed
	})

	if err := l.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	close(remote.toggleGate)
	if err := <-toggleDone; !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error from toggle, got %v", err)
	}

	if got := l.Len(); got != 0 {
		t.Errorf("stale toggle rollback resurrected the task: %v", ids(l.Snapshot()))
	}
}

// Two overlapping toggles on the same id that both fail settle one flip
// ahead of the server: the older rollback is disarmed by the newer apply,
// and the newer rollback restores its own pre-state, which still carries
// the older optimistic flip. Refresh reconciles.
func TestOverlappingFailedTogglesSettleOneFlipAhead(t *testing.T) {
	remote := newFakeRemote("A")
	remote.toggleGate = make(chan struct{})
	remote.toggleErr = errRemote
	l := NewList(remote)
	mustRefresh(t, l)

	first := make(chan error, 1)
	go func() { first <- l.Toggle(context.Background(), "t1") }()
	waitFor(t, func() bool {
		got, ok := l.Get("t1")
		return ok && got.Completed
	})

	second := make(chan error, 1)
	go func() { second <- l.Toggle(context.Background(), "t1") }()
	waitFor(t, func() bool {
		got, ok := l.Get("t1")
		return ok && !got.Completed
	})

	close(remote.toggleGate)
	if err := <-first; !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error from first toggle, got %v", err)
	}
	if err := <-second; !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error from second toggle, got %v", err)
	}

	got, _ := l.Get("t1")
	if !got.Completed {
		t.Errorf("expected the first flip to survive both failures, got %+v", got)
	}

	// the server never flipped; a refresh brings the list back in line
	remote.toggleErr = nil
	mustRefresh(t, l)
	if got, _ := l.Get("t1"); got.Completed {
		t.Errorf("expected refresh to restore server state, got %+v", got)
	}
}

// A delete rollback after an unrelated add must keep the add and put the
// deleted task back in its old slot.
func TestDeleteRollbackPreservesConcurrentAdd(t *testing.T) {
	remote := newFakeRemote("A", "B", "C")
	remote.deleteGate = make(chan struct{})
	remote.deleteErr = errRemote
	l := NewList(remote)
	mustRefresh(t, l)

	deleteDone := make(chan error, 1)
	go func() { deleteDone <- l.Delete(context.Background(), "t2") }()

	waitFor(t, func() bool { return l.Len() == 2 })

	if _, err := l.Add(context.Background(), "D"); err != nil {
		t.Fatalf("add: %v", err)
	}

	close(remote.deleteGate)
	if err := <-deleteDone; !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error from delete, got %v", err)
	}

	got := ids(l.Snapshot())
	want := []string{"t1", "t2", "t3", "t4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

// Sequential mixed workload with injected failures: the settled list must
// equal the result of applying only the successful actions in order.
func TestSettledListMatchesSuccessfulActions(t *testing.T) {
	remote := newFakeRemote("A", "B", "C", "D")
	l := NewList(remote)
	mustRefresh(t, l)
	ctx := context.Background()

	steps := []struct {
		op   string
		id   string
		fail bool
	}{
		{op: "toggle", id: "t1"},
		{op: "toggle", id: "t2", fail: true},
		{op: "delete", id: "t3"},
		{op: "delete", id: "t4", fail: true},
		{op: "toggle", id: "t1"},
	}
	for _, step := range steps {
		remote.toggleErr, remote.deleteErr = nil, nil
		var err error
		switch step.op {
		case "toggle":
			if step.fail {
				remote.toggleErr = errRemote
			}
			err = l.Toggle(ctx, step.id)
		case "delete":
			if step.fail {
				remote.deleteErr = errRemote
			}
			err = l.Delete(ctx, step.id)
		}
		if step.fail != (err != nil) {
			t.Fatalf("%s %s: fail=%v but err=%v", step.op, step.id, step.fail, err)
		}
	}

	// successes: toggle t1 twice (back to false), delete t3
	snap := l.Snapshot()
	got := ids(snap)
	want := []string{"t1", "t2", "t4"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	for _, task := range snap {
		if task.Completed {
			t.Errorf("expected %s uncompleted, got %+v", task.ID, task)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never became true")
}
