package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/internal/notification"
)

func TestReduce_DoesNotMutate(t *testing.T) {
	before := State{Tenant: "main"}
	before = Reduce(before, FetchStarted{Key: "main/builds"})

	after := Reduce(before, BuildsLoaded{
		Loaded: Loaded{Key: "main/builds", FetchedAt: time.Unix(10, 0)},
		Builds: []entity.Build{{UUID: "b1", JobName: "tox"}},
	})

	assert.True(t, before.IsLoading("main/builds"))
	assert.Nil(t, before.Builds)
	assert.False(t, after.IsLoading("main/builds"))
	assert.Len(t, after.Builds, 1)
	assert.Equal(t, time.Unix(10, 0), after.FetchedAt["main/builds"])
}

func TestReduce_FailureKeepsLastGood(t *testing.T) {
	state := Reduce(State{}, StatusLoaded{
		Loaded: Loaded{Key: "main/status"},
		Status: entity.Status{Pipelines: []entity.Pipeline{{Name: "check"}}},
	})
	state = Reduce(state, FetchStarted{Key: "main/status"})

	toast := notification.NewToast(notification.LevelError, "Failed to load status", "timeout", time.Now())
	state = Reduce(state, FetchFailed{Key: "main/status", Toast: toast})

	require.NotNil(t, state.Status)
	assert.Equal(t, "check", state.Status.Pipelines[0].Name)
	assert.False(t, state.IsLoading("main/status"))
	require.Len(t, state.Toasts, 1)
	assert.Equal(t, toast.ID, state.Toasts[0].ID)
}

func TestReduce_StaleFlag(t *testing.T) {
	state := Reduce(State{}, JobsLoaded{Loaded: Loaded{Key: "main/jobs", Stale: true}})
	assert.True(t, state.IsStale("main/jobs"))

	state = Reduce(state, JobsLoaded{Loaded: Loaded{Key: "main/jobs"}})
	assert.False(t, state.IsStale("main/jobs"))
}

func TestReduce_Toasts(t *testing.T) {
	state := State{}
	var first string
	for i := 0; i < maxToasts+5; i++ {
		toast := notification.NewToast(notification.LevelInfo, "t", "m", time.Now())
		if i == 5 {
			first = toast.ID
		}
		state = Reduce(state, ToastAdded{Toast: toast})
	}
	require.Len(t, state.Toasts, maxToasts)
	assert.Equal(t, first, state.Toasts[0].ID)

	state = Reduce(state, ToastDismissed{ID: first})
	assert.Len(t, state.Toasts, maxToasts-1)

	// Toasts without an id are ignored.
	state = Reduce(state, ToastAdded{})
	assert.Len(t, state.Toasts, maxToasts-1)
}

func TestReduce_TenantSelected(t *testing.T) {
	state := State{Tenant: "main", Autoscroll: true}
	state = Reduce(state, TenantsLoaded{Tenants: []entity.Tenant{{Name: "main"}, {Name: "other"}}})
	state = Reduce(state, BuildLoaded{Build: entity.Build{UUID: "b1"}})
	state = Reduce(state, NodesLoaded{Nodes: []entity.Node{{ID: "n1"}}})

	same := Reduce(state, TenantSelected{Name: "main"})
	assert.Len(t, same.Nodes, 1)

	switched := Reduce(state, TenantSelected{Name: "other"})
	assert.Equal(t, "other", switched.Tenant)
	assert.Len(t, switched.Tenants, 2)
	assert.Empty(t, switched.Nodes)
	assert.Empty(t, switched.Build)
	assert.True(t, switched.Autoscroll)
}

func TestReduce_DetailMaps(t *testing.T) {
	state := Reduce(State{}, BuildLoaded{Build: entity.Build{UUID: "b1"}})
	next := Reduce(state, BuildLoaded{Build: entity.Build{UUID: "b2"}})
	assert.Len(t, state.Build, 1)
	assert.Len(t, next.Build, 2)

	next = Reduce(next, BuildsetLoaded{Buildset: entity.Buildset{UUID: "s1"}})
	assert.Contains(t, next.Buildset, "s1")
}

func TestStore_StaleCompletionDropped(t *testing.T) {
	s := New(State{})

	older := s.Begin("main/builds")
	newer := s.Begin("main/builds")

	applied := s.Complete("main/builds", newer, BuildsLoaded{
		Loaded: Loaded{Key: "main/builds"},
		Builds: []entity.Build{{UUID: "new"}},
	})
	assert.True(t, applied)

	applied = s.Complete("main/builds", older, BuildsLoaded{
		Loaded: Loaded{Key: "main/builds"},
		Builds: []entity.Build{{UUID: "old"}},
	})
	assert.False(t, applied)

	state := s.State()
	require.Len(t, state.Builds, 1)
	assert.Equal(t, "new", state.Builds[0].UUID)
	assert.False(t, state.IsLoading("main/builds"))
}

func TestStore_StaleCompletionDropped_DifferentQuery(t *testing.T) {
	s := New(State{})

	projectA := s.Begin("main/builds?project=a")
	projectB := s.Begin("main/builds?project=b")

	assert.True(t, s.Complete("main/builds?project=b", projectB, BuildsLoaded{
		Loaded: Loaded{Key: "main/builds?project=b"},
		Builds: []entity.Build{{UUID: "b"}},
	}))
	assert.False(t, s.Complete("main/builds?project=a", projectA, BuildsLoaded{
		Loaded: Loaded{Key: "main/builds?project=a"},
		Builds: []entity.Build{{UUID: "a"}},
	}))

	state := s.State()
	require.Len(t, state.Builds, 1)
	assert.Equal(t, "b", state.Builds[0].UUID)
	assert.False(t, state.IsLoading("main/builds?project=a"))
	assert.False(t, state.IsLoading("main/builds?project=b"))
}

func TestStore_IndependentKeys(t *testing.T) {
	s := New(State{})
	builds := s.Begin("main/builds")
	jobs := s.Begin("main/jobs")

	assert.True(t, s.Complete("main/jobs", jobs, JobsLoaded{Loaded: Loaded{Key: "main/jobs"}}))
	assert.True(t, s.Complete("main/builds", builds, BuildsLoaded{Loaded: Loaded{Key: "main/builds"}}))
}

func TestStore_Subscribe(t *testing.T) {
	s := New(State{})
	var mu sync.Mutex
	var seen []bool

	unsubscribe := s.Subscribe(func(state State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, state.Autoscroll)
	})

	s.Dispatch(AutoscrollSet{Enabled: true})
	s.Dispatch(AutoscrollSet{Enabled: false})
	unsubscribe()
	s.Dispatch(AutoscrollSet{Enabled: true})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
	assert.True(t, s.State().Autoscroll)
}

func TestStore_SubscriberCanDispatch(t *testing.T) {
	s := New(State{})
	var dispatched atomic.Bool
	s.Subscribe(func(state State) {
		if dispatched.CompareAndSwap(false, true) {
			s.Dispatch(ToastAdded{Toast: notification.NewToast(notification.LevelInfo, "t", "m", time.Now())})
		}
	})

	s.Dispatch(AutoscrollSet{Enabled: true})
	assert.Len(t, s.State().Toasts, 1)
}
