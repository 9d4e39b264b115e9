package store

import (
	"github.com/blankon/cidash/internal/notification"
)

// Reduce returns the state after applying action. It never mutates state.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case TenantSelected:
		if a.Name == state.Tenant {
			return state
		}
		return State{
			Tenant:     a.Name,
			Tenants:    state.Tenants,
			Toasts:     state.Toasts,
			Autoscroll: state.Autoscroll,
		}
	case FetchStarted:
		state.Loading = withFlag(state.Loading, a.Key, true)
	case FetchFailed:
		state.Loading = withFlag(state.Loading, a.Key, false)
		state = addToast(state, a.Toast)
	case FetchSuperseded:
		state.Loading = withFlag(state.Loading, a.Key, false)
	case InfoLoaded:
		info := a.Info
		state.Info = &info
		state = loaded(state, a.Loaded)
	case TenantsLoaded:
		state.Tenants = a.Tenants
		state = loaded(state, a.Loaded)
	case StatusLoaded:
		status := a.Status
		state.Status = &status
		state = loaded(state, a.Loaded)
	case BuildsLoaded:
		state.Builds = a.Builds
		state = loaded(state, a.Loaded)
	case BuildsetsLoaded:
		state.Buildsets = a.Buildsets
		state = loaded(state, a.Loaded)
	case BuildLoaded:
		state.Build = withEntry(state.Build, a.Build.UUID, a.Build)
		state = loaded(state, a.Loaded)
	case BuildsetLoaded:
		state.Buildset = withEntry(state.Buildset, a.Buildset.UUID, a.Buildset)
		state = loaded(state, a.Loaded)
	case JobsLoaded:
		state.Jobs = a.Jobs
		state = loaded(state, a.Loaded)
	case JobLoaded:
		state.Job = withEntry(state.Job, a.Name, a.Variants)
		state = loaded(state, a.Loaded)
	case ProjectLoaded:
		state.Project = withEntry(state.Project, a.Project.Name, a.Project)
		state = loaded(state, a.Loaded)
	case AutoholdLoaded:
		state.Autohold = withEntry(state.Autohold, a.Autohold.ID, a.Autohold)
		state = loaded(state, a.Loaded)
	case ProjectsLoaded:
		state.Projects = a.Projects
		state = loaded(state, a.Loaded)
	case NodesLoaded:
		state.Nodes = a.Nodes
		state = loaded(state, a.Loaded)
	case LabelsLoaded:
		state.Labels = a.Labels
		state = loaded(state, a.Loaded)
	case AutoholdsLoaded:
		state.Autoholds = a.Autoholds
		state = loaded(state, a.Loaded)
	case ConfigErrorsLoaded:
		state.ConfigErrors = a.ConfigErrors
		state = loaded(state, a.Loaded)
	case ToastAdded:
		state = addToast(state, a.Toast)
	case ToastDismissed:
		toasts := make([]notification.Toast, 0, len(state.Toasts))
		for _, toast := range state.Toasts {
			if toast.ID != a.ID {
				toasts = append(toasts, toast)
			}
		}
		state.Toasts = toasts
	case AutoscrollSet:
		state.Autoscroll = a.Enabled
	}
	return state
}

func loaded(state State, l Loaded) State {
	state.Loading = withFlag(state.Loading, l.Key, false)
	state.Stale = withFlag(state.Stale, l.Key, l.Stale)
	state.FetchedAt = withEntry(state.FetchedAt, l.Key, l.FetchedAt)
	return state
}

func addToast(state State, toast notification.Toast) State {
	if toast.ID == "" {
		return state
	}
	toasts := make([]notification.Toast, 0, len(state.Toasts)+1)
	toasts = append(toasts, state.Toasts...)
	toasts = append(toasts, toast)
	if len(toasts) > maxToasts {
		toasts = toasts[len(toasts)-maxToasts:]
	}
	state.Toasts = toasts
	return state
}

// withFlag copies m with key set; false removes the key.
func withFlag(m map[string]bool, key string, value bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if value {
		out[key] = true
	} else {
		delete(out, key)
	}
	return out
}

func withEntry[V any](m map[string]V, key string, value V) map[string]V {
	out := make(map[string]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}
