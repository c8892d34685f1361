package controller

import (
	"encoding/json"
	"strconv"

	"github.com/phrazzld/bootui/internal/task"
)

// Bundle keys
const (
	KeyTaskIDGetVersion = "task_id_get_version"
	KeyTaskIDInstall    = "task_id_install"
	KeyTaskIDUninstall  = "task_id_uninstall"

	// KeyPendingReleasePrefix is followed by 0, 1, ... in the integer form.
	KeyPendingReleasePrefix = "pending_release_"
)

// Slots holds the task each action is waiting for, or task.InvalidID.
type Slots struct {
	QueryVersion task.ID
	Install      task.ID
	Uninstall    task.ID
}

// EmptySlots returns slots with no task outstanding.
func EmptySlots() Slots {
	return Slots{
		QueryVersion: task.InvalidID,
		Install:      task.InvalidID,
		Uninstall:    task.InvalidID,
	}
}

func (s *Slots) each(fn func(slot *task.ID)) {
	fn(&s.QueryVersion)
	fn(&s.Install)
	fn(&s.Uninstall)
}

// lookup returns the slot holding id, or nil.
func (s *Slots) lookup(id task.ID) *task.ID {
	if !id.Valid() {
		return nil
	}
	switch id {
	case s.QueryVersion:
		return &s.QueryVersion
	case s.Install:
		return &s.Install
	case s.Uninstall:
		return &s.Uninstall
	}
	return nil
}

// Bundle is the controller state that survives the controller's own
// destruction: the three slots plus any releases that could not be sent
// because the worker was not attached.
type Bundle struct {
	Slots          Slots
	PendingRelease []task.ID
}

type bundleJSON struct {
	TaskIDGetVersion task.ID   `json:"task_id_get_version"`
	TaskIDInstall    task.ID   `json:"task_id_install"`
	TaskIDUninstall  task.ID   `json:"task_id_uninstall"`
	PendingRelease   []task.ID `json:"pending_release,omitempty"`
}

// Ints returns the bundle as the integer map a host state store keeps.
// Pending releases are stored under numbered keys.
func (b Bundle) Ints() map[string]int {
	m := map[string]int{
		KeyTaskIDGetVersion: int(b.Slots.QueryVersion),
		KeyTaskIDInstall:    int(b.Slots.Install),
		KeyTaskIDUninstall:  int(b.Slots.Uninstall),
	}
	for i, id := range b.PendingRelease {
		m[KeyPendingReleasePrefix+strconv.Itoa(i)] = int(id)
	}
	return m
}

// BundleFromInts is the inverse of Ints. Missing keys mean no task;
// pending releases are read until the first missing index.
func BundleFromInts(m map[string]int) Bundle {
	get := func(key string) task.ID {
		v, ok := m[key]
		if !ok {
			return task.InvalidID
		}
		return task.ID(v)
	}
	b := Bundle{Slots: Slots{
		QueryVersion: get(KeyTaskIDGetVersion),
		Install:      get(KeyTaskIDInstall),
		Uninstall:    get(KeyTaskIDUninstall),
	}}
	for i := 0; ; i++ {
		v, ok := m[KeyPendingReleasePrefix+strconv.Itoa(i)]
		if !ok {
			break
		}
		b.PendingRelease = append(b.PendingRelease, task.ID(v))
	}
	return b
}

func (b Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(bundleJSON{
		TaskIDGetVersion: b.Slots.QueryVersion,
		TaskIDInstall:    b.Slots.Install,
		TaskIDUninstall:  b.Slots.Uninstall,
		PendingRelease:   b.PendingRelease,
	})
}

func (b *Bundle) UnmarshalJSON(data []byte) error {
	raw := bundleJSON{
		TaskIDGetVersion: task.InvalidID,
		TaskIDInstall:    task.InvalidID,
		TaskIDUninstall:  task.InvalidID,
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Slots = Slots{
		QueryVersion: raw.TaskIDGetVersion,
		Install:      raw.TaskIDInstall,
		Uninstall:    raw.TaskIDUninstall,
	}
	b.PendingRelease = raw.PendingRelease
	return nil
}
