package hub

// InstanceStatus is the persisted lifecycle status of one plugin instance.
//
// Transitions: stopped → starting → running on success, starting → error on
// factory or wiring failure, running → stopping → stopped on disable.
type InstanceStatus string

const (
	StatusStopped  InstanceStatus = "stopped"
	StatusStarting InstanceStatus = "starting"
	StatusRunning  InstanceStatus = "running"
	StatusStopping InstanceStatus = "stopping"
	StatusError    InstanceStatus = "error"
)

// IsValid reports whether s is one of the allowed status values.
func (s InstanceStatus) IsValid() bool {
	switch s {
	case StatusStopped, StatusStarting, StatusRunning, StatusStopping, StatusError:
		return true
	}
	return false
}
