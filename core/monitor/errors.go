package monitor

import "errors"

var (
	// ErrEmptyTaskName is returned when a task is started without a name.
	ErrEmptyTaskName = errors.New("task name cannot be empty")

	// ErrNilTaskFunc is returned when a task is started without a function.
	ErrNilTaskFunc = errors.New("task function cannot be nil")

	// ErrMonitoringDisabled is returned when a task is started after
	// Shutdown. Call Enable to accept tasks again.
	ErrMonitoringDisabled = errors.New("background monitoring is disabled")
)
