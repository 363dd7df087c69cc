package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when a control call reaches a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerAlreadyRunning is returned when Start is called twice
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
