package schedule

import "errors"

// Domain errors for the schedule package.
var (
	// ErrInvalidCron is returned when a cron expression cannot be
	// parsed.
	ErrInvalidCron = errors.New("schedule: invalid cron expression")

	// ErrDuplicateID is returned when creating a timer or task with an
	// id that already exists.
	ErrDuplicateID = errors.New("schedule: duplicate id")

	// ErrNotFound names an unknown timer or task id. The package's own
	// lookups and cancels report an unknown id with a false result
	// instead.
	ErrNotFound = errors.New("schedule: not found")

	// ErrInvalidTask is returned when a task config is missing its id,
	// target or schedule.
	ErrInvalidTask = errors.New("schedule: invalid task config")
)
