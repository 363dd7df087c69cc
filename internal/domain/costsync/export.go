package costsync

import "time"

// JobStatus is the normalized state of a remote export task.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// Terminal reports whether the status will not change on further polling.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// ExportJob is the normalized view of a remote export task, regardless of
// which platform endpoint reported it.
type ExportJob struct {
	ID             string
	Status         JobStatus
	Progress       int
	ResultLocation string
	Reason         string
}

// DateRange bounds an export request on order start time, inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// RecentDays builds the range [today-n 00:00:00, today 23:59:59] in the
// location of now.
func RecentDays(now time.Time, n int) DateRange {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return DateRange{
		From: today.AddDate(0, 0, -n),
		To:   today.Add(24*time.Hour - time.Second),
	}
}
