package models

// JobState is the lifecycle state of one ingestion job.
type JobState string

const (
	JobNotStarted JobState = "not_started"
	JobRunning    JobState = "running"
	JobComplete   JobState = "complete"
	JobFailed     JobState = "failed"
)

// Terminal reports whether s is complete or failed.
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// JobStatus is the per-course ingestion record returned to callers.
type JobStatus struct {
	CourseID       int64    `json:"course_id,omitempty"`
	State          JobState `json:"status"`
	FilesTotal     int      `json:"files_total"`
	FilesProcessed int      `json:"files_processed"`
	FilesSkipped   int      `json:"files_skipped"`
	ChunksIndexed  int      `json:"chunks_indexed"`
	Error          string   `json:"error,omitempty"`
}

// NotStarted is the status reported for a course that was never ingested.
func NotStarted(courseID int64) JobStatus {
	return JobStatus{CourseID: courseID, State: JobNotStarted}
}
