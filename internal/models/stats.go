package models

// TaskStats is the status-count aggregate over one user's tasks. PerStatus
// always carries every status, zero-filled, and Total equals their sum.
type TaskStats struct {
	Total     int                `json:"total"`
	PerStatus map[TaskStatus]int `json:"perStatus"`
}
