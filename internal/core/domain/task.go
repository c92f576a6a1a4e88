package domain

import (
	"strings"
	"time"
)

// TaskPriority enumerates supported task priorities.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority normalises textual input, reporting whether it names a known priority.
func ParseTaskPriority(value string) (TaskPriority, bool) {
	switch TaskPriority(strings.ToLower(strings.TrimSpace(value))) {
	case TaskPriorityLow:
		return TaskPriorityLow, true
	case TaskPriorityMedium:
		return TaskPriorityMedium, true
	case TaskPriorityHigh:
		return TaskPriorityHigh, true
	default:
		return "", false
	}
}

// Task is a to-do item owned by a single user.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	Completed   bool         `json:"completed"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TaskUpdate carries the mutable task fields; nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *TaskPriority
	Completed   *bool
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil && u.Completed == nil
}

// TaskStats summarises a user's tasks.
type TaskStats struct {
	Total      int                  `json:"total"`
	Completed  int                  `json:"completed"`
	Pending    int                  `json:"pending"`
	ByPriority map[TaskPriority]int `json:"byPriority"`
}

// ComputeTaskStats aggregates completion and priority counts.
func ComputeTaskStats(tasks []Task) TaskStats {
	stats := TaskStats{
		Total:      len(tasks),
		ByPriority: make(map[TaskPriority]int),
	}
	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		stats.ByPriority[task.Priority]++
	}
	return stats
}
