package domain

import "time"

// CounterAction names the mutation that produced a counter event.
type CounterAction string

const (
	CounterActionCreated     CounterAction = "created"
	CounterActionUpdated     CounterAction = "updated"
	CounterActionIncremented CounterAction = "incremented"
	CounterActionDeleted     CounterAction = "deleted"
)

// CounterChangedEvent is emitted after a counter mutation is committed.
type CounterChangedEvent struct {
	EventID    string
	Action     CounterAction
	CounterID  string
	UserID     string
	Name       string
	Value      int64
	Delta      int64
	OccurredAt time.Time
}

// TaskAction names the mutation that produced a task event.
type TaskAction string

const (
	TaskActionCreated TaskAction = "created"
	TaskActionUpdated TaskAction = "updated"
	TaskActionDeleted TaskAction = "deleted"
)

// TaskChangedEvent is emitted after a task mutation is committed.
type TaskChangedEvent struct {
	EventID    string
	Action     TaskAction
	TaskID     string
	UserID     string
	Title      string
	Completed  bool
	Priority   TaskPriority
	OccurredAt time.Time
}
