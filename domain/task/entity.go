package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusOnHold     Status = "On Hold"
	StatusCancelled  Status = "Cancelled"
)

// Priority is how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Type classifies what area of life a task belongs to.
type Type string

const (
	TypePersonal Type = "Personal"
	TypeWork     Type = "Work"
	TypeStudy    Type = "Study"
	TypeOther    Type = "Other"
)

const (
	// MaxTitleLength is the maximum number of characters in a title.
	MaxTitleLength = 100
	// MaxDescriptionLength is the maximum number of characters in a description.
	MaxDescriptionLength = 500
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled}

// Priorities lists every valid priority.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Types lists every valid task type.
var Types = []Type{TypePersonal, TypeWork, TypeStudy, TypeOther}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// Valid reports whether t is one of the known task types.
func (t Type) Valid() bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          string     `json:"_id" gorm:"primaryKey;type:text"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	Description string     `json:"description" gorm:"size:500"`
	Status      Status     `json:"status" gorm:"size:20;not null;index"`
	Priority    Priority   `json:"priority" gorm:"size:10;not null"`
	Type        Type       `json:"type" gorm:"size:10;not null"`
	DueDate     *time.Time `json:"dueDate"`
	OwnerID     string     `json:"user" gorm:"type:text;not null;index"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Lower-cased copies of Title and Description matched by search.
	TitleLC       string `json:"-" gorm:"column:title_lc"`
	DescriptionLC string `json:"-" gorm:"column:description_lc"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Stats holds per-status task counts for one owner.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	OnHold     int64 `json:"onHold"`
	Cancelled  int64 `json:"cancelled"`
}

// Add counts n tasks in status s.
func (s *Stats) Add(status Status, n int64) {
	s.Total += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusInProgress:
		s.InProgress += n
	case StatusCompleted:
		s.Completed += n
	case StatusOnHold:
		s.OnHold += n
	case StatusCancelled:
		s.Cancelled += n
	}
}
