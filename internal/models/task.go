package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskStatus int16

const (
	TaskStatusInactive TaskStatus = 0
	TaskStatusActive   TaskStatus = 1
	TaskStatusFinished TaskStatus = 2
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusInactive:
		return "inactive"
	case TaskStatusActive:
		return "active"
	case TaskStatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int16(s))
	}
}

type TaskType int16

const (
	TaskTypeJoinTelegram TaskType = 0
	TaskTypeVisitSite    TaskType = 1
	TaskTypeSignupApp    TaskType = 2
)

// Label is the slug the client renders for a task type.
func (t TaskType) Label() string {
	switch t {
	case TaskTypeJoinTelegram:
		return "join_telegram"
	case TaskTypeVisitSite:
		return "visit_site"
	case TaskTypeSignupApp:
		return "signup_app"
	default:
		return "task"
	}
}

type Task struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Type             TaskType   `json:"type"`
	Link             *string    `json:"link,omitempty"`
	RewardCents      int64      `json:"reward_cents"`
	MaxCompletions   int        `json:"max_completions"` // advisory, never enforced
	CompletionsCount int        `json:"completions_count"`
	Status           TaskStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}

type CompletionStatus int16

const (
	CompletionPending  CompletionStatus = 0
	CompletionApproved CompletionStatus = 1
	CompletionRejected CompletionStatus = 2
)

func (s CompletionStatus) String() string {
	switch s {
	case CompletionPending:
		return "pending"
	case CompletionApproved:
		return "approved"
	case CompletionRejected:
		return "rejected"
	default:
		return fmt.Sprintf("CompletionStatus(%d)", int16(s))
	}
}

// Terminal reports whether no further decision is allowed.
func (s CompletionStatus) Terminal() bool {
	switch s {
	case CompletionApproved, CompletionRejected:
		return true
	case CompletionPending:
		return false
	}
	return true
}

type TaskCompletion struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	TaskID      uuid.UUID        `json:"task_id"`
	Status      CompletionStatus `json:"status"`
	Proof       *string          `json:"proof,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	DecidedAt   *time.Time       `json:"decided_at,omitempty"`
	DecidedBy   *string          `json:"decided_by,omitempty"`
}
