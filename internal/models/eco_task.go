package models

import "time"

// EcoTask is a single task-completion record.
type EcoTask struct {
	ID            int64     `json:"id"`
	UserWallet    string    `json:"userWallet"`
	TaskType      string    `json:"taskType"`
	TaskID        string    `json:"taskId"`
	PointsAwarded int       `json:"pointsAwarded"`
	CompletedAt   time.Time `json:"completedAt"`
}

type NewEcoTask struct {
	UserWallet    string
	TaskType      string
	TaskID        string
	PointsAwarded int
}

func (n NewEcoTask) Build(id int64, now time.Time) EcoTask {
	return EcoTask{
		ID:            id,
		UserWallet:    n.UserWallet,
		TaskType:      n.TaskType,
		TaskID:        n.TaskID,
		PointsAwarded: n.PointsAwarded,
		CompletedAt:   now,
	}
}
