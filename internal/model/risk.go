package model

import "time"

// RiskLevel is a task's deadline pressure relative to its estimate.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

// RiskAnnotation is a derived, non-persisted at-risk marker for a task.
type RiskAnnotation struct {
	TaskID           string    `json:"task_id"`
	Title            string    `json:"title"`
	Level            RiskLevel `json:"risk_level"`
	RemainingMinutes int       `json:"remaining_minutes"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Deadline         time.Time `json:"deadline"`
	Reason           string    `json:"reason"`
}
