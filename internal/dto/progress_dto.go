package dto

import "time"

// ProgressResponse serializes a learner's progress.
type ProgressResponse struct {
	LearnerID       string            `json:"learner_id"`
	CurrentQuestID  string            `json:"current_quest_id"`
	Score           int               `json:"score"`
	ClearedQuestIDs []string          `json:"cleared_quest_ids"`
	Answers         map[string]string `json:"answers"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SelectQuestRequest moves the learner to another quest.
type SelectQuestRequest struct {
	QuestID string `json:"quest_id" validate:"required,max=32"`
}

// ProgressUpdate describes the effect of one graded submission.
type ProgressUpdate struct {
	Progress   ProgressResponse
	FirstClear bool
}
