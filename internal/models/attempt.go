package models

import "time"

// QuestAttempt records one graded submission.
type QuestAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LearnerID string    `gorm:"size:64;not null;index:idx_attempt_learner_quest" json:"learner_id"`
	QuestID   string    `gorm:"size:32;not null;index:idx_attempt_learner_quest" json:"quest_id"`
	Cypher    string    `gorm:"type:text;not null" json:"cypher"`
	Correct   bool      `gorm:"not null" json:"correct"`
	Outcome   string    `gorm:"size:32;not null" json:"outcome"`
	Feedback  string    `gorm:"type:text" json:"feedback"`
	RowCount  int       `gorm:"not null;default:0" json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}
