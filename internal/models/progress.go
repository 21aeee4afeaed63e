package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// LearnerProgress stores a learner's position in the quest line.
type LearnerProgress struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	LearnerID       string            `gorm:"size:64;not null;uniqueIndex" json:"learner_id"`
	CurrentQuestID  string            `gorm:"size:32;not null" json:"current_quest_id"`
	Score           int               `gorm:"not null;default:0" json:"score"`
	ClearedQuestIDs datatypes.JSON    `gorm:"type:json" json:"-"`
	Answers         datatypes.JSONMap `gorm:"type:json" json:"answers"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SetCleared serializes the cleared quest ids into the JSON storage column.
func (p *LearnerProgress) SetCleared(ids []string) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		p.ClearedQuestIDs = datatypes.JSON([]byte("[]"))
		return
	}
	p.ClearedQuestIDs = datatypes.JSON(data)
}

// ClearedList deserializes the stored cleared quest ids.
func (p LearnerProgress) ClearedList() []string {
	if len(p.ClearedQuestIDs) == 0 {
		return []string{}
	}

	var ids []string
	if err := json.Unmarshal(p.ClearedQuestIDs, &ids); err != nil {
		return []string{}
	}

	return ids
}

// HasCleared reports whether questID is among the cleared quests.
func (p LearnerProgress) HasCleared(questID string) bool {
	for _, id := range p.ClearedList() {
		if id == questID {
			return true
		}
	}
	return false
}

// AnswerMap returns the last submitted query per quest.
func (p LearnerProgress) AnswerMap() map[string]string {
	answers := make(map[string]string, len(p.Answers))
	for questID, value := range p.Answers {
		if text, ok := value.(string); ok {
			answers[questID] = text
		}
	}
	return answers
}
