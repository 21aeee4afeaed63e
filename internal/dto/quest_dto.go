package dto

// QuestSummary is the list view of a quest.
type QuestSummary struct {
	ID        string `json:"id"`
	Chapter   int    `json:"chapter"`
	Group     string `json:"group"`
	Title     string `json:"title"`
	Objective string `json:"objective"`
	Locked    bool   `json:"locked"`
}

// QuestListResult wraps the quest list together with the seeding state it was
// computed for.
type QuestListResult struct {
	Items  []QuestSummary `json:"items"`
	Seeded bool           `json:"seeded"`
	Total  int            `json:"total"`
}

// QuestConstraints mirrors the play restrictions of a quest.
type QuestConstraints struct {
	DenyWrite   bool `json:"deny_write"`
	RequireSeed bool `json:"require_seed"`
}

// CheckerSummary exposes what a grader looks at without revealing the answer.
type CheckerSummary struct {
	Type    string   `json:"type"`
	Columns []string `json:"columns,omitempty"`
}

// QuestDetailResponse is the full quest view.
type QuestDetailResponse struct {
	ID            string           `json:"id"`
	Chapter       int              `json:"chapter"`
	Group         string           `json:"group"`
	Title         string           `json:"title"`
	Story         string           `json:"story"`
	Objective     string           `json:"objective"`
	StarterCypher string           `json:"starter_cypher"`
	Hints         []string         `json:"hints"`
	AllowedOps    []string         `json:"allowed_ops"`
	Constraints   QuestConstraints `json:"constraints"`
	Checker       CheckerSummary   `json:"checker"`
	Locked        bool             `json:"locked"`
	NextQuestID   string           `json:"next_quest_id,omitempty"`
}
