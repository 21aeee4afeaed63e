package service

import "errors"

var (
	// ErrQuestNotFound indicates the quest id is not in the catalogue.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrSeedRequired indicates the quest needs the seed dataset loaded first.
	ErrSeedRequired = errors.New("quest requires the seed dataset")
	// ErrQueryTimeout indicates the graph statement exceeded the time budget.
	ErrQueryTimeout = errors.New("query timed out")
	// ErrGraphUnavailable indicates the graph database could not be reached.
	ErrGraphUnavailable = errors.New("graph database unavailable")
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrLearnerRequired indicates the learner identifier is missing.
	ErrLearnerRequired = errors.New("learner id is required")
)
