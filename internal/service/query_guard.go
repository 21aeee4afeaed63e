package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrQueryRequired indicates an empty query.
	ErrQueryRequired = errors.New("query is required")
	// ErrWriteNotAllowed indicates the query contains a write or procedure keyword.
	ErrWriteNotAllowed = errors.New("write operations are not allowed")
)

var (
	newlineRun     = regexp.MustCompile(`\s*\n\s*`)
	writeKeywords  = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|DROP|CALL|APOC|REMOVE|LOAD\s+CSV|FOREACH)\b`)
	upperWord      = regexp.MustCompile(`\b[A-Z]+\b`)
	clauseKeywords = map[string]struct{}{
		"MATCH": {}, "RETURN": {}, "WHERE": {}, "UNWIND": {}, "WITH": {}, "ORDER": {},
		"BY": {}, "LIMIT": {}, "DISTINCT": {}, "CALL": {}, "OPTIONAL": {}, "UNION": {},
	}
)

// KeywordNotAllowedError lists clause keywords a quest does not permit.
type KeywordNotAllowedError struct {
	Keywords []string
}

func (e *KeywordNotAllowedError) Error() string {
	return fmt.Sprintf("keywords not allowed for this quest: %s", strings.Join(e.Keywords, ", "))
}

// normalizeCypher trims the query and folds multi-line input onto one line.
func normalizeCypher(raw string) string {
	return strings.TrimSpace(newlineRun.ReplaceAllString(raw, " "))
}

// guardCypher normalises a query and rejects empty or mutating statements.
func guardCypher(raw string) (string, error) {
	cypher := normalizeCypher(raw)
	if cypher == "" {
		return "", ErrQueryRequired
	}
	if writeKeywords.MatchString(cypher) {
		return "", ErrWriteNotAllowed
	}
	return cypher, nil
}

// checkAllowedOps rejects clause keywords missing from allowed. An empty list
// allows everything.
func checkAllowedOps(cypher string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}

	permitted := make(map[string]struct{})
	for _, op := range allowed {
		for _, word := range strings.Fields(strings.ToUpper(op)) {
			permitted[word] = struct{}{}
		}
	}

	var offending []string
	seen := make(map[string]struct{})
	for _, word := range upperWord.FindAllString(strings.ToUpper(cypher), -1) {
		if _, clause := clauseKeywords[word]; !clause {
			continue
		}
		if _, ok := permitted[word]; ok {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		offending = append(offending, word)
	}

	if len(offending) > 0 {
		return &KeywordNotAllowedError{Keywords: offending}
	}
	return nil
}
