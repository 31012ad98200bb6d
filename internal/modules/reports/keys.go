package reports

import (
	"net/url"
	"strconv"
	"strings"
)

// Cache key layout. Every key is scoped by user so that one write can only
// touch its own user's entries. Ids are opaque, so each segment is trimmed and
// query-escaped; ":" and "@" never appear unescaped inside a segment.
const (
	keyPrefix = "report:"
)

func seg(id string) string {
	return url.QueryEscape(strings.TrimSpace(id))
}

func ProgramKey(userID, programID string) string {
	return keyPrefix + "program:" + seg(userID) + ":" + seg(programID)
}

func StageKey(userID, stageID string) string {
	return keyPrefix + "stage:" + seg(userID) + ":" + seg(stageID)
}

func UnitKey(userID, unitID string) string {
	return keyPrefix + "unit:" + seg(userID) + ":" + seg(unitID)
}

func AttemptsKey(userID, subconceptID string) string {
	return keyPrefix + "attempts:" + seg(userID) + ":" + seg(subconceptID)
}

func ConceptsKey(userID, programID string) string {
	return keyPrefix + "concepts:" + seg(userID) + ":" + seg(programID)
}

func UserDataKey(userID string) string {
	return keyPrefix + "userdata:" + seg(userID)
}

// GenerationKey holds the per-user write counter used for versioned keys.
func GenerationKey(userID string) string {
	return keyPrefix + "gen:" + seg(userID)
}

// Versioned stamps key with a generation.
func Versioned(key string, gen int64) string {
	return key + "@g" + strconv.FormatInt(gen, 10)
}
