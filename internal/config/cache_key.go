package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(profileID int) string {
	return fmt.Sprintf("login:%d", profileID)
}

// GroupPayloadKey returns the cache key for a group's student-facing payload (no answer keys)
func (r *CacheKeyStruct) GroupPayloadKey(groupID string) string {
	return fmt.Sprintf("group:%s:payload", groupID)
}

// GroupFullKey returns the cache key for a group including answer keys, used by grading
func (r *CacheKeyStruct) GroupFullKey(groupID string) string {
	return fmt.Sprintf("group:%s:full", groupID)
}

// GroupSessionKey returns the cache key for a student's live session snapshot
func (r *CacheKeyStruct) GroupSessionKey(groupID string, profileID int) string {
	return fmt.Sprintf("student:%d:group:%s:session", profileID, groupID)
}

// GroupAnswersKey returns the cache key for a student's autosaved answers
func (r *CacheKeyStruct) GroupAnswersKey(groupID string, profileID int) string {
	return fmt.Sprintf("student:%d:group:%s:answers", profileID, groupID)
}

// GroupLeaderboardKey returns the sorted set holding a group's best scores
func (r *CacheKeyStruct) GroupLeaderboardKey(groupID string) string {
	return fmt.Sprintf("group:%s:leaderboard", groupID)
}

var CacheKey = NewCacheKeyStruct()
