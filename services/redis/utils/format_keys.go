package utils

/**
 * This file contains utility functions to format the keys for Redis
 * (key, value) pairs. It avoids having to call "fmt.Sprintf(...)"
 * with the same format spec every time, potentially confusing the key format.
 */

import "fmt"

func FormatSessionKey(sessionId string) string {
	return fmt.Sprintf("session:%s", sessionId)
}

func FormatSessionPlayerKey(username string) string {
	return fmt.Sprintf("player:%s:session", username)
}

func FormatMatchStateKey(sessionId string) string {
	return fmt.Sprintf("match:%s:state", sessionId)
}

func FormatPortalQueueKey(gameType string) string {
	return fmt.Sprintf("portal:%s:queue", gameType)
}

func FormatPresenceKey(username string) string {
	return fmt.Sprintf("presence:%s", username)
}
