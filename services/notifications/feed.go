package notifications

import (
	game_constants "Arcadia/constants/game"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Item is one feed entry. Appended on triggering events; only Read is ever
// mutated afterwards.
type Item struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// Feed is the per-user, most-recent-first notification list with an unread
// counter. Retention is capped; the database keeps the full history.
type Feed struct {
	mu     sync.RWMutex
	items  map[string][]*Item // username -> newest first
	unread map[string]int
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		items:  make(map[string][]*Item),
		unread: make(map[string]int),
	}
}

// Add prepends a notification to the user's feed and bumps the unread
// counter. Returns the stored item so callers can persist/push it.
func (f *Feed) Add(username string, notifType string, title string, message string, payload json.RawMessage) *Item {
	item := &Item{
		ID:        uuid.NewString(),
		Type:      notifType,
		Title:     title,
		Message:   message,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list := append([]*Item{item}, f.items[username]...)
	if len(list) > game_constants.MaxFeedNotifications {
		// Dropped entries count against unread if they were never read
		for _, dropped := range list[game_constants.MaxFeedNotifications:] {
			if !dropped.Read {
				f.unread[username]--
			}
		}
		list = list[:game_constants.MaxFeedNotifications]
	}
	f.items[username] = list
	f.unread[username]++
	return item
}

// List returns a snapshot of the user's feed, newest first.
func (f *Feed) List(username string) []Item {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Item, 0, len(f.items[username]))
	for _, item := range f.items[username] {
		out = append(out, *item)
	}
	return out
}

// UnreadCount returns how many unread notifications the user has.
func (f *Feed) UnreadCount(username string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.unread[username]
}

// MarkRead flips one notification's read flag. The unread counter never
// goes below zero. Returns false when the id is unknown.
func (f *Feed) MarkRead(username string, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items[username] {
		if item.ID == id {
			if !item.Read {
				item.Read = true
				if f.unread[username] > 0 {
					f.unread[username]--
				}
			}
			return true
		}
	}
	return false
}

// MarkAllRead flips every notification and zeroes the counter.
func (f *Feed) MarkAllRead(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items[username] {
		item.Read = true
	}
	f.unread[username] = 0
}

// Clear drops the user's whole feed and zeroes the counter.
func (f *Feed) Clear(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, username)
	delete(f.unread, username)
}
