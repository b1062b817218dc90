package notifications

import (
	game_constants "Arcadia/constants/game"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddPrependsNewestFirst(t *testing.T) {
	feed := NewFeed()

	feed.Add("playerA", "invitation", "Challenge!", "playerB wants to play", nil)
	feed.Add("playerA", "achievement", "First Steps", "Play your first game", nil)

	items := feed.List("playerA")
	assert.Len(t, items, 2)
	assert.Equal(t, "achievement", items[0].Type)
	assert.Equal(t, "invitation", items[1].Type)
	assert.Equal(t, 2, feed.UnreadCount("playerA"))

	// Feeds are per-user
	assert.Empty(t, feed.List("playerB"))
	assert.Equal(t, 0, feed.UnreadCount("playerB"))
}

func TestMarkRead(t *testing.T) {
	feed := NewFeed()
	item := feed.Add("playerA", "system", "Welcome", "", nil)

	assert.True(t, feed.MarkRead("playerA", item.ID))
	assert.Equal(t, 0, feed.UnreadCount("playerA"))

	// Marking twice keeps the counter at zero
	assert.True(t, feed.MarkRead("playerA", item.ID))
	assert.Equal(t, 0, feed.UnreadCount("playerA"))

	assert.False(t, feed.MarkRead("playerA", "unknown-id"))
}

func TestMarkAllRead(t *testing.T) {
	feed := NewFeed()
	for i := 0; i < 5; i++ {
		feed.Add("playerA", "system", "msg", "", nil)
	}

	feed.MarkAllRead("playerA")
	assert.Equal(t, 0, feed.UnreadCount("playerA"))
	for _, item := range feed.List("playerA") {
		assert.True(t, item.Read)
	}
}

func TestClear(t *testing.T) {
	feed := NewFeed()
	feed.Add("playerA", "system", "msg", "", nil)

	feed.Clear("playerA")
	assert.Empty(t, feed.List("playerA"))
	assert.Equal(t, 0, feed.UnreadCount("playerA"))
}

func TestRetentionCap(t *testing.T) {
	feed := NewFeed()
	for i := 0; i < game_constants.MaxFeedNotifications+10; i++ {
		feed.Add("playerA", "system", fmt.Sprintf("msg %d", i), "", nil)
	}

	items := feed.List("playerA")
	assert.Len(t, items, game_constants.MaxFeedNotifications)
	// Newest survives, oldest are dropped
	assert.Equal(t, fmt.Sprintf("msg %d", game_constants.MaxFeedNotifications+9), items[0].Title)
	assert.Equal(t, game_constants.MaxFeedNotifications, feed.UnreadCount("playerA"))
}
