package portals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryHasAllPortals(t *testing.T) {
	registry := NewRegistry()
	all := registry.All()
	assert.Len(t, all, 5)
	for _, portal := range all {
		assert.False(t, portal.Active)
		assert.Empty(t, portal.Queue())
	}
}

func TestUnknownPortal(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Get("checkers")
	assert.Error(t, err)
	assert.Error(t, registry.JoinQueue("checkers", "playerA"))
	assert.Error(t, registry.Activate("checkers", ""))
}

func TestJoinQueueIdempotent(t *testing.T) {
	registry := NewRegistry()

	for i := 0; i < 3; i++ {
		assert.NoError(t, registry.JoinQueue("chess", "playerA"))
	}
	assert.NoError(t, registry.JoinQueue("chess", "playerB"))

	portal, err := registry.Get("chess")
	assert.NoError(t, err)
	assert.Equal(t, []string{"playerA", "playerB"}, portal.Queue())

	assert.NoError(t, registry.LeaveQueue("chess", "playerA"))
	assert.NoError(t, registry.LeaveQueue("chess", "playerA")) // no-op

	portal, _ = registry.Get("chess")
	assert.Equal(t, []string{"playerB"}, portal.Queue())
}

func TestDeactivateClearsEverything(t *testing.T) {
	registry := NewRegistry()

	assert.NoError(t, registry.Activate("chess", "session-1"))
	assert.NoError(t, registry.JoinQueue("chess", "playerA"))
	assert.NoError(t, registry.JoinQueue("chess", "playerB"))

	portal, _ := registry.Get("chess")
	assert.True(t, portal.Active)
	assert.Equal(t, "session-1", portal.SessionID)

	assert.NoError(t, registry.Deactivate("chess"))
	portal, _ = registry.Get("chess")
	assert.False(t, portal.Active)
	assert.Empty(t, portal.SessionID)
	assert.Empty(t, portal.Queue())
}
