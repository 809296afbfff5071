package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

func testCategories() []domain.IssueCategory {
	return []domain.IssueCategory{
		{ID: 1, Code: "NET_OUTAGE", Name: "Network Outage",
			Description: "Complete loss of network connectivity, internet down or service offline."},
		{ID: 2, Code: "SLOW_PERFORMANCE", Name: "Slow Performance",
			Description: "Intermittent slowness, lag or degraded performance."},
		{ID: 3, Code: "AUTH_ISSUE", Name: "Authentication Issue",
			Description: "Users unable to login, locked accounts or rejected passwords."},
		{ID: 4, Code: "ACCESS_REQUEST", Name: "Access Request",
			Description: "Request for account, permission or resource access."},
	}
}

func TestAutoCategorize(t *testing.T) {
	categories := testCategories()

	t.Run("matches outage description", func(t *testing.T) {
		got := AutoCategorize("network is down, no internet access", categories)
		require.NotNil(t, got)
		assert.Equal(t, "NET_OUTAGE", got.Code)
	})

	t.Run("matches login problems", func(t *testing.T) {
		got := AutoCategorize("cannot login, password rejected every time", categories)
		require.NotNil(t, got)
		assert.Equal(t, "AUTH_ISSUE", got.Code)
	})

	t.Run("matches performance complaints", func(t *testing.T) {
		got := AutoCategorize("the portal is very slow and laggy since yesterday", categories)
		require.NotNil(t, got)
		assert.Equal(t, "SLOW_PERFORMANCE", got.Code)
	})

	t.Run("too short description yields nothing", func(t *testing.T) {
		assert.Nil(t, AutoCategorize("hi", categories))
		assert.Nil(t, AutoCategorize("  a  ", categories))
	})

	t.Run("unrelated description yields nothing", func(t *testing.T) {
		assert.Nil(t, AutoCategorize("zzz qqq xyzzy", categories))
	})

	t.Run("only name and description text can score", func(t *testing.T) {
		// no category mentions vpn or disconnects, so nothing may reach
		// the acceptance threshold
		assert.Nil(t, AutoCategorize("vpn keeps disconnecting", categories))
	})

	t.Run("short tokens are ignored", func(t *testing.T) {
		// every token has length <= 2, so nothing can score
		assert.Nil(t, AutoCategorize("it is up to me", categories))
	})

	t.Run("punctuation is stripped before matching", func(t *testing.T) {
		got := AutoCategorize("NETWORK!!! down??? (no internet)", categories)
		require.NotNil(t, got)
		assert.Equal(t, "NET_OUTAGE", got.Code)
	})

	t.Run("no categories yields nothing", func(t *testing.T) {
		assert.Nil(t, AutoCategorize("network is down", nil))
	})
}
