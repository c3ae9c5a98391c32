//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_AdminCreatesVisitorClaims walks the happy path over HTTP: an admin
// stocks the pool, a visitor claims, and the claim shows up in the history
// with a masked address.
func TestE2E_AdminCreatesVisitorClaims(t *testing.T) {
	cleanupTables(t)

	// Admin creates a coupon.
	resp, err := postJSON(formatURL("/api/admin/coupons"), map[string]string{
		"code":        "E2ESPRING",
		"discount":    "25%",
		"description": "Spring sale",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Visitor claims it.
	resp, err = claimAs("203.0.113.50", "Mozilla/5.0 (e2e)")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claim map[string]string
	require.NoError(t, readJSONResponse(resp, &claim))
	assert.Equal(t, "success", claim["status"])
	assert.Equal(t, "E2ESPRING", claim["code"])
	assert.Equal(t, "25%", claim["discount"])

	// The ledger shows the claim with the origin address masked.
	resp, err = getJSON(formatURL("/api/admin/claims"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []map[string]any
	require.NoError(t, readJSONResponse(resp, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "E2ESPRING", history[0]["coupon_code"])
	assert.Equal(t, "203.0.x.x", history[0]["origin_address"])
}

// TestE2E_CooldownOverHTTP verifies that a repeat visitor gets 429 with the
// rejection reason and remaining wait.
func TestE2E_CooldownOverHTTP(t *testing.T) {
	cleanupTables(t)

	createTestCoupon(t, "E2ECOOL1", "10%")
	createTestCoupon(t, "E2ECOOL2", "10%")

	resp, err := claimAs("203.0.113.60", "Mozilla/5.0 (repeat)")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = claimAs("203.0.113.60", "Mozilla/5.0 (repeat)")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var rejection struct {
		Status   string `json:"status"`
		Reason   string `json:"reason"`
		TimeLeft struct {
			Hours   int `json:"hours"`
			Minutes int `json:"minutes"`
		} `json:"time_left"`
	}
	require.NoError(t, readJSONResponse(resp, &rejection))
	assert.Equal(t, "ineligible", rejection.Status)
	assert.Equal(t, "origin_address", rejection.Reason)
	assert.Equal(t, 23, rejection.TimeLeft.Hours)
}

// TestE2E_PoolExhaustionOverHTTP drains the pool and verifies the 404.
func TestE2E_PoolExhaustionOverHTTP(t *testing.T) {
	cleanupTables(t)

	createTestCoupon(t, "E2ELAST", "50%")

	resp, err := claimAs("203.0.113.70", "Mozilla/5.0 (first)")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = claimAs("203.0.113.71", "Mozilla/5.0 (second)")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var result map[string]string
	require.NoError(t, readJSONResponse(resp, &result))
	assert.Equal(t, "no coupons available", result["error"])
}

// TestE2E_RotationOrderOverHTTP stocks three coupons and claims with three
// distinct visitors: the pool rotates instead of draining front to back.
func TestE2E_RotationOrderOverHTTP(t *testing.T) {
	cleanupTables(t)

	createTestCoupon(t, "ROT_C1", "5%")
	createTestCoupon(t, "ROT_C2", "5%")
	createTestCoupon(t, "ROT_C3", "5%")

	var got []string
	for i := 0; i < 3; i++ {
		resp, err := claimAs(fmt.Sprintf("203.0.113.%d", 80+i), fmt.Sprintf("Mozilla/5.0 (rot %d)", i))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var claim map[string]string
		require.NoError(t, readJSONResponse(resp, &claim))
		got = append(got, claim["code"])
	}

	// Cursor starts at 0, so the walk begins one past the oldest coupon and
	// wraps back to it.
	assert.Equal(t, []string{"ROT_C2", "ROT_C3", "ROT_C1"}, got)
}

// TestE2E_SettingsUpdateOverHTTP changes the cooldown via the admin API and
// reads it back.
func TestE2E_SettingsUpdateOverHTTP(t *testing.T) {
	cleanupTables(t)

	resp, err := putJSON(formatURL("/api/admin/settings"), map[string]int{"cooldown_hours": 48})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated map[string]any
	require.NoError(t, readJSONResponse(resp, &updated))
	assert.EqualValues(t, 48, updated["cooldown_hours"])

	resp, err = getJSON(formatURL("/api/admin/settings"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var current map[string]any
	require.NoError(t, readJSONResponse(resp, &current))
	assert.EqualValues(t, 48, current["cooldown_hours"])
}
