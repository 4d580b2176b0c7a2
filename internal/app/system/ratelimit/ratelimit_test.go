package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllow(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("key"), "attempt %d should be allowed", i+1)
	}
	assert.False(t, l.Allow("key"), "fourth attempt should be blocked")

	// Other keys have their own windows.
	assert.True(t, l.Allow("other"))
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	assert.True(t, l.Allow("key"))
	assert.False(t, l.Allow("key"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, l.Allow("key"), "expired window should reset the count")
}

func TestLimiterRemainingAndReset(t *testing.T) {
	l := New(5, time.Minute)

	assert.Equal(t, 5, l.Remaining("key"))
	l.Allow("key")
	l.Allow("key")
	assert.Equal(t, 3, l.Remaining("key"))

	l.Reset("key")
	assert.Equal(t, 5, l.Remaining("key"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(r))

	// X-Forwarded-For wins, first hop is the client.
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}

func TestLoginLimiter(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	req := httptest.NewRequest("POST", "/api/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	allowed, _ := ll.Check(req, "user@test.com")
	assert.True(t, allowed)
	allowed, _ = ll.Check(req, "User@Test.com") // same account, different case
	assert.True(t, allowed)

	allowed, reason := ll.Check(req, "user@test.com")
	assert.False(t, allowed)
	assert.NotEmpty(t, reason)

	// A successful sign-in clears the per-account window.
	ll.ResetEmail("user@test.com")
	allowed, _ = ll.Check(req, "user@test.com")
	assert.True(t, allowed)
}

func TestLoginLimiterBlocksByIP(t *testing.T) {
	ll := NewLoginLimiterWithConfig(2, time.Minute, 100, time.Minute)

	req := httptest.NewRequest("POST", "/api/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	allowed, _ := ll.Check(req, "a@test.com")
	assert.True(t, allowed)
	allowed, _ = ll.Check(req, "b@test.com")
	assert.True(t, allowed)

	// Third attempt from the same IP is blocked regardless of account.
	allowed, _ = ll.Check(req, "c@test.com")
	assert.False(t, allowed)

	// A different source is unaffected.
	other := httptest.NewRequest("POST", "/api/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	allowed, _ = ll.Check(other, "c@test.com")
	assert.True(t, allowed)
}
