package bakery

import (
	"crypto/subtle"
	"sync"
	"time"
)

// DefaultAdminSessionTTL bounds how long a verified admin stays verified.
const DefaultAdminSessionTTL = 30 * time.Minute

// AdminAuth tracks which identities proved the admin password. Admin tools
// refuse to run for identities that have not.
type AdminAuth struct {
	password string
	ttl      time.Duration
	clock    func() time.Time

	mu       sync.Mutex
	verified map[string]time.Time // identity -> expiry
}

// NewAdminAuth creates an authenticator. An empty password disables admin access.
func NewAdminAuth(password string, ttl time.Duration, clock func() time.Time) *AdminAuth {
	if ttl <= 0 {
		ttl = DefaultAdminSessionTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &AdminAuth{password: password, ttl: ttl, clock: clock, verified: map[string]time.Time{}}
}

// Verify checks password and, on success, marks identity as verified.
func (a *AdminAuth) Verify(identity, password string) bool {
	if a.password == "" {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) != 1 {
		return false
	}

	a.mu.Lock()
	a.verified[identity] = a.clock().Add(a.ttl)
	a.mu.Unlock()

	return true
}

// Verified reports whether identity holds an unexpired verification.
func (a *AdminAuth) Verified(identity string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	exp, ok := a.verified[identity]
	if !ok {
		return false
	}

	if !a.clock().Before(exp) {
		delete(a.verified, identity)
		return false
	}

	return true
}

// Revoke drops the verification of identity.
func (a *AdminAuth) Revoke(identity string) {
	a.mu.Lock()
	delete(a.verified, identity)
	a.mu.Unlock()
}

// Prune drops expired verifications. It is used as a janitor hook.
func (a *AdminAuth) Prune(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for id, exp := range a.verified {
		if !now.Before(exp) {
			delete(a.verified, id)
		}
	}
}
