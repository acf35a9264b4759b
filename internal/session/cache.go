package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkrogh/storefront/internal/backend"
	"github.com/mkrogh/storefront/pkg/logger"
	"github.com/mkrogh/storefront/pkg/types"
)

// State distinguishes "not yet resolved" from "confirmed logged out" so the
// UI can render a loading state instead of flashing logged-out chrome on
// startup.
type State int

const (
	StateUnknown State = iota
	StateAbsent
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

type authClient interface {
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, input backend.SignupInput) error
	Logout(ctx context.Context) error
	UserInfo(ctx context.Context) (*types.UserInfo, error)
}

// Cache tracks the current authenticated identity. It is a process-wide
// singleton with a single writer path; a failed refresh resolves to absent
// and never propagates an error to callers.
type Cache struct {
	mu       sync.Mutex
	state    State
	identity types.Identity
	profile  *types.UserInfo
	seq      uint64
	client   authClient
	logg     *logger.Logger
}

func NewCache(client authClient, logg *logger.Logger) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("auth client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Cache{client: client, logg: logg}, nil
}

// Refresh queries the backend for the current identity. The most recently
// issued refresh wins: a response that resolves after a newer refresh was
// issued is discarded instead of overwriting the newer result.
func (c *Cache) Refresh(ctx context.Context) State {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	info, err := c.client.UserInfo(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logg.Debug(ctx, "discarding stale session refresh")
		return c.state
	}
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "session refresh resolved to absent")
		c.applyAbsentLocked()
		return c.state
	}
	c.state = StatePresent
	c.identity = types.Identity{Email: info.Email, Admin: info.Admin}
	c.profile = info
	return c.state
}

// Login authenticates against the backend and, on success, refreshes the
// cached identity. Failures are surfaced verbatim and leave the cache as is.
func (c *Cache) Login(ctx context.Context, email, password string) error {
	if err := c.client.Login(ctx, email, password); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// Signup creates an account and refreshes the cached identity on success.
func (c *Cache) Signup(ctx context.Context, input backend.SignupInput) error {
	if err := c.client.Signup(ctx, input); err != nil {
		return err
	}
	c.Refresh(ctx)
	return nil
}

// Logout clears the server session and then the cache. The cart is not
// touched; logging out never empties it.
func (c *Cache) Logout(ctx context.Context) error {
	if err := c.client.Logout(ctx); err != nil {
		return err
	}
	c.Clear()
	return nil
}

// SetFromLogin overwrites the cached identity wholesale, superseding any
// in-flight refresh.
func (c *Cache) SetFromLogin(identity types.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.state = StatePresent
	c.identity = identity
	c.profile = nil
}

// Clear marks the session absent, superseding any in-flight refresh.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.applyAbsentLocked()
}

func (c *Cache) applyAbsentLocked() {
	c.state = StateAbsent
	c.identity = types.Identity{}
	c.profile = nil
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the identity and whether a user is confirmed present.
func (c *Cache) Current() (types.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity, c.state == StatePresent
}

// Profile returns the cached user profile from the last refresh, if any.
func (c *Cache) Profile() *types.UserInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	copied := *c.profile
	return &copied
}

func (c *Cache) IsAdmin() bool {
	identity, ok := c.Current()
	return ok && identity.Admin
}
