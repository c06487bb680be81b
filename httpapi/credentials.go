package httpapi

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoUsers is returned by NewCredentials for an empty table.
var ErrNoUsers = errors.New("httpapi: credential table is empty")

// Credentials is the demo username/password table. Only bcrypt hashes are
// kept after construction.
type Credentials struct {
	hashes map[string][]byte
	// dummy is compared against for unknown usernames so both paths cost
	// one bcrypt comparison.
	dummy []byte
}

// NewCredentials hashes every password in users. A cost of zero means
// bcrypt.DefaultCost.
func NewCredentials(users map[string]string, cost int) (*Credentials, error) {
	if len(users) == 0 {
		return nil, ErrNoUsers
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	c := &Credentials{hashes: make(map[string][]byte, len(users))}
	for name, password := range users {
		if name == "" || password == "" {
			return nil, fmt.Errorf("httpapi: user %q: username and password are required", name)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("httpapi: hash password for %q: %w", name, err)
		}
		c.hashes[name] = hash
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("rbacgate-unknown-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("httpapi: hash placeholder: %w", err)
	}
	c.dummy = dummy
	return c, nil
}

// Verify reports whether password is correct for username.
func (c *Credentials) Verify(username, password string) bool {
	hash, ok := c.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(c.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Has reports whether username is in the table.
func (c *Credentials) Has(username string) bool {
	_, ok := c.hashes[username]
	return ok
}

// Usernames returns the known usernames, sorted.
func (c *Credentials) Usernames() []string {
	names := make([]string, 0, len(c.hashes))
	for name := range c.hashes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
