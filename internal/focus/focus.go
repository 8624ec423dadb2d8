// Package focus guards a single shared interactive view so that only one
// requester manipulates it at a time.
//
// A Lock is owned by the session loop and is not safe for concurrent use.
// It holds no timers: whoever ends the owning session must release.
package focus

// Token proves ownership of a Lock.
type Token struct {
	owner string
	lock  *Lock
}

// Owner returns the requester the token was granted to.
func (t *Token) Owner() string { return t.owner }

// Release gives the focus back. Releasing a stale token does nothing.
func (t *Token) Release() {
	if t == nil || t.lock == nil {
		return
	}
	t.lock.Release(t)
}

// Lock is either free or held by exactly one owner.
type Lock struct {
	held *Token
}

// New creates a free lock.
func New() *Lock { return &Lock{} }

// Request grants the lock to owner. A repeated request by the holder
// returns the same token; a request while someone else holds it fails
// without changing anything.
func (l *Lock) Request(owner string) (*Token, bool) {
	if l.held != nil {
		if l.held.owner == owner {
			return l.held, true
		}
		return nil, false
	}
	l.held = &Token{owner: owner, lock: l}
	return l.held, true
}

// Release frees the lock if tok is the live token. Stale, foreign and nil
// tokens are ignored.
func (l *Lock) Release(tok *Token) {
	if tok == nil || l.held != tok {
		return
	}
	l.held = nil
	tok.lock = nil
}

// ReleaseOwner frees the lock if owner holds it. The session uses this
// when a connection goes away without releasing.
func (l *Lock) ReleaseOwner(owner string) {
	if l.held != nil && l.held.owner == owner {
		l.Release(l.held)
	}
}

// CanFocus reports whether owner could obtain the lock now.
func (l *Lock) CanFocus(owner string) bool {
	return l.held == nil || l.held.owner == owner
}

// Holder returns the current owner and whether the lock is held.
func (l *Lock) Holder() (string, bool) {
	if l.held == nil {
		return "", false
	}
	return l.held.owner, true
}
