package domain

import "time"

// DisconnectedIdentity describes a player whose connection dropped and whose
// seat is being held for a bounded window.
type DisconnectedIdentity struct {
	StaleID   string
	TableCode string
	Name      string
	At        time.Time
}

// IdentityRecoveryPolicy decides whether a fresh connection may take over a
// previously disconnected player. The engine only depends on this interface,
// so the best-effort name match below can be swapped for a stronger scheme
// (e.g. a session token) without touching it.
type IdentityRecoveryPolicy interface {
	Match(candidates []DisconnectedIdentity, tableCode string, displayName string, now time.Time) (staleID string, ok bool)
}

// NameMatchPolicy matches on table code and display name inside a retention
// window. It is a heuristic, not an authentication mechanism.
type NameMatchPolicy struct {
	Window time.Duration
}

func (p NameMatchPolicy) Match(candidates []DisconnectedIdentity, tableCode string, displayName string, now time.Time) (string, bool) {
	for _, c := range candidates {
		if c.TableCode != tableCode || c.Name != displayName {
			continue
		}
		if now.Sub(c.At) > p.Window {
			continue
		}
		return c.StaleID, true
	}
	return "", false
}
