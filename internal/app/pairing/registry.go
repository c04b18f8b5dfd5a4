package pairing

import "pairrelay/internal/app/user"

// identityRegistry maps a connection id to the identity it announced.
// At most one identity exists per connection; joining again overwrites it.
type identityRegistry struct {
	byConn map[string]user.Identity
}

func newIdentityRegistry() *identityRegistry {
	return &identityRegistry{byConn: make(map[string]user.Identity)}
}

func (r *identityRegistry) register(connID, username string, role user.Role) user.Identity {
	id := user.Identity{ConnID: connID, Username: username, Role: role}
	r.byConn[connID] = id
	return id
}

func (r *identityRegistry) lookup(connID string) (user.Identity, bool) {
	id, ok := r.byConn[connID]
	return id, ok
}

func (r *identityRegistry) rename(connID, username string) {
	if id, ok := r.byConn[connID]; ok {
		id.Username = username
		r.byConn[connID] = id
	}
}

func (r *identityRegistry) remove(connID string) {
	delete(r.byConn, connID)
}

func (r *identityRegistry) len() int {
	return len(r.byConn)
}

// availabilityDirectory is the ordered set of connections that may receive pairing requests.
// Every entry must have an identity in the registry it was built against.
type availabilityDirectory struct {
	policy     string
	identities *identityRegistry
	order      []string
	members    map[string]struct{}
}

func newAvailabilityDirectory(policy string, identities *identityRegistry) *availabilityDirectory {
	return &availabilityDirectory{
		policy:     policy,
		identities: identities,
		members:    make(map[string]struct{}),
	}
}

// eligible applies the availability policy to an identity.
func (d *availabilityDirectory) eligible(id user.Identity) bool {
	if d.policy == PolicyRole {
		return id.Role == user.RoleViewer
	}
	return true
}

// include adds connID if it is registered and eligible. It reports whether the set changed.
func (d *availabilityDirectory) include(connID string) bool {
	id, ok := d.identities.lookup(connID)
	if !ok || !d.eligible(id) {
		return d.exclude(connID)
	}

	if _, exists := d.members[connID]; exists {
		return false
	}

	d.members[connID] = struct{}{}
	d.order = append(d.order, connID)
	return true
}

// exclude removes connID. It reports whether the set changed.
func (d *availabilityDirectory) exclude(connID string) bool {
	if _, exists := d.members[connID]; !exists {
		return false
	}

	delete(d.members, connID)
	for i, id := range d.order {
		if id == connID {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

func (d *availabilityDirectory) contains(connID string) bool {
	_, ok := d.members[connID]
	return ok
}

// list returns the current entries in insertion order.
func (d *availabilityDirectory) list() []AvailableUser {
	users := make([]AvailableUser, 0, len(d.order))
	for _, connID := range d.order {
		if id, ok := d.identities.lookup(connID); ok {
			users = append(users, AvailableUser{ConnID: connID, Username: id.Username})
		}
	}
	return users
}
