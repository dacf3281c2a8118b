package registry

import (
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/syncmap"
)

// RemoteMembers caches the last MemberInfo a peer reported about its own
// members, keyed by the member's actor uuid. Entries are best-effort: they
// are refreshed by member exchange and evicted wholesale when their owning
// peer disconnects.
type RemoteMembers struct {
	m *syncmap.Map[string, MemberInfo]
}

// NewRemoteMembers allocates an empty remote-member cache.
func NewRemoteMembers() *RemoteMembers {
	return &RemoteMembers{m: syncmap.New[string, MemberInfo]()}
}

// Put records or replaces the cached info for the member named by
// info.ActorID.UUID.
func (r *RemoteMembers) Put(info MemberInfo) {
	r.m.Put(info.ActorID.UUID, info)
}

// Find looks up a cached member by uuid.
func (r *RemoteMembers) Find(uuid string) (MemberInfo, bool) {
	return r.m.Get(uuid)
}

// FindByName searches the cache for a member with the given name.
func (r *RemoteMembers) FindByName(name string) (MemberInfo, bool) {
	var (
		found MemberInfo
		ok    bool
	)
	r.m.Range(func(_ string, info MemberInfo) bool {
		if info.Name == name {
			found, ok = info, true
			return false
		}
		return true
	})
	return found, ok
}

// All returns a snapshot of every cached member.
func (r *RemoteMembers) All() []MemberInfo {
	var out []MemberInfo
	r.m.Range(func(_ string, info MemberInfo) bool {
		out = append(out, info)
		return true
	})
	return out
}

// ByPeer groups cached members by the peer that hosts them.
func (r *RemoteMembers) ByPeer() map[peer.ID][]MemberInfo {
	grouped := make(map[peer.ID][]MemberInfo)
	r.m.Range(func(_ string, info MemberInfo) bool {
		grouped[info.PeerID] = append(grouped[info.PeerID], info)
		return true
	})
	return grouped
}

// EvictPeer removes every cached member hosted by p, returning how many
// were removed. Called when the connection to p drops.
func (r *RemoteMembers) EvictPeer(p peer.ID) int {
	removed := r.m.DeleteMatching(func(_ string, info MemberInfo) bool {
		return info.PeerID.Equal(p)
	})
	return len(removed)
}

// Clear empties the cache.
func (r *RemoteMembers) Clear() {
	r.m.Clear()
}
