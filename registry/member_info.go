// Package registry holds the process-local bindings the mesh runtime needs
// to route calls: which uuids have a live local actor, which names map to
// which actor ids, which outstanding calls are awaiting a response, and
// what the runtime last learned about members hosted by other peers.
package registry

import (
	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/peer"
)

// MemberInfo describes one mesh member, as returned by
// SystemActor.ListMembers. The optional fields carry PTY introspection;
// their zero value (empty string) means the collaborator did not provide it.
type MemberInfo struct {
	Name              string   `json:"name"`
	ActorID           actor.ID `json:"actor_id"`
	PeerID            peer.ID  `json:"peer_id"`
	Transport         string   `json:"transport"`
	Command           string   `json:"command,omitempty"`
	Cwd               string   `json:"cwd,omitempty"`
	ForegroundProcess string   `json:"foreground_process,omitempty"`
}
