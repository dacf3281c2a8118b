package status

import (
	"net/http"

	"github.com/bfix/mm/registry"
)

// StatusService is the gorilla/rpc JSON-RPC 1.0 service registered at
// "/rpc": ListMembers and FindMember mirror SystemActor's own methods, for
// callers that want member status over plain HTTP instead of the mesh's
// own wire protocol.
type StatusService struct {
	lister MemberLister
}

// ListMembersArgs is the (empty) argument struct for ListMembers.
type ListMembersArgs struct{}

// ListMembersReply carries every member this host knows about.
type ListMembersReply struct {
	Members []registry.MemberInfo `json:"members"`
}

// ListMembers returns every member visible to this host, local and remote.
func (s *StatusService) ListMembers(r *http.Request, args *ListMembersArgs, reply *ListMembersReply) error {
	reply.Members = s.lister.AllMembersWithStatus(r.Context())
	return nil
}

// FindMemberArgs names the member to look up.
type FindMemberArgs struct {
	Name string `json:"name"`
}

// FindMemberReply carries the matching member, if any.
type FindMemberReply struct {
	Member registry.MemberInfo `json:"member"`
	Found  bool                `json:"found"`
}

// FindMember returns the member named args.Name, if this host knows of one.
func (s *StatusService) FindMember(r *http.Request, args *FindMemberArgs, reply *FindMemberReply) error {
	for _, m := range s.lister.AllMembersWithStatus(r.Context()) {
		if m.Name == args.Name {
			reply.Member = m
			reply.Found = true
			return nil
		}
	}
	return nil
}
