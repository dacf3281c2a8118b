package system

import (
	"encoding/json"
	"fmt"

	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/member"
	"github.com/bfix/mm/registry"
)

// systemActor is the well-known SystemActor: it answers discovery queries
// about this host's own members and the remote members it has cached from
// earlier member exchange. It never makes an outbound call of its
// own — every method reads local registries only, so a remote caller can
// never trigger this host to dial a third party.
type systemActor struct {
	sys *System
}

// localMemberInfos enumerates every member hosted on this host, with live
// introspection where the underlying PTY supports it.
func (a *systemActor) localMemberInfos() []registry.MemberInfo {
	var out []registry.MemberInfo
	for _, entry := range a.sys.names.AllEntries() {
		if !entry.ID.Peer.Equal(a.sys.local) {
			continue
		}
		value, ok := a.sys.actors.Find(entry.ID.UUID)
		if !ok {
			continue
		}
		m, ok := value.(*member.Member)
		if !ok {
			continue
		}
		info := registry.MemberInfo{
			Name:      entry.Name,
			ActorID:   entry.ID,
			PeerID:    a.sys.local,
			Transport: "tcp",
		}
		if cmd, ok := m.GetCommand(); ok {
			info.Command = cmd
		}
		if cwd, ok := m.GetCwd(); ok {
			info.Cwd = cwd
		}
		if fg, ok := m.GetForegroundProcess(); ok {
			info.ForegroundProcess = fg
		}
		out = append(out, info)
	}
	return out
}

// findLocal looks up a locally hosted member by name.
func (a *systemActor) findLocal(name string) (registry.MemberInfo, bool) {
	for _, info := range a.localMemberInfos() {
		if info.Name == name {
			return info, true
		}
	}
	return registry.MemberInfo{}, false
}

// allKnownMemberInfos is localMemberInfos plus whatever this host last
// learned about other peers' members through member exchange. Both sources
// are read from local state only; neither call makes an outbound request.
func (a *systemActor) allKnownMemberInfos() []registry.MemberInfo {
	out := a.localMemberInfos()
	out = append(out, a.sys.remote.All()...)
	return out
}

func init() {
	actor.RegisterMethod("System.ListMembers:1", dispatchListMembers)
	actor.RegisterMethod("System.FindMember:1", dispatchFindMember)
}

func asSystemActor(target any) (*systemActor, error) {
	a, ok := target.(*systemActor)
	if !ok {
		return nil, fmt.Errorf("system: dispatch target is %T, not the system actor", target)
	}
	return a, nil
}

func dispatchListMembers(target any, _ []byte) ([]byte, error) {
	a, err := asSystemActor(target)
	if err != nil {
		return nil, err
	}
	return json.Marshal(a.allKnownMemberInfos())
}

func dispatchFindMember(target any, args []byte) ([]byte, error) {
	a, err := asSystemActor(target)
	if err != nil {
		return nil, err
	}
	var params [1]string
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("system: decode FindMember arguments: %w", err)
	}
	if info, ok := a.findLocal(params[0]); ok {
		return json.Marshal(info)
	}
	if info, ok := a.sys.remote.FindByName(params[0]); ok {
		return json.Marshal(info)
	}
	return json.Marshal(registry.MemberInfo{})
}
