package member

import (
	"encoding/json"
	"fmt"

	"github.com/bfix/mm/actor"
)

// optionalString is the wire shape for a Get* probe that may come back
// empty because the underlying PTY does not implement Introspectable.
type optionalString struct {
	Value string `json:"value"`
	Ok    bool   `json:"ok"`
}

func init() {
	actor.RegisterMethod("Member.Tell:1", dispatchTell)
	actor.RegisterMethod("Member.IsRunning:1", dispatchIsRunning)
	actor.RegisterMethod("Member.GetName:1", dispatchGetName)
	actor.RegisterMethod("Member.GetCommand:1", dispatchGetCommand)
	actor.RegisterMethod("Member.GetCwd:1", dispatchGetCwd)
	actor.RegisterMethod("Member.GetForegroundProcess:1", dispatchGetForegroundProcess)
}

func asMember(target any) (*Member, error) {
	m, ok := target.(*Member)
	if !ok {
		return nil, fmt.Errorf("member: dispatch target is %T, not *Member", target)
	}
	return m, nil
}

func dispatchTell(target any, args []byte) ([]byte, error) {
	m, err := asMember(target)
	if err != nil {
		return nil, err
	}
	var params [1]string
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("member: decode Tell arguments: %w", err)
	}
	return nil, m.Tell(params[0])
}

func dispatchIsRunning(target any, _ []byte) ([]byte, error) {
	m, err := asMember(target)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m.IsRunning())
}

func dispatchGetName(target any, _ []byte) ([]byte, error) {
	m, err := asMember(target)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m.GetName())
}

func dispatchGetCommand(target any, _ []byte) ([]byte, error) {
	m, err := asMember(target)
	if err != nil {
		return nil, err
	}
	value, ok := m.GetCommand()
	return json.Marshal(optionalString{Value: value, Ok: ok})
}

func dispatchGetCwd(target any, _ []byte) ([]byte, error) {
	m, err := asMember(target)
	if err != nil {
		return nil, err
	}
	value, ok := m.GetCwd()
	return json.Marshal(optionalString{Value: value, Ok: ok})
}

func dispatchGetForegroundProcess(target any, _ []byte) ([]byte, error) {
	m, err := asMember(target)
	if err != nil {
		return nil, err
	}
	value, ok := m.GetForegroundProcess()
	return json.Marshal(optionalString{Value: value, Ok: ok})
}
