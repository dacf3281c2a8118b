// This file is part of mm, a peer-to-peer mesh of terminal agents.
//
// Package peer implements the addressable host identity used throughout
// the mesh: a human-readable name paired with the host and port the peer
// listens on.
package peer

import (
	"fmt"
	"strconv"
	"strings"
)

// ID addresses a single host participating in the mesh. Its canonical wire
// form is "name@host:port". Two IDs are equal iff all three fields match.
type ID struct {
	Name string
	Host string
	Port uint16
}

// New builds an ID from its parts.
func New(name, host string, port uint16) ID {
	return ID{Name: name, Host: host, Port: port}
}

// String renders the canonical "name@host:port" wire form.
func (id ID) String() string {
	return fmt.Sprintf("%s@%s:%d", id.Name, id.Host, id.Port)
}

// Addr returns the dialable "host:port" portion, without the name.
func (id ID) Addr() string {
	return fmt.Sprintf("%s:%d", id.Host, id.Port)
}

// Equal reports whether id and other name the same peer.
func (id ID) Equal(other ID) bool {
	return id.Name == other.Name && id.Host == other.Host && id.Port == other.Port
}

// Parse decodes the canonical "name@host:port" form produced by String.
// It fails with *InvalidError when the '@' or ':' delimiter is missing,
// the port is not a valid uint16, or the name or host is empty.
func Parse(s string) (ID, error) {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return ID{}, &InvalidError{Value: s, Reason: "missing '@'"}
	}
	name, hostport := s[:at], s[at+1:]
	colon := strings.LastIndex(hostport, ":")
	if colon < 0 {
		return ID{}, &InvalidError{Value: s, Reason: "missing ':'"}
	}
	host, portStr := hostport[:colon], hostport[colon+1:]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return ID{}, &InvalidError{Value: s, Reason: "non-numeric port"}
	}
	if name == "" || host == "" {
		return ID{}, &InvalidError{Value: s, Reason: "empty name or host"}
	}
	return ID{Name: name, Host: host, Port: uint16(port)}, nil
}

// InvalidError reports a malformed peer id string.
type InvalidError struct {
	Value  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid peer id %q: %s", e.Value, e.Reason)
}
