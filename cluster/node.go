// Package cluster holds the node identity and server-list types that flow
// across the wire codec's servers field: each node advertises itself by a
// stable ID and a dialable address.
package cluster

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID uniquely identifies a node for the lifetime of the cluster. It is
// generated once, at first start, and persisted by the caller; this
// package only knows how to mint and parse it.
type NodeID uuid.UUID

// NewNodeID mints a fresh, random node identity.
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// ParseNodeID parses a canonical UUID string into a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("parsing node id %q: %w", s, err)
	}
	return NodeID(u), nil
}

func (n NodeID) String() string {
	return uuid.UUID(n).String()
}

// Uint64 folds the low 8 bytes of the node ID into a uint64, the numeric
// form the wire codec's servers field actually carries (the id field in
// dqlite's replication protocol is a uint64, not a UUID — see
// message__body_get_servers). NewNodeID-minted IDs are still carried in
// full as the human-facing identity; Uint64 is only used at the wire
// boundary.
func (n NodeID) Uint64() uint64 {
	var v uint64
	for _, b := range n[8:16] {
		v = v<<8 | uint64(b)
	}
	return v
}

// Server is one member of a cluster's server list: a numeric ID and the
// address other nodes should dial to reach it.
type Server struct {
	ID      uint64
	Address string
}

// ServerList is an ordered set of Servers, the payload shape dqlite's
// servers_t sequence carries: a run of (id, address) pairs.
type ServerList []Server
