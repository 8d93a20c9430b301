// Package types holds the Galileo data model: the plain structs and pinned
// collaborator interfaces shared by the router, reactor, query and node
// packages. None of these types carry behavior beyond small accessors —
// the protocol logic lives in the packages that consume them.
package types

import "fmt"

// NodeInfo identifies a single peer in the overlay: its host, its listen
// port, and the replication group it belongs to.
type NodeInfo struct {
	Host  string
	Port  int
	Group string
}

// Destination renders the NodeInfo down to the NetworkDestination used by
// the Message Router to key its client-side connections.
func (n NodeInfo) Destination() NetworkDestination {
	return NetworkDestination{Host: n.Host, Port: n.Port}
}

func (n NodeInfo) String() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// NetworkInfo is the static snapshot of the overlay read at startup. It is
// immutable for the node's lifetime.
type NetworkInfo struct {
	Nodes []NodeInfo
}

// NetworkDestination is the immutable (host, port) pair used by the client
// side of the Message Router to deduplicate connections. Two values are
// equal by value, so it's usable directly as a map key.
type NetworkDestination struct {
	Host string
	Port int
}

func (d NetworkDestination) String() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// Block is a unit of stored data plus its metadata, as accepted by the FS
// layer's StoreBlock operation.
type Block struct {
	ID       string
	Content  []byte
	Metadata Metadata
}

// Metadata is a set of named scalar attributes attached to a Block and
// indexed for query (e.g. humidity=32.3). Values are opaque strings; the
// feature language that interprets them lives in the FS layer.
type Metadata map[string]string

// Key picks a stable representative value out of the metadata set for use
// by partitioning strategies that need a single hashable key. By
// convention the "key" attribute is used when present, otherwise the
// metadata is serialized deterministically.
func (m Metadata) Key() string {
	if k, ok := m["key"]; ok {
		return k
	}
	return m.canonical()
}

func (m Metadata) canonical() string {
	// Deterministic even though map iteration isn't: collect and sort.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStrings(keys)
	out := make([]byte, 0, 64)
	for _, k := range keys {
		out = append(out, k...)
		out = append(out, '=')
		out = append(out, m[k]...)
		out = append(out, ';')
	}
	return string(out)
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
