package taskgraph

import "hash/fnv"

// PortID identifies a port within a node's input set or output set. It is
// derived from the declared port name; the same name always yields the same
// id, across nodes and across runs.
type PortID uint64

// ID hashes a port name into its identifier (64-bit FNV-1a).
func ID(name string) PortID {
	h := fnv.New64a()
	h.Write([]byte(name))
	return PortID(h.Sum64())
}
