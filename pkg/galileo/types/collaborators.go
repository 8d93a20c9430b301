package types

import "context"

// FS is the downstream on-disk block storage and metadata-graph index
// collaborator. Its internals (checksumming, indexing, recovery scanning)
// are out of scope for this module — Galileo only consumes this
// interface.
type FS interface {
	// StoreBlock persists a block and returns the path it was written to.
	StoreBlock(ctx context.Context, block Block) (path string, err error)

	// Query synchronously evaluates an opaque feature-predicate string
	// against the metadata index.
	Query(ctx context.Context, query string) ([]Metadata, error)

	// LoadMetadata reads back the metadata stored at path.
	LoadMetadata(ctx context.Context, path string) (Metadata, error)

	// LoadBlock reads back the block stored at path.
	LoadBlock(ctx context.Context, path string) (Block, error)

	// IsReadOnly reports whether the storage root lacks write permission.
	IsReadOnly() bool

	// Shutdown releases any resources held by the FS layer.
	Shutdown()
}

// Partitioner is the downstream geohash-partitioning collaborator. Galileo
// only consumes Locate; the partitioning strategy itself is out of scope.
type Partitioner interface {
	// Locate maps metadata to the node that should own the corresponding
	// block.
	Locate(metadata Metadata) (NodeInfo, error)
}

// TargetSelector picks the set of peers a QUERY_REQUEST should be fanned
// out to. The default selector returns every node in the NetworkInfo
// snapshot; a partitioned selector can be injected in its place without
// touching the Storage Node Coordinator's handler.
type TargetSelector func(query string, network NetworkInfo) []NodeInfo

// AllNodes is the default TargetSelector: every node in the overlay.
func AllNodes(_ string, network NetworkInfo) []NodeInfo {
	out := make([]NodeInfo, len(network.Nodes))
	copy(out, network.Nodes)
	return out
}
