package definition

import (
	"hash/fnv"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
)

// DefaultPartitioner locates the owning node for a block with
// rendezvous (highest-random-weight) hashing over the overlay snapshot:
// every node gets a weight derived from hash(node, key), and the
// highest-weight node wins. Unlike consistent hashing this needs no
// ring or vnodes, and — the property that matters here — when a node
// joins or leaves only that node's keys move, never all of them.
type DefaultPartitioner struct {
	network types.NetworkInfo
}

func NewDefaultPartitioner(network types.NetworkInfo) *DefaultPartitioner {
	return &DefaultPartitioner{network: network}
}

func (p *DefaultPartitioner) Locate(metadata types.Metadata) (types.NodeInfo, error) {
	if len(p.network.Nodes) == 0 {
		return types.NodeInfo{}, types.ErrPartitionExhausted
	}

	key := metadata.Key()
	var best types.NodeInfo
	var bestWeight uint32
	found := false

	for _, node := range p.network.Nodes {
		w := weight(node, key)
		if !found || w > bestWeight {
			best, bestWeight, found = node, w, true
		}
	}
	return best, nil
}

func weight(node types.NodeInfo, key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(node.String()))
	h.Write([]byte{0})
	h.Write([]byte(key))
	return h.Sum32()
}
