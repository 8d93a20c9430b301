package definition

import (
	"testing"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/stretchr/testify/require"
)

func TestLocateIsDeterministicForTheSameKey(t *testing.T) {
	network := types.NetworkInfo{Nodes: []types.NodeInfo{
		{Host: "a", Port: 1}, {Host: "b", Port: 2}, {Host: "c", Port: 3},
	}}
	p := NewDefaultPartitioner(network)

	first, err := p.Locate(types.Metadata{"key": "humidity"})
	require.NoError(t, err)
	second, err := p.Locate(types.Metadata{"key": "humidity"})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLocateDistributesAcrossNodes(t *testing.T) {
	network := types.NetworkInfo{Nodes: []types.NodeInfo{
		{Host: "a", Port: 1}, {Host: "b", Port: 2}, {Host: "c", Port: 3},
	}}
	p := NewDefaultPartitioner(network)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := p.Locate(types.Metadata{"key": string(rune('a' + i))})
		require.NoError(t, err)
		seen[n.String()] = true
	}
	require.Greater(t, len(seen), 1)
}

func TestLocateFailsWithNoNodes(t *testing.T) {
	p := NewDefaultPartitioner(types.NetworkInfo{})
	_, err := p.Locate(types.Metadata{"key": "x"})
	require.ErrorIs(t, err, types.ErrPartitionExhausted)
}
