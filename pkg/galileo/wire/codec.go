package wire

import (
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/cockroachdb/errors"
)

// EncodeMetadata writes a Metadata map as (uint32 count, (string, string)...).
func EncodeMetadata(buf []byte, m types.Metadata) []byte {
	buf = PutUint32(buf, uint32(len(m)))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortKeys(keys)
	for _, k := range keys {
		buf = PutString(buf, k)
		buf = PutString(buf, m[k])
	}
	return buf
}

func (c *cursor) metadata() (types.Metadata, error) {
	count, err := c.uint32()
	if err != nil {
		return nil, err
	}
	m := make(types.Metadata, count)
	for i := uint32(0); i < count; i++ {
		k, err := c.string()
		if err != nil {
			return nil, err
		}
		v, err := c.string()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func sortKeys(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// EncodeBlock writes a Block as (id, content, metadata).
func EncodeBlock(buf []byte, b types.Block) []byte {
	buf = PutString(buf, b.ID)
	buf = PutBytes(buf, b.Content)
	buf = EncodeMetadata(buf, b.Metadata)
	return buf
}

func (c *cursor) block() (types.Block, error) {
	id, err := c.string()
	if err != nil {
		return types.Block{}, err
	}
	content, err := c.bytes()
	if err != nil {
		return types.Block{}, err
	}
	metadata, err := c.metadata()
	if err != nil {
		return types.Block{}, err
	}
	return types.Block{ID: id, Content: append([]byte(nil), content...), Metadata: metadata}, nil
}

// EncodeNodeInfo writes a NodeInfo as (host, port, group).
func EncodeNodeInfo(buf []byte, n types.NodeInfo) []byte {
	buf = PutString(buf, n.Host)
	buf = PutUint32(buf, uint32(n.Port))
	buf = PutString(buf, n.Group)
	return buf
}

func (c *cursor) nodeInfo() (types.NodeInfo, error) {
	host, err := c.string()
	if err != nil {
		return types.NodeInfo{}, err
	}
	port, err := c.uint32()
	if err != nil {
		return types.NodeInfo{}, err
	}
	group, err := c.string()
	if err != nil {
		return types.NodeInfo{}, err
	}
	return types.NodeInfo{Host: host, Port: int(port), Group: group}, nil
}

// EncodeStorageRequest encodes a StorageRequestBody.
func EncodeStorageRequest(b types.StorageRequestBody) []byte {
	return EncodeBlock(nil, b.Block)
}

func DecodeStorageRequest(raw []byte) (types.StorageRequestBody, error) {
	block, err := newCursor(raw).block()
	if err != nil {
		return types.StorageRequestBody{}, errors.Wrap(err, "wire: decode storage request")
	}
	return types.StorageRequestBody{Block: block}, nil
}

// EncodeStorage encodes a StorageBody.
func EncodeStorage(b types.StorageBody) []byte {
	return EncodeBlock(nil, b.Block)
}

func DecodeStorage(raw []byte) (types.StorageBody, error) {
	block, err := newCursor(raw).block()
	if err != nil {
		return types.StorageBody{}, errors.Wrap(err, "wire: decode storage")
	}
	return types.StorageBody{Block: block}, nil
}

// EncodeQueryRequest encodes a QueryRequestBody.
func EncodeQueryRequest(b types.QueryRequestBody) []byte {
	return PutString(nil, b.Query)
}

func DecodeQueryRequest(raw []byte) (types.QueryRequestBody, error) {
	query, err := newCursor(raw).string()
	if err != nil {
		return types.QueryRequestBody{}, errors.Wrap(err, "wire: decode query request")
	}
	return types.QueryRequestBody{Query: query}, nil
}

// EncodeQuery encodes a QueryBody.
func EncodeQuery(b types.QueryBody) []byte {
	buf := PutString(nil, b.QueryID)
	buf = PutString(buf, b.Query)
	return buf
}

func DecodeQuery(raw []byte) (types.QueryBody, error) {
	cur := newCursor(raw)
	id, err := cur.string()
	if err != nil {
		return types.QueryBody{}, errors.Wrap(err, "wire: decode query id")
	}
	query, err := cur.string()
	if err != nil {
		return types.QueryBody{}, errors.Wrap(err, "wire: decode query string")
	}
	return types.QueryBody{QueryID: id, Query: query}, nil
}

// EncodeQueryResponse encodes a QueryResponseBody.
func EncodeQueryResponse(b types.QueryResponseBody) []byte {
	buf := PutString(nil, b.QueryID)
	buf = PutUint32(buf, uint32(len(b.Results)))
	for _, m := range b.Results {
		buf = EncodeMetadata(buf, m)
	}
	return buf
}

func DecodeQueryResponse(raw []byte) (types.QueryResponseBody, error) {
	cur := newCursor(raw)
	id, err := cur.string()
	if err != nil {
		return types.QueryResponseBody{}, errors.Wrap(err, "wire: decode query response id")
	}
	count, err := cur.uint32()
	if err != nil {
		return types.QueryResponseBody{}, errors.Wrap(err, "wire: decode query response count")
	}
	results := make([]types.Metadata, 0, count)
	for i := uint32(0); i < count; i++ {
		m, err := cur.metadata()
		if err != nil {
			return types.QueryResponseBody{}, errors.Wrap(err, "wire: decode query response result")
		}
		results = append(results, m)
	}
	return types.QueryResponseBody{QueryID: id, Results: results}, nil
}

// EncodeQueryPreamble encodes a QueryPreambleBody.
func EncodeQueryPreamble(b types.QueryPreambleBody) []byte {
	buf := PutString(nil, b.QueryID)
	buf = PutUint32(buf, uint32(len(b.Peers)))
	for _, p := range b.Peers {
		buf = EncodeNodeInfo(buf, p)
	}
	return buf
}

func DecodeQueryPreamble(raw []byte) (types.QueryPreambleBody, error) {
	cur := newCursor(raw)
	id, err := cur.string()
	if err != nil {
		return types.QueryPreambleBody{}, errors.Wrap(err, "wire: decode query preamble id")
	}
	count, err := cur.uint32()
	if err != nil {
		return types.QueryPreambleBody{}, errors.Wrap(err, "wire: decode query preamble count")
	}
	peers := make([]types.NodeInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := cur.nodeInfo()
		if err != nil {
			return types.QueryPreambleBody{}, errors.Wrap(err, "wire: decode query preamble peer")
		}
		peers = append(peers, n)
	}
	return types.QueryPreambleBody{QueryID: id, Peers: peers}, nil
}
