// Command galileod runs a single Galileo storage node: it binds the
// Message Router, starts the Event Reactor worker pool, and serves
// until an OS signal asks it to stop.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/units"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/definition"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/node"
	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/common/log"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("galileod", "Galileo distributed storage/query node.")

	host = app.Flag("host", "interface this node accepts connections on.").
		Default("0.0.0.0").String()

	port = app.Flag("port", "TCP listen port, stable across the cluster.").
		Default("5555").Int()

	home = app.Flag("home", "installation root.").
		Envar("GALILEO_HOME").String()

	confDir = app.Flag("conf-dir", "config directory.").
		Envar("GALILEO_CONF_DIR").String()

	storageRoot = app.Flag("storage-root", "on-disk storage root; read-only mode is entered automatically when it lacks write permission.").
			Envar("GALILEO_STORAGE_ROOT").String()

	peers = app.Flag("peer", "host:port:group of a peer in the overlay; repeatable.").
		Strings()

	poolSize = app.Flag("pool-size", "Event Reactor worker goroutines (1 = single-threaded).").
			Envar("GALILEO_POOL_SIZE").Default(strconv.Itoa(runtime.NumCPU())).Int()

	queryDeadline = app.Flag("query-deadline", "how long the query tracker table waits for peer responses.").
			Envar("GALILEO_QUERY_DEADLINE").Default("30s").Duration()

	maxWriteQueueBytes = app.Flag("max-write-queue", "per-connection write queue budget, e.g. 1MiB.").
				Envar("GALILEO_MAX_WRITE_QUEUE").Default("1MiB").Bytes()

	readOnly = app.Flag("read-only", "force the default FS read-only, overriding the storage-root permission probe.").Bool()

	minVersion = app.Flag("min-supported-version", "reject startup if this build's protocol version is older.").
			Default("").String()

	debug = app.Flag("debug", "enable debug logging.").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	listen := net.JoinHostPort(*host, strconv.Itoa(*port))

	// A bootstrap logger runs before the app's own Logger exists, same
	// role as the teacher's package-level prometheus/common/log calls in
	// pkg/mcast/core/transport.go.
	log.Infof("galileod starting, listen=%s home=%q conf-dir=%q storage-root=%q", listen, *home, *confDir, *storageRoot)

	network, err := parsePeers(*peers)
	if err != nil {
		log.Fatalf("invalid --peer: %v", err)
	}

	appLog := definition.NewDefaultLogger(*debug)
	fs := definition.NewDefaultFS(resolveReadOnly(*readOnly, *storageRoot, appLog))
	partitioner := definition.NewDefaultPartitioner(network)

	n, err := node.New(node.Config{
		Listen:              listen,
		MaxWriteQueueSize:   writeQueueSlots(*maxWriteQueueBytes),
		PoolSize:            *poolSize,
		QueryDeadline:       *queryDeadline,
		MinSupportedVersion: *minVersion,
		Network:             network,
		FS:                  fs,
		Partitioner:         partitioner,
		Log:                 appLog,
	})
	if err != nil {
		log.Fatalf("failed constructing node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.Infof("serving on %s with %d worker(s)", listen, *poolSize)
	if err := n.Serve(ctx); err != nil && ctx.Err() == nil {
		appLog.Fatalf("node exited: %v", err)
	}
	appLog.Info("shutdown complete")
}

// resolveReadOnly honors an explicit --read-only override, otherwise
// probes storageRoot for write permission the way the filesystem layer
// decides it automatically: unable to create a file there means the FS
// comes up read-only. An empty storageRoot (no on-disk root configured,
// the common case for the in-memory DefaultFS) is writable by definition.
func resolveReadOnly(explicit bool, storageRootPath string, l types.Logger) bool {
	if explicit {
		return true
	}
	if storageRootPath == "" {
		return false
	}
	probe := filepath.Join(storageRootPath, fmt.Sprintf(".galileod-write-probe-%d", os.Getpid()))
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		l.Warnf("storage root %q is not writable (%v); starting read-only", storageRootPath, err)
		return true
	}
	f.Close()
	os.Remove(probe)
	return false
}

// writeQueueSlots turns a byte budget into a frame-count queue capacity,
// assuming a representative 4KiB average frame — the router's write
// queue is a chan []byte, not a byte-accounted buffer, so a byte flag is
// translated down to the slot count it actually bounds.
func writeQueueSlots(budget units.Base2Bytes) int {
	const assumedFrameSize = 4 * units.KiB
	slots := int(budget / assumedFrameSize)
	if slots < 1 {
		return 1
	}
	return slots
}

// parsePeers turns repeated "host:port:group" flags into a NetworkInfo
// snapshot.
func parsePeers(raw []string) (types.NetworkInfo, error) {
	nodes := make([]types.NodeInfo, 0, len(raw))
	for _, p := range raw {
		info, err := parsePeer(p)
		if err != nil {
			return types.NetworkInfo{}, err
		}
		nodes = append(nodes, info)
	}
	return types.NetworkInfo{Nodes: nodes}, nil
}

func parsePeer(raw string) (types.NodeInfo, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return types.NodeInfo{}, errors.Newf("expected host:port[:group], got %q", raw)
	}
	var group string
	if len(parts) == 3 {
		group = parts[2]
	}
	port, err := parseInt(parts[1])
	if err != nil {
		return types.NodeInfo{}, err
	}
	return types.NodeInfo{Host: parts[0], Port: port, Group: group}, nil
}

func parseInt(s string) (int, error) {
	var n int
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Newf("invalid port %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}
