// Package node implements the Storage Node Coordinator (SNC): the glue
// wiring the Message Router, the Event Reactor, and the Query Tracker
// Table into the five wire-event handlers described in §4.4, plus the
// QTT's deadline sweep.
package node

import (
	"time"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/hashicorp/go-version"
)

// ProtocolVersion is the version this rendering of the coordinator
// speaks. It isn't carried on the wire — §6 pins EventContainer to just
// (tag, body) — but it's checked against Config.MinSupportedVersion at
// startup so an operator rolling out an incompatible build fails fast
// rather than silently misinterpreting frames it can still decode.
const ProtocolVersion = "1.0.0"

// Config bundles everything New needs to assemble a coordinator.
type Config struct {
	// Listen is the "host:port" the coordinator accepts inbound peer and
	// client connections on.
	Listen string

	// MaxWriteQueueSize bounds each connection's write queue (§4.1's
	// back-pressure knob). Zero uses router.DefaultMaxWriteQueueSize.
	MaxWriteQueueSize int

	// PoolSize is the number of Event Reactor worker goroutines. 1 gives
	// the single-threaded cooperative mode of §4.2; >1 gives the shared
	// worker-pool mode.
	PoolSize int

	// QueryDeadline bounds how long the QTT waits for a peer's
	// QUERY_RESPONSE before the sweep closes the tracker anyway (§4.3).
	QueryDeadline time.Duration

	// SweepInterval is how often the background goroutine checks for
	// expired query trackers. Defaults to one second, matching §5.
	SweepInterval time.Duration

	// MinSupportedVersion gates startup: ProtocolVersion must satisfy
	// ">= MinSupportedVersion" or New returns an error. Leave empty to
	// skip the check.
	MinSupportedVersion string

	// Network is the static overlay snapshot consulted by Selector and
	// by Partitioner-driven forwarding.
	Network types.NetworkInfo

	// Selector picks QUERY_REQUEST fan-out targets. Defaults to
	// types.AllNodes.
	Selector types.TargetSelector

	FS          types.FS
	Partitioner types.Partitioner
	Log         types.Logger
}

func (c Config) withDefaults() Config {
	if c.QueryDeadline <= 0 {
		c.QueryDeadline = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Second
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 1
	}
	if c.Selector == nil {
		c.Selector = types.AllNodes
	}
	return c
}

// checkVersion validates ProtocolVersion against cfg.MinSupportedVersion
// using a real semver constraint, grounded on the same library the
// teacher's release tooling pins in go.mod.
func checkVersion(minSupported string) error {
	if minSupported == "" {
		return nil
	}
	current, err := version.NewVersion(ProtocolVersion)
	if err != nil {
		return err
	}
	constraint, err := version.NewConstraint(">= " + minSupported)
	if err != nil {
		return err
	}
	if !constraint.Check(current) {
		return types.ErrUnsupportedVersion
	}
	return nil
}
