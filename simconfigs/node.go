package simconfigs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reusee/aggr/cmds"
	"github.com/reusee/aggr/configs"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/aggr/vars"
)

// NodeID is the device id of a node.
type NodeID int

// zero is a valid id, nil for not set
var nodeIDFlag = cmds.Var[*NodeID]("-id", "device id")

func (Module) NodeID(
	loader configs.Loader,
) NodeID {
	if id := *nodeIDFlag; id != nil {
		return *id
	}
	return configs.First[NodeID](loader, "node_id")
}

// Listen is the address a node accepts peer connections on.
type Listen string

var listenFlag = cmds.Var[Listen]("-listen", "listen address")

func (Module) Listen(
	loader configs.Loader,
) Listen {
	return vars.FirstNonZero(
		*listenFlag,
		configs.First[Listen](loader, "listen"),
		"127.0.0.1:0",
	)
}

// Peers maps neighbor ids to addresses.
type Peers map[NodeID]string

var peerFlags = cmds.Collect[string]("-peer", "neighbor as id=addr")

func (Module) Peers(
	loader configs.Loader,
	logger logs.Logger,
) Peers {
	ret := make(Peers)
	for id, addr := range configs.First[map[string]string](loader, "peers") {
		n, err := strconv.Atoi(id)
		if err != nil {
			logger.Warn("bad peer id", "id", id, "error", err)
			continue
		}
		ret[NodeID(n)] = addr
	}
	for _, str := range *peerFlags {
		id, addr, err := ParsePeer(str)
		if err != nil {
			logger.Warn("bad peer", "peer", str, "error", err)
			continue
		}
		ret[id] = addr
	}
	return ret
}

// ParsePeer parses id=addr.
func ParsePeer(str string) (NodeID, string, error) {
	idStr, addr, ok := strings.Cut(str, "=")
	if !ok || addr == "" {
		return 0, "", fmt.Errorf("expecting id=addr, got %q", str)
	}
	id, err := strconv.Atoi(strings.TrimSpace(idStr))
	if err != nil {
		return 0, "", fmt.Errorf("peer id: %w", err)
	}
	return NodeID(id), strings.TrimSpace(addr), nil
}

// Interval is the minimum time between rounds of a node.
type Interval time.Duration

var intervalFlag = cmds.Var[time.Duration]("-interval", "time between rounds")

func (Module) Interval(
	loader configs.Loader,
	logger logs.Logger,
) Interval {
	if *intervalFlag > 0 {
		return Interval(*intervalFlag)
	}
	if str := configs.First[string](loader, "interval"); str != "" {
		d, err := time.ParseDuration(str)
		if err == nil && d > 0 {
			return Interval(d)
		}
		logger.Warn("bad interval", "interval", str, "error", err)
	}
	return Interval(100 * time.Millisecond)
}

// Rounds bounds the rounds of a node. Zero runs until interrupted.
type Rounds int

var roundsFlag = cmds.Var[Rounds]("-rounds", "max rounds, 0 for unlimited")

func (Module) Rounds(
	loader configs.Loader,
) Rounds {
	return vars.FirstNonZero(
		*roundsFlag,
		configs.First[Rounds](loader, "rounds"),
	)
}

// StateFile keeps the device state between runs of a node. Empty disables persistence.
type StateFile string

var stateFileFlag = cmds.Var[StateFile]("-state", "state file")

func (Module) StateFile(
	loader configs.Loader,
) StateFile {
	return vars.FirstNonZero(
		*stateFileFlag,
		configs.First[StateFile](loader, "state_file"),
	)
}

// MetricsAddr serves prometheus metrics of a node. Empty disables it.
type MetricsAddr string

var metricsAddrFlag = cmds.Var[MetricsAddr]("-metrics", "metrics listen address")

func (Module) MetricsAddr(
	loader configs.Loader,
) MetricsAddr {
	return vars.FirstNonZero(
		*metricsAddrFlag,
		configs.First[MetricsAddr](loader, "metrics_addr"),
	)
}
