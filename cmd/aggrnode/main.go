package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/reusee/aggr/cmds"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/aggr/modes"
	"github.com/reusee/aggr/nets"
	"github.com/reusee/aggr/simconfigs"
	"github.com/reusee/dscope"
)

func main() {
	cmds.Execute(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err error
	dscope.New(
		new(Module),
		modes.ForProduction(),
	).Call(func(
		logger logs.Logger,
		newSpan logs.NewSpan,
		dialer nets.Dialer,
		id simconfigs.NodeID,
		listen simconfigs.Listen,
		peers simconfigs.Peers,
		interval simconfigs.Interval,
		rounds simconfigs.Rounds,
		stateFile simconfigs.StateFile,
		programName simconfigs.ProgramName,
		codecName simconfigs.CodecName,
		metricsAddr simconfigs.MetricsAddr,
	) {
		ctx, _ := newSpan(ctx, "node")
		n := node{
			id:        int(id),
			listen:    string(listen),
			peers:     make(map[int]string, len(peers)),
			interval:  time.Duration(interval),
			rounds:    int(rounds),
			stateFile: string(stateFile),
			program:   string(programName),
			codec:     string(codecName),
			metrics:   string(metricsAddr),
			dialer:    dialer,
			logger:    logger,
		}
		for peer, addr := range peers {
			n.peers[int(peer)] = addr
		}
		_, runErr := n.run(ctx)
		err = logs.WrapSpan(ctx, runErr)
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
}
