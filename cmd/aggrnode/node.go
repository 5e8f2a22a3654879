package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/aggr/metrics"
	"github.com/reusee/aggr/nets"
	"github.com/reusee/aggr/networks"
	"github.com/reusee/aggr/programs"
	"github.com/reusee/aggr/vars"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// node runs one device over TCP.
type node struct {
	id        int
	listen    string
	peers     map[int]string
	interval  time.Duration
	rounds    int
	stateFile string
	program   string
	codec     string
	metrics   string
	dialer    nets.Dialer
	logger    logs.Logger
	// listener is used instead of listening on listen if not nil
	listener net.Listener
}

// run drives rounds until ctx is done or the rounds are done, returning the last value.
func (n node) run(ctx context.Context) (ret any, err error) {
	program, err := programs.ByName(n.program)
	if err != nil {
		return nil, err
	}
	// values always cross the wire
	codec, err := programs.NewCodec(vars.FirstNonZero(n.codec, "gob"))
	if err != nil {
		return nil, err
	}

	previous, err := n.loadState(*codec)
	if err != nil {
		return nil, err
	}

	listener := n.listener
	if listener == nil {
		listener, err = net.Listen("tcp", n.listen)
		if err != nil {
			return nil, err
		}
	}
	network := networks.NewTCP(n.id, *codec, listener, n.dialer, n.logger)
	for peer, addr := range n.peers {
		network.AddPeer(peer, addr)
	}
	n.logger.InfoContext(ctx, "node",
		"id", n.id,
		"addr", network.Addr().String(),
		"peers", len(n.peers),
		"program", n.program,
	)

	m := metrics.New(n.id)
	driver := &aggregates.Driver[int, any]{
		ID:       n.id,
		Network:  network,
		Program:  metrics.Instrument(m, program),
		Previous: previous,
		Limiter:  rate.NewLimiter(rate.Every(n.interval), 1),
		Logger:   n.logger,
	}
	var last any
	driver.OnRound = func(round int, result aggregates.Result[int, any]) error {
		metrics.Observe(m, result)
		if round == 0 || fmt.Sprint(result.Value) != fmt.Sprint(last) {
			n.logger.InfoContext(ctx, "value", "round", round, "value", result.Value)
		}
		last = result.Value
		return nil
	}
	defer func() {
		ret = last
	}()

	var metricsListener net.Listener
	if n.metrics != "" {
		metricsListener, err = net.Listen("tcp", n.metrics)
		if err != nil {
			network.Close()
			return nil, err
		}
		n.logger.InfoContext(ctx, "metrics", "addr", metricsListener.Addr().String())
	}

	group, ctx := errgroup.WithContext(ctx)
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	group.Go(func() error {
		return network.Serve(ctx)
	})
	if metricsListener != nil {
		group.Go(func() error {
			return m.Serve(metricsCtx, metricsListener)
		})
	}
	group.Go(func() error {
		defer network.Close()
		defer stopMetrics()
		_, err := driver.Run(ctx, func() bool {
			return n.rounds == 0 || driver.Rounds() < n.rounds
		})
		if saveErr := n.saveState(*codec, driver.Previous); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
		return err
	})
	return nil, group.Wait()
}

func (n node) loadState(codec codecs.Codec[int]) (aggregates.State, error) {
	if n.stateFile == "" {
		return nil, nil
	}
	f, err := os.Open(n.stateFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	state, err := aggregates.LoadState(f, codec)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", n.stateFile, err)
	}
	return state, nil
}

func (n node) saveState(codec codecs.Codec[int], state aggregates.State) error {
	if n.stateFile == "" || state == nil {
		return nil
	}
	buf := new(bytes.Buffer)
	if err := aggregates.SaveState(buf, codec, state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	tmp := n.stateFile + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, n.stateFile)
}
