package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"

	"github.com/reusee/aggr/cmds"
	"github.com/reusee/aggr/debugs"
	"github.com/reusee/aggr/logs"
	"github.com/reusee/aggr/modes"
	"github.com/reusee/aggr/programs"
	"github.com/reusee/aggr/simconfigs"
	"github.com/reusee/aggr/simulations"
	"github.com/reusee/dscope"
)

var tapFlag = cmds.Switch("-tap", "inspect the final status in a starlark REPL")

func init() {
	cmds.Define("programs", cmds.Func(func() {
		for _, name := range programs.Names() {
			fmt.Println(name)
		}
		os.Exit(0)
	}).Desc("list programs"))
}

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
		tap debugs.Tap,
		topologyName simconfigs.TopologyName,
		size simconfigs.Size,
		maxCycles simconfigs.MaxCycles,
		order simulations.Order,
		parallelism simconfigs.Parallelism,
		programName simconfigs.ProgramName,
		until simconfigs.Until,
		codecName simconfigs.CodecName,
	) {
		ctx, _ := newSpan(ctx, "simulation")
		env, cycles, runErr := run(ctx, simulation{
			logger:      logger,
			topology:    string(topologyName),
			size:        int(size),
			maxCycles:   int(maxCycles),
			order:       order,
			parallelism: int(parallelism),
			program:     string(programName),
			until:       string(until),
			codec:       string(codecName),
		})
		if env != nil {
			printStatus(os.Stdout, env.Status())
			logger.InfoContext(ctx, "done", "cycles", cycles)
			if *tapFlag {
				runErr = errors.Join(runErr, tap(ctx, "status", map[string]any{
					"status":   env.Status(),
					"cycle":    env.Cycles(),
					"topology": links(env.Topology),
				}))
			}
		}
		err = logs.WrapSpan(ctx, runErr)
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		if errors.Is(err, simulations.ErrNotStable) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

type simulation struct {
	logger      logs.Logger
	topology    string
	size        int
	maxCycles   int
	order       simulations.Order
	parallelism int
	program     string
	until       string
	codec       string
}

// run returns a nil environment if the simulation could not start.
func run(ctx context.Context, sim simulation) (*simulations.Environment[int, any], int, error) {
	topology, err := simulations.ByName(sim.topology, sim.size)
	if err != nil {
		return nil, 0, err
	}
	program, err := programs.ByName(sim.program)
	if err != nil {
		return nil, 0, err
	}
	codec, err := programs.NewCodec(sim.codec)
	if err != nil {
		return nil, 0, err
	}
	var predicate *debugs.Predicate
	if sim.until != "" {
		predicate, err = debugs.CompilePredicate(sim.until)
		if err != nil {
			return nil, 0, err
		}
	}

	env := simulations.NewEnvironment(topology, func(int) any {
		return nil
	}, program)
	env.Codec = codec
	env.Parallelism = sim.parallelism
	env.Logger = sim.logger

	sim.logger.InfoContext(ctx, "simulation",
		"topology", sim.topology,
		"devices", topology.Len(),
		"program", sim.program,
		"order", sim.order,
		"codec", sim.codec,
	)

	var cycles int
	if predicate == nil {
		cycles, err = env.RunUntilStable(ctx, sim.order, sim.maxCycles)
	} else {
		cycles, err = env.RunUntil(ctx, sim.order, sim.maxCycles, func(status simulations.Status[int, any]) (bool, error) {
			return predicate.Eval(map[string]any{
				"status": status,
				"cycle":  env.Cycles(),
			})
		})
	}
	return env, cycles, err
}

func printStatus(w io.Writer, status simulations.Status[int, any]) {
	for _, id := range slices.Sorted(maps.Keys(status)) {
		fmt.Fprintf(w, "%d\t%v\n", id, status[id])
	}
}

func links(topology *simulations.Topology[int]) map[int][]int {
	ret := make(map[int][]int)
	for _, id := range topology.IDs() {
		ret[id] = topology.Neighbors(id)
	}
	return ret
}
