package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/reusee/aggr/programs"
	"github.com/reusee/aggr/simulations"
)

func testSimulation(program string) simulation {
	return simulation{
		logger:    slog.New(slog.DiscardHandler),
		topology:  "line",
		size:      5,
		maxCycles: 50,
		order:     simulations.InOrder,
		program:   program,
	}
}

func TestRunUntilStable(t *testing.T) {
	env, cycles, err := run(context.Background(), testSimulation("hops"))
	if err != nil {
		t.Fatal(err)
	}
	if cycles == 0 {
		t.Fatal()
	}
	buf := new(strings.Builder)
	printStatus(buf, env.Status())
	if buf.String() != "0\t0\n1\t1\n2\t2\n3\t3\n4\t4\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRunUntilPredicate(t *testing.T) {
	sim := testSimulation("gossip-max")
	sim.order = simulations.InReverseOrder
	sim.codec = "json"
	sim.until = "len(set(status.values())) == 1 and status[0] == 4"
	env, cycles, err := run(context.Background(), sim)
	if err != nil {
		t.Fatal(err)
	}
	// reverse order carries the max from the end in one cycle
	if cycles != 1 {
		t.Fatalf("got %v", cycles)
	}
	if env.Status()[2] != 4 {
		t.Fatalf("got %v", env.Status())
	}
}

func TestRunNotStable(t *testing.T) {
	sim := testSimulation("hops")
	sim.until = "cycle > 100"
	sim.maxCycles = 3
	env, cycles, err := run(context.Background(), sim)
	if !errors.Is(err, simulations.ErrNotStable) {
		t.Fatalf("got %v", err)
	}
	if cycles != 3 || env.Cycles() != 3 {
		t.Fatalf("got %v", cycles)
	}
}

func TestRunBadInput(t *testing.T) {
	for _, modify := range []func(*simulation){
		func(s *simulation) {
			s.topology = "tree"
		},
		func(s *simulation) {
			s.program = "foo"
		},
		func(s *simulation) {
			s.codec = "xml"
		},
		func(s *simulation) {
			s.until = "status =="
		},
	} {
		sim := testSimulation("hops")
		modify(&sim)
		env, _, err := run(context.Background(), sim)
		if err == nil {
			t.Fatal("should fail")
		}
		if env != nil {
			t.Fatal()
		}
	}
	_, _, err := run(context.Background(), testSimulation("foo"))
	if !errors.Is(err, programs.ErrUnknownProgram) {
		t.Fatalf("got %v", err)
	}
}

func TestLinks(t *testing.T) {
	l := links(simulations.Line(3))
	if len(l[1]) != 2 || l[1][0] != 0 || l[1][1] != 2 {
		t.Fatalf("got %v", l)
	}
}
