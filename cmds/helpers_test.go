package cmds

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestVar(t *testing.T) {
	size := Var[int]("TestVar.size")
	topology := Var[string]("TestVar.topology", "topology name")
	GlobalExecutor.MustExecute([]string{
		"TestVar.size", "42",
		"TestVar.topology", "grid",
	})
	if *size != 42 {
		t.Fatalf("got %v", *size)
	}
	if *topology != "grid" {
		t.Fatalf("got %v", *topology)
	}
	GlobalExecutor.MustExecute([]string{
		"TestVar.size.",
	})
	if *size != 0 {
		t.Fatalf("got %v", *size)
	}
}

func TestDurationVar(t *testing.T) {
	interval := Var[time.Duration]("TestDurationVar")
	GlobalExecutor.MustExecute([]string{
		"TestDurationVar", "150ms",
	})
	if *interval != 150*time.Millisecond {
		t.Fatalf("got %v", *interval)
	}
}

func TestSwitch(t *testing.T) {
	foo := Switch("TestSwitch")
	GlobalExecutor.MustExecute([]string{
		"TestSwitch",
	})
	if !*foo {
		t.Fatal()
	}
	GlobalExecutor.MustExecute([]string{
		"!TestSwitch",
	})
	if *foo {
		t.Fatal()
	}
}

func TestCollect(t *testing.T) {
	peers := Collect[string]("TestCollect")
	GlobalExecutor.MustExecute([]string{
		"TestCollect", "1=127.0.0.1:7001",
		"TestCollect", "2=127.0.0.1:7002",
	})
	if diff := cmp.Diff(*peers, []string{"1=127.0.0.1:7001", "2=127.0.0.1:7002"}); diff != "" {
		t.Fatal(diff)
	}
}

func TestTypedVar(t *testing.T) {
	type Order string
	v := Var[Order]("TestTypedVar")
	GlobalExecutor.MustExecute([]string{
		"TestTypedVar", "parallel",
	})
	if *v != "parallel" {
		t.Fatalf("got %v", *v)
	}
}
