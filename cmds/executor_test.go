package cmds

import (
	"errors"
	"net/netip"
	"strings"
	"testing"
)

func TestExecutor(t *testing.T) {
	executor := NewExecutor()

	var size int
	executor.Define("+size", Func(func() {
		size = 42
	}))
	executor.Define("size", Func(func(i int) {
		size = i
	}))

	if err := executor.Execute([]string{"+size"}); err != nil {
		t.Fatal(err)
	}
	if size != 42 {
		t.Fatalf("got %v", size)
	}

	if err := executor.Execute([]string{"size", "1"}); err != nil {
		t.Fatal(err)
	}
	if size != 1 {
		t.Fatalf("got %v", size)
	}

	err := executor.Execute([]string{"foo"})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "foo") {
		t.Fatalf("got %v", err)
	}

	err = executor.Execute([]string{"size", "x"})
	if err == nil || !strings.Contains(err.Error(), "convert x to int") {
		t.Fatalf("got %v", err)
	}

	err = executor.Execute([]string{"size"})
	if err == nil || !strings.Contains(err.Error(), "expecting argument") {
		t.Fatalf("got %v", err)
	}
}

func TestCommandError(t *testing.T) {
	executor := NewExecutor()
	failed := errors.New("failed")
	executor.Define("run", Func(func() error {
		return failed
	}))
	executor.Define("ok", Func(func() error {
		return nil
	}))
	if err := executor.Execute([]string{"ok"}); err != nil {
		t.Fatal(err)
	}
	if err := executor.Execute([]string{"run"}); !errors.Is(err, failed) {
		t.Fatalf("got %v", err)
	}
}

func TestTextUnmarshalerArgument(t *testing.T) {
	executor := NewExecutor()
	var addr netip.AddrPort
	executor.Define("listen", Func(func(a netip.AddrPort) {
		addr = a
	}))
	if err := executor.Execute([]string{"listen", "127.0.0.1:7001"}); err != nil {
		t.Fatal(err)
	}
	if addr.Port() != 7001 {
		t.Fatalf("got %v", addr)
	}
	if err := executor.Execute([]string{"listen", "foo"}); err == nil {
		t.Fatal("should fail")
	}
}

func TestSubCommands(t *testing.T) {
	executor := NewExecutor()
	var bar, baz int
	executor.Define("foo", Sub(map[string]*Command{
		"bar": Func(func() {
			bar = 1
		}),
		"baz": Func(func(i int) {
			baz = i
		}),
	}))

	if err := executor.Execute([]string{
		"foo",
		"bar",
		"baz", "42",
	}); err != nil {
		t.Fatal(err)
	}
	if bar != 1 {
		t.Fatalf("got %v", bar)
	}
	if baz != 42 {
		t.Fatalf("got %v", baz)
	}

	// not visible without the parent
	if err := executor.Execute([]string{"bar"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("got %v", err)
	}
}

func TestDuplicatedSubCommand(t *testing.T) {
	executor := NewExecutor()
	executor.Define("foo", Sub(map[string]*Command{
		"a": nil,
	}))
	executor.Define("bar", Sub(map[string]*Command{
		"a": nil,
	}))
	err := executor.Execute([]string{"foo", "bar"})
	if err == nil || !strings.Contains(err.Error(), "duplicated sub command: bar a") {
		t.Fatalf("got %v", err)
	}
}

func TestDuplicatedCommand(t *testing.T) {
	executor := NewExecutor()
	defer func() {
		if p := recover(); p == nil {
			t.Fatal("should panic")
		}
	}()
	executor.Define("help", Func(func() {}))
}

func TestOptionalArgument(t *testing.T) {
	executor := NewExecutor()
	var n int
	var s string
	executor.Define("foo", Func(func(arg *int, arg2 *string) {
		n = *arg
		s = *arg2
	}))

	if err := executor.Execute([]string{"foo", "42", "foo"}); err != nil {
		t.Fatal(err)
	}
	if n != 42 || s != "foo" {
		t.Fatalf("got %v %v", n, s)
	}

	if err := executor.Execute([]string{"foo", "99"}); err != nil {
		t.Fatal(err)
	}
	if n != 99 || s != "" {
		t.Fatalf("got %v %v", n, s)
	}

	if err := executor.Execute([]string{"foo"}); err != nil {
		t.Fatal(err)
	}
	if n != 0 || s != "" {
		t.Fatalf("got %v %v", n, s)
	}
}
