package fields

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	f := New(0, "local", map[int]string{
		0: "ignored",
		1: "one",
		2: "two",
	})
	if f.Local() != "local" {
		t.Fatalf("got %v", f.Local())
	}
	if f.NeighborsCount() != 2 {
		t.Fatalf("got %v", f.NeighborsCount())
	}
	if diff := cmp.Diff(map[int]string{1: "one", 2: "two"}, f.ExcludeSelf()); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff(map[int]string{0: "local", 1: "one", 2: "two"}, f.ToMap()); diff != "" {
		t.Fatal(diff)
	}
	if v, ok := f.Get(0); !ok || v != "local" {
		t.Fatalf("got %v %v", v, ok)
	}
	if _, ok := f.Get(3); ok {
		t.Fatal()
	}
	if s := f.String(); s != "Field(0: local, 1: one, 2: two)" {
		t.Fatalf("got %s", s)
	}
}

func TestImmutable(t *testing.T) {
	src := map[int]int{1: 1}
	f := New(0, 0, src)
	src[1] = 42
	src[2] = 2
	if v, _ := f.Get(1); v != 1 {
		t.Fatalf("got %v", v)
	}
	m := f.ExcludeSelf()
	m[1] = 42
	if v, _ := f.Get(1); v != 1 {
		t.Fatalf("got %v", v)
	}
}

func TestAllOrder(t *testing.T) {
	f := New(2, 20, map[int]int{3: 30, 1: 10})
	var ids []int
	for id := range f.All() {
		ids = append(ids, id)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ids); diff != "" {
		t.Fatal(diff)
	}
}

func TestMap(t *testing.T) {
	f := New(0, 1, map[int]int{1: 2, 2: 3})
	g := Map(f, strconv.Itoa)
	if diff := cmp.Diff(map[int]string{0: "1", 1: "2", 2: "3"}, g.ToMap()); diff != "" {
		t.Fatal(diff)
	}
	h := MapWithID(f, func(id int, v int) int {
		return id * v
	})
	if diff := cmp.Diff(map[int]int{0: 0, 1: 2, 2: 6}, h.ToMap()); diff != "" {
		t.Fatal(diff)
	}
}

func TestAlignedMapIntersection(t *testing.T) {
	a := New(0, 0, map[int]int{1: 1, 2: 2, 3: 3})
	b := New(0, 0, map[int]int{2: 20, 3: 30, 4: 40})
	for name, combine := range map[string]func(int, int) int{
		"plus":  func(x, y int) int { return x + y },
		"left":  func(x, _ int) int { return x },
		"right": func(_, y int) int { return y },
	} {
		t.Run(name, func(t *testing.T) {
			got := AlignedMap(a, b, combine)
			if diff := cmp.Diff([]int{2, 3}, got.NeighborIDs()); diff != "" {
				t.Fatal(diff)
			}
			if got.Owner() != 0 {
				t.Fatal()
			}
		})
	}
}

func TestAlignedMapOwnerMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("should panic")
		}
	}()
	AlignedMap(New[int, int](0, 0, nil), New[int, int](1, 0, nil), func(a, b int) int {
		return a
	})
}

func TestPlusAsymmetric(t *testing.T) {
	a := New(0, 1, map[int]int{1: 10, 2: 20})
	b := New(0, 2, map[int]int{2: 200, 3: 300})
	sum := Plus(a, b)
	if diff := cmp.Diff(map[int]int{0: 3, 1: 10, 2: 220}, sum.ToMap()); diff != "" {
		t.Fatal(diff)
	}
	diff := Minus(a, b)
	if d := cmp.Diff(map[int]int{0: -1, 1: 10, 2: -180}, diff.ToMap()); d != "" {
		t.Fatal(d)
	}
	// the policy is not commutative
	if d := cmp.Diff([]int{2, 3}, Plus(b, a).NeighborIDs()); d != "" {
		t.Fatal(d)
	}
}

func TestMinMax(t *testing.T) {
	f := New(0, 5, map[int]int{1: 3, 2: 8})
	if v, err := Min(f, true); err != nil || v != 3 {
		t.Fatalf("got %v %v", v, err)
	}
	if v, err := Max(f, true); err != nil || v != 8 {
		t.Fatalf("got %v %v", v, err)
	}
	g := New(0, 1, map[int]int{1: 3, 2: 8})
	if v, err := Min(g, false); err != nil || v != 3 {
		t.Fatalf("got %v %v", v, err)
	}
	if v := MinWithSelf(g); v != 1 {
		t.Fatalf("got %v", v)
	}
	if v := MaxWithSelf(New[int, int](0, 9, nil)); v != 9 {
		t.Fatalf("got %v", v)
	}
}

func TestMinMaxEmpty(t *testing.T) {
	f := New[int, int](0, 6, nil)
	if _, err := Min(f, false); !errors.Is(err, ErrEmptyField) {
		t.Fatalf("got %v", err)
	}
	if _, err := Max(f, false); !errors.Is(err, ErrEmptyField) {
		t.Fatalf("got %v", err)
	}
	if v := MinOr(f, 100); v != 100 {
		t.Fatalf("got %v", v)
	}
	if v := MaxOr(f, -100); v != -100 {
		t.Fatalf("got %v", v)
	}
}

func TestMinBy(t *testing.T) {
	type pair struct {
		d    int
		data string
	}
	less := func(a, b pair) bool {
		return a.d < b.d
	}
	base := pair{100, "base"}
	f := New(0, pair{0, "self"}, map[int]pair{
		3: {2, "three"},
		1: {2, "one"},
		2: {5, "two"},
	})
	if got := MinBy(f, base, less); got.data != "one" {
		t.Fatalf("got %v", got)
	}
	if got := MinBy(New[int, pair](0, pair{0, "self"}, nil), base, less); got != base {
		t.Fatalf("got %v", got)
	}
	if got := MinBy(New(0, pair{}, map[int]pair{1: {100, "tie"}}), base, less); got != base {
		t.Fatalf("got %v", got)
	}
}

func TestCoerceIn(t *testing.T) {
	f := CoerceIn(New(0, -5, map[int]int{1: 5, 2: 50}), 0, 10)
	if diff := cmp.Diff(map[int]int{0: 0, 1: 5, 2: 10}, f.ToMap()); diff != "" {
		t.Fatal(diff)
	}
}

func TestFoldAndPredicates(t *testing.T) {
	f := New(0, 100, map[int]int{1: 1, 2: 2, 3: 3})
	got := Fold(f, "", func(acc string, id int, v int) string {
		return acc + strconv.Itoa(id*v)
	})
	if got != "149" {
		t.Fatalf("got %v", got)
	}
	if !Exists(f, func(v int) bool { return v == 2 }) {
		t.Fatal()
	}
	if Exists(f, func(v int) bool { return v == 100 }) {
		t.Fatal("local entry is not a neighbor")
	}
	if !ForAll(f, func(v int) bool { return v < 10 }) {
		t.Fatal()
	}
	if Sum(f, false) != 6 || Sum(f, true) != 106 {
		t.Fatal()
	}
	g := Filter(f, func(id int, _ int) bool { return id != 2 })
	if diff := cmp.Diff([]int{1, 3}, g.NeighborIDs()); diff != "" {
		t.Fatal(diff)
	}
}

func TestConstant(t *testing.T) {
	f := Constant(1, []int{0, 1, 2}, "x")
	if diff := cmp.Diff(map[int]string{0: "x", 1: "x", 2: "x"}, f.ToMap()); diff != "" {
		t.Fatal(diff)
	}
	if WithLocal(f, "y").Local() != "y" {
		t.Fatal()
	}
}
