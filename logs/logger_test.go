package logs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/reusee/dscope"
)

func TestLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
		func() IsService {
			return false
		},
	).Call(func(
		logger Logger,
		level Level,
	) {
		logger.Info("round", "device", 1)
		if !strings.Contains(buf.String(), "device=1") {
			t.Fatalf("got %v", buf.String())
		}

		buf.Reset()
		logger.Debug("hidden")
		if buf.Len() != 0 {
			t.Fatalf("got %v", buf.String())
		}

		level.Set(slog.LevelDebug)
		defer level.Set(slog.LevelInfo)
		logger.With("device", 2).Debug("shown")
		if !strings.Contains(buf.String(), "shown") {
			t.Fatalf("got %v", buf.String())
		}
	})
}

func TestNewSpan(t *testing.T) {
	buf := new(bytes.Buffer)
	dscope.New(new(Module)).Fork(
		func() Writer {
			return buf
		},
		func() IsService {
			return false
		},
	).Call(func(
		newSpan NewSpan,
		logger Logger,
	) {
		ctx, span := newSpan(context.Background(), "simulation")
		_, child := newSpan(ctx, "device")

		var lines []string
		for _, line := range strings.Split(buf.String(), "\n") {
			if strings.Contains(line, "new span") {
				lines = append(lines, line)
			}
		}
		if len(lines) != 2 {
			t.Fatalf("got %v", buf.String())
		}
		if !strings.Contains(lines[0], "logs.span="+string(span)) {
			t.Fatalf("got %v", lines[0])
		}
		if !strings.Contains(lines[0], "name=simulation") {
			t.Fatalf("got %v", lines[0])
		}
		if !strings.Contains(lines[1], "logs.span="+string(child)) {
			t.Fatalf("got %v", lines[1])
		}
		if !strings.Contains(lines[1], "parent="+string(span)) {
			t.Fatalf("got %v", lines[1])
		}

		buf.Reset()
		logger.With("cycle", 1).InfoContext(ctx, "cycle")
		if !strings.Contains(buf.String(), "logs.span="+string(span)) {
			t.Fatalf("got %v", buf.String())
		}

		err := WrapSpan(ctx, errors.New("foo"))
		if !strings.Contains(err.Error(), string(span)) {
			t.Fatalf("got %v", err)
		}
		if WrapSpan(context.Background(), nil) != nil {
			t.Fatal()
		}
	})
}

func TestJournalKey(t *testing.T) {
	if key := journalKey("logs.span"); key != "LOGS_SPAN" {
		t.Fatalf("got %v", key)
	}
}
