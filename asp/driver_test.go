package asp

import (
	"context"
	"strings"
	"testing"
)

func TestDefaultConfigTunedValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ModelCount != 0 {
		t.Errorf("ModelCount = %d, want 0 (all models)", cfg.ModelCount)
	}
	if !cfg.ExtendedTranslation {
		t.Error("ExtendedTranslation must default on")
	}
	if cfg.ParallelThreads != 2 {
		t.Errorf("ParallelThreads = %d, want 2", cfg.ParallelThreads)
	}
	if cfg.OptimizationStrategy != "usc,one" {
		t.Errorf("OptimizationStrategy = %q, want usc,one", cfg.OptimizationStrategy)
	}
	if !cfg.CoreReporting {
		t.Error("CoreReporting must default on")
	}
}

func TestDriverTextOnly(t *testing.T) {
	p := NewProgram(false)
	p.Fact(Fn("node", Fn("a")))

	var sink strings.Builder
	cfg := DefaultConfig()
	cfg.TextOnly = true
	cfg.TextSink = &sink

	res, err := NewDriver(cfg).Solve(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Answers) != 0 {
		t.Error("text-only mode must not search")
	}
	if !strings.Contains(sink.String(), "node(/a).") {
		t.Errorf("sink missing the serialized fact: %q", sink.String())
	}
}

func TestDriverCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewDriver(DefaultConfig()).Solve(ctx, NewProgram(false)); err == nil {
		t.Error("a cancelled context must abort the solve")
	}
}
