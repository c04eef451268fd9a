package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := &Config{
		Args:   append([]string{"concretize"}, args...),
		Stdout: &out,
		Stderr: &errOut,
	}
	code := c.Run()
	return code, out.String(), errOut.String()
}

func TestRunSolvesSpec(t *testing.T) {
	code, out, errOut := runCLI(t, "python")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "python@2.7.11") {
		t.Errorf("output missing concretized python: %s", out)
	}
	if !strings.Contains(out, "Optimization:") {
		t.Errorf("output missing the cost vector line: %s", out)
	}
}

func TestRunPinnedVersion(t *testing.T) {
	code, out, errOut := runCLI(t, "python@3.5.1")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "python@3.5.1") {
		t.Errorf("output missing pinned python: %s", out)
	}
}

func TestRunShowASP(t *testing.T) {
	code, out, errOut := runCLI(t, "-show", "asp", "python")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "version_declared") {
		t.Errorf("asp dump missing generated facts: %s", out)
	}
}

func TestRunInvalidFlags(t *testing.T) {
	if code, _, _ := runCLI(t, "-show", "bogus", "python"); code == 0 {
		t.Error("invalid --show value must exit non-zero")
	}
	if code, _, _ := runCLI(t, "-models", "-1", "python"); code == 0 {
		t.Error("negative --models must exit non-zero")
	}
	if code, _, _ := runCLI(t); code == 0 {
		t.Error("missing spec literals must exit non-zero")
	}
}

func TestParseShow(t *testing.T) {
	got, err := parseShow("asp,solutions")
	if err != nil {
		t.Fatal(err)
	}
	if !got["asp"] || !got["solutions"] || got["output"] {
		t.Errorf("parseShow(asp,solutions) = %v", got)
	}

	all, err := parseShow("all")
	if err != nil {
		t.Fatal(err)
	}
	for _, o := range []string{"asp", "output", "solutions"} {
		if !all[o] {
			t.Errorf("parseShow(all) missing %s", o)
		}
	}

	if _, err := parseShow("nope"); err == nil {
		t.Error("parseShow must reject unknown selectors")
	}
}
