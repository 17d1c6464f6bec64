package rbridge

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/casskit/casskit/internal/logging"
	"github.com/casskit/casskit/internal/table"
)

func shellOrSkip(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunCapturesStdout(t *testing.T) {
	runner := New(shellOrSkip(t), logging.Discard())
	script := writeScript(t, "echo preamble\necho \"arg=$1\"\necho noise >&2\n")

	out, err := runner.Run(context.Background(), script, "BRCA")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != "preamble\narg=BRCA\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
}

func TestRunReportsStderrOnFailure(t *testing.T) {
	runner := New(shellOrSkip(t), nil)
	script := writeScript(t, "echo 'there is no package called TCGAbiolinks' >&2\nexit 3\n")

	_, err := runner.Run(context.Background(), script)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "TCGAbiolinks") {
		t.Fatalf("stderr missing from error: %v", err)
	}
}

func TestRunMissingInterpreter(t *testing.T) {
	runner := New("casskit-no-such-rscript", nil)
	if _, err := runner.Run(context.Background(), "x.R"); !errors.Is(err, ErrInterpreterNotFound) {
		t.Fatalf("expected ErrInterpreterNotFound, got %v", err)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	runner := New(shellOrSkip(t), nil)
	script := writeScript(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx, script); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunTableRoundTrip(t *testing.T) {
	runner := New(shellOrSkip(t), nil)
	script := writeScript(t, "cat \"$1\"\n")
	input := table.New([]string{"sample", "purity"},
		[]string{"TCGA-OR-A5J1", "0.91"},
		[]string{"TCGA-OR-A5J2", "0.47"},
	)

	out, err := runner.RunTable(context.Background(), script, input)
	if err != nil {
		t.Fatalf("run table: %v", err)
	}
	if !out.Equal(input) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestTailTruncates(t *testing.T) {
	long := strings.Repeat("x", stderrTail+10)
	if got := tail(long); len(got) != stderrTail+3 || !strings.HasPrefix(got, "...") {
		t.Fatalf("unexpected tail length %d", len(got))
	}
}
