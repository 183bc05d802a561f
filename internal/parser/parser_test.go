package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/srcforge/pkgparse/internal/models"
	"github.com/srcforge/pkgparse/internal/script"
)

// stubParser builds a parser around a hand-written /bin/sh evaluator, so
// the orchestration tests do not depend on bash or makepkg being present
func stubParser(t *testing.T, stub string, opts Options) *Parser {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evaluator.sh")
	if err := os.WriteFile(path, []byte(stub), 0o644); err != nil {
		t.Fatalf("Failed to write stub evaluator: %v", err)
	}
	if opts.Interpreter == "" {
		opts.Interpreter = "/bin/sh"
	}
	return &Parser{Script: script.FromPath(path), Options: opts}
}

// echoStub answers every input path with a minimal valid record named
// after the path's last element
const echoStub = `while IFS= read -r p; do
  echo PKGBUILD
  echo "base:${p##*/}"
  echo "name:${p##*/}"
  echo ver:1.0
  echo rel:1
  echo pkgver_func:n
  echo END
done
`

func TestParseBatchKeepsInputOrder(t *testing.T) {
	p := stubParser(t, echoStub, Options{})
	paths := []string{"/srv/abuild/zlib/PKGBUILD", "/srv/abuild/gcc/PKGBUILD", "/srv/abuild/vim/PKGBUILD"}
	results, err := p.ParseBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("ParseBatch failed: %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("Expected %d results, got %d", len(paths), len(results))
	}
	for i, want := range []string{"PKGBUILD", "PKGBUILD", "PKGBUILD"} {
		if results[i].Err != nil {
			t.Fatalf("Result %d failed: %v", i, results[i].Err)
		}
		if got := results[i].Recipe.Base; got != want {
			t.Errorf("Result %d: expected base %q, got %q", i, want, got)
		}
	}
}

func TestParseBatchMiddleFailureKeepsNeighbors(t *testing.T) {
	stub := `while IFS= read -r p; do
  echo PKGBUILD
  case "$p" in
  *broken*)
    echo "error:pkgname is not set"
    echo "ERROR: pkgname is not set" >&2
    echo END
    continue
    ;;
  esac
  echo "base:${p##*/}"
  echo "name:${p##*/}"
  echo ver:1.0
  echo rel:1
  echo pkgver_func:n
  echo END
done
`
	p := stubParser(t, stub, Options{})
	paths := []string{"/pkgs/first", "/pkgs/broken", "/pkgs/last"}
	results, err := p.ParseBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("ParseBatch failed: %v", err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("Neighbors of a failed recipe must survive: %v / %v", results[0].Err, results[2].Err)
	}
	var pe *models.ParseError
	if !errors.As(results[1].Err, &pe) {
		t.Fatalf("Expected a ParseError, got %v", results[1].Err)
	}
	if pe.Path != "/pkgs/broken" {
		t.Errorf("Expected the error to be scoped to its path, got %q", pe.Path)
	}
}

func TestParseBatchAborted(t *testing.T) {
	stub := `IFS= read -r p
echo PKGBUILD
echo "base:one"
echo "name:one"
echo ver:1
echo rel:1
echo pkgver_func:n
echo END
echo "evaluator blew up" >&2
exit 3
`
	p := stubParser(t, stub, Options{})
	_, err := p.ParseBatch(context.Background(), []string{"/pkgs/one", "/pkgs/two"})
	var aborted *models.AbortedError
	if !errors.As(err, &aborted) {
		t.Fatalf("Expected an AbortedError, got %v", err)
	}
	if aborted.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", aborted.ExitCode)
	}
	if !strings.Contains(aborted.Diagnostics, "evaluator blew up") {
		t.Errorf("Expected stderr in diagnostics, got %q", aborted.Diagnostics)
	}
}

func TestParseBatchProtocolDesync(t *testing.T) {
	stub := `IFS= read -r p
echo END
echo PKGBUILD
`
	p := stubParser(t, stub, Options{})
	_, err := p.ParseBatch(context.Background(), []string{"/pkgs/one"})
	var proto *models.ProtocolError
	if !errors.As(err, &proto) {
		t.Fatalf("Expected a ProtocolError, got %v", err)
	}
}

func TestParseBatchLaunchFailure(t *testing.T) {
	p := stubParser(t, echoStub, Options{Interpreter: "/nonexistent/interpreter"})
	_, err := p.ParseBatch(context.Background(), []string{"/pkgs/one"})
	var launch *models.LaunchError
	if !errors.As(err, &launch) {
		t.Fatalf("Expected a LaunchError, got %v", err)
	}
}

func TestParseBatchTimeoutKeepsDecodedRecords(t *testing.T) {
	stub := `IFS= read -r p
echo PKGBUILD
echo "base:fast"
echo "name:fast"
echo ver:1
echo rel:1
echo pkgver_func:n
echo END
sleep 60
`
	p := stubParser(t, stub, Options{Timeout: 250 * time.Millisecond})
	start := time.Now()
	results, err := p.ParseBatch(context.Background(), []string{"/pkgs/fast", "/pkgs/never"})
	var timeout *models.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Expected a TimeoutError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Timeout did not kill the evaluator, took %v", elapsed)
	}
	if len(results) != 1 || results[0].Err != nil || results[0].Recipe.Base != "fast" {
		t.Errorf("Expected the completed record to survive the timeout, got %+v", results)
	}
}

func TestParseBatchContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	p := stubParser(t, "sleep 60\n", Options{})
	_, err := p.ParseBatch(ctx, []string{"/pkgs/one"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestParseBatchLargeBatchNoDeadlock(t *testing.T) {
	// Bulky records and a long path list force both pipe buffers full at
	// once; the batch must still drain
	stub := `while IFS= read -r p; do
  echo PKGBUILD
  echo "base:${p##*/}"
  echo "name:${p##*/}"
  echo ver:1
  echo rel:1
  echo pkgver_func:n
  i=0
  while [ $i -lt 500 ]; do
    echo "noextract:some-fairly-long-archive-member-name-$i.tar.gz"
    i=$((i+1))
  done
  echo END
done
`
	for _, mode := range []struct {
		name string
		opts Options
	}{
		{"tasks", Options{}},
		{"single task", Options{SingleTask: true}},
	} {
		t.Run(mode.name, func(t *testing.T) {
			p := stubParser(t, stub, mode.opts)
			paths := make([]string, 100)
			for i := range paths {
				paths[i] = fmt.Sprintf("/pkgs/the/rather/deep/path/to/recipe-%03d", i)
			}
			results, err := p.ParseBatch(context.Background(), paths)
			if err != nil {
				t.Fatalf("ParseBatch failed: %v", err)
			}
			if len(results) != len(paths) {
				t.Fatalf("Expected %d results, got %d", len(paths), len(results))
			}
			last := results[len(results)-1]
			if last.Err != nil || len(last.Recipe.NoExtract) != 500 {
				t.Errorf("Last record incomplete: err=%v noextract=%d", last.Err, len(last.Recipe.NoExtract))
			}
		})
	}
}

func TestParseBatchSingleTaskMatchesTasks(t *testing.T) {
	paths := []string{"/pkgs/alpha", "/pkgs/beta", "/pkgs/gamma"}
	threaded := stubParser(t, echoStub, Options{})
	single := stubParser(t, echoStub, Options{SingleTask: true})

	want, err := threaded.ParseBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("Task-per-pipe batch failed: %v", err)
	}
	got, err := single.ParseBatch(context.Background(), paths)
	if err != nil {
		t.Fatalf("Single-task batch failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Result counts differ: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Recipe.Base != want[i].Recipe.Base {
			t.Errorf("Result %d differs: %q vs %q", i, got[i].Recipe.Base, want[i].Recipe.Base)
		}
	}
}

func TestParseOne(t *testing.T) {
	p := stubParser(t, echoStub, Options{})
	recipe, err := p.ParseOne(context.Background(), "/pkgs/solo")
	if err != nil {
		t.Fatalf("ParseOne failed: %v", err)
	}
	if recipe.Base != "solo" {
		t.Errorf("Expected base solo, got %q", recipe.Base)
	}
}

func TestParseBatchRejectsNewlinePaths(t *testing.T) {
	p := stubParser(t, echoStub, Options{})
	_, err := p.ParseBatch(context.Background(), []string{"/pkgs/bad\nname"})
	var cfg *models.ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("Expected a ConfigError, got %v", err)
	}
}
