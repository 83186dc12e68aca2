package deck

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Timeout bounds for one voacapl invocation. Area runs with large
// grids take minutes; anything past four is hung.
const (
	MinRunTimeout = 10 * time.Second
	MaxRunTimeout = 240 * time.Second
)

// ExternalProcessError reports one failed predictor run. The unit
// fails alone; other decks in the batch keep running.
type ExternalProcessError struct {
	Deck   string
	Stderr string
	Err    error
}

func (e *ExternalProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("voacapl failed for %s: %v: %s", e.Deck, e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("voacapl failed for %s: %v", e.Deck, e.Err)
}

func (e *ExternalProcessError) Unwrap() error { return e.Err }

// Runner invokes voacapl for written decks.
type Runner struct {
	Binary     string
	ITSHFBCDir string
	Timeout    time.Duration
}

// timeout returns the configured duration clamped into the run bounds.
func (r *Runner) timeout() time.Duration {
	t := r.Timeout
	if t < MinRunTimeout {
		t = MinRunTimeout
	}
	if t > MaxRunTimeout {
		t = MaxRunTimeout
	}
	return t
}

// Validate checks that the predictor binary and its coefficient
// directory exist before any deck is built.
func (r *Runner) Validate() error {
	if st, err := os.Stat(r.Binary); err != nil || st.IsDir() {
		return fmt.Errorf("voacapl binary not found: %s", r.Binary)
	}
	if st, err := os.Stat(r.ITSHFBCDir); err != nil || !st.IsDir() {
		return fmt.Errorf("ITSHFBC directory not found: %s", r.ITSHFBCDir)
	}
	return nil
}

// Run executes voacapl on one written deck and removes the scratch
// files it leaves behind. The deck's .vg<N> outputs land next to it.
func (r *Runner) Run(ctx context.Context, voaPath string) error {
	runDir := filepath.Dir(voaPath)
	voaName := filepath.Base(voaPath)

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	args := []string{
		fmt.Sprintf("--run-dir=%s", runDir),
		"--absorption-mode=a",
		"-s",
		r.ITSHFBCDir,
		"area",
		"calc",
		voaName,
	}
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = runDir
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w after %s: %v", ctxErr, r.timeout(), err)
		}
		return &ExternalProcessError{Deck: voaName, Stderr: errBuf.String(), Err: err}
	}

	os.Remove(filepath.Join(runDir, "type14.tmp"))
	removeGlob(runDir, "*.da*")
	return nil
}

func removeGlob(dir, pattern string) {
	matches, _ := filepath.Glob(filepath.Join(dir, pattern))
	for _, p := range matches {
		os.Remove(p)
	}
}
