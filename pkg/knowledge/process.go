package knowledge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"voice-faq-be/internal/pkg/logger"

	"golang.org/x/sync/semaphore"
)

const (
	// answerMarker precedes the top-1 answer in the search script's output.
	answerMarker = "=== RESPUESTA (TOP-1) ==="
	// noAnswerLine is what the search script prints when nothing passes the threshold.
	noAnswerLine = "No tengo información sobre eso."
)

// ProcessLookup runs an external embedding-similarity search for every
// question. The process is a black box: it receives the question as its last
// argument and prints the best answer on stdout.
type ProcessLookup struct {
	command string
	args    []string
	timeout time.Duration
	workers *semaphore.Weighted
	logger  logger.ILogger
}

func NewProcessLookup(command string, args []string, timeout time.Duration, workers int, log logger.ILogger) *ProcessLookup {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if workers <= 0 {
		workers = 1
	}
	return &ProcessLookup{
		command: command,
		args:    args,
		timeout: timeout,
		workers: semaphore.NewWeighted(int64(workers)),
		logger:  log,
	}
}

// Resolve blocks for at most the configured timeout once a worker slot is
// free. Non-zero exit, timeout and empty output all mean "no answer".
func (l *ProcessLookup) Resolve(ctx context.Context, question string) (Answer, error) {
	if err := l.workers.Acquire(ctx, 1); err != nil {
		return Answer{}, fmt.Errorf("wait for search worker: %w", err)
	}
	defer l.workers.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	args := make([]string, 0, len(l.args)+1)
	args = append(args, l.args...)
	args = append(args, question)

	cmd := exec.CommandContext(runCtx, l.command, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return Answer{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || runCtx.Err() != nil || errors.Is(err, exec.ErrWaitDelay) {
			l.logger.Warn("KnowledgeProcess", "Search process returned no answer", map[string]interface{}{
				"error":      err.Error(),
				"timed_out":  runCtx.Err() != nil,
				"stderr":     truncate(stderr.String(), 500),
				"elapsed_ms": elapsed.Milliseconds(),
			})
			return Answer{}, nil
		}
		return Answer{}, fmt.Errorf("start search process: %w", err)
	}

	text := ExtractAnswer(stdout.String())
	l.logger.Debug("KnowledgeProcess", "Search process finished", map[string]interface{}{
		"found":      text != "",
		"elapsed_ms": elapsed.Milliseconds(),
	})
	if text == "" {
		return Answer{}, nil
	}
	return Answer{Text: text, Found: true}, nil
}

func (l *ProcessLookup) Strategy() string {
	return StrategyProcess
}

// ExtractAnswer pulls the answer out of the search script's stdout: the text
// after the top-1 marker when present, otherwise the last non-empty line.
func ExtractAnswer(stdout string) string {
	var text string
	if idx := strings.LastIndex(stdout, answerMarker); idx >= 0 {
		text = strings.TrimSpace(stdout[idx+len(answerMarker):])
	} else {
		lines := strings.Split(strings.TrimSpace(stdout), "\n")
		text = strings.TrimSpace(lines[len(lines)-1])
	}
	if text == noAnswerLine {
		return ""
	}
	return text
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
