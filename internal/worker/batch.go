package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// Evaluator evaluates one application directory into a decision report
type Evaluator interface {
	EvaluateDir(ctx context.Context, dir string) (*model.DecisionReport, error)
}

// EvaluateJob evaluates a single application directory
type EvaluateJob struct {
	Dir       string
	Evaluator Evaluator
}

// Execute runs the evaluation
func (j *EvaluateJob) Execute(ctx context.Context) Result {
	report, err := j.Evaluator.EvaluateDir(ctx, j.Dir)
	return &EvaluateResult{Dir: j.Dir, Report: report, Error: err}
}

// EvaluateResult is the outcome of one batch entry
type EvaluateResult struct {
	Dir    string
	Report *model.DecisionReport
	Error  error
}

// GetError returns the evaluation error, if any
func (r *EvaluateResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates many application directories concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessDirs evaluates the given directories concurrently
func (b *BatchProcessor) ProcessDirs(ctx context.Context, dirs []string) []*EvaluateResult {
	if len(dirs) == 0 {
		return []*EvaluateResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, dir := range dirs {
		pool.Submit(&EvaluateJob{Dir: dir, Evaluator: b.evaluator})
	}

	results := pool.Wait()

	out := make([]*EvaluateResult, len(results))
	for i, result := range results {
		out[i] = result.(*EvaluateResult)
	}
	return out
}

// ProcessFile reads application directories from a list file and
// evaluates them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*EvaluateResult, error) {
	dirs, err := ReadDirsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read application list: %w", err)
	}
	return b.ProcessDirs(ctx, dirs), nil
}

// ReadDirsFromFile reads one directory path per line, skipping blanks
// and # comments, deduplicating while preserving order
func ReadDirsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var dirs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			dirs = append(dirs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return dirs, nil
}
