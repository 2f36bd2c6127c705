package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/veridoc/veridoc/internal/cache"
	"github.com/veridoc/veridoc/internal/crossval"
	"github.com/veridoc/veridoc/internal/decision"
	"github.com/veridoc/veridoc/internal/embed"
	"github.com/veridoc/veridoc/internal/events"
	"github.com/veridoc/veridoc/internal/extract"
	"github.com/veridoc/veridoc/internal/index"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/logging"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/verify"
	"github.com/veridoc/veridoc/internal/worker"
)

// Verifier runs the visual authenticity check
type Verifier interface {
	Verify(ctx context.Context, sample *model.DocumentSample) (*model.AuthenticityResult, error)
}

// Extractor produces a claim record for one document sample
type Extractor interface {
	Extract(ctx context.Context, sample *model.DocumentSample) (*model.ClaimRecord, []model.Issue, error)
}

// Application is one applicant's submitted document set
type Application struct {
	ID      string
	Samples map[model.DocumentType]*model.DocumentSample
}

// Result bundles the report with its supporting records and the
// flattened dataset row handed back to callers.
type Result struct {
	Report  *model.DecisionReport
	Records []*model.ClaimRecord
	Data    model.DatasetRow
}

// Pipeline orchestrates one application's evaluation: authenticity
// gate first, then concurrent extraction, then cross-validation and
// decision synthesis.
type Pipeline struct {
	verifier    Verifier
	extractor   Extractor
	engine      *crossval.Engine
	synthesizer *decision.Synthesizer
	narrator    *llm.Narrator
	publisher   events.Publisher
	renderer    *Renderer
	workers     int
	config      *model.Config
	healthy     func(ctx context.Context) error
}

// New wires a pipeline from already-built components. Narrator and
// publisher may be nil.
func New(cfg *model.Config, verifier Verifier, extractor Extractor, narrator *llm.Narrator, publisher events.Publisher) *Pipeline {
	workers := cfg.Concurrency.ExtractionWorkers
	if workers <= 0 {
		workers = 1
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Pipeline{
		verifier:    verifier,
		extractor:   extractor,
		engine:      crossval.NewEngine(cfg.Thresholds),
		synthesizer: decision.NewSynthesizer(),
		narrator:    narrator,
		publisher:   publisher,
		renderer:    NewRenderer(cfg.Output.IncludeFooter),
		workers:     workers,
		config:      cfg,
	}
}

// NewFromConfig builds the full production pipeline: embedding client,
// pgvector index, memory cache, the configured vision provider, the
// rate limiter, and the optional narrator and report publisher.
func NewFromConfig(ctx context.Context, cfg *model.Config) (*Pipeline, func(), error) {
	store, err := index.NewStore(ctx, cfg.Index)
	if err != nil {
		return nil, nil, fmt.Errorf("open similarity index: %w", err)
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}

	embedder := embed.New(cfg.Embedding, cfg.Proxy)
	verifier := verify.NewVerifier(embedder, store, c, *cfg)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.Proxy))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("init extraction provider: %w", err)
	}
	if provider == nil {
		store.Close()
		return nil, nil, fmt.Errorf("no extraction provider configured")
	}
	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)
	extractor := extract.NewExtractor(provider, limiter, *cfg)

	var narrator *llm.Narrator
	if cfg.LLM.Narrative {
		narrator, err = llm.NewNarrator(llm.ConfigFromModel(cfg.LLM, cfg.Proxy))
		if err != nil {
			logging.Warnf("narrative provider unavailable: %v", err)
		}
	}

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("init report publisher: %w", err)
	}

	p := New(cfg, verifier, extractor, narrator, publisher)
	p.healthy = store.Healthy
	cleanup := func() {
		_ = publisher.Close()
		store.Close()
	}
	return p, cleanup, nil
}

// Healthy reports whether the similarity index is reachable
func (p *Pipeline) Healthy(ctx context.Context) error {
	if p.healthy == nil {
		return nil
	}
	return p.healthy(ctx)
}

// Evaluate runs the full decision flow for one application
func (p *Pipeline) Evaluate(ctx context.Context, app *Application) (*Result, error) {
	if app == nil || len(app.Samples) == 0 {
		return nil, errors.New("application has no documents")
	}

	var authenticity *model.AuthenticityResult
	if identity, ok := app.Samples[model.DocTypeNationalID]; ok {
		result, err := p.verifier.Verify(ctx, identity)
		if err != nil {
			return nil, fmt.Errorf("authenticity check: %w", err)
		}
		authenticity = result
	}

	var (
		records []*model.ClaimRecord
		prior   []model.Issue
	)
	if authenticity == nil || authenticity.Passed {
		records, prior = p.extractAll(ctx, app)
	} else {
		logging.Infow("authenticity check failed, extraction skipped",
			"application", app.ID, "score", authenticity.Score)
	}

	issues := p.engine.CrossValidate(records, authenticity, prior)
	report := p.synthesizer.Synthesize(app.ID, issues, authenticity)

	if p.narrator != nil && p.narrator.IsEnabled() {
		narrative, err := p.narrator.Generate(ctx, report)
		if err != nil {
			logging.Warnf("narrative generation failed: %v", err)
		} else {
			report.Narrative = narrative
		}
	}

	p.publishAsync(report)

	return &Result{
		Report:  report,
		Records: records,
		Data:    decision.BuildDatasetRow(report, records),
	}, nil
}

// EvaluateDir loads an application from disk and evaluates it. Satisfies
// the batch processor's evaluator contract.
func (p *Pipeline) EvaluateDir(ctx context.Context, dir string) (*model.DecisionReport, error) {
	app, err := LoadApplication(dir)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	result, err := p.Evaluate(ctx, app)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}

// extractAll fans extraction out across document types, bounded by the
// worker count, and joins before returning. Per-document failures turn
// into issues rather than aborting the application.
func (p *Pipeline) extractAll(ctx context.Context, app *Application) ([]*model.ClaimRecord, []model.Issue) {
	type extraction struct {
		doc    model.DocumentType
		record *model.ClaimRecord
		issues []model.Issue
		err    error
	}

	sem := make(chan struct{}, p.workers)
	results := make(chan extraction, len(app.Samples))
	var wg sync.WaitGroup

	for doc, sample := range app.Samples {
		wg.Add(1)
		go func(doc model.DocumentType, sample *model.DocumentSample) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			record, issues, err := p.extractor.Extract(ctx, sample)
			results <- extraction{doc: doc, record: record, issues: issues, err: err}
		}(doc, sample)
	}
	wg.Wait()
	close(results)

	var (
		records []*model.ClaimRecord
		issues  []model.Issue
	)
	collected := make([]extraction, 0, len(app.Samples))
	for ext := range results {
		collected = append(collected, ext)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].doc.Order() < collected[j].doc.Order()
	})

	for _, ext := range collected {
		if ext.err != nil {
			issues = append(issues, extractionFailureIssue(ext.doc, ext.err))
			continue
		}
		records = append(records, ext.record)
		issues = append(issues, ext.issues...)
	}
	return records, issues
}

// extractionFailureIssue maps a per-document extraction failure to the
// issue that represents it in the report.
func extractionFailureIssue(doc model.DocumentType, err error) model.Issue {
	detail := fmt.Sprintf("%s could not be analyzed: %v", doc.DisplayName(), err)

	var schemaErr *extract.SchemaValidationError
	if errors.As(err, &schemaErr) {
		detail = fmt.Sprintf("%s analysis violated the expected structure: %v", doc.DisplayName(), schemaErr)
	} else if extract.IsTimeout(err) {
		detail = fmt.Sprintf("%s analysis timed out", doc.DisplayName())
	}

	return model.Issue{
		Kind:            model.IssueMissingAnchor,
		Severity:        model.SeverityMajor,
		SourceDocuments: []model.DocumentType{doc},
		Detail:          detail,
	}
}

// publishAsync hands the finalized report to the decision-memory feed
// without blocking the caller's response.
func (p *Pipeline) publishAsync(report *model.DecisionReport) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.publisher.Publish(ctx, report); err != nil {
			logging.Errorw("report publish failed", "application", report.ApplicationID, "error", err)
		}
	}()
}
