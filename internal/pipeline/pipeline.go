// Package pipeline runs one ETL job: extract, transform, write CSV, load the
// database and run the report queries, recording progress between stages.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/wikietl/internal/config"
	"github.com/dbsmedya/wikietl/internal/csvout"
	"github.com/dbsmedya/wikietl/internal/database"
	"github.com/dbsmedya/wikietl/internal/extract"
	"github.com/dbsmedya/wikietl/internal/fetch"
	"github.com/dbsmedya/wikietl/internal/lock"
	"github.com/dbsmedya/wikietl/internal/logger"
	"github.com/dbsmedya/wikietl/internal/rates"
	"github.com/dbsmedya/wikietl/internal/recordset"
	"github.com/dbsmedya/wikietl/internal/report"
	"github.com/dbsmedya/wikietl/internal/transform"
	"github.com/dbsmedya/wikietl/internal/verifier"
)

// Default progress events, in the order a successful run records them. A
// job's progress settings replace them one by one.
const (
	EventStart       = "Preliminaries complete. Initiating ETL process"
	EventExtracted   = "Data extraction complete. Initiating Transformation process"
	EventTransformed = "Data transformation complete. Initiating loading process"
	EventCSVSaved    = "Data saved to CSV file"
	EventConnected   = "SQL Connection initiated."
	EventLoaded      = "Data loaded to Database as table. Running the query"
	EventComplete    = "Process Complete."
)

// Stage names used in errors and log context.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageCSV       = "csv"
	StageConnect   = "connect"
	StageLoad      = "load"
	StageVerify    = "verify"
	StageQuery     = "query"
	StageProgress  = "progress"
)

// StageError wraps the error that stopped a run with the stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Fetcher retrieves a document by URL or path.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// Result contains statistics of a run. On failure it holds what was done
// before the failing stage.
type Result struct {
	JobName          string
	RunID            string
	StartedAt        time.Time
	CompletedAt      time.Time
	Duration         time.Duration
	RowsExtracted    int
	RowsLoaded       int
	CoercionWarnings []transform.CoercionWarning
	QueriesRun       int
	Extract          *extract.Stats
	Verification     *verifier.Result
	Reports          []report.Result
	Success          bool
}

// Pipeline runs a single configured job once.
type Pipeline struct {
	cfg      *config.Config
	jobName  string
	job      *config.JobConfig
	fetcher  Fetcher
	recorder logger.Recorder
	logger   *logger.Logger
	out      io.Writer
	newRunID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) { p.logger = log }
}

// WithRecorder sets the progress recorder. Without one, Run appends to the
// job's log_path.
func WithRecorder(r logger.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithFetcher replaces the HTTP/file fetcher.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithOutput sets where the extracted table and query results are printed.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.out = w }
}

// WithRunIDFunc overrides run ID generation.
func WithRunIDFunc(fn func() string) Option {
	return func(p *Pipeline) { p.newRunID = fn }
}

// New creates a pipeline for jobName.
func New(cfg *config.Config, jobName string, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	job, err := cfg.GetJob(jobName)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:     cfg,
		jobName: jobName,
		job:     job,
		fetcher: fetch.New(fetch.Options{
			Timeout:   time.Duration(cfg.HTTP.TimeoutSeconds * float64(time.Second)),
			UserAgent: cfg.HTTP.UserAgent,
		}),
		logger:   logger.NewDefault(),
		out:      os.Stdout,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes every stage once, in order. The first error stops the run and
// is returned as a *StageError. Files written by earlier stages stay in place.
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}

	result = &Result{
		JobName:   p.jobName,
		RunID:     p.newRunID(),
		StartedAt: time.Now(),
	}
	log := p.logger.WithJob(p.jobName).WithRun(result.RunID)
	defer func() {
		result.CompletedAt = time.Now()
		result.Duration = result.CompletedAt.Sub(result.StartedAt)
		if err != nil {
			log.Errorw("Run failed", "error", err, "duration", result.Duration)
		}
	}()

	recorder := p.recorder
	if recorder == nil {
		progress, err := logger.OpenProgressLog(p.job.LogPath)
		if err != nil {
			return result, &StageError{Stage: StageProgress, Err: err}
		}
		defer progress.Close()
		recorder = progress
	}
	record := func(event string) error {
		if err := recorder.Record(event); err != nil {
			return &StageError{Stage: StageProgress, Err: err}
		}
		return nil
	}

	events := progressEvents(p.job.Progress)
	log.Infow("Starting run", "source", p.job.SourceURL, "remote", fetch.IsRemote(p.job.SourceURL), "table", p.job.TableName)
	if err := record(events.Start); err != nil {
		return result, err
	}

	extracted, stats, err := p.extract(ctx, log.WithStage(StageExtract))
	if err != nil {
		return result, &StageError{Stage: StageExtract, Err: err}
	}
	result.RowsExtracted = extracted.Len()
	result.Extract = stats
	report.RenderRecordSet(p.out, extracted)
	if err := record(events.Extracted); err != nil {
		return result, err
	}

	transformed, warnings, err := p.transform(ctx, extracted, log.WithStage(StageTransform))
	result.CoercionWarnings = warnings
	if err != nil {
		return result, &StageError{Stage: StageTransform, Err: err}
	}
	if err := record(events.Transformed); err != nil {
		return result, err
	}

	if err := csvout.Write(p.job.OutputCSVPath, transformed); err != nil {
		return result, &StageError{Stage: StageCSV, Err: err}
	}
	log.WithStage(StageCSV).Infow("CSV written", "path", p.job.OutputCSVPath, "rows", transformed.Len())
	if err := record(events.CSVSaved); err != nil {
		return result, err
	}

	db, err := database.Open(ctx, &p.cfg.Database, p.job.DatabasePath)
	if err != nil {
		return result, &StageError{Stage: StageConnect, Err: err}
	}
	defer db.Close()
	log.WithStage(StageConnect).Infow("Database connection opened", "driver", db.Dialect, "target", db.Target)
	if err := record(events.Connected); err != nil {
		return result, err
	}

	if err := p.load(ctx, db, transformed, result, log); err != nil {
		return result, err
	}
	if err := record(events.Loaded); err != nil {
		return result, err
	}

	reports, err := report.NewRunner(p.out, db.Dialect).Run(ctx, db.SQL, p.job.TableName, report.FromConfig(p.job.Queries))
	result.Reports = reports
	result.QueriesRun = len(reports)
	if err != nil {
		return result, &StageError{Stage: StageQuery, Err: err}
	}
	if err := record(events.Complete); err != nil {
		return result, err
	}

	result.Success = true
	log.Infow("Run completed",
		"rows_extracted", result.RowsExtracted,
		"rows_loaded", result.RowsLoaded,
		"coercion_warnings", len(result.CoercionWarnings),
		"queries", result.QueriesRun,
	)
	return result, nil
}

// load replaces the destination table and verifies it, holding the table
// lock on MySQL for both steps.
func (p *Pipeline) load(ctx context.Context, db *database.DB, rs *recordset.RecordSet, result *Result, log *logger.Logger) error {
	v, err := verifier.New(db.SQL, db.Dialect, verifier.Method(p.cfg.Verification.Method), log.WithStage(StageVerify))
	if err != nil {
		return &StageError{Stage: StageVerify, Err: err}
	}

	var stageErr error
	err = lock.WithTableLock(ctx, db.SQL, db.Dialect, p.job.TableName, p.cfg.Database.LockTimeoutSeconds, func() error {
		loaded, err := database.NewLoader(db.SQL, db.Dialect).Replace(ctx, p.job.TableName, rs)
		if err != nil {
			stageErr = &StageError{Stage: StageLoad, Err: err}
			return stageErr
		}
		result.RowsLoaded = loaded
		log.WithStage(StageLoad).Infow("Table replaced", "table", p.job.TableName, "rows", loaded)

		verified, err := v.Verify(ctx, p.job.TableName, rs)
		result.Verification = verified
		if err != nil {
			stageErr = &StageError{Stage: StageVerify, Err: err}
			return stageErr
		}
		return nil
	})
	if stageErr != nil {
		return stageErr
	}
	if err != nil {
		return &StageError{Stage: StageLoad, Err: err}
	}
	return nil
}

func (p *Pipeline) extract(ctx context.Context, log *logger.Logger) (*recordset.RecordSet, *extract.Stats, error) {
	parser, err := extract.NewParser(extract.SpecFromConfig(p.job.Table))
	if err != nil {
		return nil, nil, err
	}

	page, err := p.fetcher.Fetch(ctx, p.job.SourceURL)
	if err != nil {
		return nil, nil, err
	}
	log.Debugw("Source fetched", "bytes", len(page))

	rs, stats, err := parser.ParseBytes(page)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("Rows extracted",
		"rows", stats.RowsIncluded,
		"scanned", stats.RowsScanned,
		"skipped_no_link", stats.SkippedNoLink,
		"skipped_placeholder", stats.SkippedPlaceholder,
	)
	return rs, stats, nil
}

func (p *Pipeline) transform(ctx context.Context, rs *recordset.RecordSet, log *logger.Logger) (*recordset.RecordSet, []transform.CoercionWarning, error) {
	var rateTable rates.Table
	if p.job.Transform.Type == config.TransformCurrency {
		var err error
		rateTable, err = rates.Load(ctx, p.fetcher, p.job.ReferenceTablePath)
		if err != nil {
			return nil, nil, err
		}
		log.Debugw("Exchange rates loaded", "currencies", rateTable.Currencies())
	}

	t, err := transform.FromConfig(p.job.Transform, rateTable)
	if err != nil {
		return nil, nil, err
	}
	if ce, ok := t.(*transform.CurrencyExpander); ok {
		log.Debugw("Deriving currency columns", "columns", ce.Columns())
	}

	out, warnings, err := t.Transform(rs)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		log.Warnw("Value stored as missing", "row", w.Row, "column", w.Column, "raw", w.Raw)
	}
	return out, warnings, nil
}

// progressEvents fills the events a job leaves unset with the defaults.
func progressEvents(pc config.ProgressConfig) config.ProgressConfig {
	fill := func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}
	fill(&pc.Start, EventStart)
	fill(&pc.Extracted, EventExtracted)
	fill(&pc.Transformed, EventTransformed)
	fill(&pc.CSVSaved, EventCSVSaved)
	fill(&pc.Connected, EventConnected)
	fill(&pc.Loaded, EventLoaded)
	fill(&pc.Complete, EventComplete)
	return pc
}
