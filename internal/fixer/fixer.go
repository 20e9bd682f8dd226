// Package fixer applies the Copilot region fix to every discovered Edge
// configuration file.
package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/leonletto/edge-copilot-helper/internal/discovery"
	"github.com/leonletto/edge-copilot-helper/internal/fsx"
	"github.com/leonletto/edge-copilot-helper/internal/patch"
)

// Outcome summarizes one fix cycle.
type Outcome string

const (
	OutcomeNotFound       Outcome = "not_found"
	OutcomeAlreadyCorrect Outcome = "already_correct"
	OutcomeModified       Outcome = "modified"
	OutcomeFailed         Outcome = "failed"
)

// FileKind names the document type for logs and reports.
type FileKind string

const (
	KindLocalState  FileKind = "Local State"
	KindPreferences FileKind = "Preferences"
)

// FileResult is the per-file record of a cycle.
type FileResult struct {
	Path     string   `json:"path"`
	Kind     FileKind `json:"kind"`
	Modified bool     `json:"modified"`
}

// Report describes one Apply call. On failure it holds the files processed
// before the failing one.
type Report struct {
	CycleID   string       `json:"cycle_id"`
	StartedAt time.Time    `json:"started_at"`
	Outcome   Outcome      `json:"outcome"`
	Files     []FileResult `json:"files"`
}

// Modified returns how many files were rewritten.
func (r *Report) Modified() int {
	n := 0
	for _, f := range r.Files {
		if f.Modified {
			n++
		}
	}
	return n
}

// Recorder persists cycle reports. Record failures are logged and never
// change the result of Apply.
type Recorder interface {
	Record(ctx context.Context, report *Report, applyErr error) error
}

// Options configures an Applier.
type Options struct {
	FS       fsx.FS
	Home     string
	Variants []discovery.Variant
	Country  string
	Logger   *slog.Logger
	Recorder Recorder
	Now      func() time.Time
}

func (o *Options) defaults() {
	if o.FS == nil {
		o.FS = fsx.OSFS{}
	}
	if o.Country == "" {
		o.Country = patch.DefaultCountry
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Applier runs fix cycles. It holds no state between cycles: paths are
// rediscovered on every call.
type Applier struct {
	opts Options
}

// New creates an Applier.
func New(opts Options) *Applier {
	opts.defaults()
	return &Applier{opts: opts}
}

// Apply discovers Edge configuration files and patches them. The first read,
// parse or write failure aborts the call; files after it are not touched.
// The returned report is non-nil even when err is non-nil.
func (a *Applier) Apply(ctx context.Context) (*Report, error) {
	report := &Report{
		CycleID:   ulid.Make().String(),
		StartedAt: a.opts.Now().UTC(),
	}
	log := a.opts.Logger.With("cycle", report.CycleID)

	err := a.apply(log, report)
	if err != nil {
		report.Outcome = OutcomeFailed
		log.Error("fix: cycle failed", "error", err, "modified", report.Modified())
	}

	if a.opts.Recorder != nil {
		if recErr := a.opts.Recorder.Record(ctx, report, err); recErr != nil {
			log.Warn("fix: failed to record cycle", "error", recErr)
		}
	}
	return report, err
}

func (a *Applier) apply(log *slog.Logger, report *Report) error {
	found := discovery.Discover(a.opts.FS, a.opts.Home, a.opts.Variants)
	if found.Empty() {
		report.Outcome = OutcomeNotFound
		log.Warn("fix: Edge configuration files not found in known locations")
		return nil
	}

	for _, path := range found.StateFiles {
		if err := a.processFile(log, report, path, KindLocalState, patch.StateFileRule(a.opts.Country)); err != nil {
			return err
		}
	}
	for _, path := range found.PreferenceFiles {
		if err := a.processFile(log, report, path, KindPreferences, patch.PreferenceFileRule()); err != nil {
			return err
		}
	}

	// Every candidate vanished between discovery and processing.
	if len(report.Files) == 0 {
		report.Outcome = OutcomeNotFound
		log.Warn("fix: Edge configuration files not found in known locations")
		return nil
	}
	if report.Modified() == 0 {
		report.Outcome = OutcomeAlreadyCorrect
		log.Info("fix: no changes needed", "files", len(report.Files))
		return nil
	}
	report.Outcome = OutcomeModified
	return nil
}

// processFile reads, patches and conditionally rewrites one document.
func (a *Applier) processFile(log *slog.Logger, report *Report, path string, kind FileKind, rule patch.Rule) error {
	// The file may have vanished since discovery.
	if !a.opts.FS.Exists(path) {
		return nil
	}

	data, err := a.opts.FS.ReadFile(path)
	if err != nil {
		return &FileError{Path: path, Kind: kind, Op: OpRead, Err: err}
	}
	doc, err := patch.Decode(data)
	if err != nil {
		return &FileError{Path: path, Kind: kind, Op: OpParse, Err: err}
	}

	doc, changed := rule(doc)
	result := FileResult{Path: path, Kind: kind}
	if changed {
		out, err := patch.Encode(doc)
		if err != nil {
			return &FileError{Path: path, Kind: kind, Op: OpEncode, Err: err}
		}
		if err := a.opts.FS.WriteFile(path, out); err != nil {
			return &FileError{Path: path, Kind: kind, Op: OpWrite, Err: err}
		}
		result.Modified = true
		log.Info("fix: region fix applied", "kind", string(kind), "path", path)
	}
	report.Files = append(report.Files, result)
	return nil
}

// String renders the report as a one-line summary for CLI output.
func (r *Report) String() string {
	return fmt.Sprintf("%s: %d file(s) checked, %d modified", r.Outcome, len(r.Files), r.Modified())
}
