package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/star2win/listprep/internal/csvio"
	"github.com/star2win/listprep/internal/hygiene"
	"github.com/star2win/listprep/internal/metrics"
	"github.com/star2win/listprep/internal/schema"
)

// DefaultExcludedTag annotates records matched by the excluded list when the
// request does not name a tag of its own.
const DefaultExcludedTag = "Excluded"

// RunHygiene executes a hygiene run synchronously and returns the merged
// output table. It is the single pipeline behind both the one-shot CLI and
// the async web runner.
//
// The progress callback is optional; pass nil when no caller is watching.
func (s *Service) RunHygiene(ctx context.Context, req RunRequest, cb ProgressCallback) (*RunResult, error) {
	src, ok := schema.Get(req.Source)
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", req.Source)
	}

	incomingKey := req.IncomingSource
	if incomingKey == "" {
		incomingKey = req.Source
	}
	incomingSrc, ok := schema.Get(incomingKey)
	if !ok {
		return nil, fmt.Errorf("unknown incoming source: %s", incomingKey)
	}

	start := time.Now()
	progress := RunProgress{Source: req.Source, Phase: PhaseStarting, UpdatedAt: start}
	notify := func(phase RunPhase) {
		progress.Phase = phase
		progress.UpdatedAt = time.Now()
		if cb != nil {
			cb(progress)
		}
	}

	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	notify(PhaseReading)
	master, err := csvio.ReadTable(req.Master.Reader)
	if err != nil {
		return nil, fmt.Errorf("reading master %s: %w", req.Master.Name, err)
	}
	progress.MasterRows = len(master.Rows)
	metrics.RowsProcessedTotal.WithLabelValues(req.Source, "master").Add(float64(len(master.Rows)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	authoritative := make([]hygiene.ContactRecord, 0, len(master.Rows))
	for i, row := range master.Rows {
		rec, err := src.Record(row, i+1)
		if err != nil {
			return nil, fmt.Errorf("master %s: %w", req.Master.Name, err)
		}
		authoritative = append(authoritative, rec)
	}

	notify(PhaseMerging)
	merger := hygiene.NewMerger()
	merger.LoadAuthoritative(authoritative)

	incomingRows := 0
	for _, in := range req.Incoming {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := csvio.ReadTable(in.Reader)
		if err != nil {
			return nil, fmt.Errorf("reading incoming %s: %w", in.Name, err)
		}
		for i, row := range t.Rows {
			rec, err := incomingSrc.Record(row, i+1)
			if err != nil {
				return nil, fmt.Errorf("incoming %s: %w", in.Name, err)
			}
			if rec.Email != "" {
				if _, hasInvalid := hygiene.SplitEmails(rec.Email); hasInvalid {
					metrics.InvalidEmailsTotal.WithLabelValues(req.Source).Inc()
				}
			}
			merger.FoldIncoming(rec)
		}
		incomingRows += len(t.Rows)
		progress.IncomingRows = incomingRows
		progress.Records = merger.Len()
		notify(PhaseMerging)
	}
	metrics.RowsProcessedTotal.WithLabelValues(req.Source, "incoming").Add(float64(incomingRows))

	notify(PhaseAnnotating)
	annotated := make(map[string]int)
	excludedTag := req.ExcludedTag
	if excludedTag == "" {
		excludedTag = DefaultExcludedTag
	}
	suppressions := []struct {
		input *RunInput
		tag   string
	}{
		{req.Bounced, hygiene.NoteBounced},
		{req.Unsubscribed, hygiene.NoteUnsubscribed},
		{req.Excluded, excludedTag},
	}
	for _, sup := range suppressions {
		if sup.input == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := s.annotate(merger, *sup.input, sup.tag)
		if err != nil {
			// A bad suppression export degrades the run instead of
			// failing it: the merge output is still correct, only
			// the status tags are incomplete.
			slog.Warn("skipping suppression list",
				"file", sup.input.Name,
				"tag", sup.tag,
				"error", err,
			)
			continue
		}
		annotated[sup.tag] = n
		metrics.SuppressionsTotal.WithLabelValues(req.Source, sup.tag).Add(float64(n))
	}

	merger.Finalize()

	notify(PhaseWriting)
	records := merger.Records()
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, src.Row(rec))
	}
	progress.Records = len(rows)
	metrics.RecordsOutTotal.WithLabelValues(req.Source).Add(float64(len(rows)))

	finished := time.Now()
	result := &RunResult{
		Source:     req.Source,
		MasterName: req.Master.Name,
		Columns:    src.OutputColumns(),
		Rows:       rows,
		Stats: RunStats{
			MasterRows:    len(master.Rows),
			IncomingRows:  incomingRows,
			OutputRecords: len(rows),
			Annotated:     annotated,
		},
		StartedAt:  start,
		FinishedAt: finished,
		Duration:   finished.Sub(start),
	}

	notify(PhaseComplete)
	return result, nil
}

// annotate reads one suppression export and tags every matching keyed record.
// Returns the number of records that gained the tag.
func (s *Service) annotate(merger *hygiene.Merger, in RunInput, tag string) (int, error) {
	t, err := csvio.ReadTable(in.Reader)
	if err != nil {
		return 0, err
	}

	set, ok := hygiene.SuppressionSet(t.Header, t.Rows)
	if !ok {
		return 0, fmt.Errorf("no email column in %v", t.Header)
	}

	count := 0
	for email := range set {
		if rec, found := merger.Lookup(email); found && !rec.HasNote(tag) {
			count++
		}
	}
	merger.Annotate(tag, set)
	return count, nil
}
