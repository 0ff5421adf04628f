package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/halyard-labs/driftsync/internal/core/domain"
	"github.com/halyard-labs/driftsync/internal/core/ports/driven"
	"github.com/halyard-labs/driftsync/internal/core/ports/driving"
	"github.com/halyard-labs/driftsync/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.PipelineRunner = (*Orchestrator)(nil)

// Orchestrator runs ingestion pipelines end to end: list the remote
// folder, decide per file whether it changed, and for changed files
// download, transform, embed and upsert.
type Orchestrator struct {
	source   driven.SourceClient
	store    driven.HybridStore
	embedder driven.EmbeddingService
	registry driven.TransformerRegistry
	runs     driven.RunStore
	encoder  *SparseEncoder

	pipelines []domain.Pipeline

	// now is swappable for tests.
	now func() time.Time
}

// NewOrchestrator creates a pipeline orchestrator. The run store is
// optional; when nil, summaries are returned but not persisted.
func NewOrchestrator(
	source driven.SourceClient,
	store driven.HybridStore,
	embedder driven.EmbeddingService,
	registry driven.TransformerRegistry,
	runs driven.RunStore,
	pipelines []domain.Pipeline,
) *Orchestrator {
	return &Orchestrator{
		source:    source,
		store:     store,
		embedder:  embedder,
		registry:  registry,
		runs:      runs,
		encoder:   NewSparseEncoder(),
		pipelines: pipelines,
		now:       time.Now,
	}
}

// Pipelines returns the configured pipelines, in stagger order.
func (o *Orchestrator) Pipelines() []domain.Pipeline {
	out := make([]domain.Pipeline, len(o.pipelines))
	copy(out, o.pipelines)
	return out
}

// Run executes one pipeline end to end and returns its summary.
// The summary is returned even when the run fails.
func (o *Orchestrator) Run(ctx context.Context, name string, opts driving.RunOptions) (*domain.RunSummary, error) {
	pipeline, ok := o.pipeline(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPipeline, name)
	}

	summary := &domain.RunSummary{
		Pipeline:  pipeline.Name,
		StartedAt: o.now(),
		Status:    domain.RunCompleted,
		DryRun:    opts.DryRun,
	}

	logger.Section(fmt.Sprintf("Sync %s", pipeline.Name))

	if !opts.DryRun {
		if err := o.store.EnsureCollection(ctx, pipeline.Collection, pipeline.VectorSize); err != nil {
			return o.fail(ctx, summary, fmt.Errorf("ensure collection %s: %w", pipeline.Collection, err))
		}
	}

	// A listing failure aborts the whole run: a partial listing would
	// make the summary lie about what the folder contains.
	files, err := o.source.ListFolder(ctx, pipeline.FolderPath)
	if err != nil {
		return o.fail(ctx, summary, fmt.Errorf("list folder %s: %w", pipeline.FolderPath, err))
	}

	candidates := o.filter(pipeline, files, opts)
	summary.TotalCandidates = len(candidates)
	logger.Info("Pipeline %s: %d candidates of %d listed files", pipeline.Name, len(candidates), len(files))

	batchSize := pipeline.EffectiveBatchSize()
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		for _, file := range candidates[start:end] {
			if err := ctx.Err(); err != nil {
				return o.fail(ctx, summary, err)
			}
			o.processFile(ctx, pipeline, file, opts, summary)
		}
	}

	summary.CompletedAt = o.now()
	o.persist(ctx, summary)
	logger.Info("Pipeline %s done: %d upserted, %d skipped, %d errors",
		pipeline.Name, len(summary.Upserted), len(summary.Skipped), len(summary.Errors))
	return summary, nil
}

// processFile runs the per-file decision path. Failures are recorded in
// the summary and never abort the run.
func (o *Orchestrator) processFile(
	ctx context.Context,
	pipeline domain.Pipeline,
	file domain.RemoteFile,
	opts driving.RunOptions,
	summary *domain.RunSummary,
) {
	transformer, err := o.registry.Resolve(pipeline.Name, file)
	if err != nil {
		o.recordError(summary, file, fmt.Errorf("resolve transformer: %w", err))
		return
	}

	// Change check runs on metadata alone, before any download.
	recordID := transformer.RecordID(file)
	stored, err := o.lookupStored(ctx, pipeline.Collection, recordID, file.Name)
	if err != nil {
		o.recordError(summary, file, fmt.Errorf("check stored timestamp: %w", err))
		return
	}
	if !file.Changed(stored) {
		logger.Debug("Skipping %s: unchanged since %s", file.Name, stored.Format(time.RFC3339))
		summary.Skipped = append(summary.Skipped, domain.RunItem{
			FileName: file.Name,
			RecordID: recordID,
			Detail:   "unchanged",
		})
		return
	}

	data, err := o.source.GetContent(ctx, file.ID)
	if err != nil {
		o.recordError(summary, file, fmt.Errorf("download: %w", err))
		return
	}

	result, err := transformer.Transform(ctx, file, data)
	if err != nil {
		o.recordError(summary, file, fmt.Errorf("transform: %w", err))
		return
	}

	records, err := o.buildRecords(ctx, file, result)
	if err != nil {
		o.recordError(summary, file, err)
		return
	}
	if len(records) == 0 {
		summary.Skipped = append(summary.Skipped, domain.RunItem{
			FileName: file.Name,
			RecordID: result.RecordID,
			Detail:   "no extractable content",
		})
		return
	}

	if !opts.DryRun {
		if err := o.store.Upsert(ctx, pipeline.Collection, records); err != nil {
			o.recordError(summary, file, fmt.Errorf("upsert: %w", err))
			return
		}
	}

	logger.Debug("Upserted %s as %d record(s)", file.Name, len(records))
	summary.Upserted = append(summary.Upserted, domain.RunItem{
		FileName: file.Name,
		RecordID: records[0].ID,
		Detail:   fmt.Sprintf("%d record(s)", len(records)),
	})
}

// lookupStored fetches the stored last-modified timestamp, by record id
// when identity is metadata-derived, else by source file name.
func (o *Orchestrator) lookupStored(ctx context.Context, collection, recordID, fileName string) (*time.Time, error) {
	if recordID != "" {
		return o.store.GetLastModified(ctx, collection, recordID)
	}
	return o.store.FindLastModified(ctx, collection, fileName)
}

// buildRecords embeds the transform result and assembles store records.
// Chunked results become one record per chunk with a deterministic
// UUIDv5 id so re-ingestion replaces rather than duplicates.
func (o *Orchestrator) buildRecords(ctx context.Context, file domain.RemoteFile, result *driven.TransformResult) ([]domain.Record, error) {
	base := domain.RecordPayload{
		Title:        result.Title,
		Code:         result.Code,
		Labels:       result.Labels,
		SearchText:   result.SearchText,
		FileName:     file.Name,
		FileID:       file.ID,
		WebURL:       file.WebURL,
		Size:         file.Size,
		TotalPages:   result.TotalPages,
		LastModified: file.LastModified,
	}
	if f := result.Fields; f != nil {
		base.Purpose = f.Purpose
		base.Description = f.Description
		base.References = f.References
		base.Revision = f.Revision
		base.DocType = f.DocType
		if base.Code == "" {
			base.Code = f.DocNo
		}
	}

	if len(result.Chunks) == 0 {
		text := result.SearchText
		if text == "" {
			text = result.Content
		}
		if text == "" {
			return nil, nil
		}
		dense, err := o.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		payload := base
		payload.Content = result.Content
		return []domain.Record{{
			ID:      result.RecordID,
			Dense:   dense,
			Sparse:  o.encoder.Encode(text),
			Payload: payload,
		}}, nil
	}

	chunks := make([]driven.Chunk, 0, len(result.Chunks))
	texts := make([]string, 0, len(result.Chunks))
	for _, c := range result.Chunks {
		if c.Text == "" {
			continue
		}
		chunks = append(chunks, c)
		texts = append(texts, c.Text)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	dense, err := o.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(dense) != len(texts) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(dense), len(texts))
	}

	records := make([]domain.Record, 0, len(chunks))
	for i, c := range chunks {
		payload := base
		payload.Content = c.Text
		payload.SearchText = c.Text
		payload.PageNumber = c.Page
		payload.ChunkIndex = c.Index
		records = append(records, domain.Record{
			ID:      chunkID(file.ID, c.Page, c.Index),
			Dense:   dense[i],
			Sparse:  o.encoder.Encode(c.Text),
			Payload: payload,
		})
	}
	return records, nil
}

// chunkID derives a stable UUIDv5 from the file id and chunk position.
func chunkID(fileID string, page, index int) string {
	name := fmt.Sprintf("%s_p%d_%d", fileID, page, index)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}

// filter keeps files whose extension the pipeline accepts and which
// were modified within the run window.
func (o *Orchestrator) filter(pipeline domain.Pipeline, files []domain.RemoteFile, opts driving.RunOptions) []domain.RemoteFile {
	since := opts.Since
	if since.IsZero() && !opts.Full {
		since = startOfDay(o.now())
	}

	out := make([]domain.RemoteFile, 0, len(files))
	for _, f := range files {
		if !pipeline.Accepts(f.Ext()) {
			continue
		}
		if !opts.Full && !f.LastModified.After(since) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (o *Orchestrator) pipeline(name string) (domain.Pipeline, bool) {
	for _, p := range o.pipelines {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Pipeline{}, false
}

func (o *Orchestrator) recordError(summary *domain.RunSummary, file domain.RemoteFile, err error) {
	logger.Warn("Pipeline %s: %s: %v", summary.Pipeline, file.Name, err)
	summary.Errors = append(summary.Errors, domain.RunItem{
		FileName: file.Name,
		Detail:   err.Error(),
	})
}

// fail finalises a run that could not complete and still persists the
// summary so the failure is visible in run history.
func (o *Orchestrator) fail(ctx context.Context, summary *domain.RunSummary, err error) (*domain.RunSummary, error) {
	summary.Status = domain.RunFailed
	summary.CompletedAt = o.now()
	o.persist(ctx, summary)
	return summary, err
}

func (o *Orchestrator) persist(ctx context.Context, summary *domain.RunSummary) {
	if o.runs == nil || summary.DryRun {
		return
	}
	id, err := o.runs.RecordRun(ctx, summary)
	if err != nil {
		logger.Warn("Failed to persist run summary for %s: %v", summary.Pipeline, err)
		return
	}
	summary.ID = id
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
