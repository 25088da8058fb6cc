// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"autoapply/internal/ai"
	"autoapply/internal/common/logger"
	"autoapply/internal/common/metrics"
	"autoapply/internal/common/observability"
	"autoapply/internal/models"
	"autoapply/internal/store"
)

// Gateway is the AI surface the pipeline consumes.
type Gateway interface {
	Analyze(ctx context.Context, resume, description string) (ai.AnalyzeResult, error)
	Customize(ctx context.Context, resume, description, title, company string) (ai.CustomizeResult, error)
}

// ContactExtractor pulls HR contacts out of a posting, best effort.
type ContactExtractor interface {
	Extract(posting models.JobPosting) []models.HRContact
}

// ArtifactSaver uploads the customized resume and returns a link, or
// an empty link on failure.
type ArtifactSaver interface {
	Save(ctx context.Context, artifact models.ResumeArtifact) (string, error)
}

// ApplicationNotifier tells the user about one processed posting.
type ApplicationNotifier interface {
	NotifyApplication(ctx context.Context, user models.User, posting models.JobPosting, record models.ApplicationRecord) error
}

// ContactSyncer optionally mirrors extracted contacts into a CRM.
type ContactSyncer interface {
	SyncContacts(ctx context.Context, contacts []models.HRContact) int
}

// Pipeline runs the per-posting stage machine: description retrieval,
// contact extraction, match analysis, resume customization,
// persistence, artifact upload, notification. Every stage degrades
// rather than aborts; Process always returns exactly one record with
// a defined status.
type Pipeline struct {
	gateway   Gateway
	extractor ContactExtractor
	store     store.Store
	fetcher   DescriptionFetcher
	artifacts ArtifactSaver
	notifier  ApplicationNotifier
	crm       ContactSyncer
	obs       *observability.Observability
	log       logger.Logger
}

// Option wires an optional collaborator.
type Option func(*Pipeline)

func WithFetcher(fetcher DescriptionFetcher) Option {
	return func(p *Pipeline) { p.fetcher = fetcher }
}

func WithArtifacts(artifacts ArtifactSaver) Option {
	return func(p *Pipeline) { p.artifacts = artifacts }
}

func WithNotifier(notifier ApplicationNotifier) Option {
	return func(p *Pipeline) { p.notifier = notifier }
}

func WithContactSync(syncer ContactSyncer) Option {
	return func(p *Pipeline) { p.crm = syncer }
}

func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

func New(gateway Gateway, extractor ContactExtractor, st store.Store, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		gateway:   gateway,
		extractor: extractor,
		store:     st,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process takes one posting through every stage and returns its audit
// record. It does not return an error: partial failures land in the
// record's notes and, when persistence itself broke, in its status.
func (p *Pipeline) Process(ctx context.Context, user models.User, posting models.JobPosting, sink EventSink) *models.ApplicationRecord {
	start := time.Now()
	emit(sink, models.EventJobProcessing, user.ID, &posting, nil, nil)

	record := &models.ApplicationRecord{
		UserID:    user.ID,
		JobURL:    models.NormalizeURL(posting.URL),
		Status:    models.StatusAttempted,
		CreatedAt: time.Now().UTC(),
	}

	p.fillDescription(ctx, &posting, record)
	contacts := p.extractContacts(posting)
	analysis := p.analyze(ctx, user, posting, record)
	customized := p.customize(ctx, user, posting, record)

	artifact := models.ResumeArtifact{
		UserID:                  user.ID,
		OriginalContent:         user.ResumeText,
		CustomizedContent:       customized.Resume,
		FormatType:              "text",
		CustomizationSuccessful: customized.Customized,
	}
	record.MatchScore = analysis.Score
	record.ResumeCustomized = customized.Customized

	persisted := p.persist(ctx, posting, record, artifact, contacts)

	if p.artifacts != nil && user.ArtifactBucket != "" {
		artifact.JobID = record.JobID
		link, err := p.artifacts.Save(ctx, artifact)
		if err != nil {
			metrics.PipelineStageFailures.WithLabelValues("artifact_upload").Inc()
			record.AddNote(fmt.Sprintf("artifact upload failed: %v", err))
		}
		record.ArtifactLink = link
	}

	if persisted {
		if posting.Synthetic {
			record.AddNote("synthetic posting, nothing submitted")
		} else {
			record.SetStatus(models.StatusApplied)
		}
	} else {
		record.SetStatus(models.StatusError)
	}

	// Push the final score, notes, link, and status back out. Only
	// possible when the record was created in the first place.
	if persisted {
		if err := p.store.UpdateApplicationRecord(ctx, record); err != nil {
			p.log.Error("Failed to finalize application record", map[string]interface{}{
				"recordId": record.ID,
				"error":    err.Error(),
			})
		}
	}

	if p.notifier != nil {
		if err := p.notifier.NotifyApplication(ctx, user, posting, *record); err != nil {
			metrics.PipelineStageFailures.WithLabelValues("notify").Inc()
		}
	}

	status := string(record.Status)
	metrics.PipelineJobsProcessed.WithLabelValues(status).Inc()
	if p.obs != nil {
		p.obs.RecordJobProcessed(ctx, status)
		p.obs.RecordJobDuration(ctx, time.Since(start), status)
	}

	emit(sink, models.EventJobDone, user.ID, &posting, record, nil)
	return record
}

func (p *Pipeline) fillDescription(ctx context.Context, posting *models.JobPosting, record *models.ApplicationRecord) {
	if posting.HasDescription() {
		return
	}
	if p.fetcher != nil && posting.URL != "" && !posting.Synthetic {
		text, err := p.fetcher.Fetch(ctx, posting.URL)
		if err == nil && len(text) >= 40 {
			posting.Description = text
			return
		}
		if err != nil {
			metrics.PipelineStageFailures.WithLabelValues("description_fetch").Inc()
			p.log.Warn("Description fetch failed, synthesizing", map[string]interface{}{
				"url":   posting.URL,
				"error": err.Error(),
			})
		}
	}
	posting.Description = synthesizeDescription(*posting)
	record.AddNote("description synthesized from posting summary")
}

func (p *Pipeline) extractContacts(posting models.JobPosting) []models.HRContact {
	if p.extractor == nil {
		return nil
	}
	return p.extractor.Extract(posting)
}

func (p *Pipeline) analyze(ctx context.Context, user models.User, posting models.JobPosting, record *models.ApplicationRecord) ai.AnalyzeResult {
	analysis, err := p.gateway.Analyze(ctx, user.ResumeText, posting.Description)
	if err != nil {
		record.AddNote(fmt.Sprintf("match analysis fell back: %v", err))
	}
	return analysis
}

func (p *Pipeline) customize(ctx context.Context, user models.User, posting models.JobPosting, record *models.ApplicationRecord) ai.CustomizeResult {
	customized, err := p.gateway.Customize(ctx, user.ResumeText, posting.Description, posting.Title, posting.Company)
	if err != nil {
		record.AddNote(fmt.Sprintf("resume customization fell back: %v", err))
	}
	return customized
}

// persist writes the posting, the record, the artifact text pair, and
// the contacts. Reports whether the record itself exists; everything
// else is best effort.
func (p *Pipeline) persist(ctx context.Context, posting models.JobPosting, record *models.ApplicationRecord, artifact models.ResumeArtifact, contacts []models.HRContact) bool {
	jobID, err := p.store.UpsertJobPosting(ctx, posting)
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues("persist_posting").Inc()
		p.log.Error("Failed to persist posting", map[string]interface{}{
			"url":   posting.URL,
			"error": err.Error(),
		})
		record.AddNote(fmt.Sprintf("posting persistence failed: %v", err))
		return false
	}
	record.JobID = jobID

	if err := p.store.CreateApplicationRecord(ctx, record); err != nil {
		metrics.PipelineStageFailures.WithLabelValues("persist_record").Inc()
		p.log.Error("Failed to persist application record", map[string]interface{}{
			"url":   posting.URL,
			"error": err.Error(),
		})
		record.AddNote(fmt.Sprintf("record persistence failed: %v", err))
		return false
	}

	artifact.JobID = jobID
	if err := p.store.SaveResumeArtifact(ctx, artifact); err != nil {
		metrics.PipelineStageFailures.WithLabelValues("persist_artifact").Inc()
		record.AddNote(fmt.Sprintf("resume artifact persistence failed: %v", err))
	}

	if len(contacts) > 0 {
		if err := p.store.SaveHRContacts(ctx, jobID, contacts); err != nil {
			metrics.PipelineStageFailures.WithLabelValues("persist_contacts").Inc()
		}
		if p.crm != nil {
			p.crm.SyncContacts(ctx, contacts)
		}
	}
	return true
}
