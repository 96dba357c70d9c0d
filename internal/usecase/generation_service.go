package usecase

import (
	"bytes"
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/internal/export"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var ErrServiceClosed = errors.New("generation service is closed")

type GenerationOptions struct {
	// records per progress step
	BatchSize int
	// pacing of progress steps; 0 disables pacing
	RecordsPerSecond float64
	// upper bound on one job's runtime; 0 disables the bound
	JobTimeout time.Duration
	// used when the campaign has no radius
	DefaultRadius decimal.Decimal
	// terminal jobs and their artifacts are dropped this long after completion; 0 keeps them
	Retention time.Duration
}

// GenerationService owns every generation job. All job state sits behind mu.
type GenerationService struct {
	directory domain.LocationDirectory
	artifacts domain.ArtifactStore
	notifier  domain.JobNotifier
	validator *CampaignValidator
	template  domain.ReferenceTemplate
	logger    *logger.Logger
	metrics   *metrics.Metrics
	opts      GenerationOptions

	mu   sync.RWMutex
	jobs map[string]*job

	renders singleflight.Group
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type job struct {
	snapshot  domain.JobSnapshot
	expansion *Expansion
	fileName  string
}

// NewGenerationService builds the manager. notifier may be nil.
func NewGenerationService(
	directory domain.LocationDirectory,
	artifacts domain.ArtifactStore,
	notifier domain.JobNotifier,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	opts GenerationOptions,
) *GenerationService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &GenerationService{
		directory: directory,
		artifacts: artifacts,
		notifier:  notifier,
		validator: NewCampaignValidator(),
		template:  domain.DefaultReferenceTemplate(),
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		jobs:      make(map[string]*job),
		ctx:       ctx,
		cancel:    cancel,
	}

	if opts.Retention > 0 {
		s.wg.Add(1)
		go s.janitor(max(opts.Retention/4, time.Second))
	}
	return s
}

// Submit validates the request, creates a job and starts it. No job exists when an error is returned.
func (s *GenerationService) Submit(ctx context.Context, req domain.SubmitRequest) (domain.JobHandle, error) {
	log := s.logger.WithContext(ctx)

	campaign := req.Campaign
	variants := req.AdVariants
	if len(variants) == 0 {
		variants = req.Campaign.AdVariants
	}
	campaign.AdVariants = slices.Clone(variants)
	if campaign.Radius.IsZero() {
		campaign.Radius = s.opts.DefaultRadius
	}

	locations, err := s.resolveRequest(ctx, req.LocationIDs, campaign)
	if err != nil {
		if domain.IsInputError(err) {
			s.metrics.RecordSubmissionRejected("invalid_input")
			log.WithError(err).Warn("Rejected generation request")
		}
		return domain.JobHandle{}, err
	}

	expansion, err := NewExpansion(locations, campaign.AdVariants, campaign, s.template)
	if err != nil {
		s.metrics.RecordSubmissionRejected("invalid_input")
		return domain.JobHandle{}, err
	}

	variantIDs := make([]string, len(campaign.AdVariants))
	for i, v := range campaign.AdVariants {
		variantIDs[i] = v.ID
	}

	j := &job{
		snapshot: domain.JobSnapshot{
			ID:           uuid.NewString(),
			Status:       domain.JobStatusPending,
			LocationIDs:  slices.Clone(req.LocationIDs),
			AdVariantIDs: variantIDs,
			TotalRecords: expansion.Len(),
			CreatedAt:    time.Now().UTC(),
		},
		expansion: expansion,
		fileName:  ResolveFileName(req.FileNameHint, campaign),
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return domain.JobHandle{}, ErrServiceClosed
	}
	s.jobs[j.snapshot.ID] = j
	j.snapshot.Status = domain.JobStatusProcessing
	handle := domain.JobHandle{
		ID:           j.snapshot.ID,
		Status:       j.snapshot.Status,
		TotalRecords: j.snapshot.TotalRecords,
		CreatedAt:    j.snapshot.CreatedAt,
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.metrics.IncGenerationJobsInProgress()
	go func() {
		defer s.wg.Done()
		defer s.metrics.DecGenerationJobsInProgress()
		s.run(j)
	}()

	log.WithFields(map[string]any{
		"job_id":    handle.ID,
		"status":    handle.Status,
		"locations": len(locations),
		"variants":  len(variantIDs),
		"total":     handle.TotalRecords,
	}).Info("Generation job submitted")

	return handle, nil
}

// resolveRequest validates the campaign and loads the selected locations with their targeting configs.
func (s *GenerationService) resolveRequest(ctx context.Context, ids []string, campaign domain.CampaignConfig) ([]domain.Location, error) {
	var problems []string

	if len(ids) == 0 {
		problems = append(problems, "at least one location must be selected")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			problems = append(problems, fmt.Sprintf("location %q selected more than once", id))
		}
		seen[id] = true
	}

	if err := s.validator.Validate(campaign); err != nil {
		var inputErr *domain.InputError
		if !errors.As(err, &inputErr) {
			return nil, err
		}
		problems = append(problems, inputErr.Problems...)
	}

	if len(problems) > 0 {
		return nil, domain.NewInputError(problems...)
	}

	all, err := s.directory.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	byID := make(map[string]domain.Location, len(all))
	for _, loc := range all {
		byID[loc.ID] = loc
	}

	locations := make([]domain.Location, 0, len(ids))
	for _, id := range ids {
		loc, ok := byID[id]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown location %q", id))
			continue
		}

		tc, err := s.directory.GetTargetingConfig(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get targeting config for %s: %w", id, err)
		}
		if tc != nil {
			loc.Targeting = tc
		}

		for _, check := range []error{loc.ValidatePoint(), loc.Targeting.Validate()} {
			var inputErr *domain.InputError
			if errors.As(check, &inputErr) {
				for _, p := range inputErr.Problems {
					problems = append(problems, fmt.Sprintf("location %s: %s", id, p))
				}
			}
		}
		locations = append(locations, loc)
	}

	if len(problems) > 0 {
		return nil, domain.NewInputError(problems...)
	}
	return locations, nil
}

// run expands and serializes the job in paced batches, then stores the artifact.
func (s *GenerationService) run(j *job) {
	start := time.Now()
	ctx := logger.WithJobID(s.ctx, j.snapshot.ID)
	if s.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.JobTimeout)
		defer cancel()
	}

	err := s.generate(ctx, j)

	var snapshot domain.JobSnapshot
	if err != nil {
		snapshot = s.fail(j, err)
		s.metrics.RecordGenerationJob(string(domain.JobStatusFailed), time.Since(start))
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"status":    snapshot.Status,
			"processed": snapshot.ProcessedRecords,
			"total":     snapshot.TotalRecords,
		}).Error("Generation job failed")
	} else {
		snapshot = s.complete(j)
		s.metrics.RecordGenerationJob(string(domain.JobStatusCompleted), time.Since(start))
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"status":    snapshot.Status,
			"processed": snapshot.ProcessedRecords,
			"total":     snapshot.TotalRecords,
			"file_name": snapshot.FileName,
			"duration":  time.Since(start),
		}).Info("Generation job completed")
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(context.WithoutCancel(ctx), snapshot); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("Failed to deliver completion webhook")
		}
	}
}

func (s *GenerationService) generate(ctx context.Context, j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during generation: %v", r)
		}
	}()

	batch := s.opts.BatchSize
	limit := rate.Inf
	if s.opts.RecordsPerSecond > 0 {
		limit = rate.Limit(s.opts.RecordsPerSecond)
	}
	limiter := rate.NewLimiter(limit, batch)

	var buf bytes.Buffer
	w := export.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return err
	}

	total := j.expansion.Len()
	for i, rec := range j.expansion.Records() {
		if i%batch == 0 {
			if err := limiter.WaitN(ctx, min(batch, total-i)); err != nil {
				return fmt.Errorf("stopped after %d of %d records: %w", i, total, err)
			}
		}
		if err := w.Write(&rec); err != nil {
			return err
		}
		if done := i + 1; done%batch == 0 || done == total {
			s.advance(j, done)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	data := buf.Bytes()
	artifact := &domain.Artifact{
		FileName:    j.fileName,
		ContentType: export.CSVContentType,
		Checksum:    checksum(data),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.artifacts.Put(ctx, artifactKey(j.snapshot.ID, FormatCSV), artifact); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	s.metrics.RecordArtifact(FormatCSV, len(data))
	return nil
}

// advance moves processedRecords forward; it never decreases and stops once terminal.
func (s *GenerationService) advance(j *job, processed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.snapshot.Status.IsTerminal() || processed <= j.snapshot.ProcessedRecords {
		return
	}
	delta := processed - j.snapshot.ProcessedRecords
	j.snapshot.ProcessedRecords = processed
	s.metrics.RecordRecordsGenerated(delta)
}

func (s *GenerationService) complete(j *job) domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	j.snapshot.Status = domain.JobStatusCompleted
	j.snapshot.ProcessedRecords = j.snapshot.TotalRecords
	j.snapshot.FileName = j.fileName
	j.snapshot.CompletedAt = &now
	j.expansion = nil
	return cloneSnapshot(j.snapshot)
}

func (s *GenerationService) fail(j *job, cause error) domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	j.snapshot.Status = domain.JobStatusFailed
	j.snapshot.Error = fmt.Errorf("%w: %w", domain.ErrGenerationFailure, cause).Error()
	j.snapshot.CompletedAt = &now
	j.expansion = nil
	return cloneSnapshot(j.snapshot)
}

// Status returns a point-in-time snapshot of the job.
func (s *GenerationService) Status(ctx context.Context, jobID string) (domain.JobSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.JobSnapshot{}, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	return cloneSnapshot(j.snapshot), nil
}

// List returns every job, newest first.
func (s *GenerationService) List(ctx context.Context) []domain.JobSnapshot {
	s.mu.RLock()
	snapshots := make([]domain.JobSnapshot, 0, len(s.jobs))
	for _, j := range s.jobs {
		snapshots = append(snapshots, cloneSnapshot(j.snapshot))
	}
	s.mu.RUnlock()

	slices.SortFunc(snapshots, func(a, b domain.JobSnapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return snapshots
}

// Download returns the cached artifact of a completed job. Repeated calls return the same bytes.
// format is "csv" (default) or "xlsx"; the workbook is rendered from the CSV once and then cached.
func (s *GenerationService) Download(ctx context.Context, jobID, format string) (*domain.Artifact, error) {
	snapshot, err := s.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch snapshot.Status {
	case domain.JobStatusCompleted:
	case domain.JobStatusFailed:
		return nil, fmt.Errorf("%w: job %s failed: %s", domain.ErrArtifactNotReady, jobID, snapshot.Error)
	default:
		return nil, fmt.Errorf("%w: job %s is %s (%d/%d records)", domain.ErrArtifactNotReady,
			jobID, snapshot.Status, snapshot.ProcessedRecords, snapshot.TotalRecords)
	}

	switch strings.ToLower(format) {
	case "", FormatCSV:
		return s.loadArtifact(ctx, jobID, FormatCSV)
	case FormatXLSX:
		return s.workbook(ctx, jobID)
	default:
		return nil, domain.NewInputError(fmt.Sprintf("unsupported format %q", format))
	}
}

func (s *GenerationService) loadArtifact(ctx context.Context, jobID, format string) (*domain.Artifact, error) {
	artifact, err := s.artifacts.Get(ctx, artifactKey(jobID, format))
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}
	if artifact == nil {
		return nil, fmt.Errorf("%w: job %s", domain.ErrArtifactExpired, jobID)
	}
	return artifact, nil
}

func (s *GenerationService) workbook(ctx context.Context, jobID string) (*domain.Artifact, error) {
	key := artifactKey(jobID, FormatXLSX)
	if cached, err := s.artifacts.Get(ctx, key); err == nil && cached != nil {
		return cached, nil
	}

	v, err, _ := s.renders.Do(key, func() (any, error) {
		if cached, err := s.artifacts.Get(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
		source, err := s.loadArtifact(ctx, jobID, FormatCSV)
		if err != nil {
			return nil, err
		}
		data, err := export.RenderXLSX(source.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
		}
		artifact := &domain.Artifact{
			FileName:    strings.TrimSuffix(source.FileName, ".csv") + ".xlsx",
			ContentType: export.XLSXContentType,
			Checksum:    checksum(data),
			Data:        data,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.artifacts.Put(ctx, key, artifact); err != nil {
			return nil, fmt.Errorf("failed to store workbook: %w", err)
		}
		s.metrics.RecordArtifact(FormatXLSX, len(data))
		return artifact, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Artifact), nil
}

func (s *GenerationService) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.PruneExpired(s.ctx, now.Add(-s.opts.Retention))
		}
	}
}

// PruneExpired drops terminal jobs that completed before cutoff, together with their artifacts.
// It returns the number of jobs removed.
func (s *GenerationService) PruneExpired(ctx context.Context, cutoff time.Time) int {
	var keys []string

	s.mu.Lock()
	for id, j := range s.jobs {
		done := j.snapshot.CompletedAt
		if !j.snapshot.Status.IsTerminal() || done == nil || !done.Before(cutoff) {
			continue
		}
		delete(s.jobs, id)
		keys = append(keys, artifactKey(id, FormatCSV), artifactKey(id, FormatXLSX))
	}
	s.mu.Unlock()

	if len(keys) == 0 {
		return 0
	}
	removed := len(keys) / 2
	log := s.logger.WithContext(ctx).WithField("jobs", removed)
	if err := s.artifacts.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		log.WithError(err).Warn("Failed to delete artifacts of expired jobs")
	}
	log.Debug("Pruned expired generation jobs")
	return removed
}

// Close cancels in-flight jobs and waits for them to reach a terminal state.
func (s *GenerationService) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// ResolveFileName sanitizes the caller's hint, or derives a name from the campaign.
func ResolveFileName(hint string, campaign domain.CampaignConfig) string {
	name := strings.TrimSpace(hint)
	if name != "" {
		name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
		name = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				return r
			case r == '-', r == '_', r == '.':
				return r
			default:
				return '_'
			}
		}, name)
		name = strings.Trim(name, "._")
	}
	if name == "" {
		name = strings.Join([]string{
			StripWhitespace(campaign.Prefix),
			StripWhitespace(campaign.Platform),
			StripWhitespace(campaign.ResolvedMonth()) + campaign.ResolvedDay(),
			"bulk_import",
		}, "_")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}

func artifactKey(jobID, format string) string {
	return "job:" + jobID + ":" + format
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func cloneSnapshot(s domain.JobSnapshot) domain.JobSnapshot {
	s.LocationIDs = slices.Clone(s.LocationIDs)
	s.AdVariantIDs = slices.Clone(s.AdVariantIDs)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		s.CompletedAt = &t
	}
	return s
}
