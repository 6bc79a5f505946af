package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/resilience"
	"github.com/sells-group/enrichment-api/internal/store"
)

// fakeStore is an in-memory store.Store used by handler tests.
type fakeStore struct {
	jobs       map[string]*model.Job
	facts      map[string]*model.Fact
	logs       map[string][]model.JobLog
	prompts    map[string][]model.Prompt
	chunks     map[string][]model.Chunk
	failed     map[string]*resilience.FailedJob
	stats      *store.DashboardStats
	pingErr    error
	forcedErr  error
	logEntries []model.JobLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:    make(map[string]*model.Job),
		facts:   make(map[string]*model.Fact),
		logs:    make(map[string][]model.JobLog),
		prompts: make(map[string][]model.Prompt),
		chunks:  make(map[string][]model.Chunk),
		failed:  make(map[string]*resilience.FailedJob),
		stats:   &store.DashboardStats{ByStatus: map[model.JobStatus]int{}},
	}
}

func (f *fakeStore) CreateJob(_ context.Context, domain, llm string) (*model.Job, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	now := time.Now().UTC()
	job := &model.Job{
		ID:               uuid.New().String(),
		Domain:           domain,
		Status:           model.JobStatusPending,
		CrawlingStatus:   model.StepStatusPending,
		ChunkingStatus:   model.StepStatusPending,
		EmbeddingStatus:  model.StepStatusPending,
		ExtractionStatus: model.StepStatusPending,
		LLMUsed:          llm,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeStore) GetJob(_ context.Context, jobID string) (*model.Job, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	return f.jobs[jobID], nil
}

func (f *fakeStore) ListJobs(_ context.Context, filter store.JobFilter) ([]model.Job, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	var out []model.Job
	for _, j := range f.jobs {
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.Domain != "" && j.Domain != filter.Domain {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeStore) DeleteJob(_ context.Context, jobID string) (bool, error) {
	if _, ok := f.jobs[jobID]; !ok {
		return false, nil
	}
	delete(f.jobs, jobID)
	return true, nil
}

func (f *fakeStore) CancelJob(_ context.Context, jobID string) (bool, error) {
	j, ok := f.jobs[jobID]
	if !ok || j.Status.Terminal() {
		return false, nil
	}
	j.Status = model.JobStatusCancelled
	return true, nil
}

func (f *fakeStore) ListJobLogs(_ context.Context, jobID string, _ int) ([]model.JobLog, error) {
	return f.logs[jobID], nil
}

func (f *fakeStore) AppendJobLog(_ context.Context, entry model.JobLog) error {
	f.logEntries = append(f.logEntries, entry)
	return nil
}

func (f *fakeStore) GetFact(_ context.Context, factID string) (*model.Fact, error) {
	return f.facts[factID], nil
}

func (f *fakeStore) ListFacts(_ context.Context, filter store.FactFilter) ([]model.Fact, error) {
	var out []model.Fact
	for _, fact := range f.facts {
		if filter.JobID != "" && fact.JobID != filter.JobID {
			continue
		}
		if filter.Approval != "" && fact.ApprovalStatus != filter.Approval {
			continue
		}
		if filter.Tier > 0 && fact.Tier != filter.Tier {
			continue
		}
		if fact.Confidence < filter.MinConfidence {
			continue
		}
		out = append(out, *fact)
	}
	return out, nil
}

func (f *fakeStore) ReviewFact(_ context.Context, factID string, decision model.ApprovalStatus) (bool, error) {
	fact, ok := f.facts[factID]
	if !ok || fact.ApprovalStatus != model.ApprovalPending {
		return false, nil
	}
	fact.ApprovalStatus = decision
	now := time.Now().UTC()
	fact.ReviewedAt = &now
	return true, nil
}

func (f *fakeStore) FactTierCounts(_ context.Context, jobID string) (map[int]int, error) {
	counts := make(map[int]int)
	for _, fact := range f.facts {
		if fact.JobID == jobID {
			counts[fact.Tier]++
		}
	}
	return counts, nil
}

func (f *fakeStore) CountFactsPendingReview(_ context.Context) (int, error) {
	n := 0
	for _, fact := range f.facts {
		if fact.ApprovalStatus == model.ApprovalPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListJobPrompts(_ context.Context, jobID string) ([]model.Prompt, error) {
	return f.prompts[jobID], nil
}

func (f *fakeStore) ListJobChunks(_ context.Context, jobID string, _, _ int) ([]model.Chunk, error) {
	return f.chunks[jobID], nil
}

func (f *fakeStore) JobUsage(_ context.Context, jobID string) (*store.UsageSummary, error) {
	var u store.UsageSummary
	for _, p := range f.prompts[jobID] {
		u.PromptCalls++
		u.InputTokens += p.InputTokens
		u.OutputTokens += p.OutputTokens
		u.CostUSD += p.CostUSD
	}
	u.TotalTokens = u.InputTokens + u.OutputTokens
	return &u, nil
}

func (f *fakeStore) CollectStats(_ context.Context, _ time.Time, _ time.Duration) (*store.DashboardStats, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	return f.stats, nil
}

func (f *fakeStore) ListFailedJobs(_ context.Context, filter resilience.FailedJobFilter) ([]resilience.FailedJob, error) {
	var out []resilience.FailedJob
	for _, entry := range f.failed {
		if filter.ErrorType != "" && entry.ErrorType != filter.ErrorType {
			continue
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (f *fakeStore) GetFailedJob(_ context.Context, id string) (*resilience.FailedJob, error) {
	return f.failed[id], nil
}

func (f *fakeStore) ListJobFailures(_ context.Context, jobID string) ([]resilience.FailedJob, error) {
	var out []resilience.FailedJob
	for _, entry := range f.failed {
		if entry.JobID == jobID {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeStore) RequeueFailedJob(ctx context.Context, id string) (*model.Job, error) {
	entry, ok := f.failed[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !entry.CanRetry() {
		return nil, store.ErrRetryExhausted
	}
	delete(f.failed, id)
	return f.CreateJob(ctx, entry.Domain, "")
}

func (f *fakeStore) Migrate(context.Context) error { return nil }

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) Close() error { return nil }
