package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-match/internal/domain/matching"
	"talent-match/internal/logger"
	"talent-match/internal/pkg/workerpool"
	"talent-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	MaxPageSize = 100

	searchLockTTL = 30 * time.Second
)

type JobSearchParams struct {
	CandidateID uuid.UUID
	Page        int
	Size        int
	SortBy      matching.SortBy
	Descending  bool
	Filters     matching.Filters
}

type CandidateSearchParams struct {
	JobID   uuid.UUID
	Page    int
	Size    int
	Filters matching.Filters
}

type MatchingUsecase interface {
	SearchJobsForCandidate(ctx context.Context, params JobSearchParams) (matching.Page, error)
	SearchCandidatesForJob(ctx context.Context, params CandidateSearchParams) (matching.Page, error)
	CalculateMatch(ctx context.Context, candidateID, jobID uuid.UUID) (matching.Scored, error)
}

type MatchingOptions struct {
	Ontology       *matching.Ontology
	Weights        matching.Weights
	Workers        int
	CacheTTL       time.Duration
	RequestTimeout time.Duration
}

type Matching struct {
	taxonomy   TaxonomyProvider
	candidates repository.CandidateRepository
	jobs       repository.JobRepository
	cache      SearchCache
	logger     *zap.Logger

	ontology *matching.Ontology
	weights  matching.Weights
	workers  int
	cacheTTL time.Duration
	timeout  time.Duration
}

func NewMatchingUsecase(
	tax TaxonomyProvider,
	candidates repository.CandidateRepository,
	jobs repository.JobRepository,
	cache SearchCache,
	log *zap.Logger,
	opts MatchingOptions,
) (*Matching, error) {
	w, err := opts.Weights.Normalized()
	if err != nil {
		return nil, err
	}
	ontology := opts.Ontology
	if ontology == nil {
		ontology = matching.DefaultOntology()
	}
	return &Matching{
		taxonomy:   tax,
		candidates: candidates,
		jobs:       jobs,
		cache:      cache,
		logger:     logger.OrNop(log).Named("matching"),
		ontology:   ontology,
		weights:    w,
		workers:    opts.Workers,
		cacheTTL:   opts.CacheTTL,
		timeout:    opts.RequestTimeout,
	}, nil
}

func validatePage(page, size int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be >= 1", ErrInvalidInput)
	}
	if size < 1 || size > MaxPageSize {
		return fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidInput, MaxPageSize)
	}
	return nil
}

func (u *Matching) SearchJobsForCandidate(ctx context.Context, params JobSearchParams) (matching.Page, error) {
	if params.CandidateID == uuid.Nil {
		return matching.Page{}, fmt.Errorf("%w: candidate id is required", ErrInvalidInput)
	}
	if err := validatePage(params.Page, params.Size); err != nil {
		return matching.Page{}, err
	}
	sortBy := matching.ParseSortBy(string(params.SortBy))

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	view, err := u.taxonomyView(ctx)
	if err != nil {
		return matching.Page{}, err
	}

	key := MatchSearchCacheKey(searchKindJobs, view.Version, params.CandidateID, params.Page, params.Size, sortBy, params.Descending, params.Filters, u.weights)
	if page, ok := u.cachedPage(ctx, key); ok {
		return page, nil
	}
	release := u.acquireSearchLock(ctx, key)
	defer release()
	if page, ok := u.cachedPage(ctx, key); ok {
		return page, nil
	}

	var (
		candidate *matching.Candidate
		jobs      []matching.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := u.candidates.FindByID(gctx, params.CandidateID)
		if err != nil {
			return fmt.Errorf("find candidate: %w", err)
		}
		candidate = c
		return nil
	})
	g.Go(func() error {
		js, err := u.jobs.ListOpen(gctx)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		jobs = js
		return nil
	})
	if err := g.Wait(); err != nil {
		return matching.Page{}, u.loadError(ctx, "search jobs", err)
	}
	if candidate == nil {
		return matching.Page{}, ErrCandidateNotFound
	}

	engine, err := matching.NewEngine(view.Graph, u.ontology, u.weights)
	if err != nil {
		return matching.Page{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	jobs = matching.FilterJobs(jobs, params.Filters)
	items := make([]matching.Scored, len(jobs))
	err = workerpool.ForEach(ctx, u.workers, len(jobs), func(_ context.Context, i int) error {
		j := jobs[i]
		items[i] = matching.Scored{
			EntityID:   j.ID,
			Name:       j.Title,
			ActivityAt: j.ActivityAt,
			Salary:     matching.JobSalary(j),
			Result:     u.scorePair(engine, *candidate, j),
		}
		return nil
	})
	if err != nil {
		return matching.Page{}, err
	}

	matching.Rank(items, sortBy, params.Descending)
	page := matching.Paginate(items, params.Page, params.Size)

	u.logger.Debug("jobs ranked for candidate",
		zap.String("candidate_id", params.CandidateID.String()),
		zap.Int("scored", len(items)),
		zap.String("sort_by", string(sortBy)),
		zap.String("taxonomy", view.Version),
	)
	u.storePage(ctx, key, page)
	return page, nil
}

func (u *Matching) SearchCandidatesForJob(ctx context.Context, params CandidateSearchParams) (matching.Page, error) {
	if params.JobID == uuid.Nil {
		return matching.Page{}, fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}
	if err := validatePage(params.Page, params.Size); err != nil {
		return matching.Page{}, err
	}

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	view, err := u.taxonomyView(ctx)
	if err != nil {
		return matching.Page{}, err
	}

	key := MatchSearchCacheKey(searchKindCandidates, view.Version, params.JobID, params.Page, params.Size, matching.SortByScore, true, params.Filters, u.weights)
	if page, ok := u.cachedPage(ctx, key); ok {
		return page, nil
	}
	release := u.acquireSearchLock(ctx, key)
	defer release()
	if page, ok := u.cachedPage(ctx, key); ok {
		return page, nil
	}

	var (
		job        *matching.Job
		candidates []matching.Candidate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		j, err := u.jobs.FindOpenByID(gctx, params.JobID)
		if err != nil {
			return fmt.Errorf("find job: %w", err)
		}
		job = j
		return nil
	})
	g.Go(func() error {
		cs, err := u.candidates.ListActive(gctx)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}
		candidates = cs
		return nil
	})
	if err := g.Wait(); err != nil {
		return matching.Page{}, u.loadError(ctx, "search candidates", err)
	}
	if job == nil {
		return matching.Page{}, ErrJobNotFound
	}

	engine, err := matching.NewEngine(view.Graph, u.ontology, u.weights)
	if err != nil {
		return matching.Page{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	candidates = matching.FilterCandidates(candidates, params.Filters)
	items := make([]matching.Scored, len(candidates))
	err = workerpool.ForEach(ctx, u.workers, len(candidates), func(_ context.Context, i int) error {
		c := candidates[i]
		items[i] = matching.Scored{
			EntityID:   c.ID,
			Name:       c.FullName,
			ActivityAt: c.ActivityAt,
			Result:     u.scorePair(engine, c, *job),
		}
		return nil
	})
	if err != nil {
		return matching.Page{}, err
	}

	matching.Rank(items, matching.SortByScore, true)
	page := matching.Paginate(items, params.Page, params.Size)

	u.logger.Debug("candidates ranked for job",
		zap.String("job_id", params.JobID.String()),
		zap.Int("scored", len(items)),
		zap.String("taxonomy", view.Version),
	)
	u.storePage(ctx, key, page)
	return page, nil
}

func (u *Matching) CalculateMatch(ctx context.Context, candidateID, jobID uuid.UUID) (matching.Scored, error) {
	if candidateID == uuid.Nil || jobID == uuid.Nil {
		return matching.Scored{}, fmt.Errorf("%w: candidate and job ids are required", ErrInvalidInput)
	}

	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	var (
		view      *TaxonomyView
		candidate *matching.Candidate
		job       *matching.Job
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := u.taxonomy.Current(gctx)
		if err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
		view = v
		return nil
	})
	g.Go(func() error {
		c, err := u.candidates.FindByID(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("find candidate: %w", err)
		}
		candidate = c
		return nil
	})
	g.Go(func() error {
		j, err := u.jobs.FindOpenByID(gctx, jobID)
		if err != nil {
			return fmt.Errorf("find job: %w", err)
		}
		job = j
		return nil
	})
	if err := g.Wait(); err != nil {
		return matching.Scored{}, u.loadError(ctx, "calculate match", err)
	}
	if candidate == nil {
		return matching.Scored{}, ErrCandidateNotFound
	}
	if job == nil {
		return matching.Scored{}, ErrJobNotFound
	}

	engine, err := matching.NewEngine(view.Graph, u.ontology, u.weights)
	if err != nil {
		return matching.Scored{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return matching.Scored{
		EntityID:   job.ID,
		Name:       job.Title,
		ActivityAt: job.ActivityAt,
		Salary:     matching.JobSalary(*job),
		Result:     u.scorePair(engine, *candidate, *job),
	}, nil
}

func (u *Matching) scorePair(engine *matching.Engine, c matching.Candidate, j matching.Job) matching.Result {
	res, err := engine.SafeScore(c, j)
	if err != nil {
		u.logger.Error("pair scoring failed, using zero score",
			zap.String("candidate_id", c.ID.String()),
			zap.String("job_id", j.ID.String()),
			zap.Error(err),
		)
	}
	return res
}

func (u *Matching) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}

func (u *Matching) taxonomyView(ctx context.Context) (*TaxonomyView, error) {
	view, err := u.taxonomy.Current(ctx)
	if err != nil {
		return nil, u.loadError(ctx, "load taxonomy", err)
	}
	return view, nil
}

// loadError reports a cancelled request as the context error and anything
// else as ErrInternal after logging it.
func (u *Matching) loadError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	u.logger.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%w: %s", ErrInternal, op)
}

func (u *Matching) cachedPage(ctx context.Context, key string) (matching.Page, bool) {
	if u.cache == nil {
		return matching.Page{}, false
	}
	var page matching.Page
	hit, err := u.cache.GetJSON(ctx, key, &page)
	if err != nil {
		u.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		return matching.Page{}, false
	}
	if !hit {
		u.logger.Debug("cache miss", zap.String("key", key))
		return matching.Page{}, false
	}
	if page.Items == nil {
		page.Items = []matching.Scored{}
	}
	u.logger.Debug("cache hit", zap.String("key", key))
	return page, true
}

// acquireSearchLock keeps concurrent identical searches from all scoring at
// once. A caller that loses the race waits briefly for the winner's page and
// then computes it anyway.
func (u *Matching) acquireSearchLock(ctx context.Context, key string) func() {
	noop := func() {}
	if u.cache == nil {
		return noop
	}
	lockKey := MatchSearchLockKey(key)
	ok, err := u.cache.SetIfNotExists(ctx, lockKey, "1", searchLockTTL)
	if err != nil {
		return noop
	}
	if ok {
		return func() {
			if err := u.cache.Delete(context.WithoutCancel(ctx), lockKey); err != nil {
				u.logger.Debug("release search lock failed", zap.String("key", lockKey), zap.Error(err))
			}
		}
	}

	jitter := time.Duration(time.Now().UnixNano()%201) * time.Millisecond
	t := time.NewTimer(300*time.Millisecond + jitter)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	u.logger.Debug("search lock wait finished", zap.String("key", lockKey))
	return noop
}

func (u *Matching) storePage(ctx context.Context, key string, page matching.Page) {
	if u.cache == nil {
		return
	}
	if err := u.cache.SetJSON(ctx, key, page, u.cacheTTL); err != nil {
		u.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ MatchingUsecase = (*Matching)(nil)
