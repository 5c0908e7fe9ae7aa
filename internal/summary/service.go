package summary

import (
	"context"
)

// Service exposes the two long-lived derived artifacts the orchestrator
// needs: the resume summary and the job description summary. Both go
// through the same hash-gated cache.
type Service struct {
	cache     *Cache
	resumeDir string
	jobDir    string
	resumeFn  ComputeFunc
	jobFn     ComputeFunc
}

// NewService wires the cache to the two source directories and their
// compute collaborators.
func NewService(cache *Cache, resumeDir, jobDir string, resumeFn, jobFn ComputeFunc) *Service {
	return &Service{
		cache:     cache,
		resumeDir: resumeDir,
		jobDir:    jobDir,
		resumeFn:  resumeFn,
		jobFn:     jobFn,
	}
}

// Resume returns the resume summary, recomputing it when stale.
func (s *Service) Resume(ctx context.Context) (string, error) {
	result, err := s.cache.GetOrCompute(ctx, s.resumeDir, s.resumeFn)
	if err != nil {
		return "", err
	}
	return result.Summary, nil
}

// Job returns the job description summary, recomputing it when stale.
func (s *Service) Job(ctx context.Context) (string, error) {
	result, err := s.cache.GetOrCompute(ctx, s.jobDir, s.jobFn)
	if err != nil {
		return "", err
	}
	return result.Summary, nil
}

// Both returns the pair for the admin summaries endpoint.
func (s *Service) Both(ctx context.Context) (resume, job string, err error) {
	resume, err = s.Resume(ctx)
	if err != nil {
		return "", "", err
	}
	job, err = s.Job(ctx)
	if err != nil {
		return "", "", err
	}
	return resume, job, nil
}

// Invalidate drops both cached summaries so the next access recomputes.
func (s *Service) Invalidate() {
	s.cache.Invalidate(s.resumeDir)
	s.cache.Invalidate(s.jobDir)
}
