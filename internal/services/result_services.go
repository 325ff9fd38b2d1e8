package services

import (
	"context"
	"sync"
	"time"

	"reconview/pkg/backend"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/logger"
	"reconview/pkg/results"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	LoadFailedMessage  = "Failed to load scan results. Please try refreshing the page."
	LoadNetworkMessage = "Network error occurred while loading results."

	defaultResultCacheSize = 32
	defaultFetchTimeout    = time.Minute
)

// LoadErrorMessage is the persistent alert shown when results cannot be loaded.
func LoadErrorMessage(err error) string {
	if rverrors.IsTransport(err) {
		return LoadNetworkMessage
	}
	return LoadFailedMessage
}

type ResultServiceMethods interface {
	Load(ctx context.Context, scanID string) (*results.ResultSet, error)
	Forget(scanID string)
}

type resultService struct {
	client  backend.Client
	logger  *logger.Logger
	observe func(error)
	group   singleflight.Group
	timeout time.Duration

	mu    sync.RWMutex
	cache map[string]*results.ResultSet
	order []string
	size  int
}

type ResultServiceOption func(*resultService)

func WithLoadObserver(fn func(error)) ResultServiceOption {
	return func(s *resultService) { s.observe = fn }
}

func WithResultCacheSize(n int) ResultServiceOption {
	return func(s *resultService) {
		if n > 0 {
			s.size = n
		}
	}
}

// WithFetchTimeout bounds a shared fetch. It runs detached from the caller
// that started it.
func WithFetchTimeout(d time.Duration) ResultServiceOption {
	return func(s *resultService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewResultService(client backend.Client, opts ...ResultServiceOption) ResultServiceMethods {
	s := &resultService{
		client:  client,
		logger:  logger.NewLogger(logrus.InfoLevel),
		observe: func(error) {},
		cache:   make(map[string]*results.ResultSet),
		size:    defaultResultCacheSize,
		timeout: defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the classified results of a job. Concurrent loads of the same
// job share one backend fetch, and a caller giving up does not cancel it for
// the others. Result sets of finished jobs are kept, so
// searching and paging never refetch.
func (s *resultService) Load(ctx context.Context, scanID string) (*results.ResultSet, error) {
	s.mu.RLock()
	rs, ok := s.cache[scanID]
	s.mu.RUnlock()
	if ok {
		return rs, nil
	}

	ch := s.group.DoChan(scanID, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.fetch(fetchCtx, scanID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*results.ResultSet), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *resultService) fetch(ctx context.Context, scanID string) (*results.ResultSet, error) {
	records, err := s.client.GetResults(ctx, scanID)
	s.observe(err)
	if err != nil {
		s.logger.WithError(err).WithField("scan_id", scanID).Error("Error fetching results")
		return nil, err
	}

	rs := results.NewResultSet(scanID, records)
	if s.finished(ctx, scanID) {
		s.store(scanID, rs)
	}
	s.logger.WithFields(logger.Fields{"scan_id": scanID, "records": rs.Len()}).Info("Loaded scan results")
	return rs, nil
}

// finished reports whether the backend considers the job done. Results of a
// job still running may grow and are not cached.
func (s *resultService) finished(ctx context.Context, scanID string) bool {
	status, err := s.client.GetStatus(ctx, scanID)
	if err != nil {
		return false
	}
	return status.ScanStatus == backend.StatusCompleted || status.ScanStatus == backend.StatusFailed
}

func (s *resultService) store(scanID string, rs *results.ResultSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[scanID]; ok {
		return
	}
	if len(s.order) >= s.size {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
	s.cache[scanID] = rs
	s.order = append(s.order, scanID)
}

func (s *resultService) Forget(scanID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[scanID]; !ok {
		return
	}
	delete(s.cache, scanID)
	for i, id := range s.order {
		if id == scanID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
