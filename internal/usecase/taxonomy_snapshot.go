package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"talent-match/internal/domain/taxonomy"
	"talent-match/internal/logger"
	"talent-match/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaxonomyView is one immutable generation of the taxonomy graph.
type TaxonomyView struct {
	Graph      *taxonomy.Graph
	Version    string
	Generation uint64
	LoadedAt   time.Time
}

type TaxonomyProvider interface {
	Current(ctx context.Context) (*TaxonomyView, error)
}

// TaxonomySnapshot keeps the current graph behind an atomic pointer. Readers
// never lock; reloads build a new graph and swap it in.
type TaxonomySnapshot struct {
	repo   repository.TaxonomyRepository
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	current    atomic.Pointer[TaxonomyView]
	generation atomic.Uint64
	reloadMu   sync.Mutex
}

// NewTaxonomySnapshot creates an empty snapshot; the first Current call loads
// it. ttl <= 0 disables expiry.
func NewTaxonomySnapshot(repo repository.TaxonomyRepository, ttl time.Duration, log *zap.Logger) *TaxonomySnapshot {
	return &TaxonomySnapshot{
		repo:   repo,
		ttl:    ttl,
		logger: logger.OrNop(log).Named("taxonomy"),
		now:    time.Now,
	}
}

// Current returns the live view, reloading it first when it is missing or
// expired. A failed reload keeps serving the previous view.
func (s *TaxonomySnapshot) Current(ctx context.Context) (*TaxonomyView, error) {
	if v := s.current.Load(); v != nil && !s.expired(v) {
		return v, nil
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	prev := s.current.Load()
	if prev != nil && !s.expired(prev) {
		return prev, nil
	}

	v, err := s.reloadLocked(ctx)
	if err != nil {
		if prev != nil {
			s.logger.Warn("taxonomy reload failed, serving previous snapshot",
				zap.String("version", prev.Version),
				zap.Error(err),
			)
			return prev, nil
		}
		return nil, err
	}
	return v, nil
}

// Refresh forces a reload regardless of the TTL.
func (s *TaxonomySnapshot) Refresh(ctx context.Context) (*TaxonomyView, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.reloadLocked(ctx)
}

// Start refreshes the snapshot every interval until ctx ends.
func (s *TaxonomySnapshot) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("periodic taxonomy refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *TaxonomySnapshot) expired(v *TaxonomyView) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(v.LoadedAt) >= s.ttl
}

func (s *TaxonomySnapshot) reloadLocked(ctx context.Context) (*TaxonomyView, error) {
	if s.repo == nil {
		return nil, errors.New("nil taxonomy repository")
	}
	start := s.now()
	nodes, err := s.repo.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	v := &TaxonomyView{
		Graph:      taxonomy.NewGraph(nodes),
		Version:    Fingerprint(nodes),
		Generation: s.generation.Add(1),
		LoadedAt:   s.now(),
	}
	prev := s.current.Swap(v)

	fields := []zap.Field{
		zap.Int("nodes", v.Graph.Len()),
		zap.String("version", v.Version),
		zap.Uint64("generation", v.Generation),
		zap.Duration("took", s.now().Sub(start)),
	}
	if prev != nil && prev.Version == v.Version {
		s.logger.Debug("taxonomy reloaded, unchanged", fields...)
	} else {
		s.logger.Info("taxonomy snapshot swapped", fields...)
	}
	return v, nil
}

// Fingerprint hashes the node set independent of its order, so every
// instance loading the same table reports the same version. Duplicate ids
// are dropped first-wins before hashing, as NewGraph drops them.
func Fingerprint(nodes []taxonomy.Node) string {
	lines := make([]string, 0, len(nodes))
	seen := make(map[uuid.UUID]struct{}, len(nodes))
	for _, n := range nodes {
		// same first-wins rule as taxonomy.NewGraph
		if n.ID == uuid.Nil {
			continue
		}
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		parent := ""
		if n.HasParent() {
			parent = n.ParentID.String()
		}
		lines = append(lines, n.ID.String()+"|"+parent+"|"+string(n.Type)+"|"+n.Name)
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
