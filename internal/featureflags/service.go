// Package featureflags resolves runtime feature switches. Resolution order:
// environment override, Redis cache, Postgres. Flags may carry a
// rollout_percentage config to expose a feature to a user bucket.
package featureflags

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/data/store"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

const cacheKeyPrefix = "jurisai:flag:"

// FlagStore is the persistence surface the service needs; the Postgres
// implementation lives in internal/data/postgres.
type FlagStore interface {
	Create(ctx context.Context, f usermodel.FeatureFlag) (usermodel.FeatureFlag, error)
	Get(ctx context.Context, key string) (usermodel.FeatureFlag, error)
	Update(ctx context.Context, key string, isEnabled *bool, cfg map[string]any) (usermodel.FeatureFlag, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]usermodel.FeatureFlag, error)
}

type Service struct {
	flags  FlagStore
	cache  *store.ResponseCache
	logger *logger_i.Logger
}

func NewService(flags FlagStore, cache *store.ResponseCache) *Service {
	return &Service{
		flags:  flags,
		cache:  cache,
		logger: logger_i.NewLogger("FeatureFlags"),
	}
}

// IsEnabled reports whether the flag is on for the given user. Unknown flags
// are disabled. userId 0 means "no user"; percentage rollouts treat it as
// bucket 0 so a 1% rollout already includes anonymous traffic probes.
func (s *Service) IsEnabled(ctx context.Context, flagKey string, userId int64) bool {
	if v, ok := envOverride(flagKey); ok {
		return v
	}

	flag, found := s.lookup(ctx, flagKey)
	if !found {
		return false
	}
	if !flag.IsEnabled {
		return false
	}
	return inRolloutBucket(flag, userId)
}

func (s *Service) lookup(ctx context.Context, flagKey string) (usermodel.FeatureFlag, bool) {
	var cached usermodel.FeatureFlag
	if s.cache.GetJSON(ctx, "feature_flags", cacheKeyPrefix+flagKey, &cached) {
		return cached, true
	}

	flag, err := s.flags.Get(ctx, flagKey)
	if errors.Is(err, postgres.ErrNotFound) {
		return usermodel.FeatureFlag{}, false
	}
	if err != nil {
		s.logger.Warn("flag lookup failed", "key", flagKey, "err", err)
		return usermodel.FeatureFlag{}, false
	}

	s.cache.SetJSON(ctx, cacheKeyPrefix+flagKey, flag, config.FlagCacheTTL)
	return flag, true
}

// envOverride checks FF_<KEY> (upper-cased); "true/1/yes/on" enable.
func envOverride(flagKey string) (bool, bool) {
	raw, ok := os.LookupEnv("FF_" + strings.ToUpper(flagKey))
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, true
	default:
		return false, true
	}
}

// inRolloutBucket buckets a user into [0,100) with FNV-1a over key:userId.
// Flags without rollout_percentage apply to everyone.
func inRolloutBucket(flag usermodel.FeatureFlag, userId int64) bool {
	pct, ok := rolloutPercentage(flag.Config)
	if !ok {
		return true
	}
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}

	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", flag.Key, userId)
	return int(h.Sum32()%100) < pct
}

func rolloutPercentage(cfg map[string]any) (int, bool) {
	raw, ok := cfg["rollout_percentage"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64: // JSON numbers decode as float64
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func (s *Service) Create(ctx context.Context, f usermodel.FeatureFlag) (usermodel.FeatureFlag, error) {
	created, err := s.flags.Create(ctx, f)
	if err != nil {
		return created, err
	}
	s.cache.Invalidate(ctx, cacheKeyPrefix+created.Key)
	return created, nil
}

func (s *Service) Update(ctx context.Context, key string, isEnabled *bool, cfg map[string]any) (usermodel.FeatureFlag, error) {
	updated, err := s.flags.Update(ctx, key, isEnabled, cfg)
	if err != nil {
		return updated, err
	}
	s.cache.Invalidate(ctx, cacheKeyPrefix+key)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.flags.Delete(ctx, key); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cacheKeyPrefix+key)
	return nil
}

func (s *Service) List(ctx context.Context) ([]usermodel.FeatureFlag, error) {
	return s.flags.List(ctx)
}

func (s *Service) GetFlag(ctx context.Context, key string) (usermodel.FeatureFlag, error) {
	return s.flags.Get(ctx, key)
}
