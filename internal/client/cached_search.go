package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/trendhijack/trendhijack-back/internal/cache"
)

// CachedSearcher memoizes successful search responses so repeated topic
// queries within the cache TTL do not consume provider quota.
type CachedSearcher struct {
	inner  Searcher
	cache  cache.Cache
	logger *slog.Logger
}

func NewCachedSearcher(inner Searcher, store cache.Cache, logger *slog.Logger) *CachedSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSearcher{
		inner:  inner,
		cache:  store,
		logger: logger,
	}
}

func (s *CachedSearcher) Available() bool {
	return s.inner.Available()
}

func (s *CachedSearcher) Search(ctx context.Context, request SearchRequest) (SearchResponse, error) {
	key := cache.BuildSignature(
		request.Query,
		request.SearchDepth,
		strconv.Itoa(request.MaxResults),
		strings.Join(request.IncludeDomains, ","),
	)

	if raw, hit := s.cache.Get(ctx, key); hit {
		var cached SearchResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		s.logger.Warn("discarding corrupt search cache entry", slog.String("key", key))
	}

	response, err := s.inner.Search(ctx, request)
	if err != nil {
		return SearchResponse{}, err
	}

	if encoded, encodeErr := json.Marshal(response); encodeErr == nil {
		s.cache.Set(ctx, key, encoded)
	}
	return response, nil
}
