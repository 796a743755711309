package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
)

// currentCacheVersion defines the version of the cached payload schema
const currentCacheVersion = 1

// cacheTTL bounds how long a cached result is served.
const cacheTTL = 24 * time.Hour

// CachedRun serves the request from the result cache when possible and runs
// the pipeline otherwise. The boolean reports a cache hit. A nil store runs
// the pipeline directly, as does a store whose data version cannot be read.
func CachedRun(ctx context.Context, p *Pipeline, req schema.AggregationRequest, store contract.CacheStore) (*schema.AggregationResult, bool, error) {
	if store == nil {
		result, err := p.Run(ctx, req)
		return result, false, err
	}

	key, err := p.cacheKey(ctx, req)
	if err != nil {
		// Invalid request or unknown data version: let the pipeline run
		result, err := p.Run(ctx, req)
		return result, false, err
	}

	if result := checkCacheHit(store, key); result != nil {
		result.Metadata.RunID = runIDFromContext(ctx)
		if result.Metadata.RunID == "" {
			result.Metadata.RunID = newRunID()
		}
		return result, true, nil
	}

	result, err := computeAndStore(ctx, p, req, store, key)
	return result, false, err
}

// cacheState is what a cached result depends on besides the request.
type cacheState struct {
	Catalog     string `json:"catalog"`
	Data        string `json:"data"`
	RemarkLimit int    `json:"remark_limit"`
}

// cacheKey reads the data version from the first collaborator that has one
// and hashes it with the request and the pipeline settings.
func (p *Pipeline) cacheKey(ctx context.Context, req schema.AggregationRequest) (string, error) {
	state := cacheState{Catalog: p.Catalog.Version(), RemarkLimit: p.RemarkLimit}
	for _, c := range []any{p.Resolver, p.Values} {
		if v, ok := c.(contract.DataVersioner); ok {
			version, err := v.DataVersion(ctx)
			if err != nil {
				return "", err
			}
			state.Data = version
			break
		}
	}
	return generateCacheKey(req, state)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.AggregationResult {
	data, version, ts, err := store.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil
	}
	if time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	raw, err := contract.Decompress(data)
	if err != nil {
		return nil
	}
	var result schema.AggregationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

// computeAndStore runs the pipeline and stores a successful result.
func computeAndStore(ctx context.Context, p *Pipeline, req schema.AggregationRequest, store contract.CacheStore, key string) (*schema.AggregationResult, error) {
	result, err := p.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(result); err == nil {
		if packed, err := contract.Compress(data); err == nil {
			_ = store.Set(key, packed, currentCacheVersion, time.Now().Unix())
		}
	}
	return result, nil
}

// generateCacheKey hashes the normalized request together with state.
func generateCacheKey(req schema.AggregationRequest, state cacheState) (string, error) {
	if err := ValidateRequest(&req); err != nil {
		return "", err
	}
	req.Scope.PointIDs = slices.Clone(req.Scope.PointIDs)
	slices.Sort(req.Scope.PointIDs)
	req.Scope.PointIDs = slices.Compact(req.Scope.PointIDs)

	payload, err := json.Marshal(struct {
		State   cacheState                `json:"state"`
		Request schema.AggregationRequest `json:"request"`
	}{state, req})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(payload)), nil
}
