package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/internal/iocache"
	"github.com/worldfishcenter/landings/schema"
)

// currentCacheVersion defines the version of the snapshot schema
const currentCacheVersion = 1

// cachedRecords returns every record of the source, consulting the durable
// snapshot store before falling back to the source itself.
func (s *DataService) cachedRecords(ctx context.Context) ([]schema.MetricRecord, error) {
	store := s.snapshotStore()
	if store == nil {
		// Fallback to direct fetch
		return s.source.Records(ctx)
	}

	key := snapshotKey(s.source)

	// Check for cache hit
	if records := s.checkCacheHit(store, key); records != nil {
		return records, nil
	}

	// Cache miss: fetch and store
	return s.fetchAndStore(ctx, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached snapshot
func (s *DataService) checkCacheHit(store contract.CacheStore, key string) []schema.MetricRecord {
	data, version, ts, err := store.Get(key)
	if err != nil {
		if !iocache.IsMiss(err) {
			s.log.Warn("snapshot lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return nil
	}
	if s.now().Sub(time.Unix(ts, 0)) >= s.bulkTTL {
		return nil
	}

	var records []schema.MetricRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("discarding unreadable snapshot", zap.String("key", key), zap.Error(err))
		return nil
	}
	s.log.Debug("snapshot cache hit", zap.String("key", key), zap.Int("records", len(records)))
	return records
}

// fetchAndStore fetches the records and stores them as a snapshot
func (s *DataService) fetchAndStore(ctx context.Context, store contract.CacheStore, key string) ([]schema.MetricRecord, error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := store.Set(key, data, currentCacheVersion, s.now().Unix()); err != nil {
			s.log.Warn("failed to store snapshot", zap.String("key", key), zap.Error(err))
		}
	}

	return records, nil
}

// snapshotKey identifies a source's snapshot. Sources that can name where they
// read from get a key per location, so two data directories never share a snapshot.
func snapshotKey(source contract.MetricSource) string {
	if l, ok := source.(interface{ Location() string }); ok && l.Location() != "" {
		return fmt.Sprintf("records-%s@%s", source.Kind(), l.Location())
	}
	return fmt.Sprintf("records-%s", source.Kind())
}

func (s *DataService) snapshotStore() contract.CacheStore {
	if s.mgr == nil {
		return nil
	}
	return s.mgr.GetSnapshotStore()
}

func (s *DataService) historyStore() contract.HistoryStore {
	if s.mgr == nil {
		return nil
	}
	return s.mgr.GetHistoryStore()
}

// recordHistory writes a run and its points. Failures are logged, never returned.
func (s *DataService) recordHistory(start time.Time, site string, metric schema.MetricTag, points []schema.TimeSeriesPoint) {
	history := s.historyStore()
	if history == nil {
		return
	}
	log := s.log.With(zap.String("site", site), zap.String("metric", string(metric)))

	runID, err := history.BeginRun(start, site, metric, s.source.Kind())
	if err != nil {
		log.Warn("failed to begin history run", zap.Error(err))
		return
	}
	if err := history.RecordPoints(runID, site, metric, points); err != nil {
		log.Warn("failed to record history points", zap.Int64("run_id", runID), zap.Error(err))
	}
	if err := history.EndRun(runID, s.now(), len(points)); err != nil {
		log.Warn("failed to end history run", zap.Int64("run_id", runID), zap.Error(err))
	}
}
