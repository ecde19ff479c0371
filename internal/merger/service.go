package merger

import (
	"commute-ledger/internal/models"
	"commute-ledger/internal/store"
	"commute-ledger/pkg/logger"
)

// Service runs the load-merge-save cycle against a record store
type Service struct {
	store  store.Store
	merger *Merger
	logger logger.Logger
}

// NewService creates a merge service over the given store
func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		merger: NewMerger(),
		logger: logger.GetGlobalLogger().WithComponent("merge_service"),
	}
}

// Import merges a parsed batch into the stored dataset. The store is only
// written when the merge added or updated records; with dryRun set it is
// never written, and the result shows what a real import would do.
func (s *Service) Import(records []*models.TollRecord, dryRun bool) (*MergeResult, error) {
	existing, err := s.store.LoadTollRecords()
	if err != nil {
		return nil, err
	}

	merged, result := s.merger.Merge(existing, records)

	if dryRun {
		s.logger.WithField("would_save", result.Dirty()).Info("Dry run, store not written")
		return result, nil
	}

	if !result.Dirty() {
		s.logger.Debug("No changes, skipping save")
		return result, nil
	}

	if err := s.store.SaveTollRecords(merged); err != nil {
		return nil, err
	}

	return result, nil
}
