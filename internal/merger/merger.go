// Package merger reconciles freshly parsed toll records against the stored
// dataset.
//
// Exports from the ETC usage inquiry service overlap: a re-download covers
// trips already imported, and trips first seen with tentative charges show
// up again once the toll operator settles them. The merger deduplicates on
// the natural trip key and upgrades tentative records in place, so importing
// the same file twice is harmless.
package merger

import (
	"fmt"

	"github.com/google/uuid"

	"commute-ledger/internal/models"
	"commute-ledger/pkg/logger"
)

// MergeResult counts the outcome of one merge. Every incoming record lands
// in exactly one bucket, so Added+Skipped+Updated equals the batch size.
type MergeResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Updated int `json:"updated"`
}

// Total returns the number of incoming records accounted for
func (r *MergeResult) Total() int {
	return r.Added + r.Skipped + r.Updated
}

// Dirty reports whether the merge changed the dataset and it must be saved
func (r *MergeResult) Dirty() bool {
	return r.Added > 0 || r.Updated > 0
}

// String returns a human-readable summary of the merge outcome
func (r *MergeResult) String() string {
	return fmt.Sprintf("added %d, updated %d, skipped %d", r.Added, r.Updated, r.Skipped)
}

// Merger merges incoming toll record batches into an existing dataset
type Merger struct {
	logger logger.Logger
}

// NewMerger creates a new Merger
func NewMerger() *Merger {
	return &Merger{
		logger: logger.GetGlobalLogger().WithComponent("merger"),
	}
}

// Merge folds an incoming batch into the existing dataset and returns the
// merged dataset plus outcome counts. The existing slice is not modified;
// matched records are replaced by updated copies.
//
// Per incoming record, exactly one of:
//   - no existing record shares its natural key: insert with a fresh ID
//   - the existing record is not finalized and the incoming one is:
//     upgrade in place, overwriting fees, discount and status but keeping
//     the stored ID
//   - otherwise: skip. A finalized record never reverts to tentative and
//     is never overwritten by a second finalized import.
func (m *Merger) Merge(existing, incoming []*models.TollRecord) ([]*models.TollRecord, *MergeResult) {
	result := &MergeResult{}

	merged := make([]*models.TollRecord, len(existing))
	index := make(map[models.TollKey]int, len(existing))
	for i, record := range existing {
		merged[i] = record
		index[record.Key()] = i
	}

	for _, record := range incoming {
		pos, found := index[record.Key()]
		if !found {
			inserted := *record
			if inserted.ID == "" {
				inserted.ID = uuid.NewString()
			}
			index[inserted.Key()] = len(merged)
			merged = append(merged, &inserted)
			result.Added++
			continue
		}

		current := merged[pos]
		if !current.Status.IsFinalized() && record.Status.IsFinalized() {
			upgraded := *current
			upgraded.TollFee = record.TollFee
			upgraded.ActualPayment = record.ActualPayment
			upgraded.Discount = record.Discount
			upgraded.Status = models.StatusFinalized
			merged[pos] = &upgraded
			result.Updated++

			m.logger.WithFields(logger.Fields{
				"id":         upgraded.ID,
				"entry_time": upgraded.EntryTime.Format(models.TimeLayout),
				"toll_fee":   upgraded.TollFee,
			}).Debug("Record finalized")
			continue
		}

		result.Skipped++
	}

	m.logger.WithFields(logger.Fields{
		"existing": len(existing),
		"incoming": len(incoming),
		"added":    result.Added,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	}).Info("Merge completed")

	return merged, result
}
