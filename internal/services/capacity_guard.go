package services

import (
	"gorm.io/gorm"

	"github.com/atelierhaus/portfolio-backend/internal/models"
)

// MaxProjectAssets is the hard cap of active assets per project.
const MaxProjectAssets = 5

// CapacityGuard enforces the per-project cap. A project is a derived grouping
// over assets with no row of its own, so capacity is always computed by live
// aggregation and never cached. Both checks run inside the caller's
// transaction.
type CapacityGuard struct{}

func NewCapacityGuard() *CapacityGuard {
	return &CapacityGuard{}
}

func (g *CapacityGuard) activeCount(tx *gorm.DB, projectID int) (int64, error) {
	var count int64
	err := tx.Model(&models.Asset{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Count(&count).Error
	if err != nil {
		return 0, storeError(err, "failed to count project images")
	}
	return count, nil
}

// CheckCapacity fails when adding incoming assets would push the project past
// the cap. Used on create.
func (g *CapacityGuard) CheckCapacity(tx *gorm.DB, projectID, incoming int) error {
	count, err := g.activeCount(tx, projectID)
	if err != nil {
		return err
	}
	if count+int64(incoming) > MaxProjectAssets {
		return newError(KindCapacityExceeded,
			"cannot add %d more images: project %d already has %d, maximum allowed is %d",
			incoming, projectID, count, MaxProjectAssets)
	}
	return nil
}

// CheckReassignCapacity guards moving a single asset into another project.
// Only the target's current count is checked, a deliberately looser bound
// than the create path.
func (g *CapacityGuard) CheckReassignCapacity(tx *gorm.DB, targetProjectID int) error {
	count, err := g.activeCount(tx, targetProjectID)
	if err != nil {
		return err
	}
	if count >= MaxProjectAssets {
		return newError(KindCapacityExceeded,
			"project %d already has the maximum of %d images", targetProjectID, MaxProjectAssets)
	}
	return nil
}
