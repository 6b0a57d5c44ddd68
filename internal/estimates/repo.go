package estimates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/types"
	"gorm.io/gorm"
)

type orderRow struct {
	ID          uuid.UUID       `gorm:"column:id;primaryKey"`
	Status      string          `gorm:"column:status"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount"`
}

func (orderRow) TableName() string {
	return "orders"
}

// SampleReader loads historical order samples for the estimator batch.
type SampleReader struct {
	db *gorm.DB
}

// NewSampleReader builds the reader over the provided connection.
func NewSampleReader(db *gorm.DB) (*SampleReader, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &SampleReader{db: db}, nil
}

// RecentSamples returns every order placed at or after the cutoff, oldest
// first. Rows with malformed amounts are carried with a zero total rather
// than dropped, so a few bad rows cannot starve the batch.
func (r *SampleReader) RecentSamples(ctx context.Context, since time.Time) ([]OrderSample, error) {
	var rows []orderRow
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order samples")
	}

	samples := make([]OrderSample, 0, len(rows))
	for _, row := range rows {
		total, err := types.NewMoney(row.TotalAmount)
		if err != nil {
			total = types.ZeroMoney
		}
		samples = append(samples, OrderSample{
			OrderID:     row.ID,
			Status:      enums.OrderStatus(row.Status),
			CreatedAt:   row.CreatedAt,
			TotalAmount: total,
		})
	}
	return samples, nil
}
