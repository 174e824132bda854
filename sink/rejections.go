package sink

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// Rejection is a quarantined record. The source position is unique, so a
// redelivered rejection is stored once.
type Rejection struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	BatchID   string         `gorm:"column:batch_id;type:varchar(36);index"`
	Topic     string         `gorm:"column:topic;type:varchar(128);not null;uniqueIndex:idx_rejection_position"`
	Partition int32          `gorm:"column:source_partition;not null;uniqueIndex:idx_rejection_position"`
	Offset    int64          `gorm:"column:source_offset;not null;uniqueIndex:idx_rejection_position"`
	Phase     string         `gorm:"column:phase;type:varchar(16);not null"`
	Field     string         `gorm:"column:field;type:varchar(64)"`
	Reason    string         `gorm:"column:reason;type:text;not null"`
	Missing   datatypes.JSON `gorm:"column:missing"`
	Payload   []byte         `gorm:"column:payload"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Rejection) TableName() string { return "ingest_rejections" }

// SaveRejections stores quarantined records, skipping positions already stored.
func (d *DB) SaveRejections(ctx context.Context, rows []Rejection) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.WriteTimeout)
	defer cancel()

	err := d.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "topic"}, {Name: "source_partition"}, {Name: "source_offset"}},
				DoNothing: true,
			},
		).
		Create(&rows).Error
	if err != nil {
		return &WriteError{Table: Rejection{}.TableName(), Rows: len(rows), Cause: err}
	}
	return nil
}

// Rejections returns stored rejections for topic, oldest first.
func (d *DB) Rejections(ctx context.Context, topic string) ([]Rejection, error) {
	var rows []Rejection
	if err := d.db.WithContext(ctx).Where("topic = ?", topic).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	return rows, nil
}
