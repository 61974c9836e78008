package customfield

import (
	"context"
)

// RecordService owns the values stored for custom fields on business records.
type RecordService interface {
	// DeleteAllValues removes every value of the definition.
	DeleteAllValues(ctx context.Context, tenantID string, d *Definition) error

	// DeleteOptionValues removes references to deleted options and applies
	// the new default options where records relied on removed ones.
	DeleteOptionValues(ctx context.Context, tenantID, refID string, removedOptionIDs, newDefaultIDs []string) error

	// RetrieveStatistic counts records that carry a value for the definition.
	RetrieveStatistic(ctx context.Context, tenantID string, d *Definition) (int64, error)

	// RetrieveOptionStatistic counts records that selected the option.
	RetrieveOptionStatistic(ctx context.Context, tenantID string, d *Definition, optionID string) (int64, error)
}

// NoOpRecordService is used when no record store is attached.
// Deletions succeed and counts are zero.
type NoOpRecordService struct{}

func (NoOpRecordService) DeleteAllValues(context.Context, string, *Definition) error {
	return nil
}

func (NoOpRecordService) DeleteOptionValues(context.Context, string, string, []string, []string) error {
	return nil
}

func (NoOpRecordService) RetrieveStatistic(context.Context, string, *Definition) (int64, error) {
	return 0, nil
}

func (NoOpRecordService) RetrieveOptionStatistic(context.Context, string, *Definition, string) (int64, error) {
	return 0, nil
}

var _ RecordService = NoOpRecordService{}

// Statistic is the usage count of a definition.
type Statistic struct {
	FieldID    string `json:"fieldId"`
	EntityType string `json:"entityType"`
	Count      int64  `json:"count"`
}

// OptionStatistic is the usage count of one option.
type OptionStatistic struct {
	OptionID      string `json:"optionId"`
	CustomFieldID string `json:"customFieldId"`
	EntityType    string `json:"entityType"`
	Count         int64  `json:"count"`
}
