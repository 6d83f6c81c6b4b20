package storage

import "stableJoin/internal/model"

// Storage defines a sink for built join records.
type Storage interface {
	PutJoinBatch(records []model.JoinRecord) error
}
