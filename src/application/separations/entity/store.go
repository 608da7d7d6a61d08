package entity

import (
	"context"

	"github.com/cockroachdb/errors"
)

var NotFoundError = errors.New("separation record not found")

type RecordStore interface {
	SaveRecord(ctx context.Context, record Record) error
	GetRecord(ctx context.Context, jobName string) (Record, error)
}
