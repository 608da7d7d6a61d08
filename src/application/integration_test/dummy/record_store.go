package dummy

import (
	"context"
	"stem-separator/src/application/separations/entity"
	"stem-separator/src/lib/mark"
	"sync"
)

var _ entity.RecordStore = &RecordStore{}

func NewDummyRecordStore() *RecordStore {
	return &RecordStore{
		Unavailable: false,
		State:       make(map[string]entity.Record),
	}
}

type RecordStore struct {
	Unavailable bool

	lock  sync.Mutex
	State map[string]entity.Record
}

func (r *RecordStore) SaveRecord(_ context.Context, record entity.Record) error {
	if r.Unavailable {
		return NetworkFailure
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.State[record.JobName] = record

	return nil
}

func (r *RecordStore) GetRecord(_ context.Context, jobName string) (entity.Record, error) {
	if r.Unavailable {
		return entity.Record{}, NetworkFailure
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	record, ok := r.State[jobName]
	if !ok {
		return entity.Record{}, mark.Wrap(NotFound, entity.NotFoundError, "No record")
	}

	return record, nil
}
