package store

import (
	"stem-separator/src/application/separations/entity"
	"time"
)

type dbRecord struct {
	JobName          string            `dynamo:"job_name,hash"`
	OriginalFilename string            `dynamo:"original_filename"`
	SplitType        string            `dynamo:"split_type"`
	Stems            map[string]string `dynamo:"stems"`
	RemoteStems      map[string]string `dynamo:"remote_stems,omitempty"`
	CreatedAt        time.Time         `dynamo:"created_at"`
	DurationSeconds  float64           `dynamo:"duration_seconds"`
}

func fromEntity(record entity.Record) dbRecord {
	return dbRecord{
		JobName:          record.JobName,
		OriginalFilename: record.OriginalFilename,
		SplitType:        record.SplitType,
		Stems:            record.Stems,
		RemoteStems:      record.RemoteStems,
		CreatedAt:        record.CreatedAt,
		DurationSeconds:  record.DurationSeconds,
	}
}

func (d dbRecord) toEntity() entity.Record {
	return entity.Record{
		JobName:          d.JobName,
		OriginalFilename: d.OriginalFilename,
		SplitType:        d.SplitType,
		Stems:            d.Stems,
		RemoteStems:      d.RemoteStems,
		CreatedAt:        d.CreatedAt,
		DurationSeconds:  d.DurationSeconds,
	}
}
