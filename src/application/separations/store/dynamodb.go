package store

import (
	"context"
	"stem-separator/src/application/separations/entity"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/config"
	"stem-separator/src/lib/mark"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/guregu/dynamo"
)

const (
	SeparationsTable = "Separations"
	jobNameKey       = "job_name"
)

var _ entity.RecordStore = DynamoDBRecordStore{}

func NewDynamoDBRecordStore(dynamoConfig config.Dynamo) (DynamoDBRecordStore, error) {
	dbSession, err := session.NewSession()
	if err != nil {
		return DynamoDBRecordStore{}, cerr.Wrap(err).Error("Failed to create AWS session")
	}

	var dbConfig *aws.Config

	switch t := dynamoConfig.(type) {
	case config.ProdDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region)

	case config.LocalDynamo:
		dbConfig = aws.NewConfig().
			WithCredentials(credentials.NewStaticCredentials(
				t.AccessKeyID,
				t.SecretAccessKey,
				"",
			)).
			WithRegion(t.Region).
			WithEndpoint(t.Host)

	default:
		return DynamoDBRecordStore{}, cerr.Error("Unexpected dynamo config type")
	}

	return DynamoDBRecordStore{
		db: dynamo.New(dbSession, dbConfig),
	}, nil
}

type DynamoDBRecordStore struct {
	db *dynamo.DB
}

func (d DynamoDBRecordStore) SaveRecord(ctx context.Context, record entity.Record) error {
	err := d.db.Table(SeparationsTable).
		Put(fromEntity(record)).
		RunWithContext(ctx)
	if err != nil {
		return cerr.Field("job_name", record.JobName).
			Wrap(err).Error("Failed to put separation record into DynamoDB")
	}

	return nil
}

func (d DynamoDBRecordStore) GetRecord(ctx context.Context, jobName string) (entity.Record, error) {
	value := dbRecord{}
	err := d.db.Table(SeparationsTable).
		Get(jobNameKey, jobName).
		Consistent(true).
		OneWithContext(ctx, &value)

	if errors.Is(err, dynamo.ErrNotFound) {
		return entity.Record{}, mark.Wrap(err, entity.NotFoundError, "No separation record for this job name")
	}

	if err != nil {
		return entity.Record{}, cerr.Field("job_name", jobName).
			Wrap(err).Error("Failed to get separation record from DynamoDB")
	}

	return value.toEntity(), nil
}
