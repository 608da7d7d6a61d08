package store

import (
	"context"
	"io"
	"os"
	"stem-separator/src/application/cloud_storage/entity"
	"stem-separator/src/lib/cerr"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var _ entity.FileStore = GoogleFileStore{}

type GoogleFileStore struct {
	host          string
	storageClient *storage.Client
}

func NewGoogleFileStore(host string, options ...option.ClientOption) (GoogleFileStore, error) {
	googleStorageClient, err := storage.NewClient(context.Background(), options...)
	if err != nil {
		return GoogleFileStore{}, cerr.Wrap(err).Error("Failed to create Google Cloud Storage client")
	}

	return GoogleFileStore{
		host:          host,
		storageClient: googleStorageClient,
	}, nil
}

func (g GoogleFileStore) UploadFile(ctx context.Context, fileURL string, localPath string) (err error) {
	errctx := cerr.Field("file_url", fileURL).Field("local_path", localPath)

	bucket, filePath, err := g.bucketAndPathFromURL(fileURL)
	if err != nil {
		return errctx.Wrap(err).Error("Couldn't extract file path from URL")
	}

	file, err := os.Open(localPath)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to open local file for upload")
	}
	defer file.Close()

	writer := g.storageClient.Bucket(bucket).Object(filePath).NewWriter(ctx)
	defer func() {
		closeErr := writer.Close()
		if err == nil && closeErr != nil {
			err = errctx.Wrap(closeErr).Error("Error occurred when closing the upload stream")
		}
	}()

	if _, err = io.Copy(writer, file); err != nil {
		return errctx.Wrap(err).Error("Error occurred when uploading file")
	}

	return nil
}

func (g GoogleFileStore) bucketAndPathFromURL(fileURL string) (string, string, error) {
	if !strings.HasPrefix(fileURL, g.host+"/") {
		return "", "", cerr.Error("File path given not in the Google cloud storage format")
	}

	bucketAndPath := strings.TrimPrefix(fileURL, g.host+"/")

	chunks := strings.SplitN(bucketAndPath, "/", 2)
	if len(chunks) != 2 {
		return "", "", cerr.Error("File path given not in the Google cloud storage format")
	}

	return chunks[0], chunks[1], nil
}
