package entity

import "context"

type FileStore interface {
	UploadFile(ctx context.Context, url string, localPath string) error
}
