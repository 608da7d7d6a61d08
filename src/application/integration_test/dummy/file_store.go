package dummy

import (
	"context"
	"os"
	"stem-separator/src/application/cloud_storage/entity"
	"sync"
)

var _ entity.FileStore = &FileStore{}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		State:       make(map[string][]byte),
	}
}

type FileStore struct {
	Unavailable bool

	lock  sync.Mutex
	State map[string][]byte
}

func (f *FileStore) UploadFile(_ context.Context, url string, localPath string) error {
	if f.Unavailable {
		return NetworkFailure
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	f.State[url] = content

	return nil
}

func (f *FileStore) GetFile(url string) ([]byte, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	content, ok := f.State[url]
	if !ok {
		return nil, NotFound
	}

	return content, nil
}
