package migration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ContractArchive stores rendered Pact documents by contract path.
type ContractArchive interface {
	Save(ctx context.Context, contractPath string, document []byte) error
	Load(ctx context.Context, contractPath string) ([]byte, error)
}

// DirArchive keeps documents below a local directory. Contract paths are
// resolved inside the root, so "../x.json" cannot escape it.
type DirArchive struct {
	root string
}

// NewDirArchive returns an archive rooted at dir.
func NewDirArchive(dir string) *DirArchive {
	return &DirArchive{root: dir}
}

func (a *DirArchive) file(contractPath string) string {
	return filepath.Join(a.root, filepath.FromSlash(cleanKey(contractPath)))
}

func (a *DirArchive) Save(ctx context.Context, contractPath string, document []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file := a.file(contractPath)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("failed to create contract directory: %w", err)
	}
	return os.WriteFile(file, document, 0o644)
}

func (a *DirArchive) Load(ctx context.Context, contractPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(a.file(contractPath))
}

// ObjectStore is the subset of an object storage client the archive needs.
// *minio.MinioClient implements it.
type ObjectStore interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size ...int64) (int64, error)
	Get(ctx context.Context, objectKey string) ([]byte, error)
}

// ObjectArchive keeps documents in an object store, keyed by the cleaned contract path.
type ObjectArchive struct {
	store ObjectStore
}

// NewObjectArchive returns an archive backed by store.
func NewObjectArchive(store ObjectStore) *ObjectArchive {
	return &ObjectArchive{store: store}
}

func (a *ObjectArchive) Save(ctx context.Context, contractPath string, document []byte) error {
	_, err := a.store.Put(ctx, cleanKey(contractPath), bytes.NewReader(document), int64(len(document)))
	return err
}

func (a *ObjectArchive) Load(ctx context.Context, contractPath string) ([]byte, error) {
	return a.store.Get(ctx, cleanKey(contractPath))
}

// cleanKey turns "./pacts/a.json" or "/pacts/../a.json" into a relative slash path.
func cleanKey(contractPath string) string {
	return strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(contractPath)), "/")
}
