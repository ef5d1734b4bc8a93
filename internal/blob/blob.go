// Package blob wraps the photo storage backends behind a single entry
// point. Other packages depend on the Store interface from here and never
// import the infra implementations directly.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"

	"medcabinet/internal/blob/core"
	"medcabinet/internal/infra/blob/fs"
	"medcabinet/internal/infra/blob/memory"
	"medcabinet/internal/infra/blob/s3"
)

type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var ErrUnsupported = core.ErrUnsupported

// NewMemory returns an in-memory photo store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a filesystem photo store rooted at root.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// Open selects a photo Store implementation using environment variables.
//
//	MEDCABINET_BLOB_DRIVER: fs|s3|memory (default fs)
//	MEDCABINET_BLOB_FS_ROOT: directory root when driver=fs (default ./photodata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("MEDCABINET_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(os.Getenv("MEDCABINET_BLOB_FS_ROOT"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// PhotoKey builds the object key for a medication label photo. Keys group
// all photos of one medication under a common prefix so PhotoPrefix can
// list and delete them together.
func PhotoKey(medicationID, name string) string {
	return fmt.Sprintf("medications/%s/%s", medicationID, name)
}

// PhotoPrefix returns the listing prefix covering every photo attached to
// the medication.
func PhotoPrefix(medicationID string) string {
	return fmt.Sprintf("medications/%s/", medicationID)
}

// ReplacePhoto stores a photo at key, removing any existing object first.
// Put is create-only across all drivers, so retakes go through here.
func ReplacePhoto(ctx context.Context, store Store, key string, r io.Reader, opts PutOptions) (Info, error) {
	if _, err := store.Delete(ctx, key); err != nil {
		return Info{}, fmt.Errorf("replace photo %s: %w", key, err)
	}
	return store.Put(ctx, key, r, opts)
}
