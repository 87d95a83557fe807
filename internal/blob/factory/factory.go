// Package factory selects a blob store backend from the environment.
package factory

import (
	"context"
	"fmt"
	"os"

	"halomock/internal/blob"
	"halomock/internal/blob/fs"
	"halomock/internal/blob/memory"
	"halomock/internal/blob/s3"
)

// Open selects a blob.Store implementation using environment variables.
//
//	HALOMOCK_BLOB_DRIVER: fs|s3|memory (default fs)
//	HALOMOCK_BLOB_FS_ROOT: directory root when driver=fs (default ./exportdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (blob.Store, error) {
	driver := os.Getenv("HALOMOCK_BLOB_DRIVER")
	if driver == "" {
		driver = string(blob.DriverFilesystem)
	}
	switch blob.Driver(driver) {
	case blob.DriverFilesystem:
		root := os.Getenv("HALOMOCK_BLOB_FS_ROOT")
		return fs.New(root)
	case blob.DriverS3:
		return s3.OpenFromEnv(ctx)
	case blob.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
