// Package store implements the two storage backend adapters behind a single
// Backend interface: a self-hosted MinIO deployment and a cloud object store.
// Both share one S3-compatible data plane (minio-go) and broker temporary
// scoped credentials through an STS AssumeRole sub-call.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
)

// Backend is the capability set both storage variants satisfy identically.
// Not-found conditions are normal negative results (false / nil / empty), not
// errors; anything else the provider reports propagates unchanged.
type Backend interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
	RemoveBucket(ctx context.Context, bucket string) error
	ListBuckets(ctx context.Context) ([]string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)

	PutObject(ctx context.Context, bucket, name string, data []byte, contentType string) error
	GetObject(ctx context.Context, bucket, name string) ([]byte, error)
	DownloadObject(ctx context.Context, bucket, name, fileType, fileName string) (string, error)
	UploadObject(ctx context.Context, bucket, name, filePath string, force bool) (bool, error)
	DeleteObject(ctx context.Context, bucket, name string) (bool, error)
	ObjectExists(ctx context.Context, bucket, name string) (bool, error)
	CopyObject(ctx context.Context, srcBucket, srcName, dstBucket, dstName string) error

	AccessLink(ctx context.Context, bucket, name string) (string, error)
	FileUploadLink(ctx context.Context, bucket, name string) (string, error)
	DataUploadLink(ctx context.Context, bucket, name string) (string, map[string]string, error)

	UploadCredentials(ctx context.Context, bucket string) (*Grant, error)
	DownloadCredentials(ctx context.Context, bucket, object string) (*Grant, error)
}

// ErrNotConnected is returned when the required endpoint or credential
// environment is absent at first client use.
var ErrNotConnected = errors.New("object storage is not connected; check endpoint and credential configuration")

// ErrRegionNotSet guards cloud bucket creation, which hard-requires a region.
var ErrRegionNotSet = errors.New("target region is not set for bucket creation on the cloud backend")

// ConflictError is raised when an upload targets an already-taken object name
// without force.
type ConflictError struct {
	Bucket string
	Object string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("object name %q in bucket %q is already taken; use force to overwrite", e.Object, e.Bucket)
}

// NotFoundError is raised only where a missing object is genuine misuse, e.g.
// presigning a download link for an object that does not exist.
type NotFoundError struct {
	Bucket string
	Object string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %q couldn't be found in bucket %q", e.Object, e.Bucket)
}

// isNoSuchKey reports whether err is the provider's object-not-found response.
// Only this specific code maps to a negative result; everything else is a real
// error for the caller.
func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// tmpFileName returns the deterministic local name used when a download does
// not specify one.
func tmpFileName(fileType string) string {
	return "tmpfile." + fileType
}

// normalizeEndpoint strips an optional scheme from an endpoint and lets the
// scheme override the secure flag; minio-go wants a bare host:port.
func normalizeEndpoint(endpoint string, secure bool) (string, bool) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if u, err := url.Parse(endpoint); err == nil {
			return u.Host, u.Scheme == "https"
		}
	}
	return endpoint, secure
}
