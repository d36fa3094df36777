// Package facade routes every public storage operation to the backend chosen
// by the per-call target resolution and implements the composite operations
// that are more than pass-through: archiving, bulk wipe, cross-backend
// transfer and credential enrichment.
package facade

import (
	"context"
	"os"
	"regexp"

	"github.com/stratoio/objectgate/internal/store"
	"github.com/stratoio/objectgate/internal/target"

	"go.uber.org/zap"
)

// ArchiveBucketName is the fixed infrastructure bucket archived objects move
// into, keyed as "{sourceBucket}/{objectName}".
const ArchiveBucketName = "archive"

// uuidRe matches tenant bucket names. Fixed infrastructure buckets (archive,
// terraform state and friends) do not match and survive bulk wipes.
var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

type Facade struct {
	selfHosted store.Backend
	cloud      store.Backend
	resolve    func() target.Target
	log        *zap.Logger
}

func New(log *zap.Logger) *Facade {
	return NewWithBackends(store.NewSelfHosted(log), store.NewCloud(log), log)
}

// NewWithBackends injects explicit backends; tests use it with fakes.
func NewWithBackends(selfHosted, cloud store.Backend, log *zap.Logger) *Facade {
	return &Facade{
		selfHosted: selfHosted,
		cloud:      cloud,
		resolve:    target.Resolve,
		log:        log,
	}
}

// current picks the backend for this call. The resolution happens on every
// call so a migration can flip the target between requests. A nil return
// means the target is unresolved and the operation degrades to a neutral
// no-op instead of failing.
func (f *Facade) current() store.Backend {
	switch f.resolve() {
	case target.SelfHosted:
		return f.selfHosted
	case target.Cloud:
		return f.cloud
	}
	f.log.Warn("storage target is unresolved, treating operation as no-op")
	return nil
}

func (f *Facade) BucketExists(ctx context.Context, bucket string) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	return b.BucketExists(ctx, bucket)
}

func (f *Facade) CreateBucket(ctx context.Context, bucket string) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	if err := b.CreateBucket(ctx, bucket); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveBucket deletes a bucket. A non-empty bucket is only removed when
// recursive is set, in which case every contained object is deleted first;
// otherwise the bucket is left untouched and the result is false.
func (f *Facade) RemoveBucket(ctx context.Context, bucket string, recursive bool) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	objects, err := b.ListObjects(ctx, bucket, "")
	if err != nil {
		return false, err
	}
	if len(objects) != 0 {
		if !recursive {
			return false, nil
		}
		for _, name := range objects {
			if _, err := b.DeleteObject(ctx, bucket, name); err != nil {
				return false, err
			}
		}
	}
	if err := b.RemoveBucket(ctx, bucket); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Facade) ListBuckets(ctx context.Context) ([]string, error) {
	b := f.current()
	if b == nil {
		return nil, nil
	}
	return b.ListBuckets(ctx)
}

func (f *Facade) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	b := f.current()
	if b == nil {
		return nil, nil
	}
	return b.ListObjects(ctx, bucket, prefix)
}

func (f *Facade) PutObject(ctx context.Context, bucket, name string, data []byte, contentType string) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	if err := b.PutObject(ctx, bucket, name, data, contentType); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Facade) GetObject(ctx context.Context, bucket, name string) ([]byte, error) {
	b := f.current()
	if b == nil {
		return nil, nil
	}
	return b.GetObject(ctx, bucket, name)
}

func (f *Facade) DownloadObject(ctx context.Context, bucket, name, fileType, fileName string) (string, error) {
	b := f.current()
	if b == nil {
		return "", nil
	}
	return b.DownloadObject(ctx, bucket, name, fileType, fileName)
}

func (f *Facade) UploadObject(ctx context.Context, bucket, name, filePath string, force bool) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	return b.UploadObject(ctx, bucket, name, filePath, force)
}

func (f *Facade) DeleteObject(ctx context.Context, bucket, name string) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	return b.DeleteObject(ctx, bucket, name)
}

func (f *Facade) ObjectExists(ctx context.Context, bucket, name string) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	return b.ObjectExists(ctx, bucket, name)
}

func (f *Facade) CopyObject(ctx context.Context, srcBucket, srcName, dstBucket, dstName string) (bool, error) {
	b := f.current()
	if b == nil {
		return false, nil
	}
	if err := b.CopyObject(ctx, srcBucket, srcName, dstBucket, dstName); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Facade) AccessLink(ctx context.Context, bucket, name string) (string, error) {
	b := f.current()
	if b == nil {
		return "", nil
	}
	return b.AccessLink(ctx, bucket, name)
}

func (f *Facade) FileUploadLink(ctx context.Context, bucket, name string) (string, error) {
	b := f.current()
	if b == nil {
		return "", nil
	}
	return b.FileUploadLink(ctx, bucket, name)
}

func (f *Facade) DataUploadLink(ctx context.Context, bucket, name string) (string, map[string]string, error) {
	b := f.current()
	if b == nil {
		return "", nil, nil
	}
	return b.DataUploadLink(ctx, bucket, name)
}

// UploadCredentials brokers temporary upload credentials for the bucket and
// enriches the grant with the bucket name and the caller's task id. With
// onlyEssentials the grant is stripped to its reduced-disclosure subset.
func (f *Facade) UploadCredentials(ctx context.Context, bucket, taskID string, onlyEssentials bool) (*store.Grant, error) {
	b := f.current()
	if b == nil {
		return nil, nil
	}
	grant, err := b.UploadCredentials(ctx, bucket)
	if err != nil {
		return nil, err
	}
	grant.Bucket = bucket
	grant.UploadTaskID = taskID
	if onlyEssentials {
		e := grant.Essentials()
		grant = &e
	}
	return grant, nil
}

// DownloadCredentials brokers temporary download credentials and enriches the
// grant with bucket and object name.
func (f *Facade) DownloadCredentials(ctx context.Context, bucket, object string) (*store.Grant, error) {
	b := f.current()
	if b == nil {
		return nil, nil
	}
	grant, err := b.DownloadCredentials(ctx, bucket, object)
	if err != nil {
		return nil, err
	}
	grant.Bucket = bucket
	grant.ObjectName = object
	return grant, nil
}

// ArchiveBucket moves every object under prefix into the archive bucket,
// keyed "{bucket}/{objectName}", overwriting any previous archive entry.
// With deleteExisting the source objects and finally the emptied source
// bucket are removed. A missing source bucket is a no-op, not an error: an
// empty project has no bucket yet.
func (f *Facade) ArchiveBucket(ctx context.Context, bucket, prefix string, deleteExisting bool) (bool, error) {
	exists, err := f.BucketExists(ctx, bucket)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	archiveExists, err := f.BucketExists(ctx, ArchiveBucketName)
	if err != nil {
		return false, err
	}
	if !archiveExists {
		if _, err := f.CreateBucket(ctx, ArchiveBucketName); err != nil {
			return false, err
		}
	}

	objects, err := f.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return false, err
	}
	for _, name := range objects {
		archiveName := bucket + "/" + name
		taken, err := f.ObjectExists(ctx, ArchiveBucketName, archiveName)
		if err != nil {
			return false, err
		}
		if taken {
			if _, err := f.DeleteObject(ctx, ArchiveBucketName, archiveName); err != nil {
				return false, err
			}
		}
		if _, err := f.CopyObject(ctx, bucket, name, ArchiveBucketName, archiveName); err != nil {
			return false, err
		}
		if deleteExisting {
			if _, err := f.DeleteObject(ctx, bucket, name); err != nil {
				return false, err
			}
		}
	}

	if deleteExisting {
		if _, err := f.RemoveBucket(ctx, bucket, false); err != nil {
			return false, err
		}
	}
	return true, nil
}

// EmptyStorage wipes the storage. It is a pure no-op unless force is set; the
// flag is the safety rail that keeps non-local environments intact. With
// onlyUUID, buckets whose names are not UUIDs (the archive bucket, infra
// buckets) are skipped. Returns the force flag.
func (f *Facade) EmptyStorage(ctx context.Context, force, onlyUUID bool) (bool, error) {
	if !force {
		return false, nil
	}
	buckets, err := f.ListBuckets(ctx)
	if err != nil {
		return false, err
	}
	for _, bucket := range buckets {
		if onlyUUID && !isUUID(bucket) {
			continue
		}
		objects, err := f.ListObjects(ctx, bucket, "")
		if err != nil {
			return false, err
		}
		for _, name := range objects {
			if _, err := f.DeleteObject(ctx, bucket, name); err != nil {
				return false, err
			}
		}
		if _, err := f.RemoveBucket(ctx, bucket, false); err != nil {
			return false, err
		}
	}
	return true, nil
}

// TransferBucketFromSelfHostedToCloud migrates a bucket's objects by
// downloading each to a local temp file and uploading it to the cloud side;
// there is no server-side path between the providers. The loop is sequential
// and not atomic: a failure mid-way leaves the transfer incomplete, and a
// re-run finishes the remaining objects because each step is idempotent or
// conflict-checked. A missing source bucket is a false result with no side
// effects.
func (f *Facade) TransferBucketFromSelfHostedToCloud(ctx context.Context, bucket string, removeFromSource, forceOverwrite bool) (bool, error) {
	exists, err := f.selfHosted.BucketExists(ctx, bucket)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	cloudExists, err := f.cloud.BucketExists(ctx, bucket)
	if err != nil {
		return false, err
	}
	if !cloudExists {
		if err := f.cloud.CreateBucket(ctx, bucket); err != nil {
			return false, err
		}
	}

	objects, err := f.selfHosted.ListObjects(ctx, bucket, "")
	if err != nil {
		return false, err
	}
	for _, name := range objects {
		localPath, err := f.selfHosted.DownloadObject(ctx, bucket, name, "", "")
		if err != nil {
			return false, err
		}
		_, uploadErr := f.cloud.UploadObject(ctx, bucket, name, localPath, forceOverwrite)
		// The local copy is removed unconditionally, success or not.
		_ = os.Remove(localPath)
		if uploadErr != nil {
			return false, uploadErr
		}
		if removeFromSource {
			if _, err := f.selfHosted.DeleteObject(ctx, bucket, name); err != nil {
				return false, err
			}
		}
	}

	if removeFromSource {
		if err := f.selfHosted.RemoveBucket(ctx, bucket); err != nil {
			return false, err
		}
	}
	return true, nil
}

// UploadTokenizerData writes the serialized docbin payload to its
// conventional object name, replacing any previous version.
func (f *Facade) UploadTokenizerData(ctx context.Context, bucket, projectID string, data []byte) (bool, error) {
	objectName := "docbin_full"
	if projectID != "" {
		objectName = projectID + "/" + objectName
	}
	exists, err := f.BucketExists(ctx, bucket)
	if err != nil {
		return false, err
	}
	if !exists {
		if _, err := f.CreateBucket(ctx, bucket); err != nil {
			return false, err
		}
	}
	taken, err := f.ObjectExists(ctx, bucket, objectName)
	if err != nil {
		return false, err
	}
	if taken {
		if _, err := f.DeleteObject(ctx, bucket, objectName); err != nil {
			return false, err
		}
	}
	return f.PutObject(ctx, bucket, objectName, data, "")
}

func isUUID(name string) bool {
	return uuidRe.MatchString(name)
}
