package store

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"

	"go.uber.org/zap"
)

const (
	accessLinkExpiry = 1 * time.Hour
	uploadLinkExpiry = 12 * time.Hour
)

// s3Backend is the shared adapter core. The two variants configure it with
// their own connect, bucket-creation and credential-brokering hooks; every
// other operation is identical against the S3-compatible data plane.
//
// The client is built lazily on first use and reused process-wide. Reset
// drops it so a forced credential rotation picks up fresh environment state.
type s3Backend struct {
	mu  sync.Mutex
	mc  *minio.Client
	log *zap.Logger

	connect       func() (*minio.Client, error)
	makeBucket    func(ctx context.Context, mc *minio.Client, bucket string) error
	uploadGrant   func(ctx context.Context, bucket string) (Credentials, error)
	downloadGrant func(ctx context.Context, bucket, object string) (Credentials, error)
}

func (b *s3Backend) client() (*minio.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mc != nil {
		return b.mc, nil
	}
	mc, err := b.connect()
	if err != nil {
		return nil, err
	}
	b.mc = mc
	return mc, nil
}

// Reset drops the cached client; the next call reconnects with whatever the
// environment holds then.
func (b *s3Backend) Reset() {
	b.mu.Lock()
	b.mc = nil
	b.mu.Unlock()
	b.log.Debug("storage client reset, next call reconnects")
}

func (b *s3Backend) BucketExists(ctx context.Context, bucket string) (bool, error) {
	mc, err := b.client()
	if err != nil {
		return false, err
	}
	return mc.BucketExists(ctx, bucket)
}

func (b *s3Backend) CreateBucket(ctx context.Context, bucket string) error {
	mc, err := b.client()
	if err != nil {
		return err
	}
	return b.makeBucket(ctx, mc, bucket)
}

// RemoveBucket deletes a bucket. The provider rejects the call when the bucket
// is non-empty; pre-emptying is the facade's job.
func (b *s3Backend) RemoveBucket(ctx context.Context, bucket string) error {
	mc, err := b.client()
	if err != nil {
		return err
	}
	return mc.RemoveBucket(ctx, bucket)
}

func (b *s3Backend) ListBuckets(ctx context.Context) ([]string, error) {
	mc, err := b.client()
	if err != nil {
		return nil, err
	}
	infos, err := mc.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, bi := range infos {
		names = append(names, bi.Name)
	}
	return names, nil
}

// ListObjects returns the object names under prefix, always recursive.
func (b *s3Backend) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	mc, err := b.client()
	if err != nil {
		return nil, err
	}
	var names []string
	for obj := range mc.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, obj.Key)
	}
	return names, nil
}

// ensureBucket creates the bucket when absent, via the variant's own creation
// path so region requirements and notification hooks apply.
func (b *s3Backend) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := b.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return b.CreateBucket(ctx, bucket)
}

// PutObject stores data under (bucket, name), creating the bucket when absent
// and fully overwriting any existing object.
func (b *s3Backend) PutObject(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	mc, err := b.client()
	if err != nil {
		return err
	}
	if err := b.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	_, err = mc.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

// GetObject returns the object's bytes, or nil when the bucket does not exist
// yet: an empty project has no bucket, and that is not an error.
func (b *s3Backend) GetObject(ctx context.Context, bucket, name string) ([]byte, error) {
	mc, err := b.client()
	if err != nil {
		return nil, err
	}
	exists, err := b.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	obj, err := mc.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// DownloadObject writes the object to the local file system and returns the
// path. Without an explicit name it uses the deterministic temp name and
// overwrites whatever sits there. Missing bucket yields an empty path.
func (b *s3Backend) DownloadObject(ctx context.Context, bucket, name, fileType, fileName string) (string, error) {
	mc, err := b.client()
	if err != nil {
		return "", err
	}
	exists, err := b.BucketExists(ctx, bucket)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}
	if fileName == "" {
		fileName = tmpFileName(fileType)
	}
	_ = os.Remove(fileName)
	if err := mc.FGetObject(ctx, bucket, name, fileName, minio.GetObjectOptions{}); err != nil {
		return "", err
	}
	return fileName, nil
}

// UploadObject stores a local file under (bucket, name). An already-taken name
// raises a ConflictError unless force is set, in which case the existing
// object is deleted first. Delete-then-put is not atomic: a concurrent reader
// can observe a momentary absence. A missing bucket or source file is a false
// result, not an error.
func (b *s3Backend) UploadObject(ctx context.Context, bucket, name, filePath string, force bool) (bool, error) {
	mc, err := b.client()
	if err != nil {
		return false, err
	}
	exists, err := b.BucketExists(ctx, bucket)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	taken, err := b.ObjectExists(ctx, bucket, name)
	if err != nil {
		return false, err
	}
	if taken {
		if !force {
			return false, &ConflictError{Bucket: bucket, Object: name}
		}
		if _, err := b.DeleteObject(ctx, bucket, name); err != nil {
			return false, err
		}
	}
	if _, err := os.Stat(filePath); err != nil {
		return false, nil
	}
	if _, err := mc.FPutObject(ctx, bucket, name, filePath, minio.PutObjectOptions{}); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteObject removes the object and reports whether it existed. Deleting a
// non-existent object is an idempotent no-op.
func (b *s3Backend) DeleteObject(ctx context.Context, bucket, name string) (bool, error) {
	exists, err := b.ObjectExists(ctx, bucket, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	mc, err := b.client()
	if err != nil {
		return false, err
	}
	if err := mc.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return false, err
	}
	return true, nil
}

// ObjectExists probes the object's metadata. Only the provider's not-found
// code maps to false; any other error propagates unchanged.
func (b *s3Backend) ObjectExists(ctx context.Context, bucket, name string) (bool, error) {
	mc, err := b.client()
	if err != nil {
		return false, err
	}
	if _, err := mc.StatObject(ctx, bucket, name, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CopyObject performs a server-side copy; the bytes never transit this process.
func (b *s3Backend) CopyObject(ctx context.Context, srcBucket, srcName, dstBucket, dstName string) error {
	mc, err := b.client()
	if err != nil {
		return err
	}
	_, err = mc.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dstBucket, Object: dstName},
		minio.CopySrcOptions{Bucket: srcBucket, Object: srcName})
	return err
}

// AccessLink presigns a GET on an existing object, valid for one hour, with
// the response content type pinned to application/json.
func (b *s3Backend) AccessLink(ctx context.Context, bucket, name string) (string, error) {
	mc, err := b.client()
	if err != nil {
		return "", err
	}
	exists, err := b.ObjectExists(ctx, bucket, name)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &NotFoundError{Bucket: bucket, Object: name}
	}
	params := make(url.Values)
	params.Set("response-content-type", "application/json")
	u, err := mc.PresignedGetObject(ctx, bucket, name, accessLinkExpiry, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// FileUploadLink presigns a PUT for the object, valid for twelve hours,
// creating the bucket when absent.
func (b *s3Backend) FileUploadLink(ctx context.Context, bucket, name string) (string, error) {
	mc, err := b.client()
	if err != nil {
		return "", err
	}
	if err := b.ensureBucket(ctx, bucket); err != nil {
		return "", err
	}
	u, err := mc.PresignedPutObject(ctx, bucket, name, uploadLinkExpiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// DataUploadLink presigns a POST form upload for the object, valid for twelve
// hours, creating the bucket when absent. The returned map holds the form
// fields the upload must carry.
func (b *s3Backend) DataUploadLink(ctx context.Context, bucket, name string) (string, map[string]string, error) {
	mc, err := b.client()
	if err != nil {
		return "", nil, err
	}
	if err := b.ensureBucket(ctx, bucket); err != nil {
		return "", nil, err
	}
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(bucket); err != nil {
		return "", nil, err
	}
	if err := policy.SetKey(name); err != nil {
		return "", nil, err
	}
	if err := policy.SetExpires(time.Now().UTC().Add(uploadLinkExpiry)); err != nil {
		return "", nil, err
	}
	u, formData, err := mc.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return "", nil, err
	}
	return u.String(), formData, nil
}

// UploadCredentials issues temporary credentials restricted to upload-side
// actions on the bucket, creating the bucket when absent.
func (b *s3Backend) UploadCredentials(ctx context.Context, bucket string) (*Grant, error) {
	if err := b.ensureBucket(ctx, bucket); err != nil {
		return nil, err
	}
	c, err := b.uploadGrant(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return &Grant{Credentials: c}, nil
}

// DownloadCredentials issues temporary read credentials, creating the bucket
// when absent. Scoping differs per variant: the cloud grant covers only the
// single object, the self-hosted grant the whole bucket.
func (b *s3Backend) DownloadCredentials(ctx context.Context, bucket, object string) (*Grant, error) {
	if err := b.ensureBucket(ctx, bucket); err != nil {
		return nil, err
	}
	c, err := b.downloadGrant(ctx, bucket, object)
	if err != nil {
		return nil, err
	}
	return &Grant{Credentials: c}, nil
}

// SelfHosted adapts the self-hosted MinIO deployment.
type SelfHosted struct {
	s3Backend
}

// selfHostedSpec is shared by upload and download issuance: MinIO ignores the
// role identity and only honors the inline policy and duration.
var selfHostedSpec = assumeSpec{
	roleArn:     "arn:x:ignored:by:minio:",
	sessionName: "ignored-by-minio",
	duration:    12000 * time.Second,
}

func NewSelfHosted(log *zap.Logger) *SelfHosted {
	b := &SelfHosted{}
	b.log = log
	b.connect = func() (*minio.Client, error) {
		endpoint := os.Getenv("S3_ENDPOINT_LOCAL")
		accessKey := os.Getenv("S3_ACCESS_KEY")
		secretKey := os.Getenv("S3_SECRET_KEY")
		if endpoint == "" || accessKey == "" || secretKey == "" {
			return nil, ErrNotConnected
		}
		host, secure := normalizeEndpoint(endpoint, false)
		return minio.New(host, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: secure,
		})
	}
	b.makeBucket = func(ctx context.Context, mc *minio.Client, bucket string) error {
		if err := mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		// Register the webhook queue so object creation events fan out.
		queue := notification.NewConfig(notification.NewArn("minio", "sqs", "", "_", "webhook"))
		queue.ID = "1"
		queue.AddEvents(notification.ObjectCreatedAll)
		cfg := notification.Configuration{}
		cfg.AddQueue(queue)
		return mc.SetBucketNotification(ctx, bucket, cfg)
	}
	b.uploadGrant = func(ctx context.Context, bucket string) (Credentials, error) {
		return selfHostedBroker().assumeRole(ctx, selfHostedSpec, uploadPolicy(bucket))
	}
	b.downloadGrant = func(ctx context.Context, bucket, _ string) (Credentials, error) {
		return selfHostedBroker().assumeRole(ctx, selfHostedSpec, downloadBucketPolicy(bucket))
	}
	return b
}

// selfHostedBroker points at the STS emulation of the self-hosted store,
// which can live behind a different endpoint than the data plane.
func selfHostedBroker() stsBroker {
	return stsBroker{
		endpoint:  os.Getenv("S3_ENDPOINT"),
		region:    "eu-west-1",
		accessKey: os.Getenv("S3_ACCESS_KEY"),
		secretKey: os.Getenv("S3_SECRET_KEY"),
	}
}

// Cloud adapts the cloud object-storage provider through the same
// S3-compatible data plane.
type Cloud struct {
	s3Backend
}

func NewCloud(log *zap.Logger) *Cloud {
	b := &Cloud{}
	b.log = log
	b.connect = func() (*minio.Client, error) {
		if t := os.Getenv("S3_TARGET"); t != "AWS" {
			// Lite check only, no error: during a migration from one target
			// to the other both clients may legitimately be needed.
			log.Warn("storage target is not set to the cloud backend", zap.String("target", t))
		}
		endpoint := os.Getenv("S3_AWS_ENDPOINT")
		region := os.Getenv("S3_AWS_REGION")
		accessKey := os.Getenv("S3_AWS_ACCESS_KEY")
		secretKey := os.Getenv("S3_AWS_SECRET_KEY")
		if endpoint == "" || region == "" || accessKey == "" || secretKey == "" {
			return nil, ErrNotConnected
		}
		host, secure := normalizeEndpoint(endpoint, true)
		return minio.New(host, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: secure,
			Region: region,
		})
	}
	b.makeBucket = func(ctx context.Context, mc *minio.Client, bucket string) error {
		region := os.Getenv("S3_AWS_REGION")
		if region == "" {
			return ErrRegionNotSet
		}
		return mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
	}
	b.uploadGrant = func(ctx context.Context, bucket string) (Credentials, error) {
		roleArn := os.Getenv("STS_UPLOAD_ROLE_ARN")
		if roleArn == "" {
			return Credentials{}, ErrNotConnected
		}
		spec := assumeSpec{roleArn: roleArn, sessionName: "S3UploadFilesSession", duration: time.Hour}
		return cloudBroker().assumeRole(ctx, spec, uploadPolicy(bucket))
	}
	b.downloadGrant = func(ctx context.Context, bucket, object string) (Credentials, error) {
		roleArn := os.Getenv("STS_DOWNLOAD_ROLE_ARN")
		if roleArn == "" {
			return Credentials{}, ErrNotConnected
		}
		spec := assumeSpec{roleArn: roleArn, sessionName: "S3DownloadFilesSession", duration: time.Hour}
		return cloudBroker().assumeRole(ctx, spec, downloadObjectPolicy(bucket, object))
	}
	return b
}

// cloudBroker uses the dedicated credential-issuance endpoint and key pair,
// which may differ from the data-plane credentials.
func cloudBroker() stsBroker {
	return stsBroker{
		endpoint:  os.Getenv("STS_ENDPOINT"),
		region:    os.Getenv("S3_REGION"),
		accessKey: os.Getenv("S3_ACCESS_KEY"),
		secretKey: os.Getenv("S3_SECRET_KEY"),
	}
}

var (
	_ Backend = (*SelfHosted)(nil)
	_ Backend = (*Cloud)(nil)
)
