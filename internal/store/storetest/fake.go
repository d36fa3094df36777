// Package storetest provides an in-memory Backend implementation for tests.
// It mirrors the adapters' negative-result semantics (missing bucket/object as
// falsy values, conflict on un-forced uploads) without a live provider.
package storetest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/stratoio/objectgate/internal/store"
)

type Fake struct {
	Buckets map[string]map[string][]byte

	// Grant returned by the credential operations.
	Grant store.Grant

	// Err, when set, is returned by every operation; used to exercise
	// propagation of unclassified provider errors.
	Err error
}

var _ store.Backend = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Buckets: map[string]map[string][]byte{},
		Grant: store.Grant{
			Credentials: store.Credentials{
				AccessKeyID:     "AKIAFAKE",
				Expiration:      "2026-08-29T12:00:00Z",
				SecretAccessKey: "fake-secret",
				SessionToken:    "fake-token",
			},
		},
	}
}

// Seed stores data under (bucket, name), creating the bucket.
func (f *Fake) Seed(bucket, name string, data []byte) {
	if f.Buckets[bucket] == nil {
		f.Buckets[bucket] = map[string][]byte{}
	}
	f.Buckets[bucket][name] = data
}

func (f *Fake) BucketExists(_ context.Context, bucket string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.Buckets[bucket]
	return ok, nil
}

func (f *Fake) CreateBucket(_ context.Context, bucket string) error {
	if f.Err != nil {
		return f.Err
	}
	if f.Buckets[bucket] == nil {
		f.Buckets[bucket] = map[string][]byte{}
	}
	return nil
}

func (f *Fake) RemoveBucket(_ context.Context, bucket string) error {
	if f.Err != nil {
		return f.Err
	}
	if len(f.Buckets[bucket]) != 0 {
		return fmt.Errorf("bucket %q is not empty", bucket)
	}
	delete(f.Buckets, bucket)
	return nil
}

func (f *Fake) ListBuckets(context.Context) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	names := make([]string, 0, len(f.Buckets))
	for name := range f.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) ListObjects(_ context.Context, bucket, prefix string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var names []string
	for name := range f.Buckets[bucket] {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *Fake) PutObject(ctx context.Context, bucket, name string, data []byte, _ string) error {
	if f.Err != nil {
		return f.Err
	}
	if err := f.CreateBucket(ctx, bucket); err != nil {
		return err
	}
	f.Buckets[bucket][name] = append([]byte(nil), data...)
	return nil
}

func (f *Fake) GetObject(_ context.Context, bucket, name string) ([]byte, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	objs, ok := f.Buckets[bucket]
	if !ok {
		return nil, nil
	}
	data, ok := objs[name]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s/%s", bucket, name)
	}
	return append([]byte(nil), data...), nil
}

func (f *Fake) DownloadObject(_ context.Context, bucket, name, fileType, fileName string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	objs, ok := f.Buckets[bucket]
	if !ok {
		return "", nil
	}
	data, ok := objs[name]
	if !ok {
		return "", fmt.Errorf("NoSuchKey: %s/%s", bucket, name)
	}
	if fileName == "" {
		fileName = "tmpfile." + fileType
	}
	if err := os.WriteFile(fileName, data, 0o644); err != nil {
		return "", err
	}
	return fileName, nil
}

func (f *Fake) UploadObject(_ context.Context, bucket, name, filePath string, force bool) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	objs, ok := f.Buckets[bucket]
	if !ok {
		return false, nil
	}
	if _, taken := objs[name]; taken {
		if !force {
			return false, &store.ConflictError{Bucket: bucket, Object: name}
		}
		delete(objs, name)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false, nil
	}
	objs[name] = data
	return true, nil
}

func (f *Fake) DeleteObject(_ context.Context, bucket, name string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	objs, ok := f.Buckets[bucket]
	if !ok {
		return false, nil
	}
	if _, exists := objs[name]; !exists {
		return false, nil
	}
	delete(objs, name)
	return true, nil
}

func (f *Fake) ObjectExists(_ context.Context, bucket, name string) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.Buckets[bucket][name]
	return ok, nil
}

func (f *Fake) CopyObject(_ context.Context, srcBucket, srcName, dstBucket, dstName string) error {
	if f.Err != nil {
		return f.Err
	}
	data, ok := f.Buckets[srcBucket][srcName]
	if !ok {
		return fmt.Errorf("NoSuchKey: %s/%s", srcBucket, srcName)
	}
	if f.Buckets[dstBucket] == nil {
		return fmt.Errorf("NoSuchBucket: %s", dstBucket)
	}
	f.Buckets[dstBucket][dstName] = append([]byte(nil), data...)
	return nil
}

func (f *Fake) AccessLink(ctx context.Context, bucket, name string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	exists, _ := f.ObjectExists(ctx, bucket, name)
	if !exists {
		return "", &store.NotFoundError{Bucket: bucket, Object: name}
	}
	return "https://fake/" + bucket + "/" + name + "?sig=get", nil
}

func (f *Fake) FileUploadLink(ctx context.Context, bucket, name string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if err := f.CreateBucket(ctx, bucket); err != nil {
		return "", err
	}
	return "https://fake/" + bucket + "/" + name + "?sig=put", nil
}

func (f *Fake) DataUploadLink(ctx context.Context, bucket, name string) (string, map[string]string, error) {
	if f.Err != nil {
		return "", nil, f.Err
	}
	if err := f.CreateBucket(ctx, bucket); err != nil {
		return "", nil, err
	}
	return "https://fake/" + bucket + "?sig=post", map[string]string{"key": name}, nil
}

func (f *Fake) UploadCredentials(ctx context.Context, bucket string) (*store.Grant, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if err := f.CreateBucket(ctx, bucket); err != nil {
		return nil, err
	}
	g := f.Grant
	return &g, nil
}

func (f *Fake) DownloadCredentials(ctx context.Context, bucket, _ string) (*store.Grant, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if err := f.CreateBucket(ctx, bucket); err != nil {
		return nil, err
	}
	g := f.Grant
	return &g, nil
}
