package store

import (
	"context"
	"errors"
	"testing"

	minio "github.com/minio/minio-go/v7"

	"go.uber.org/zap"
)

func TestNormalizeEndpoint(t *testing.T) {
	cases := []struct {
		in     string
		secure bool
		host   string
		want   bool
	}{
		{"minio.local:9000", false, "minio.local:9000", false},
		{"http://minio.local:9000", true, "minio.local:9000", false},
		{"https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
		{"s3.eu-west-1.amazonaws.com", true, "s3.eu-west-1.amazonaws.com", true},
	}
	for _, c := range cases {
		h, sec := normalizeEndpoint(c.in, c.secure)
		if h != c.host || sec != c.want {
			t.Fatalf("normalizeEndpoint(%q,%v)=%q,%v want %q,%v", c.in, c.secure, h, sec, c.host, c.want)
		}
	}
}

func TestEnsureScheme(t *testing.T) {
	if got := ensureScheme("sts.local:9000"); got != "http://sts.local:9000" {
		t.Fatalf("ensureScheme=%q", got)
	}
	if got := ensureScheme("https://sts.amazonaws.com"); got != "https://sts.amazonaws.com" {
		t.Fatalf("ensureScheme should keep explicit scheme, got %q", got)
	}
}

func TestTmpFileName(t *testing.T) {
	if got := tmpFileName("json"); got != "tmpfile.json" {
		t.Fatalf("tmpFileName(json)=%q", got)
	}
	// An empty file type still yields the deterministic name.
	if got := tmpFileName(""); got != "tmpfile." {
		t.Fatalf("tmpFileName('')=%q", got)
	}
}

func TestIsNoSuchKey(t *testing.T) {
	if !isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey", Message: "key does not exist"}) {
		t.Fatal("NoSuchKey should map to a negative result")
	}
	if isNoSuchKey(minio.ErrorResponse{Code: "NoSuchBucket"}) {
		t.Fatal("NoSuchBucket must propagate, not map to false")
	}
	if isNoSuchKey(errors.New("connection refused")) {
		t.Fatal("transport errors must propagate")
	}
}

func TestSelfHostedNotConnected(t *testing.T) {
	t.Setenv("S3_ENDPOINT_LOCAL", "")
	t.Setenv("S3_ACCESS_KEY", "")
	t.Setenv("S3_SECRET_KEY", "")
	b := NewSelfHosted(zap.NewNop())
	if _, err := b.BucketExists(context.Background(), "some-bucket"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestCloudNotConnected(t *testing.T) {
	t.Setenv("S3_AWS_ENDPOINT", "")
	t.Setenv("S3_AWS_REGION", "")
	t.Setenv("S3_AWS_ACCESS_KEY", "")
	t.Setenv("S3_AWS_SECRET_KEY", "")
	b := NewCloud(zap.NewNop())
	if _, err := b.ListBuckets(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestBrokerValidate(t *testing.T) {
	ok := stsBroker{endpoint: "sts:9000", region: "eu-west-1", accessKey: "a", secretKey: "s"}
	if err := ok.validate(); err != nil {
		t.Fatalf("complete broker config should validate, got %v", err)
	}
	missing := stsBroker{endpoint: "sts:9000", region: "eu-west-1"}
	if err := missing.validate(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	ce := &ConflictError{Bucket: "b", Object: "o"}
	if ce.Error() == "" {
		t.Fatal("conflict error should carry a message")
	}
	nf := &NotFoundError{Bucket: "b", Object: "o"}
	if nf.Error() == "" {
		t.Fatal("not-found error should carry a message")
	}
}
