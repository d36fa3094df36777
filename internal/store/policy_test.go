package store

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUploadPolicy(t *testing.T) {
	p := uploadPolicy("tenant-bucket")
	if strings.Contains(p, " ") || strings.Contains(p, "\n") {
		t.Fatalf("policy must be compact JSON: %q", p)
	}
	for _, action := range []string{
		"s3:PutObject", "s3:GetObject", "s3:DeleteObject",
		"s3:AbortMultipartUpload", "s3:ListMultipartUploadParts",
		"s3:GetBucketLocation", "s3:ListBucket", "s3:ListBucketMultipartUploads",
	} {
		if !strings.Contains(p, action) {
			t.Fatalf("upload policy missing %s: %s", action, p)
		}
	}
	if !strings.Contains(p, `"arn:aws:s3:::tenant-bucket/*"`) {
		t.Fatalf("object actions must target bucket/*: %s", p)
	}
	if !strings.Contains(p, `"arn:aws:s3:::tenant-bucket"`) {
		t.Fatalf("bucket actions must target the bucket itself: %s", p)
	}

	var doc policyDocument
	if err := json.Unmarshal([]byte(p), &doc); err != nil {
		t.Fatalf("policy is not valid JSON: %v", err)
	}
	if doc.Version != "2012-10-17" || len(doc.Statement) != 2 {
		t.Fatalf("unexpected policy shape: %+v", doc)
	}
}

func TestDownloadObjectPolicy(t *testing.T) {
	p := downloadObjectPolicy("bkt", "proj/docbin_full")
	if !strings.Contains(p, `"arn:aws:s3:::bkt/proj/docbin_full"`) {
		t.Fatalf("download policy must scope to the single object: %s", p)
	}
	if strings.Contains(p, "PutObject") || strings.Contains(p, "DeleteObject") {
		t.Fatalf("object download policy must be read-only: %s", p)
	}
}

func TestDownloadBucketPolicy(t *testing.T) {
	p := downloadBucketPolicy("bkt")
	if !strings.Contains(p, `"arn:aws:s3:::bkt"`) || !strings.Contains(p, `"arn:aws:s3:::bkt/*"`) {
		t.Fatalf("bucket download policy must cover the bucket and its objects: %s", p)
	}
	var doc policyDocument
	if err := json.Unmarshal([]byte(p), &doc); err != nil {
		t.Fatalf("policy is not valid JSON: %v", err)
	}
	if len(doc.Statement) != 3 {
		t.Fatalf("unexpected statement count: %+v", doc)
	}
}
