package store

import (
	"encoding/json"
	"fmt"
)

// Inline session policies passed to AssumeRole. The effective permissions are
// the intersection with the assumed role's policy, so these are the ceiling of
// what a grant can ever do.

type policyStatement struct {
	Sid      string   `json:"Sid,omitempty"`
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

func (d policyDocument) JSON() string {
	b, err := json.Marshal(d)
	if err != nil {
		// The documents are built from literals; a marshal failure is a bug.
		panic(err)
	}
	return string(b)
}

// uploadPolicy allows put/get/delete and multipart actions on the bucket's
// objects, plus location and listing on the bucket itself.
func uploadPolicy(bucket string) string {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:    "PutObj",
				Effect: "Allow",
				Action: []string{
					"s3:AbortMultipartUpload",
					"s3:DeleteObject",
					"s3:ListMultipartUploadParts",
					"s3:PutObject",
					"s3:GetObject",
				},
				Resource: []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
			},
			{
				Effect: "Allow",
				Action: []string{
					"s3:GetBucketLocation",
					"s3:ListBucket",
					"s3:ListBucketMultipartUploads",
				},
				Resource: []string{fmt.Sprintf("arn:aws:s3:::%s", bucket)},
			},
		},
	}.JSON()
}

// downloadObjectPolicy is read-only and scoped to a single object (cloud variant).
func downloadObjectPolicy(bucket, object string) string {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:      "GetObj",
				Effect:   "Allow",
				Action:   []string{"s3:GetObject"},
				Resource: []string{fmt.Sprintf("arn:aws:s3:::%s/%s", bucket, object)},
			},
		},
	}.JSON()
}

// downloadBucketPolicy is scoped to the whole bucket (self-hosted variant; the
// per-backend scoping asymmetry is deliberate).
func downloadBucketPolicy(bucket string) string {
	return policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:    "AllowUserToReadWriteObjectInFolder",
				Effect: "Allow",
				Action: []string{
					"s3:GetObject",
					"s3:PutObject",
					"s3:DeleteObject",
					"s3:ListMultipartUploadParts",
					"s3:AbortMultipartUpload",
				},
				Resource: []string{
					fmt.Sprintf("arn:aws:s3:::%s", bucket),
					fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
				},
			},
			{
				Sid:      "AllowGetBucketLocation",
				Effect:   "Allow",
				Action:   []string{"s3:GetBucketLocation"},
				Resource: []string{fmt.Sprintf("arn:aws:s3:::%s", bucket)},
			},
			{
				Sid:      "AllowListBucketUploads",
				Effect:   "Allow",
				Action:   []string{"s3:ListBucketMultipartUploads"},
				Resource: []string{fmt.Sprintf("arn:aws:s3:::%s", bucket)},
			},
		},
	}.JSON()
}
