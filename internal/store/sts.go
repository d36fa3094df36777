package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// stsBroker issues temporary credentials via AssumeRole. It may point at a
// different endpoint/key pair than the data plane; MinIO's STS emulation and
// real AWS STS both speak this call. A broker is rebuilt from the environment
// on every issuance, mirroring the per-call target resolution.
type stsBroker struct {
	endpoint  string
	region    string
	accessKey string
	secretKey string
}

// assumeSpec fixes the role identity and lifetime a variant assumes.
type assumeSpec struct {
	roleArn     string
	sessionName string
	duration    time.Duration
}

func (b stsBroker) validate() error {
	if b.endpoint == "" || b.region == "" || b.accessKey == "" || b.secretKey == "" {
		return ErrNotConnected
	}
	return nil
}

// assumeRole performs the AssumeRole sub-call with an inline session policy
// and converts the response into the grant credential shape.
func (b stsBroker) assumeRole(ctx context.Context, spec assumeSpec, policy string) (Credentials, error) {
	if err := b.validate(); err != nil {
		return Credentials{}, err
	}

	cfg := aws.Config{
		Region:      b.region,
		Credentials: awscreds.NewStaticCredentialsProvider(b.accessKey, b.secretKey, ""),
	}
	client := sts.NewFromConfig(cfg, func(o *sts.Options) {
		o.BaseEndpoint = aws.String(ensureScheme(b.endpoint))
	})

	out, err := client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(spec.roleArn),
		RoleSessionName: aws.String(spec.sessionName),
		Policy:          aws.String(policy),
		DurationSeconds: aws.Int32(int32(spec.duration.Seconds())),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("assume role: %w", err)
	}
	if out.Credentials == nil {
		return Credentials{}, fmt.Errorf("assume role: response carried no credentials")
	}

	c := Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
	}
	if out.Credentials.Expiration != nil {
		c.Expiration = out.Credentials.Expiration.UTC().Format(time.RFC3339)
	}
	return c, nil
}

// ensureScheme makes a bare host:port usable as an SDK base endpoint. Plain
// HTTP by default; the STS emulation of the self-hosted store is not TLS
// terminated in-cluster.
func ensureScheme(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}
