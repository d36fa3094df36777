package store

import "encoding/json"

// Credentials is the temporary access-key triple issued by the STS sub-call.
// Field order matches the sorted key order of the serialized representation
// consumers depend on.
type Credentials struct {
	AccessKeyID     string `json:"AccessKeyId"`
	Expiration      string `json:"Expiration,omitempty"`
	SecretAccessKey string `json:"SecretAccessKey"`
	SessionToken    string `json:"SessionToken"`
}

// Grant is an ephemeral scoped authorization. It is never persisted; there is
// no revocation path other than natural expiry.
type Grant struct {
	Credentials  Credentials `json:"Credentials"`
	Bucket       string      `json:"bucket"`
	ObjectName   string      `json:"objectName,omitempty"`
	UploadTaskID string      `json:"uploadTaskId,omitempty"`
}

// Essentials returns a reduced-disclosure copy: bucket, credentials minus the
// expiration timestamp, and the upload task id.
func (g Grant) Essentials() Grant {
	g.ObjectName = ""
	g.Credentials.Expiration = ""
	return g
}

// JSON serializes the grant in its stable key order.
func (g Grant) JSON() (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
