package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stratoio/objectgate/internal/facade"
	"github.com/stratoio/objectgate/internal/store/storetest"

	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *storetest.Fake) {
	t.Helper()
	t.Setenv("S3_TARGET", "MINIO")
	selfHosted := storetest.New()
	cloud := storetest.New()
	f := facade.NewWithBackends(selfHosted, cloud, zap.NewNop())
	srv := httptest.NewServer(Router(f, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, selfHosted
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestBucketLifecycle(t *testing.T) {
	srv, fake := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/buckets/tenant", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if _, ok := fake.Buckets["tenant"]; !ok {
		t.Fatal("bucket not created")
	}

	resp, err = http.Get(srv.URL + "/v1/buckets/tenant/exists")
	if err != nil {
		t.Fatal(err)
	}
	var exists map[string]bool
	json.NewDecoder(resp.Body).Decode(&exists)
	resp.Body.Close()
	if !exists["exists"] {
		t.Fatal("bucket should exist")
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/buckets/tenant", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var removed map[string]bool
	json.NewDecoder(resp.Body).Decode(&removed)
	resp.Body.Close()
	if !removed["removed"] {
		t.Fatal("empty bucket should be removed")
	}
}

func TestObjectRoundTrip(t *testing.T) {
	srv, fake := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut,
		srv.URL+"/v1/buckets/tenant/object?key=p1/docbin_full",
		strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	if string(fake.Buckets["tenant"]["p1/docbin_full"]) != `{"a":1}` {
		t.Fatal("object not stored")
	}

	resp, err = http.Get(srv.URL + "/v1/buckets/tenant/object?key=p1/docbin_full")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"a":1}` {
		t.Fatalf("body = %q", body)
	}
}

func TestGetObjectRequiresKey(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/buckets/tenant/object")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAccessLinkNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/buckets/tenant/access-link?key=missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUploadCredentialsEssentials(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/buckets/tenant/credentials/upload", "application/json",
		strings.NewReader(`{"uploadTaskId":"task-7","onlyEssentials":true}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["bucket"] != "tenant" || body["uploadTaskId"] != "task-7" {
		t.Fatalf("unexpected grant: %v", body)
	}
	creds, ok := body["Credentials"].(map[string]any)
	if !ok {
		t.Fatalf("missing Credentials block: %v", body)
	}
	if _, found := creds["Expiration"]; found {
		t.Fatal("essentials response must not carry the expiration")
	}
	if _, found := body["objectName"]; found {
		t.Fatal("essentials response must not carry the object name")
	}
}

func TestEmptyStorageGuarded(t *testing.T) {
	srv, fake := newTestServer(t)
	fake.Seed("3fa85f64-5717-4562-b3fc-2c963f66afa6", "o", []byte("x"))

	resp, err := http.Post(srv.URL+"/v1/storage/empty", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]bool
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if body["emptied"] {
		t.Fatal("empty-storage without force must be a no-op")
	}
	if len(fake.Buckets) != 1 {
		t.Fatal("bucket must survive an unforced wipe")
	}

	resp, err = http.Post(srv.URL+"/v1/storage/empty", "application/json", strings.NewReader(`{"force":true}`))
	if err != nil {
		t.Fatal(err)
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if !body["emptied"] {
		t.Fatal("forced wipe should report true")
	}
	if len(fake.Buckets) != 0 {
		t.Fatal("tenant bucket should be wiped")
	}
}
