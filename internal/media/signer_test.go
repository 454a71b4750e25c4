package media

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"
)

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
}

func TestS3Signer_StaticCredentials(t *testing.T) {
	isolateAWS(t)

	signer, err := NewS3Signer(context.Background(), SignerConfig{
		Region:          "us-east-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
	})
	if err != nil {
		t.Fatalf("NewS3Signer() error = %v", err)
	}

	raw, err := signer.PresignGetObject(context.Background(), "tfmc-youtube-data", "test/video42.mp4", DefaultSignExpiry)
	if err != nil {
		t.Fatalf("PresignGetObject() error = %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("presigned url does not parse: %v", err)
	}
	if u.Host != "tfmc-youtube-data.s3.us-east-1.amazonaws.com" {
		t.Errorf("host = %q", u.Host)
	}
	if u.Path != "/test/video42.mp4" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "3600" {
		t.Errorf("X-Amz-Expires = %q, want 3600", q.Get("X-Amz-Expires"))
	}
	if q.Get("X-Amz-Signature") == "" {
		t.Error("missing signature")
	}
}

func TestS3Signer_CustomEndpoint(t *testing.T) {
	isolateAWS(t)

	signer, err := NewS3Signer(context.Background(), SignerConfig{
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		Endpoint:        "http://localhost:9000",
	})
	if err != nil {
		t.Fatalf("NewS3Signer() error = %v", err)
	}

	raw, err := signer.PresignGetObject(context.Background(), "videos", "a.mp4", 5*time.Minute)
	if err != nil {
		t.Fatalf("PresignGetObject() error = %v", err)
	}

	u, _ := url.Parse(raw)
	if u.Host != "localhost:9000" || u.Path != "/videos/a.mp4" {
		t.Errorf("url = %s, want path-style on custom endpoint", raw)
	}
	if u.Query().Get("X-Amz-Expires") != "300" {
		t.Errorf("X-Amz-Expires = %q", u.Query().Get("X-Amz-Expires"))
	}
}

func TestLocator_WithS3Signer(t *testing.T) {
	isolateAWS(t)

	signer, err := NewS3Signer(context.Background(), SignerConfig{AccessKeyID: "AKID", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatal(err)
	}
	l := NewLocator(Config{}, signer, nil)

	got := l.Resolve(context.Background(), "/test/video.mp4")
	if got == nil {
		t.Fatal("Resolve() = nil")
	}
	u, _ := url.Parse(*got)
	if u.Query().Get("X-Amz-Expires") != "3600" || u.Path != "/test/video.mp4" {
		t.Errorf("Resolve() = %s", *got)
	}
}
