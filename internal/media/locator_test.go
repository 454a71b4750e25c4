package media

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/heimdex/detectq/internal/logging"
)

type fakeSigner struct {
	url     string
	err     error
	calls   []ObjectRef
	expires time.Duration
}

func (s *fakeSigner) PresignGetObject(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	s.calls = append(s.calls, ObjectRef{Bucket: bucket, Key: key})
	s.expires = expires
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func TestLocator_EmptyPath(t *testing.T) {
	signer := &fakeSigner{url: "https://signed"}
	l := NewLocator(Config{CDNBaseURL: "https://cdn.example.com"}, signer, nil)

	if got := l.Resolve(context.Background(), ""); got != nil {
		t.Errorf("Resolve(\"\") = %q, want nil", *got)
	}
	if len(signer.calls) != 0 {
		t.Error("signer called for empty path")
	}
}

func TestLocator_FullURLPassthrough(t *testing.T) {
	signer := &fakeSigner{url: "https://signed"}
	l := NewLocator(Config{CDNBaseURL: "https://cdn.example.com"}, signer, nil)

	for _, in := range []string{"https://youtube.com/watch?v=abc", "http://media.local/v.mp4"} {
		got := l.Resolve(context.Background(), in)
		if got == nil || *got != in {
			t.Errorf("Resolve(%q) = %v, want unchanged", in, got)
		}
	}
	if len(signer.calls) != 0 {
		t.Error("signer called for a full url")
	}
}

func TestLocator_CDN(t *testing.T) {
	signer := &fakeSigner{url: "https://signed"}
	l := NewLocator(Config{CDNBaseURL: "https://cdn.example.com/"}, signer, nil)

	got := l.Resolve(context.Background(), "/clips/video42.mp4")
	if got == nil || *got != "https://cdn.example.com/clips/video42.mp4" {
		t.Errorf("Resolve() = %v", got)
	}
	if len(signer.calls) != 0 {
		t.Error("signer should not run when a CDN is configured")
	}
}

func TestLocator_Signed(t *testing.T) {
	signer := &fakeSigner{url: "https://tfmc-youtube-data.s3.amazonaws.com/clips/v.mp4?X-Amz-Signature=abc"}
	l := NewLocator(Config{}, signer, nil)

	got := l.Resolve(context.Background(), "/clips/v.mp4")
	if got == nil || *got != signer.url {
		t.Fatalf("Resolve() = %v, want %q", got, signer.url)
	}
	if len(signer.calls) != 1 || signer.calls[0] != (ObjectRef{Bucket: DefaultBucket, Key: "clips/v.mp4"}) {
		t.Errorf("signer calls = %+v", signer.calls)
	}
	if signer.expires != time.Hour {
		t.Errorf("expiry = %v, want 1h", signer.expires)
	}
}

func TestLocator_SignerFailureFallsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggerTo(&buf, "debug")
	signer := &fakeSigner{err: errors.New("no credentials")}
	l := NewLocator(Config{Bucket: "b", Region: "eu-west-1"}, signer, logger)

	got := l.Resolve(context.Background(), "v.mp4")
	if got == nil || *got != "https://b.s3.eu-west-1.amazonaws.com/v.mp4" {
		t.Errorf("Resolve() = %v", got)
	}
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), "no credentials") {
		t.Errorf("expected warn log with signer error, got %s", buf.String())
	}
}

func TestLocator_EmptySignedURLFallsBack(t *testing.T) {
	l := NewLocator(Config{}, &fakeSigner{}, nil)

	got := l.Resolve(context.Background(), "v.mp4")
	if got == nil || *got != "https://tfmc-youtube-data.s3.us-east-1.amazonaws.com/v.mp4" {
		t.Errorf("Resolve() = %v", got)
	}
}

func TestLocator_DirectWithoutSigner(t *testing.T) {
	l := NewLocator(Config{StorageHost: "storage.internal"}, nil, nil)

	got := l.Resolve(context.Background(), "//double.mp4")
	if got == nil || *got != "https://tfmc-youtube-data.storage.internal//double.mp4" {
		t.Errorf("Resolve() = %v, want exactly one slash stripped", got)
	}
}

func TestLocator_S3Paths(t *testing.T) {
	signer := &fakeSigner{url: "https://signed"}
	l := NewLocator(Config{Bucket: "configured"}, signer, nil)

	l.Resolve(context.Background(), "s3://uploads/videos/2024/a.mp4")
	if want := (ObjectRef{Bucket: "uploads", Key: "videos/2024/a.mp4"}); signer.calls[0] != want {
		t.Errorf("signed ref = %+v, want %+v", signer.calls[0], want)
	}

	direct := NewLocator(Config{Bucket: "configured"}, nil, nil)
	got := direct.Resolve(context.Background(), "s3://uploads/a.mp4")
	if got == nil || *got != "https://uploads.s3.us-east-1.amazonaws.com/a.mp4" {
		t.Errorf("direct s3 path = %v", got)
	}
}

func TestLocator_Ref(t *testing.T) {
	l := NewLocator(Config{Bucket: "cfg"}, nil, nil)

	tests := map[string]ObjectRef{
		"/a/b.mp4":         {Bucket: "cfg", Key: "a/b.mp4"},
		"a/b.mp4":          {Bucket: "cfg", Key: "a/b.mp4"},
		"s3://bkt/x/y.mp4": {Bucket: "bkt", Key: "x/y.mp4"},
		"s3://bkt":         {Bucket: "cfg", Key: "s3://bkt"},
		"s3:///k.mp4":      {Bucket: "cfg", Key: "s3:///k.mp4"},
	}
	for in, want := range tests {
		if got := l.Ref(in); got != want {
			t.Errorf("Ref(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestStrategies(t *testing.T) {
	ref := ObjectRef{Bucket: "b", Key: "k.mp4"}
	ctx := context.Background()

	if _, ok := (CDNStrategy{}).Locate(ctx, ref); ok {
		t.Error("CDN strategy without base url should not apply")
	}
	if u, _ := (CDNStrategy{BaseURL: "https://cdn/"}).Locate(ctx, ref); u != "https://cdn/k.mp4" {
		t.Errorf("cdn = %q", u)
	}
	if _, ok := (SignedStrategy{}).Locate(ctx, ref); ok {
		t.Error("signed strategy without signer should not apply")
	}
	if u, ok := (DirectStrategy{Host: "h"}).Locate(ctx, ref); !ok || u != "https://b.h/k.mp4" {
		t.Errorf("direct = %q, %v", u, ok)
	}
}
