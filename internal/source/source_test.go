package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus/hooks/test"
)

func quietFetcher(opts ...Option) *Fetcher {
	logger, _ := test.NewNullLogger()
	return NewFetcher(append([]Option{WithLogger(logger)}, opts...)...)
}

func TestFetchDataURI(t *testing.T) {
	f := quietFetcher()
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	got, err := f.Fetch(context.Background(), EncodeDataURI("image/png", payload))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %v, want %v", got, payload)
	}
	got, err = f.Fetch(context.Background(), "data:text/plain,hello%20world")
	if err != nil || string(got) != "hello world" {
		t.Fatalf("percent payload %q, %v", got, err)
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("frame-bytes"))
	}))
	defer srv.Close()

	f := quietFetcher(WithHTTPClient(srv.Client()))
	got, err := f.Fetch(context.Background(), srv.URL+"/frame.png")
	if err != nil || string(got) != "frame-bytes" {
		t.Fatalf("Fetch: %q, %v", got, err)
	}
	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "fetch "+srv.URL) {
		t.Fatalf("error not wrapped with reference: %v", err)
	}
}

func TestFetchHTTPHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := quietFetcher().Fetch(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(p, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := quietFetcher(WithBaseDir(dir))
	for _, ref := range []string{p, "file://" + p, "photo.jpg"} {
		got, err := f.Fetch(context.Background(), ref)
		if err != nil || string(got) != "jpeg" {
			t.Errorf("Fetch(%q) = %q, %v", ref, got, err)
		}
	}
	if _, err := f.Fetch(context.Background(), filepath.Join(dir, "nope.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestFetchEmbedded(t *testing.T) {
	got, err := quietFetcher().Fetch(context.Background(), "embedded:classic")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(got, []byte("\x89PNG")) {
		t.Fatal("embedded frame is not a png")
	}
}

func TestFetchUnsupported(t *testing.T) {
	for _, ref := range []string{"", "ftp://example.com/a.png"} {
		if _, err := quietFetcher().Fetch(context.Background(), ref); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Fetch(%q) = %v, want ErrUnsupported", ref, err)
		}
	}
}

type fakeS3 struct {
	bucket, key string
	body        string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestFetchS3(t *testing.T) {
	fake := &fakeS3{body: "s3-bytes"}
	got, err := quietFetcher(WithS3(fake)).Fetch(context.Background(), "s3://frames/campaign/ring.png")
	if err != nil || string(got) != "s3-bytes" {
		t.Fatalf("Fetch: %q, %v", got, err)
	}
	if fake.bucket != "frames" || fake.key != "campaign/ring.png" {
		t.Fatalf("unexpected object %s/%s", fake.bucket, fake.key)
	}
}

func TestParseS3(t *testing.T) {
	if _, _, err := ParseS3("s3://bucket"); err == nil {
		t.Error("expected error without key")
	}
	if _, _, err := ParseS3("https://bucket/key"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestDescribeTruncatesDataURI(t *testing.T) {
	got := Describe(EncodeDataURI("image/png", bytes.Repeat([]byte{1}, 100)))
	if got != "data:image/png;base64,…" {
		t.Fatalf("Describe = %q", got)
	}
}
