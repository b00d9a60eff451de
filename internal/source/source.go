package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/example/framestudio/assets"
)

// MaxSize caps the number of bytes read from any source.
const MaxSize = 32 << 20

var (
	// ErrUnsupported is returned for references with an unknown scheme.
	ErrUnsupported = errors.New("unsupported source")
	// ErrTooLarge is returned when a source exceeds MaxSize.
	ErrTooLarge = errors.New("source exceeds size limit")
)

// S3Getter is the subset of the S3 client used for s3:// references.
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher resolves image references into raw bytes.
type Fetcher struct {
	HTTP *http.Client
	Log  logrus.FieldLogger
	// BaseDir resolves relative paths when set.
	BaseDir string

	s3Once sync.Once
	s3     S3Getter
	s3Err  error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the client used for http(s) references.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.HTTP = c } }

// WithS3 supplies the client for s3:// references instead of loading the
// default AWS configuration.
func WithS3(c S3Getter) Option {
	return func(f *Fetcher) {
		f.s3 = c
		f.s3Once.Do(func() {})
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(f *Fetcher) { f.Log = l } }

// WithBaseDir resolves relative file paths against dir.
func WithBaseDir(dir string) Option { return func(f *Fetcher) { f.BaseDir = dir } }

// NewFetcher returns a Fetcher using http.DefaultClient and the standard logger.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{HTTP: http.DefaultClient, Log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the bytes referenced by ref. Supported forms are data: URIs,
// http(s) URLs, s3://bucket/key, embedded:<frame>, file:// URLs and plain
// filesystem paths.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	data, err := f.fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", Describe(ref), err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("fetch %s: %w", Describe(ref), ErrTooLarge)
	}
	f.Log.WithFields(logrus.Fields{"source": Describe(ref), "bytes": len(data)}).Debug("fetched source")
	return data, nil
}

func (f *Fetcher) fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty reference: %w", ErrUnsupported)
	}
	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok || len(scheme) == 1 {
		// no scheme, or a windows drive letter
		return f.readFile(ref)
	}
	switch strings.ToLower(scheme) {
	case "data":
		return DecodeDataURI(ref)
	case "http", "https":
		return f.fetchHTTP(ctx, ref)
	case "s3":
		return f.fetchS3(ctx, ref)
	case "embedded":
		return assets.FramePNG(rest)
	case "file":
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		return f.readFile(u.Path)
	default:
		return nil, fmt.Errorf("scheme %q: %w", scheme, ErrUnsupported)
	}
}

func (f *Fetcher) readFile(p string) ([]byte, error) {
	if f.BaseDir != "" && !filepath.IsAbs(p) {
		p = filepath.Join(f.BaseDir, p)
	}
	fh, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return readLimited(fh)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return readLimited(resp.Body)
}

func (f *Fetcher) s3Client(ctx context.Context) (S3Getter, error) {
	f.s3Once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			f.s3Err = fmt.Errorf("load aws config: %w", err)
			return
		}
		f.s3 = s3.NewFromConfig(cfg)
	})
	return f.s3, f.s3Err
}

func (f *Fetcher) fetchS3(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := ParseS3(ref)
	if err != nil {
		return nil, err
	}
	client, err := f.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return readLimited(out.Body)
}

// ParseS3 splits s3://bucket/key into its parts.
func ParseS3(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 reference: %w", ErrUnsupported)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 reference needs bucket and key")
	}
	return bucket, key, nil
}

// DecodeDataURI returns the payload of a data: URI. Both base64 and
// percent-encoded payloads are accepted.
func DecodeDataURI(ref string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data uri: %w", ErrUnsupported)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == ' ' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("decode base64 payload: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// EncodeDataURI renders data as a base64 data: URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Describe shortens ref for logs and error messages.
func Describe(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		meta, _, _ := strings.Cut(ref, ",")
		return meta + ",…"
	}
	return ref
}

func readLimited(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if n > MaxSize {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}
