// Package objectstore reads source rows from CSV objects in MinIO or S3,
// addressed as s3://bucket/key.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/agentstation/caremap/internal/sources/local"
	pkgerrors "github.com/agentstation/caremap/pkg/errors"
	"github.com/agentstation/caremap/pkg/sources"
)

// Getter opens one object for reading.
type Getter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Config holds object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Client adapts a minio client to Getter.
type Client struct {
	client *minio.Client
}

// NewClient connects to the object store described by cfg. The endpoint
// may be a bare host:port or a URL; an https URL implies TLS.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, pkgerrors.NewValidationError("endpoint", nil, "object store endpoint is required")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}
	return &Client{client: mc}, nil
}

// GetObject implements Getter. The object is stat'ed first so a missing key
// fails here rather than on the first read.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, err
	}
	return obj, nil
}

// Reader implements sources.Reader over a Getter.
type Reader struct {
	getter Getter
	comma  rune
}

// New creates an object store reader.
func New(g Getter) *Reader {
	return &Reader{getter: g, comma: ','}
}

// Read implements sources.Reader.
func (r *Reader) Read(ctx context.Context, src sources.Descriptor) ([]sources.Record, error) {
	bucket, key, err := ParseURL(src.Path)
	if err != nil {
		return nil, pkgerrors.WrapIO("open", src.Path, err)
	}

	body, err := r.getter.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, pkgerrors.WrapIO("open", src.Path, err)
	}
	defer func() { _ = body.Close() }()

	return local.Decode(ctx, body, src.ID, src.Path, r.comma)
}

// ParseURL splits s3://bucket/key into its bucket and key.
func ParseURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs a bucket and key: %q", raw)
	}
	return bucket, key, nil
}
