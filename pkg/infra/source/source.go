// Package source loads presentation packages from a local path or from
// Cloud Storage (gs://bucket/object).
package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/domain/types"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
)

const gcsScheme = "gs://"

// Source implements interfaces.PackageSource
type Source struct {
	maxSize   int64
	gcsOpts   []option.ClientOption
	gcsGRPC   bool
	userAgent string

	mu         sync.Mutex
	client     *storage.Client
	ownsClient bool
}

var _ interfaces.PackageSource = (*Source)(nil)

// Option configures a Source
type Option func(*Source)

// WithMaxSize rejects packages larger than n bytes. 0 means no limit.
func WithMaxSize(n int64) Option {
	return func(s *Source) {
		s.maxSize = n
	}
}

// WithStorageClient uses an existing Cloud Storage client. The caller keeps
// ownership of it and Close leaves it open.
func WithStorageClient(client *storage.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithCredentialsFile authenticates Cloud Storage with a service account key
func WithCredentialsFile(path string) Option {
	return func(s *Source) {
		s.gcsOpts = append(s.gcsOpts, option.WithCredentialsFile(path))
	}
}

// WithGRPC reads Cloud Storage objects over gRPC instead of JSON/HTTP
func WithGRPC(enabled bool) Option {
	return func(s *Source) {
		s.gcsGRPC = enabled
	}
}

// WithUserAgent sets the user agent of Cloud Storage requests
func WithUserAgent(ua string) Option {
	return func(s *Source) {
		s.userAgent = ua
	}
}

// New creates a Source. The Cloud Storage client is created on first use.
func New(opts ...Option) *Source {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsRemote reports whether ref points to Cloud Storage
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, gcsScheme)
}

// Load returns the base name and content of ref
func (s *Source) Load(ctx context.Context, ref string) (string, []byte, error) {
	if ref == "" {
		return "", nil, goerr.New("package reference is empty", goerr.T(types.ErrTagInvalidInput))
	}
	if IsRemote(ref) {
		return s.loadObject(ctx, ref)
	}
	return s.loadFile(ctx, ref)
}

func (s *Source) loadFile(ctx context.Context, ref string) (string, []byte, error) {
	f, err := os.Open(ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, goerr.Wrap(err, "package file not found", goerr.V("path", ref), goerr.T(types.ErrTagNotFound))
		}
		return "", nil, goerr.Wrap(err, "failed to open package file", goerr.V("path", ref))
	}
	defer f.Close()

	data, err := s.read(f, ref)
	if err != nil {
		return "", nil, err
	}

	ctxlog.From(ctx).Debug("Loaded package file", "path", ref, "size_bytes", len(data))
	return filepath.Base(ref), data, nil
}

func (s *Source) loadObject(ctx context.Context, ref string) (string, []byte, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(ref, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", nil, goerr.New("invalid Cloud Storage reference, want gs://bucket/object",
			goerr.V("ref", ref),
			goerr.T(types.ErrTagInvalidInput),
		)
	}

	client, err := s.storageClient(ctx)
	if err != nil {
		return "", nil, err
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return "", nil, goerr.Wrap(err, "package object not found", goerr.V("ref", ref), goerr.T(types.ErrTagNotFound))
		}
		return "", nil, goerr.Wrap(err, "failed to open package object", goerr.V("ref", ref))
	}
	defer r.Close()

	data, err := s.read(r, ref)
	if err != nil {
		return "", nil, err
	}

	ctxlog.From(ctx).Debug("Loaded package object",
		"bucket", bucket,
		"object", object,
		"size_bytes", len(data),
	)
	return path.Base(object), data, nil
}

func (s *Source) read(r io.Reader, ref string) ([]byte, error) {
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read package", goerr.V("ref", ref))
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, goerr.New("package is too large",
			goerr.V("ref", ref),
			goerr.V("max_size", s.maxSize),
			goerr.T(types.ErrTagInvalidInput),
		)
	}
	return data, nil
}

func (s *Source) storageClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	opts := append([]option.ClientOption{}, s.gcsOpts...)
	if s.userAgent != "" {
		opts = append(opts, option.WithUserAgent(s.userAgent))
	}

	var client *storage.Client
	var err error
	if s.gcsGRPC {
		if s.userAgent != "" {
			opts = append(opts, option.WithGRPCDialOption(grpc.WithUserAgent(s.userAgent)))
		}
		client, err = storage.NewGRPCClient(ctx, opts...)
	} else {
		client, err = storage.NewClient(ctx, opts...)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("grpc", s.gcsGRPC))
	}

	s.client = client
	s.ownsClient = true
	return client, nil
}

// Close releases the Cloud Storage client if the Source created it
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil || !s.ownsClient {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.ownsClient = false
	if err != nil {
		return goerr.Wrap(err, "failed to close Cloud Storage client")
	}
	return nil
}
