package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sourceplane/runcontract/internal/runtimeinfo"
)

// Config holds the S3-compatible backend connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ConfigFromEnv reads the backend settings from the environment. An empty
// endpoint means no backend is configured; the caller treats the capability
// as unavailable rather than failing.
func ConfigFromEnv() (Config, error) {
	useSSL, err := runtimeinfo.EnvBool("RUN_CONTRACT_OBJECT_USE_SSL", true)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Endpoint:  runtimeinfo.EnvString("RUN_CONTRACT_OBJECT_ENDPOINT", ""),
		AccessKey: runtimeinfo.EnvString("RUN_CONTRACT_OBJECT_ACCESS_KEY", ""),
		SecretKey: runtimeinfo.EnvString("RUN_CONTRACT_OBJECT_SECRET_KEY", ""),
		Region:    runtimeinfo.EnvString("RUN_CONTRACT_OBJECT_REGION", "us-east-1"),
		UseSSL:    useSSL,
	}, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}

// OpenFromEnv builds the object store from environment configuration.
// Returns (nil, nil) when no endpoint is configured: existence checks then
// resolve to unknown instead of erroring.
func OpenFromEnv() (ObjectStore, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, nil
	}
	return NewMinioStore(cfg)
}

// MinioStore implements ObjectStore over any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg Config) (*MinioStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid object store config: %w", err)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) Stat(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := SplitURI(uri)
	if err != nil {
		return false, err
	}
	_, err = s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", uri, err)
	}
	return true, nil
}

func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	bucket, keyPrefix, err := SplitURI(prefix)
	if err != nil {
		return nil, err
	}
	// SplitURI canonicalizes away a trailing separator; restore it so a
	// folder-boundary prefix does not match sibling folders.
	if keyPrefix != "" && strings.HasSuffix(strings.TrimSpace(prefix), "/") {
		keyPrefix += "/"
	}
	scheme, _ := schemeOf(CanonicalURI(prefix))

	var out []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			resp := minio.ToErrorResponse(obj.Err)
			if resp.Code == "NoSuchBucket" {
				return []string{}, nil
			}
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, CanonicalURI(scheme+bucket+"/"+obj.Key))
	}
	sort.Strings(out)
	return out, nil
}

func (s *MinioStore) Read(ctx context.Context, uri string, maxBytes int64) ([]byte, error) {
	bucket, key, err := SplitURI(uri)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("read %s: object exceeds %d bytes", uri, maxBytes)
	}
	return data, nil
}

func (s *MinioStore) Write(ctx context.Context, localFile, destURI string) error {
	bucket, key, err := SplitURI(destURI)
	if err != nil {
		return err
	}
	_, err = s.client.FPutObject(ctx, bucket, key, localFile, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", localFile, destURI, err)
	}
	return nil
}
