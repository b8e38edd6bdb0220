// Package s3store persists document records as one JSON object per record
// in an S3-compatible bucket, mirroring the filesystem store's layout:
//
//	{prefix}{namespace}/metadata_{HASH_CODE}_{trace8}.json
//
// S3 object PUTs are already atomic, so a reader never observes a partial
// unit. Transient request failures are retried with exponential backoff.
package s3store

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/docuhash/docuhash/pkg/hashcode"
	"github.com/docuhash/docuhash/pkg/registry"
)

const (
	unitPrefix = "metadata_"
	unitSuffix = ".json"
)

// Store is an S3-backed record store.
type Store struct {
	client *s3.Client
	cfg    *Config
	logger hclog.Logger

	// putMu serializes uniqueness-check-and-write, as S3 offers no
	// cross-key conditional primitive keyed on the hash code.
	putMu sync.Mutex
}

// New creates an S3 record store and verifies the bucket is reachable.
func New(ctx context.Context, cfg *Config, logger hclog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid S3 store configuration: %w", err)
	}
	cfg.SetDefaults()

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	awsCfg, err := createAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Path-style addressing for MinIO and friends.
			o.UsePathStyle = true
		}
	})

	store := &Store{
		client: client,
		cfg:    cfg,
		logger: logger.Named("s3store"),
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("%w: bucket %s not reachable: %v", registry.ErrStoreUnavailable, cfg.Bucket, err)
	}

	store.logger.Info("S3 record store initialized", "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	return store, nil
}

// createAWSConfig builds the AWS SDK configuration.
func createAWSConfig(ctx context.Context, cfg *Config) (aws.Config, error) {
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{},
		},
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// Put writes the record as a new object under its namespace key prefix.
func (s *Store) Put(ctx context.Context, record *registry.Record, overwrite bool) (string, error) {
	code := record.HashCode()
	if code.IsZero() {
		return "", fmt.Errorf("record has no hash code")
	}

	s.putMu.Lock()
	defer s.putMu.Unlock()

	existing, err := s.findUnitKeys(ctx, code)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 && !overwrite {
		return "", registry.ErrAlreadyExists
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing record %s: %w", code, err)
	}

	key := s.unitKey(record.OwnerNamespace(), code, record.TraceID)
	err = s.retry(ctx, func() error {
		_, putErr := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		return putErr
	})
	if err != nil {
		return "", fmt.Errorf("writing unit %s: %w", key, err)
	}

	// The new unit is durable; retire whatever the overwrite replaced.
	for _, stale := range existing {
		if stale == key {
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(stale),
		}); err != nil {
			s.logger.Warn("could not remove replaced record unit", "key", stale, "error", err)
		}
	}

	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key), nil
}

// GetByHashCode scans all units for the one whose stored hash code matches.
func (s *Store) GetByHashCode(ctx context.Context, code hashcode.HashCode) (*registry.Record, error) {
	var found *registry.Record
	err := s.IterateAll(ctx, func(r *registry.Record) (bool, error) {
		if r.HashCode().Equal(code) {
			found = r
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, registry.ErrNotFound
	}
	return found, nil
}

// Exists reports whether a live unit carries the given hash code.
func (s *Store) Exists(ctx context.Context, code hashcode.HashCode) (bool, error) {
	_, err := s.GetByHashCode(ctx, code)
	if err == nil {
		return true, nil
	}
	if registry.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// IterateAll lists every unit key under the configured prefix in sorted
// order and visits the parsed records. Unparsable units are logged and
// skipped; a failed listing is fatal since nothing can be served.
func (s *Store) IterateAll(ctx context.Context, fn registry.IterFunc) error {
	keys, err := s.listUnitKeys(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := s.readUnit(ctx, key)
		if err != nil {
			s.logger.Warn("skipping unreadable record unit", "key", key, "error", err)
			continue
		}

		cont, err := fn(record)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}

	return nil
}

// listUnitKeys returns all record unit keys in stable sorted order.
func (s *Store) listUnitKeys(ctx context.Context) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(s.cfg.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: listing bucket %s: %v", registry.ErrStoreUnavailable, s.cfg.Bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if isUnitKey(key) {
				keys = append(keys, key)
			}
		}
	}

	sort.Strings(keys)
	return keys, nil
}

// readUnit fetches and parses one persisted unit.
func (s *Store) readUnit(ctx context.Context, key string) (*registry.Record, error) {
	var record registry.Record
	err := s.retry(ctx, func() error {
		result, getErr := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		if getErr != nil {
			return getErr
		}
		defer result.Body.Close()

		record = registry.Record{}
		return json.NewDecoder(result.Body).Decode(&record)
	})
	if err != nil {
		return nil, err
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt unit: %w", err)
	}
	return &record, nil
}

// findUnitKeys returns the keys of live units carrying the given code.
func (s *Store) findUnitKeys(ctx context.Context, code hashcode.HashCode) ([]string, error) {
	keys, err := s.listUnitKeys(ctx)
	if err != nil {
		return nil, err
	}

	marker := unitPrefix + strings.ReplaceAll(code.String(), "-", "_") + "_"
	var matched []string
	for _, key := range keys {
		if strings.HasPrefix(path.Base(key), marker) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

// retry runs op with exponential backoff up to the configured attempts.
func (s *Store) retry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.cfg.RetryMaxAttempts)),
		ctx,
	)
	return backoff.Retry(op, policy)
}

// unitKey builds the object key for a record unit.
func (s *Store) unitKey(namespace string, code hashcode.HashCode, traceID string) string {
	trace := traceID
	if len(trace) > 8 {
		trace = trace[:8]
	}
	safeCode := strings.ReplaceAll(code.String(), "-", "_")
	name := fmt.Sprintf("%s%s_%s%s", unitPrefix, safeCode, trace, unitSuffix)
	return s.cfg.Prefix + namespace + "/" + name
}

// isUnitKey reports whether an object key looks like a record unit.
func isUnitKey(key string) bool {
	base := path.Base(key)
	return strings.HasPrefix(base, unitPrefix) && strings.HasSuffix(base, unitSuffix)
}
