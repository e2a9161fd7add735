// Package snapshot periodically exports every stored document to an
// S3-compatible bucket as a single JSON object.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/dmoclinic/internal/logging"
	sc "github.com/dmitrijs2005/dmoclinic/internal/server/config"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Uploader is the part of the S3 client the exporter needs.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client for the configured endpoint with static
// credentials. Path-style addressing keeps MinIO endpoints working.
func NewS3Client(ctx context.Context, c *sc.Config) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.S3RootUser,
			c.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Snapshot is the exported JSON document.
type Snapshot struct {
	TakenAt   time.Time       `json:"takenAt"`
	Documents []SnapshotEntry `json:"documents"`
}

type SnapshotEntry struct {
	Path    string         `json:"path"`
	Version int64          `json:"version"`
	Fields  map[string]any `json:"fields"`
}

// Exporter writes snapshots of source to bucket.
type Exporter struct {
	source   store.Dumper
	uploader Uploader
	bucket   string
	clock    timex.Clock
	logger   logging.Logger
	onResult func(error)
}

func NewExporter(source store.Dumper, uploader Uploader, bucket string, clock timex.Clock, logger logging.Logger, onResult func(error)) *Exporter {
	if onResult == nil {
		onResult = func(error) {}
	}
	return &Exporter{
		source:   source,
		uploader: uploader,
		bucket:   bucket,
		clock:    clock,
		logger:   logger.With("module", "snapshot"),
		onResult: onResult,
	}
}

// Key returns the object key for a snapshot taken at t.
func Key(t time.Time) string {
	return "snapshots/" + t.UTC().Format("20060102T150405Z") + ".json"
}

// ExportOnce dumps the store and uploads it, returning the object key.
func (e *Exporter) ExportOnce(ctx context.Context) (string, error) {
	key, err := e.export(ctx)
	e.onResult(err)
	return key, err
}

func (e *Exporter) export(ctx context.Context) (string, error) {
	docs, err := e.source.Dump(ctx)
	if err != nil {
		return "", fmt.Errorf("dump error: %w", err)
	}

	now := e.clock.Now()
	snap := Snapshot{TakenAt: now.UTC(), Documents: make([]SnapshotEntry, 0, len(docs))}
	for _, d := range docs {
		snap.Documents = append(snap.Documents, SnapshotEntry{Path: d.Path, Version: d.Version, Fields: d.Fields})
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode error: %w", err)
	}

	key := Key(now)
	_, err = e.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}

	return key, nil
}

// Run exports every interval until ctx is cancelled. Failed exports are
// logged and retried on the next tick.
func (e *Exporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			key, err := e.ExportOnce(ctx)
			if err != nil {
				e.logger.Error(ctx, "snapshot failed", "error", err)
				continue
			}
			e.logger.Info(ctx, "snapshot exported", "bucket", e.bucket, "key", key)
		}
	}
}
