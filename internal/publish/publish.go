// Package publish delivers a finished inventory to S3 and hands back a
// time-limited download link.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/common"
)

const contentType = "application/json"

// Options configures a Publisher.
type Options struct {
	Bucket string
	Prefix string

	// URLExpiry is the lifetime of the presigned link. Zero skips signing.
	URLExpiry time.Duration

	Logger *slog.Logger
}

// Result describes a delivered report.
type Result struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url,omitempty"`
}

// Publisher uploads inventories to one bucket.
type Publisher struct {
	client    common.S3Client
	presigner common.S3Presigner
	opts      Options
	logger    *slog.Logger
}

// New returns a Publisher. presigner may be nil when opts.URLExpiry is zero.
func New(client common.S3Client, presigner common.S3Presigner, opts Options) (*Publisher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("publish: bucket is required")
	}
	if opts.URLExpiry < 0 {
		return nil, fmt.Errorf("publish: url expiry %s is negative", opts.URLExpiry)
	}
	if opts.URLExpiry > 0 && presigner == nil {
		return nil, errors.New("publish: presigner is required when url expiry is set")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{client: client, presigner: presigner, opts: opts, logger: logger}, nil
}

// ObjectKey returns the object key for inv under prefix:
// <prefix>inventory-<YYYYMMDD>-<run id>.json.
func ObjectKey(prefix string, inv *models.Inventory) string {
	return fmt.Sprintf("%sinventory-%s-%s.json", prefix, inv.GeneratedAt.UTC().Format("20060102"), inv.RunID)
}

// Publish uploads inv as JSON and returns where it was stored.
func (p *Publisher) Publish(ctx context.Context, inv *models.Inventory) (*Result, error) {
	body, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode inventory: %w", err)
	}

	key := ObjectKey(p.opts.Prefix, inv)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload s3://%s/%s: %w", p.opts.Bucket, key, err)
	}
	res := &Result{Bucket: p.opts.Bucket, Key: key}
	p.logger.Info("inventory published", "bucket", p.opts.Bucket, "key", key, "bytes", len(body))

	if p.opts.URLExpiry == 0 {
		return res, nil
	}
	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.opts.URLExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign s3://%s/%s: %w", p.opts.Bucket, key, err)
	}
	res.URL = req.URL
	return res, nil
}
