package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
)

const (
	s3SeriesPrefix = "series/"
	s3DocSuffix    = ".json.zst"
)

// S3Client lists the S3 operations used by the value store.
// *s3.Client satisfies it; tests inject MockS3Client.
type S3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client creates a client for AWS S3 or any S3-compatible endpoint.
// Without static keys the default AWS credential chain is used.
func NewS3Client(ctx context.Context, cfg contract.S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Store keeps value documents as zstd-compressed JSON objects, one per
// series and date, under series/<id>/<YYYY-MM-DD>.json.zst.
type S3Store struct {
	client S3Client
	bucket string
}

var (
	_ contract.ValueStore  = &S3Store{} // Compile-time check
	_ contract.ValueWriter = &S3Store{} // Compile-time check
)

// NewS3Store creates a value store over bucket.
func NewS3Store(client S3Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// DocumentKey returns the object key of the document of seriesID at date.
func DocumentKey(seriesID, date string) string {
	return s3SeriesPrefix + seriesID + "/" + date + s3DocSuffix
}

// dateFromKey returns the date encoded in a document key.
func dateFromKey(key string) (string, bool) {
	name := path.Base(key)
	date, ok := strings.CutSuffix(name, s3DocSuffix)
	if !ok || !schema.ValidDate(date) {
		return "", false
	}
	return date, true
}

// Fetch lists the documents of a series, keeps those inside the date range
// and downloads them in ascending date order. UseAggregates strips the raw
// samples of documents that carry daily aggregates.
func (s *S3Store) Fetch(ctx context.Context, seriesID string, opts schema.FetchOptions) ([]schema.ValueDocument, error) {
	dates, err := s.listDates(ctx, seriesID, opts.StartDate, opts.EndDate)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.ValueDocument, 0, len(dates))
	for _, date := range dates {
		doc, err := s.getDocument(ctx, DocumentKey(seriesID, date))
		if err != nil {
			return nil, err
		}
		if doc.Date == "" {
			doc.Date = date
		}
		if opts.UseAggregates && doc.DailyAggregates != nil {
			doc = schema.ValueDocument{Date: doc.Date, DailyAggregates: doc.DailyAggregates}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *S3Store) listDates(ctx context.Context, seriesID, start, end string) ([]string, error) {
	prefix := s3SeriesPrefix + seriesID + "/"
	var (
		dates []string
		token *string
	)
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list documents of series %s: %w", seriesID, err)
		}
		for _, obj := range out.Contents {
			date, ok := dateFromKey(aws.ToString(obj.Key))
			if ok && schema.DateInRange(date, start, end) {
				dates = append(dates, date)
			}
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *S3Store) getDocument(ctx context.Context, key string) (schema.ValueDocument, error) {
	var doc schema.ValueDocument
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return doc, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	compressed, err := io.ReadAll(out.Body)
	if err != nil {
		return doc, fmt.Errorf("failed to read %s: %w", key, err)
	}
	data, err := contract.Decompress(compressed)
	if err != nil {
		return doc, fmt.Errorf("failed to decompress %s: %w", key, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("invalid document %s: %w", key, err)
	}
	return doc, nil
}

// PutDocuments uploads one object per document, replacing existing ones.
func (s *S3Store) PutDocuments(ctx context.Context, seriesID string, docs []schema.ValueDocument) error {
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal document %s: %w", doc.Date, err)
		}
		compressed, err := contract.Compress(data)
		if err != nil {
			return err
		}
		key := DocumentKey(seriesID, doc.Date)
		if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:          aws.String(s.bucket),
			Key:             aws.String(key),
			Body:            bytes.NewReader(compressed),
			ContentType:     aws.String("application/json"),
			ContentEncoding: aws.String("zstd"),
		}); err != nil {
			return fmt.Errorf("failed to put %s: %w", key, err)
		}
	}
	return nil
}
