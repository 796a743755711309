package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/prelev/prelev/internal/contract"
	"github.com/prelev/prelev/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func objects(keys ...string) []types.Object {
	out := make([]types.Object, len(keys))
	for i, k := range keys {
		out[i] = types.Object{Key: aws.String(k)}
	}
	return out
}

func encodedDocument(t *testing.T, doc schema.ValueDocument) *s3.GetObjectOutput {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	compressed, err := contract.Compress(data)
	require.NoError(t, err)
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(compressed))}
}

func keyIs(key string) any {
	return mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Key) == key
	})
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "series/S1/2024-01-15.json.zst", DocumentKey("S1", "2024-01-15"))

	date, ok := dateFromKey("series/S1/2024-01-15.json.zst")
	assert.True(t, ok)
	assert.Equal(t, "2024-01-15", date)

	for _, key := range []string{"series/S1/notes.txt", "series/S1/2024-1-15.json.zst", "series/S1/"} {
		_, ok := dateFromKey(key)
		assert.False(t, ok, key)
	}
}

func TestS3StoreFetch(t *testing.T) {
	client := new(MockS3Client)
	store := NewS3Store(client, "bucket")
	ctx := context.Background()

	client.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "series/S1/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              objects("series/S1/2024-01-17.json.zst", "series/S1/2023-12-31.json.zst", "series/S1/readme.md"),
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	client.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    objects("series/S1/2024-01-15.json.zst"),
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	sum := schema.NewNullFloat(30)
	client.On("GetObject", ctx, keyIs("series/S1/2024-01-15.json.zst")).Return(encodedDocument(t, schema.ValueDocument{
		Date:            "2024-01-15",
		Samples:         []schema.TimedValue{{Time: "00:00:00", Value: schema.NewNullFloat(30)}},
		DailyAggregates: &schema.DailyAggregates{Sum: &sum},
	}), nil).Once()
	client.On("GetObject", ctx, keyIs("series/S1/2024-01-17.json.zst")).Return(encodedDocument(t, schema.ValueDocument{
		Samples: []schema.TimedValue{{Time: "06:00:00", Value: schema.NewNullFloat(2)}},
	}), nil).Once()

	docs, err := store.Fetch(ctx, "S1", schema.FetchOptions{StartDate: "2024-01-01", UseAggregates: true})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "2024-01-15", docs[0].Date)
	assert.Equal(t, schema.DailyAggregatesShape, docs[0].Shape())
	assert.Nil(t, docs[0].Samples)
	assert.Equal(t, 30.0, docs[0].DailyAggregates.Sum.Float64())

	// A document without its own date takes the one of its key.
	assert.Equal(t, "2024-01-17", docs[1].Date)
	assert.Equal(t, schema.SubDailyRawShape, docs[1].Shape())

	client.AssertExpectations(t)
}

func TestS3StoreFetchErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("ListObjectsV2", ctx, mock.Anything).Return(nil, errors.New("access denied"))

		_, err := NewS3Store(client, "bucket").Fetch(ctx, "S1", schema.FetchOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("get", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("ListObjectsV2", ctx, mock.Anything).Return(&s3.ListObjectsV2Output{
			Contents: objects("series/S1/2024-01-15.json.zst"),
		}, nil)
		client.On("GetObject", ctx, mock.Anything).Return(nil, errors.New("no such key"))

		_, err := NewS3Store(client, "bucket").Fetch(ctx, "S1", schema.FetchOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "series/S1/2024-01-15.json.zst")
	})

	t.Run("corrupt", func(t *testing.T) {
		client := new(MockS3Client)
		client.On("ListObjectsV2", ctx, mock.Anything).Return(&s3.ListObjectsV2Output{
			Contents: objects("series/S1/2024-01-15.json.zst"),
		}, nil)
		client.On("GetObject", ctx, mock.Anything).Return(&s3.GetObjectOutput{
			Body: io.NopCloser(bytes.NewReader([]byte("not zstd"))),
		}, nil)

		_, err := NewS3Store(client, "bucket").Fetch(ctx, "S1", schema.FetchOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decompress")
	})
}

func TestS3StorePutDocuments(t *testing.T) {
	client := new(MockS3Client)
	store := NewS3Store(client, "bucket")
	ctx := context.Background()

	uploaded := map[string]schema.ValueDocument{}
	client.On("PutObject", ctx, mock.Anything).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		assert.Equal(t, "bucket", aws.ToString(in.Bucket))
		assert.Equal(t, "zstd", aws.ToString(in.ContentEncoding))

		compressed, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		data, err := contract.Decompress(compressed)
		require.NoError(t, err)
		var doc schema.ValueDocument
		require.NoError(t, json.Unmarshal(data, &doc))
		uploaded[aws.ToString(in.Key)] = doc
	}).Return(&s3.PutObjectOutput{}, nil).Twice()

	err := store.PutDocuments(ctx, "S2", []schema.ValueDocument{
		{Date: "2024-01-15", Daily: &schema.DailyValue{Value: schema.NewNullFloat(12.5), Remark: "relevé"}},
		{Date: "2024-01-16", Daily: &schema.DailyValue{Value: schema.NullFloatEmpty()}},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)

	require.Len(t, uploaded, 2)
	doc := uploaded["series/S2/2024-01-15.json.zst"]
	require.NotNil(t, doc.Daily)
	assert.Equal(t, 12.5, doc.Daily.Value.Float64())
	assert.Equal(t, "relevé", doc.Daily.Remark)
	assert.False(t, uploaded["series/S2/2024-01-16.json.zst"].Daily.Value.Valid())
}

func TestS3StorePutDocumentsError(t *testing.T) {
	client := new(MockS3Client)
	ctx := context.Background()
	client.On("PutObject", ctx, mock.Anything).Return(nil, errors.New("quota exceeded")).Once()

	err := NewS3Store(client, "bucket").PutDocuments(ctx, "S2", []schema.ValueDocument{
		{Date: "2024-01-15", Daily: &schema.DailyValue{Value: schema.NewNullFloat(1)}},
		{Date: "2024-01-16", Daily: &schema.DailyValue{Value: schema.NewNullFloat(2)}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "series/S2/2024-01-15.json.zst")
	client.AssertExpectations(t)
}
