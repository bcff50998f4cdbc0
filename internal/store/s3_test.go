package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sketchsync/internal/cryptox"
	"github.com/dmitrijs2005/sketchsync/internal/models"
)

// fakeObjectStore backs the SDK seams with an in-memory bucket.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// pageSize forces ListObjectsV2 pagination when > 0.
	pageSize int
}

func installFakeObjectStore(t *testing.T) *fakeObjectStore {
	t.Helper()
	f := &fakeObjectStore{objects: map[string][]byte{}}

	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPut := putObject
	origGet := getObject
	origDelete := deleteObject
	origList := listObjectsV2
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		putObject = origPut
		getObject = origGet
		deleteObject = origDelete
		listObjectsV2 = origList
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		body, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.objects[aws.ToString(in.Key)] = body
		return &s3.PutObjectOutput{}, nil
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, ok := f.objects[aws.ToString(in.Key)]
		if !ok {
			return nil, &types.NoSuchKey{}
		}
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.objects, aws.ToString(in.Key))
		return &s3.DeleteObjectOutput{}, nil
	}

	listObjectsV2 = func(c *s3.Client, ctx context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
		f.mu.Lock()
		defer f.mu.Unlock()

		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		start := 0
		if tok := aws.ToString(in.ContinuationToken); tok != "" {
			fmt.Sscanf(tok, "%d", &start)
		}
		end := len(keys)
		if f.pageSize > 0 && start+f.pageSize < end {
			end = start + f.pageSize
		}

		out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
		for _, k := range keys[start:end] {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
		if end < len(keys) {
			out.NextContinuationToken = aws.String(fmt.Sprintf("%d", end))
		}
		return out, nil
	}

	return f
}

func newS3Repo(t *testing.T, passphrase string) (*S3Repository, *fakeObjectStore) {
	t.Helper()
	f := installFakeObjectStore(t)
	r, err := NewS3Repository(context.Background(), S3Config{
		Bucket:       "sketchsync",
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		BaseEndpoint: "http://127.0.0.1:9000",
		Passphrase:   passphrase,
	})
	require.NoError(t, err)
	return r, f
}

func TestS3InsertAndFetchAll(t *testing.T) {
	r, f := newS3Repo(t, "")
	ctx := context.Background()

	want := sampleDocument("d1")
	require.NoError(t, r.Insert(ctx, want))

	_, ok := f.objects["documents/d1.json"]
	require.True(t, ok)

	got, err := r.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	if diff := cmp.Diff(want.Snapshot(), got[0].Snapshot()); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestS3FetchAll_Paginates(t *testing.T) {
	r, f := newS3Repo(t, "")
	ctx := context.Background()

	docs := []string{"d1", "d2", "d3", "d4", "d5"}
	for _, id := range docs {
		require.NoError(t, r.Insert(ctx, sampleDocument(id)))
	}
	f.pageSize = 2

	got, err := r.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(docs))
}

func TestS3Delete(t *testing.T) {
	r, f := newS3Repo(t, "")
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, sampleDocument("d1")))
	require.NoError(t, r.Delete(ctx, "d1"))

	_, ok := f.objects["documents/d1.json"]
	assert.False(t, ok)

	// absent key is not an error
	require.NoError(t, r.Delete(ctx, "d1"))
}

func TestS3InsertAll(t *testing.T) {
	r, _ := newS3Repo(t, "")
	ctx := context.Background()

	require.NoError(t, r.InsertAll(ctx, []*models.Document{sampleDocument("d1"), sampleDocument("d2")}))

	got, err := r.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestS3Sealing_RoundTripAndSaltBootstrap(t *testing.T) {
	r, f := newS3Repo(t, "secret phrase")
	ctx := context.Background()

	salt, ok := f.objects[saltObjectKey]
	require.True(t, ok)
	assert.Len(t, salt, cryptox.SaltSize)

	want := sampleDocument("d1")
	require.NoError(t, r.Insert(ctx, want))

	// Sealed bodies must not be readable JSON.
	raw := f.objects["documents/d1.json"]
	var probe map[string]any
	require.Error(t, json.Unmarshal(raw, &probe))

	got, err := r.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	if diff := cmp.Diff(want.Snapshot(), got[0].Snapshot()); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestS3Sealing_SaltReused(t *testing.T) {
	f := installFakeObjectStore(t)

	cfg := S3Config{Bucket: "sketchsync", Passphrase: "secret phrase"}
	r1, err := NewS3Repository(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, r1.Insert(context.Background(), sampleDocument("d1")))

	salt := append([]byte(nil), f.objects[saltObjectKey]...)

	r2, err := NewS3Repository(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, salt, f.objects[saltObjectKey])

	got, err := r2.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewS3Repository_RequiresBucket(t *testing.T) {
	installFakeObjectStore(t)

	_, err := NewS3Repository(context.Background(), S3Config{})
	require.Error(t, err)
}
