package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/sketchsync/internal/common"
	"github.com/dmitrijs2005/sketchsync/internal/cryptox"
	"github.com/dmitrijs2005/sketchsync/internal/models"
)

// Seams for the AWS SDK so tests can stub object-store calls.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
	listObjectsV2 = func(c *s3.Client, ctx context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
		return c.ListObjectsV2(ctx, in)
	}
)

const (
	documentPrefix = "documents/"
	saltObjectKey  = "meta/salt"
)

// S3Config holds the object-store connection settings.
type S3Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string // MinIO-compatible override, empty for AWS
	Passphrase   string // non-empty enables sealing of object bodies
}

// S3Repository implements Repository on an S3-compatible object store,
// one JSON object per document.
type S3Repository struct {
	client *s3.Client
	bucket string
	sealer *sealer
}

// NewS3Repository connects to the object store and, when a passphrase is
// configured, bootstraps the key-derivation salt from the meta/salt
// object.
func NewS3Repository(ctx context.Context, cfg S3Config) (*S3Repository, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket", common.ErrorNotConfigured)
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	r := &S3Repository{client: client, bucket: cfg.Bucket}
	if cfg.Passphrase != "" {
		salt, err := r.loadOrCreateSalt(ctx)
		if err != nil {
			return nil, err
		}
		r.sealer = newSealer(cfg.Passphrase, salt)
	}
	return r, nil
}

func (r *S3Repository) loadOrCreateSalt(ctx context.Context) ([]byte, error) {
	out, err := getObject(r.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(saltObjectKey),
	})
	if err == nil {
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	}
	if !isNoSuchKey(err) {
		return nil, fmt.Errorf("failed to load encryption salt: %w", err)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	_, err = putObject(r.client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(saltObjectKey),
		Body:   bytes.NewReader(salt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store encryption salt: %w", err)
	}
	return salt, nil
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

func documentKey(id string) string {
	return documentPrefix + id + ".json"
}

func (r *S3Repository) put(ctx context.Context, doc *models.Document) error {
	dto := toDTO(doc)
	body, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if body, err = r.sealer.seal(body); err != nil {
		return fmt.Errorf("failed to seal document: %w", err)
	}

	_, err = putObject(r.client, ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(documentKey(dto.ID)),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to put document: %w", err)
	}
	return nil
}

// Insert stores a new document. Object stores upsert by nature, so Insert
// and Update share the write path.
func (r *S3Repository) Insert(ctx context.Context, doc *models.Document) error {
	return r.put(ctx, doc)
}

// InsertAll stores documents one object at a time; the object store has
// no batch write.
func (r *S3Repository) InsertAll(ctx context.Context, docs []*models.Document) error {
	for _, doc := range docs {
		if err := r.put(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Update rewrites the document's object.
func (r *S3Repository) Update(ctx context.Context, doc *models.Document) error {
	return r.put(ctx, doc)
}

// Delete removes the document's object. Absent keys are not an error.
func (r *S3Repository) Delete(ctx context.Context, id string) error {
	_, err := deleteObject(r.client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(documentKey(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// FetchAll lists the documents/ prefix and loads every object.
func (r *S3Repository) FetchAll(ctx context.Context) ([]*models.Document, error) {
	var result []*models.Document

	var token *string
	for {
		out, err := listObjectsV2(r.client, ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(documentPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			doc, err := r.get(ctx, key)
			if err != nil {
				return nil, err
			}
			result = append(result, doc)
		}

		if !aws.ToBool(out.IsTruncated) {
			return result, nil
		}
		token = out.NextContinuationToken
	}
}

func (r *S3Repository) get(ctx context.Context, key string) (*models.Document, error) {
	out, err := getObject(r.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if body, err = r.sealer.open(body); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}

	var dto documentDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	if dto.ID == "" {
		dto.ID = strings.TrimSuffix(path.Base(key), ".json")
	}
	return dto.model(), nil
}
