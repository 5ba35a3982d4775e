// Package s3 guarda la foto de sync como un único objeto en un bucket S3
// (o compatible, p.ej. MinIO), opcionalmente cifrado con age.
package s3

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
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/ports/cloudsync"
)

const objectName = "snapshot.json"

// ObjectAPI es el subconjunto del cliente S3 que usa el syncer.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

type Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint para servicios compatibles; vacío usa AWS.
	Endpoint     string
	UsePathStyle bool

	// Sin credenciales estáticas se usa la cadena por defecto del SDK.
	AccessKeyID     string
	SecretAccessKey string

	AgeRecipient    string
	AgeIdentityPath string
}

type Syncer struct {
	api    ObjectAPI
	bucket string
	key    string
	sealer *Sealer
}

var _ cloudsync.Syncer = (*Syncer)(nil)

func New(ctx context.Context, opts Options) (*Syncer, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("s3 sync: bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	sealer, err := NewSealer(opts.AgeRecipient, opts.AgeIdentityPath)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client, opts.Bucket, opts.Prefix, sealer), nil
}

func NewWithClient(api ObjectAPI, bucket, prefix string, sealer *Sealer) *Syncer {
	return &Syncer{
		api:    api,
		bucket: bucket,
		key:    path.Join(strings.Trim(prefix, "/"), objectName),
		sealer: sealer,
	}
}

func (s *Syncer) Key() string { return s.key }

// PullAll baja la foto. Si el objeto todavía no existe devuelve una foto vacía.
func (s *Syncer) PullAll(ctx context.Context) (cloudsync.Snapshot, error) {
	out, err := s.api.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return cloudsync.Snapshot{}, nil
		}
		return cloudsync.Snapshot{}, &errs.SyncError{Kind: errs.SyncUnavailable, Err: fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return cloudsync.Snapshot{}, &errs.SyncError{Kind: errs.SyncUnavailable, Err: fmt.Errorf("reading snapshot: %w", err)}
	}
	plain, err := s.sealer.Open(data)
	if err != nil {
		return cloudsync.Snapshot{}, &errs.SyncError{Kind: errs.SyncFailed, Err: err}
	}

	var snap cloudsync.Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return cloudsync.Snapshot{}, &errs.SyncError{Kind: errs.SyncFailed, Err: fmt.Errorf("decoding snapshot: %w", err)}
	}
	return snap, nil
}

// PushAll reemplaza el objeto remoto con la foto dada.
func (s *Syncer) PushAll(ctx context.Context, snap cloudsync.Snapshot) error {
	plain, err := json.Marshal(snap)
	if err != nil {
		return &errs.SyncError{Kind: errs.SyncFailed, Err: fmt.Errorf("encoding snapshot: %w", err)}
	}
	body, err := s.sealer.Seal(plain)
	if err != nil {
		return &errs.SyncError{Kind: errs.SyncFailed, Err: err}
	}

	contentType := "application/json"
	if s.sealer.Encrypts() {
		contentType = "application/octet-stream"
	}

	_, err = s.api.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return &errs.SyncError{Kind: errs.SyncUnavailable, Err: fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key, err)}
	}
	return nil
}
