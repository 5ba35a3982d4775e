package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filippo.io/age"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-care-tracker/internal/domain/errs"
	"pet-care-tracker/internal/ports/cloudsync"
	"pet-care-tracker/internal/ports/storage"
)

type fakeBucket struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBucket) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := *in.Bucket + "/" + *in.Key
	f.objects[key] = b
	f.types[key] = *in.ContentType
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func sampleSnapshot() cloudsync.Snapshot {
	return cloudsync.Snapshot{
		Version:    cloudsync.SnapshotVersion,
		ExportedAt: time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
		Collections: map[storage.Kind]json.RawMessage{
			storage.KindPets:  json.RawMessage(`[{"id":"p1","name":"Milo"}]`),
			storage.KindTasks: json.RawMessage(`[]`),
		},
	}
}

func writeIdentity(t *testing.T) (recipient, identityPath string) {
	t.Helper()
	id, err := age.GenerateX25519Identity()
	require.NoError(t, err)

	identityPath = filepath.Join(t.TempDir(), "identity.txt")
	require.NoError(t, os.WriteFile(identityPath, []byte(id.String()+"\n"), 0o600))
	return id.Recipient().String(), identityPath
}

func TestSyncer_PlainRoundTrip(t *testing.T) {
	bucket := newFakeBucket()
	s := NewWithClient(bucket, "pets", "/device-1/", nil)
	assert.Equal(t, "device-1/snapshot.json", s.Key())

	ctx := context.Background()
	require.NoError(t, s.PushAll(ctx, sampleSnapshot()))
	assert.Equal(t, "application/json", bucket.types["pets/device-1/snapshot.json"])

	got, err := s.PullAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, cloudsync.SnapshotVersion, got.Version)
	assert.True(t, got.ExportedAt.Equal(sampleSnapshot().ExportedAt))
	assert.JSONEq(t, `[{"id":"p1","name":"Milo"}]`, string(got.Collections[storage.KindPets]))
}

func TestSyncer_MissingObjectIsEmpty(t *testing.T) {
	s := NewWithClient(newFakeBucket(), "pets", "", nil)

	got, err := s.PullAll(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestSyncer_EncryptedRoundTrip(t *testing.T) {
	recipient, identityPath := writeIdentity(t)
	sealer, err := NewSealer(recipient, identityPath)
	require.NoError(t, err)

	bucket := newFakeBucket()
	s := NewWithClient(bucket, "pets", "", sealer)
	ctx := context.Background()

	require.NoError(t, s.PushAll(ctx, sampleSnapshot()))

	stored := bucket.objects["pets/snapshot.json"]
	assert.True(t, bytes.HasPrefix(stored, []byte(ageHeader)))
	assert.NotContains(t, string(stored), "Milo")
	assert.Equal(t, "application/octet-stream", bucket.types["pets/snapshot.json"])

	got, err := s.PullAll(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1","name":"Milo"}]`, string(got.Collections[storage.KindPets]))

	// sin identidad no se puede leer
	pushOnly, err := NewSealer(recipient, "")
	require.NoError(t, err)
	_, err = NewWithClient(bucket, "pets", "", pushOnly).PullAll(ctx)
	var se *errs.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errs.SyncFailed, se.Kind)
}

func TestSyncer_TransportErrorsAreUnavailable(t *testing.T) {
	bucket := newFakeBucket()
	bucket.err = errors.New("dial tcp: connection refused")
	s := NewWithClient(bucket, "pets", "", nil)

	var se *errs.SyncError
	_, err := s.PullAll(context.Background())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errs.SyncUnavailable, se.Kind)

	err = s.PushAll(context.Background(), sampleSnapshot())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errs.SyncUnavailable, se.Kind)
}

func TestSyncer_CorruptObject(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["pets/snapshot.json"] = []byte("not json")
	s := NewWithClient(bucket, "pets", "", nil)

	_, err := s.PullAll(context.Background())
	var se *errs.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errs.SyncFailed, se.Kind)
}

func TestNewSealer_BadRecipient(t *testing.T) {
	_, err := NewSealer("not-a-key", "")
	assert.Error(t, err)

	s, err := NewSealer("", "")
	require.NoError(t, err)
	assert.False(t, s.Encrypts())
}
