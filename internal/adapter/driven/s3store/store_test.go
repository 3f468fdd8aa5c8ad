package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// fakeS3 is an in-memory objectAPI.
type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	store := newStore(fake, "diary")
	store.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return store, fake
}

func TestStore_PutAndOpen(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "cat.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "s3://diary/images/2024/03/"), ref)
	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.True(t, store.Owns(ref))
	assert.Len(t, fake.objects, 1)

	rc, err := store.Open(ctx, ref)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestStore_PutRejectsNonImage(t *testing.T) {
	store, fake := newTestStore(t)

	_, err := store.Put(context.Background(), "notes.txt", "text/plain", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Empty(t, fake.objects)
}

func TestStore_PutFailureIsStorageError(t *testing.T) {
	store, fake := newTestStore(t)
	fake.putErr = errors.New("access denied")

	_, err := store.Put(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
}

func TestStore_OpenMissingAndForeign(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Open(ctx, "s3://diary/images/2024/03/nope.png")
	assert.ErrorIs(t, err, driven.ErrAttachmentNotFound)

	_, err = store.Open(ctx, "s3://other-bucket/images/a.png")
	assert.ErrorIs(t, err, driven.ErrAttachmentNotFound)

	assert.False(t, store.Owns("/tmp/a.png"))
	assert.False(t, store.Owns("s3://diary/../etc/passwd"))
}

func TestStore_Delete(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref))
	assert.Empty(t, fake.objects)
	require.NoError(t, store.Delete(ctx, ref), "deleting twice is fine")

	assert.ErrorIs(t, store.Delete(ctx, "s3://other-bucket/images/a.png"), driven.ErrAttachmentNotFound)
}

func TestStore_LocalDownloadsAndCleansUp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "a.gif", "image/gif", strings.NewReader("gif-bytes"))
	require.NoError(t, err)

	path, cleanup, err := store.Local(ctx, ref)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".gif"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gif-bytes", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{Region: "us-east-1"})
	assert.Error(t, err)
}
