package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gostratum/prefixstore"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockAPI) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.HeadBucketOutput)
	return out, args.Error(1)
}

func newTestStore(t *testing.T, api API, prefix string) *prefixstore.Store {
	t.Helper()
	cfg := prefixstore.DefaultConfig()
	cfg.Bucket = "test-bucket"
	cfg.Prefix = prefix
	cfg.PageSize = 2

	store, err := prefixstore.New(NewClient(api, nil), cfg)
	require.NoError(t, err)
	return store
}

func TestClient_ListFollowsContinuationTokens(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("idx/notes/a.txt"), Size: aws.Int64(1)},
			{Key: aws.String("idx/notes/b.txt"), Size: aws.Int64(2)},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("t1"),
	}, nil).Once()
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "t1"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("idx/notes/c.txt")},
			{Key: aws.String("idx/notes/d.txt")},
		},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	store := newTestStore(t, api, "idx")
	names, err := store.List(context.Background(), "notes")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "d.txt"}, names)

	api.AssertNumberOfCalls(t, "ListObjectsV2", 2)
	first := api.Calls[0].Arguments.Get(1).(*s3.ListObjectsV2Input)
	assert.Equal(t, "test-bucket", aws.ToString(first.Bucket))
	assert.Equal(t, "idx/notes/", aws.ToString(first.Prefix))
	assert.Equal(t, int32(2), aws.ToInt32(first.MaxKeys))
}

func TestClient_ListIgnoresTokenWhenNotTruncated(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("x")}},
		IsTruncated:           aws.Bool(false),
		NextContinuationToken: aws.String("stale"),
	}, nil).Once()

	out, err := NewClient(api, nil).ListObjects(context.Background(), prefixstore.ListObjectsInput{Bucket: "b"})
	require.NoError(t, err)
	assert.Nil(t, out.NextContinuationToken)
	require.Len(t, out.Objects, 1)
}

func TestClient_ListWholeBucketOmitsPrefix(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.Prefix == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String("top.txt")}, {Key: aws.String("dir/x")}},
	}, nil).Once()

	store := newTestStore(t, api, "")
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"top.txt", "dir/x"}, names)
	api.AssertExpectations(t)
}

func TestClient_ListPageFailure(t *testing.T) {
	api := &mockAPI{}
	api.On("ListObjectsV2", mock.Anything, mock.Anything).Return(nil, &types.NoSuchBucket{}).Once()

	store := newTestStore(t, api, "idx")
	names, err := store.List(context.Background(), "notes")
	assert.Nil(t, names)

	var se *prefixstore.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, prefixstore.OpList, se.Op)
	assert.Equal(t, "notes", se.Key)
	assert.True(t, prefixstore.IsNotFound(err))
}

func TestClient_ReadBytes(t *testing.T) {
	api := &mockAPI{}
	api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "idx/notes/a.txt"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("payload"))}, nil).Once()

	store := newTestStore(t, api, "idx")
	data, err := store.ReadBytes(context.Background(), "notes/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestClient_ReadBytesMissingBody(t *testing.T) {
	api := &mockAPI{}
	api.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{}, nil).Once()

	store := newTestStore(t, api, "idx")
	_, err := store.ReadBytes(context.Background(), "notes/a.txt")
	assert.ErrorIs(t, err, prefixstore.ErrMissingBody)
}

func TestClient_ReadBytesNotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	store := newTestStore(t, api, "idx")
	_, err := store.ReadBytes(context.Background(), "notes/missing.txt")

	var se *prefixstore.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "notes/missing.txt", se.Key, "errors carry the logical name")
	assert.True(t, prefixstore.IsNotFound(err))
}

func TestClient_WriteBytes(t *testing.T) {
	api := &mockAPI{}
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		_, _ = in.Body.(io.Seeker).Seek(0, io.SeekStart)
		return aws.ToString(in.Bucket) == "test-bucket" &&
			aws.ToString(in.Key) == "idx/notes/a.txt" &&
			aws.ToInt64(in.ContentLength) == 5 &&
			string(body) == "hello"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	store := newTestStore(t, api, "idx")
	require.NoError(t, store.WriteBytes(context.Background(), "notes/a.txt", []byte("hello")))
	api.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	api := &mockAPI{}
	api.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil).Once()
	api.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NotFound{}).Once()

	check := NewHealthChecker(NewClient(api, nil), "test-bucket")
	assert.Equal(t, "prefixstore.s3", check.Name())
	assert.NoError(t, check.Check(context.Background()))

	err := check.Check(context.Background())
	require.Error(t, err)
	assert.True(t, prefixstore.IsNotFound(err))
}
