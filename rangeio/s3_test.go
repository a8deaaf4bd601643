package rangeio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testS3Client implements S3HeadClient by slicing into its in-memory data.
//
// calls keeps track of GetObject input parameters for asserting.
type testS3Client struct {
	data []byte

	// mu guards write access to calls.
	mu    sync.Mutex
	calls []s3.GetObjectInput
}

func (c *testS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *input)
	c.mu.Unlock()

	rangeBytes := aws.ToString(input.Range)
	if rangeBytes == "" {
		return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(c.data))}, nil
	}

	values := strings.SplitN(strings.TrimPrefix(rangeBytes, "bytes="), "-", 2)
	if len(values) != 2 {
		return nil, fmt.Errorf("invalid range `%s`", rangeBytes)
	}

	i, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start byte in range `%s`: %w", rangeBytes, err)
	}

	j, err := strconv.ParseInt(values[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid end byte in range `%s`: %w", rangeBytes, err)
	}

	// like S3, an end past the object is truncated to the last byte.
	if j >= int64(len(c.data)) {
		j = int64(len(c.data)) - 1
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(c.data[i : j+1]))}, nil
}

func (c *testS3Client) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(c.data)))}, nil
}

func TestS3Store(t *testing.T) {
	client := &testS3Client{data: []byte("the quick brown fox")}

	s, err := NewS3(client, "bucket", "key")
	require.NoError(t, err)
	assert.EqualValues(t, 19, s.Size())

	b, err := Read(s, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, "quick", string(b))

	// the read must have been a single ranged GetObject.
	require.Len(t, client.calls, 1)
	assert.Equal(t, "bytes=4-8", aws.ToString(client.calls[0].Range))

	sub, err := s.Section(10, 9)
	require.NoError(t, err)

	b, err = Read(sub, 6, 3)
	require.NoError(t, err)
	assert.Equal(t, "fox", string(b))

	_, err = Read(s, 16, 10)
	assert.Error(t, err)
}

func TestS3StoreWithSize(t *testing.T) {
	client := &testS3Client{data: []byte("0123456789")}

	s := NewS3WithSize(client, "bucket", "key", 10)

	b, err := io.ReadAll(s.Open())
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b))
}
