package rangeio

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client abstracts the API that is needed to implement an S3-backed Store.
type S3Client interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3HeadClient additionally supports HeadObject to discover the object size.
type S3HeadClient interface {
	S3Client
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Options customises NewS3 and NewS3WithSize.
type S3Options struct {
	// CtxFn returns a context.Context to be used with every GetObject or HeadObject call.
	//
	// By default, context.Background is used.
	CtxFn func() context.Context

	// ModifyGetObjectInput can be used to modify the GetObject input parameters such as adding ExpectedBucketOwner.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ModifyHeadObjectInput can be used to modify the HeadObject input parameters. Only used by NewS3.
	ModifyHeadObjectInput func(*s3.HeadObjectInput) *s3.HeadObjectInput
}

// NewS3 returns a Store over the S3 object at the given bucket and key.
//
// The object size is discovered with a HeadObject call; reads are ranged
// GetObject calls and are safe to issue concurrently. The object must not
// change for the lifetime of the store.
func NewS3(client S3HeadClient, bucket, key string, optFns ...func(*S3Options)) (Store, error) {
	opts := s3Opts(optFns)

	headObjectOutput, err := client.HeadObject(opts.CtxFn(), opts.ModifyHeadObjectInput(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}))
	if err != nil {
		return nil, fmt.Errorf("determine object size error: %w", err)
	}

	return &s3Store{
		client:               client,
		bucket:               bucket,
		key:                  key,
		size:                 aws.ToInt64(headObjectOutput.ContentLength),
		ctxFn:                opts.CtxFn,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
	}, nil
}

// NewS3WithSize returns a Store over the S3 object at the given bucket, key, and known size.
func NewS3WithSize(client S3Client, bucket, key string, size int64, optFns ...func(*S3Options)) Store {
	opts := s3Opts(optFns)

	return &s3Store{
		client:               client,
		bucket:               bucket,
		key:                  key,
		size:                 size,
		ctxFn:                opts.CtxFn,
		modifyGetObjectInput: opts.ModifyGetObjectInput,
	}
}

func s3Opts(optFns []func(*S3Options)) *S3Options {
	opts := &S3Options{
		CtxFn: context.Background,
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
		ModifyHeadObjectInput: func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	return opts
}

type s3Store struct {
	client               S3Client
	bucket, key          string
	size                 int64
	ctxFn                func() context.Context
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
}

func (s *s3Store) ReadAt(p []byte, off int64) (n int, err error) {
	m := int64(len(p))
	if m == 0 {
		return 0, nil
	}
	if off < 0 || off >= s.size {
		return 0, fmt.Errorf("rangeio: read at %d in object sized %d: %w", off, s.size, ErrOutOfRange)
	}

	getObjectOutput, err := s.client.GetObject(s.ctxFn(), s.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+m-1)),
	}))
	if err != nil {
		return 0, err
	}

	n, err = io.ReadFull(getObjectOutput.Body, p)
	if _ = getObjectOutput.Body.Close(); err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

func (s *s3Store) Size() int64 {
	return s.size
}

func (s *s3Store) Section(off, n int64) (Store, error) {
	return newSection(s, off, n)
}

func (s *s3Store) Open() io.Reader {
	return io.NewSectionReader(s, 0, s.size)
}
