// Package source opens archives for the CLI from local paths or s3:// URIs.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nguyengg/nestedjar"
	"github.com/nguyengg/nestedjar/rangeio"
)

// Open indexes the archive at the given location, which is either a local file
// path or an s3://bucket/key URI, then descends into each named nested entry in
// order. S3 objects are indexed in place with ranged reads; only the central
// directory and the requested entries are ever downloaded.
func Open(ctx context.Context, location string, nested []string) (*nestedjar.Archive, error) {
	a, err := open(ctx, location)
	if err != nil {
		return nil, err
	}

	for _, name := range nested {
		if a, err = a.Nested(name); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func open(ctx context.Context, location string) (*nestedjar.Archive, error) {
	if !strings.HasPrefix(location, "s3://") {
		return nestedjar.Open(location)
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf(`invalid S3 URI "%s"; expected s3://bucket/key`, location)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load default config error: %w", err)
	}

	store, err := rangeio.NewS3(s3.NewFromConfig(cfg), bucket, key, func(opts *rangeio.S3Options) {
		opts.CtxFn = func() context.Context { return ctx }
	})
	if err != nil {
		return nil, err
	}

	return nestedjar.New(store)
}
