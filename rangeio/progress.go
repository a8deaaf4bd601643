package rangeio

import (
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// WithProgressLogger wraps the given Store so that read progress is logged with the given interval.
//
// For example, if interval is `5*time.Second`, every 5 seconds the given logger will print `read X / Y so far` where X
// is the cumulative number of bytes read through the wrapper, Y the store's total extent, both in a human-friendly
// format (e.g. 5 KiB, 1 MiB, etc.). Useful when the store is backed by remote storage such as S3 and a large archive
// is being indexed or unpacked.
func WithProgressLogger(s Store, logger *log.Logger, interval time.Duration) Store {
	return &progressStore{
		Store:  s,
		logger: logger,
		rate:   &rate.Sometimes{Interval: interval},
	}
}

type progressStore struct {
	Store
	logger *log.Logger
	rate   *rate.Sometimes
	read   atomic.Int64
}

func (s *progressStore) ReadAt(p []byte, off int64) (n int, err error) {
	n, err = s.Store.ReadAt(p, off)

	read := s.read.Add(int64(n))
	s.rate.Do(func() {
		s.logger.Printf("read %s / %s so far", humanize.IBytes(uint64(read)), humanize.IBytes(uint64(s.Size())))
	})

	return n, err
}

func (s *progressStore) Section(off, n int64) (Store, error) {
	// sections keep reporting into the same counter.
	return newSection(s, off, n)
}

func (s *progressStore) Open() io.Reader {
	return io.NewSectionReader(s, 0, s.Size())
}
