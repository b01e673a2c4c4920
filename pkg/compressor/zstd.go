package compressor

import (
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor 基于 github.com/klauspost/compress/zstd 的流式实现。
type ZstdCompressor struct {
	concurrency int
}

var _ Compressor = (*ZstdCompressor)(nil)

// NewZstdCompressor 创建 ZstdCompressor。
// concurrency <= 0 时使用 GOMAXPROCS。
func NewZstdCompressor(concurrency int) *ZstdCompressor {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &ZstdCompressor{concurrency: concurrency}
}

func (c *ZstdCompressor) Name() string {
	return Zstd
}

func (c *ZstdCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(c.concurrency))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func (c *ZstdCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w,
		zstd.WithZeroFrames(true),
		zstd.WithEncoderConcurrency(c.concurrency),
	)
}
