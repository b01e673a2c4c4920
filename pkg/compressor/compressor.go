package compressor

import (
	"io"
	"strings"

	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

const (
	None = "none"
	Zstd = "zstd"
)

// Compressor 对 NDJSON 输入输出做流式压缩与解压。
//
// 调用方按需创建实例，不做全局单例。
type Compressor interface {
	Name() string

	// NewReader 返回解压 r 的 Reader，调用方负责 Close。
	NewReader(r io.Reader) (io.ReadCloser, error)

	// NewWriter 返回压缩后写入 w 的 Writer。
	// Close 会写出剩余数据，但不会关闭 w。
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

// Get 按名称返回 Compressor，空字符串等同于 none。
func Get(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", None:
		return NopCompressor{}, nil
	case Zstd:
		return NewZstdCompressor(0), nil
	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown compression %q", name)
	}
}

// NopCompressor 不做任何压缩，直接透传输入输出。
type NopCompressor struct{}

var _ Compressor = NopCompressor{}

func (NopCompressor) Name() string {
	return None
}

func (NopCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (NopCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
