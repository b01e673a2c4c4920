// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package json

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/utf8"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonkit/pkg/log"
	"github.com/lk2023060901/jsonkit/pkg/metrics"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

const (
	CodecStandard = "jsoniter"
	CodecStrict   = "sonic"

	tracerName     = "github.com/lk2023060901/jsonkit/pkg/json"
	decodeSpanName = "json.loads"
)

var (
	standardAPI = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		UseNumber:              true,
	}.Froze()

	strictAPI = sonic.Config{
		UseNumber:      true,
		ValidateString: true,
		CopyString:     true,
	}.Froze()
)

type unmarshaler interface {
	Unmarshal(data []byte, v any) error
}

type codec struct {
	name string
	api  unmarshaler
}

var (
	standardCodec = codec{name: CodecStandard, api: standardAPI}
	strictCodec   = codec{name: CodecStrict, api: strictAPI}

	errInvalidJSON = errors.New("invalid json text")
	errInvalidUTF8 = errors.New("invalid utf-8 sequence")
)

// Valid 报告 data 是否为单个合法的 JSON 值：数字符合 RFC 8259 语法，
// 字符串不含控制字符，全文为合法 UTF-8，且没有尾随数据。
func Valid(data []byte) bool {
	return utf8.Validate(data) && sonic.Valid(data)
}

// validate 在解析前校验全文，两种解析器对非法输入的判定因此一致。
func (c codec) validate(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty input")
	}
	if !utf8.Validate(data) {
		return errInvalidUTF8
	}
	if sonic.Valid(data) {
		return nil
	}
	// 借解析器的报错带上出错位置。
	var scratch any
	if err := c.api.Unmarshal(data, &scratch); err != nil {
		return err
	}
	return errInvalidJSON
}

type decodeOptions struct {
	strict    bool
	skipTrace bool
}

// DecodeOption 调整单次解码的行为。
type DecodeOption func(*decodeOptions)

// WithStrictMode 为 true 时改用 sonic 解析。
// 两种模式都先校验全文，非法数字、控制字符与非法 UTF-8 一律返回 ErrMalformedInput。
func WithStrictMode(strict bool) DecodeOption {
	return func(o *decodeOptions) {
		o.strict = strict
	}
}

// WithSkipTrace 跳过本次解码的 span。
func WithSkipTrace() DecodeOption {
	return func(o *decodeOptions) {
		o.skipTrace = true
	}
}

func (o *decodeOptions) codec() codec {
	if o.strict {
		return strictCodec
	}
	return standardCodec
}

// Unmarshal 解析 JSON 文本，返回 map[string]any、[]any、string、bool、nil 或数字。
// 能放入 int64 的整数解析为 int64，其余数字为 float64；
// 超出 int64 的整数与超出 float64 范围的数字（如 1e400）保留为 json.Number，不丢精度。
func Unmarshal(data []byte, opts ...DecodeOption) (any, error) {
	return UnmarshalContext(context.Background(), data, opts...)
}

func UnmarshalString(s string, opts ...DecodeOption) (any, error) {
	return UnmarshalContext(context.Background(), []byte(s), opts...)
}

// UnmarshalContext 与 Unmarshal 相同，span 挂在 ctx 上。
func UnmarshalContext(ctx context.Context, data []byte, opts ...DecodeOption) (any, error) {
	var v any
	if err := decode(ctx, data, &v, opts); err != nil {
		return nil, err
	}
	return NormalizeNumbers(v), nil
}

// UnmarshalTo 解析到调用方给定的目标，v 必须为非 nil 指针。
// 目标为 *any 时数字按 Unmarshal 的规则转换。
func UnmarshalTo(data []byte, v any, opts ...DecodeOption) error {
	return UnmarshalToContext(context.Background(), data, v, opts...)
}

func UnmarshalToContext(ctx context.Context, data []byte, v any, opts ...DecodeOption) error {
	if err := decode(ctx, data, v, opts); err != nil {
		return err
	}
	if p, ok := v.(*any); ok {
		*p = NormalizeNumbers(*p)
	}
	return nil
}

// UnmarshalObject 解析一个 JSON 对象并保持键的原始顺序。
func UnmarshalObject(data []byte, opts ...DecodeOption) (*Object, error) {
	return UnmarshalObjectContext(context.Background(), data, opts...)
}

func UnmarshalObjectContext(ctx context.Context, data []byte, opts ...DecodeOption) (*Object, error) {
	obj := NewObject()
	if err := decode(ctx, data, obj, opts); err != nil {
		return nil, err
	}
	return obj, nil
}

// Decode 读取 r 的全部内容后解析。
func Decode(r io.Reader, opts ...DecodeOption) (any, error) {
	return DecodeContext(context.Background(), r, opts...)
}

func DecodeContext(ctx context.Context, r io.Reader, opts ...DecodeOption) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, merr.WrapErrIoFailed("reader", err)
	}
	return UnmarshalContext(ctx, data, opts...)
}

func decode(ctx context.Context, data []byte, v any, opts []DecodeOption) (err error) {
	o := &decodeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	c := o.codec()

	if !o.skipTrace {
		var span trace.Span
		ctx, span = otel.Tracer(tracerName).Start(ctx, decodeSpanName, trace.WithAttributes(
			attribute.String("json.codec", c.name),
			attribute.Int("json.size", len(data)),
		))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "malformed input")
			}
			span.End()
		}()
	}

	if verr := c.validate(data); verr != nil {
		err = merr.WrapErrMalformedInput(c.name, verr)
	} else if uerr := c.api.Unmarshal(data, v); uerr != nil {
		err = merr.WrapErrMalformedInput(c.name, uerr)
	}

	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
		log.Ctx(log.WithSpan(ctx)).Debug("failed to decode json",
			log.FieldCodec(c.name),
			zap.Int("size", len(data)),
			zap.Error(err))
	}
	metrics.JSONDecodeTotal.WithLabelValues(c.name, status).Inc()
	return err
}

// NormalizeNumbers 原地替换 v 中的 json.Number：能放入 int64 的整数转为 int64，
// 其余转为 float64。超出 int64 的整数和 float64 溢出的数字（如 1e400）保持 json.Number，
// 编码时按原文输出。
func NormalizeNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = NormalizeNumbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = NormalizeNumbers(item)
		}
		return x
	case stdjson.Number:
		return normalizeNumber(x)
	default:
		return v
	}
}

func normalizeNumber(n stdjson.Number) any {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// 溢出，保留原文
		return n
	}
	return f
}
