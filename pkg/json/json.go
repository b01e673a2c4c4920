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

// Package json 是带扩展类型转换的 JSON 编解码适配层。
//
// 编码使用 json-iterator，并按 Registry 的顺序将 UUID、时间、集合、Decimal 等
// 原生无法表示的值转换为普通 JSON 值；NaN 与 ±Inf 编码为 null；字符串中的非法 UTF-8
// 替换为 U+FFFD；输出不含多余空白。
// 解码默认使用 json-iterator，严格模式使用 sonic，两者解析前都经过同一次全文校验。
// 解码只得到普通的 JSON 值，不会还原扩展类型。
package json

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bytedance/sonic/utf8"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/jsonkit/pkg/metrics"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

const (
	VariantPlain    = "plain"
	VariantHTMLSafe = "html"
)

// Encoder 是不可变的编码配置，创建后可并发使用。
type Encoder struct {
	api      jsoniter.API
	registry *Registry
	htmlSafe bool
}

type EncoderOption func(*Encoder)

// WithHTMLSafe 对输出额外转义 & < > '，可嵌入 HTML 的 <script> 块。
func WithHTMLSafe() EncoderOption {
	return func(e *Encoder) {
		e.htmlSafe = true
	}
}

// WithRegistry 使用自定义的扩展类型列表。
func WithRegistry(r *Registry) EncoderOption {
	return func(e *Encoder) {
		if r != nil {
			e.registry = r
		}
	}
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{registry: defaultRegistry}
	for _, opt := range opts {
		opt(e)
	}
	api := jsoniter.Config{
		EscapeHTML:             false,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&registryExtension{registry: e.registry})
	e.api = api
	return e
}

var (
	defaultEncoder  = NewEncoder()
	htmlSafeEncoder = NewEncoder(WithHTMLSafe())
)

// DefaultEncoder 返回包级默认 Encoder。
func DefaultEncoder() *Encoder {
	return defaultEncoder
}

// HTMLSafeEncoder 返回包级 HTML 安全 Encoder。
func HTMLSafeEncoder() *Encoder {
	return htmlSafeEncoder
}

func (e *Encoder) HTMLSafe() bool {
	return e.htmlSafe
}

func (e *Encoder) variant() string {
	if e.htmlSafe {
		return VariantHTMLSafe
	}
	return VariantPlain
}

// Marshal 编码 v。失败时返回 ErrUnsupportedValue，不返回部分结果。
func (e *Encoder) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) MarshalString(v any) (string, error) {
	data, err := e.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encode 将 v 编码后写入 w，结尾不追加换行。
// 编码完成后才写入 w，编码失败时 w 不会收到任何数据。
func (e *Encoder) Encode(w io.Writer, v any) error {
	stream := e.api.BorrowStream(nil)
	defer e.api.ReturnStream(stream)

	stream.WriteVal(v)
	if stream.Error != nil {
		err := wrapEncodeError(v, stream.Error)
		metrics.JSONEncodeTotal.WithLabelValues(e.variant(), metrics.FailLabel).Inc()
		return err
	}

	raw := stream.Buffer()
	if !utf8.Validate(raw) {
		// 字符串中的非法字节替换为 U+FFFD，保证输出为合法 UTF-8。
		raw = utf8.CorrectWith(nil, raw, "\ufffd")
	}
	if e.htmlSafe {
		w = newHTMLEscapeWriter(w)
	}
	if _, err := w.Write(raw); err != nil {
		metrics.JSONEncodeTotal.WithLabelValues(e.variant(), metrics.FailLabel).Inc()
		return merr.WrapErrIoFailed("writer", err)
	}
	metrics.JSONEncodeTotal.WithLabelValues(e.variant(), metrics.SuccessLabel).Inc()
	metrics.JSONEncodedBytes.WithLabelValues(e.variant()).Observe(float64(len(raw)))
	return nil
}

func wrapEncodeError(v any, err error) error {
	if errors.Is(err, merr.ErrUnsupportedValue) {
		return err
	}
	return merr.WrapErrUnsupportedValue(fmt.Sprintf("%T", v), err.Error())
}

// Marshal 使用默认 Encoder 编码。
func Marshal(v any) ([]byte, error) {
	return defaultEncoder.Marshal(v)
}

func MarshalString(v any) (string, error) {
	return defaultEncoder.MarshalString(v)
}

// MarshalHTMLSafe 编码并转义 & < > '。
func MarshalHTMLSafe(v any) (string, error) {
	return htmlSafeEncoder.MarshalString(v)
}

// MarshalEscaped 根据 escape 选择 HTML 安全或普通编码。
func MarshalEscaped(v any, escape bool) (string, error) {
	if escape {
		return MarshalHTMLSafe(v)
	}
	return MarshalString(v)
}

// Encode 使用默认 Encoder 将 v 写入 w。
func Encode(w io.Writer, v any) error {
	return defaultEncoder.Encode(w, v)
}

func EncodeHTMLSafe(w io.Writer, v any) error {
	return htmlSafeEncoder.Encode(w, v)
}
