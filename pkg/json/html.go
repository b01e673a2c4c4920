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
	"io"
)

const hexDigits = "0123456789abcdef"

// htmlEscapeWriter 在写入下游前将 & < > ' 替换为 \u00XX 转义。
// 这些字符在编码结果中只会出现在字符串内部，替换后仍是合法 JSON，
// 且可以安全嵌入 HTML 的 <script> 块。
type htmlEscapeWriter struct {
	w   io.Writer
	buf []byte
}

func newHTMLEscapeWriter(w io.Writer) *htmlEscapeWriter {
	return &htmlEscapeWriter{w: w}
}

func (h *htmlEscapeWriter) Write(p []byte) (int, error) {
	h.buf = appendHTMLEscaped(h.buf[:0], p)
	if _, err := h.w.Write(h.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

func appendHTMLEscaped(dst, src []byte) []byte {
	for _, c := range src {
		switch c {
		case '&', '<', '>', '\'':
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
