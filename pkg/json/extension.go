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
	"encoding"
	stdjson "encoding/json"
	"math"
	"reflect"
	"strconv"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"

	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

var (
	objectType        = reflect.TypeFor[Object]()
	objectPtrType     = reflect.TypeFor[*Object]()
	jsonMarshalerType = reflect.TypeFor[stdjson.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// registryExtension 将 Registry 接入 json-iterator 的编码器构建流程。
// 扩展编码器先于类型自带的 MarshalJSON/MarshalText 生效，
// 因此 time.Time、uuid.UUID、decimal.Decimal 输出固定格式。
type registryExtension struct {
	jsoniter.DummyExtension
	registry *Registry
}

func (e *registryExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	t := typ.Type1()
	switch {
	case t.Kind() == reflect.Interface:
		return nil
	case t == objectType:
		return objectEncoder{}
	case t == objectPtrType:
		return objectPtrEncoder{}
	}
	if ext, ok := e.registry.Find(t); ok {
		return &coerceEncoder{typ: typ, ext: ext}
	}
	// *T 且 T 命中扩展时解引用后按 T 编码，避免落入 *T 的 MarshalJSON。
	if t.Kind() == reflect.Ptr {
		if _, ok := e.registry.Find(t.Elem()); ok {
			return &derefEncoder{typ: typ}
		}
	}
	if (t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64) && !hasMarshaler(t) {
		return &floatEncoder{bits: t.Bits()}
	}
	return nil
}

func hasMarshaler(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) ||
		pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType)
}

// coerceEncoder 对命中扩展的值执行一次转换，再把结果交回 stream 编码。
type coerceEncoder struct {
	typ reflect2.Type
	ext Extension
}

func (enc *coerceEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	v := enc.typ.UnsafeIndirect(ptr)
	if isNilValue(v) {
		stream.WriteNil()
		return
	}
	out, err := enc.ext.Coerce(v)
	if err == nil && out != nil && reflect.TypeOf(out) == enc.typ.Type1() {
		err = merr.WrapErrUnsupportedValue(repr(v), enc.ext.Name+" coercion returned the same type")
	}
	if err != nil {
		setStreamError(stream, err)
		return
	}
	stream.WriteVal(out)
}

func (enc *coerceEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	v := enc.typ.UnsafeIndirect(ptr)
	return v == nil || reflect.ValueOf(v).IsZero()
}

type derefEncoder struct {
	typ reflect2.Type
}

func (enc *derefEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	rv := reflect.ValueOf(enc.typ.UnsafeIndirect(ptr))
	if rv.IsNil() {
		stream.WriteNil()
		return
	}
	stream.WriteVal(rv.Elem().Interface())
}

func (enc *derefEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return reflect.ValueOf(enc.typ.UnsafeIndirect(ptr)).IsNil()
}

// floatEncoder 将 NaN 与 ±Inf 编码为 null。
// 整数值的浮点数保留 .0 后缀，解码后仍为浮点数。
type floatEncoder struct {
	bits int
}

func (enc *floatEncoder) read(ptr unsafe.Pointer) float64 {
	if enc.bits == 32 {
		return float64(*(*float32)(ptr))
	}
	return *(*float64)(ptr)
}

func (enc *floatEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	f := enc.read(ptr)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		stream.WriteNil()
		return
	}
	stream.SetBuffer(appendFloat(stream.Buffer(), f, enc.bits))
}

func (enc *floatEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return enc.read(ptr) == 0
}

func appendFloat(buf []byte, f float64, bits int) []byte {
	abs := math.Abs(f)
	format := byte('f')
	if abs != 0 {
		if bits == 64 && (abs < 1e-6 || abs >= 1e16) ||
			bits == 32 && (float32(abs) < 1e-6 || float32(abs) >= 1e16) {
			format = 'e'
		}
	}
	start := len(buf)
	buf = strconv.AppendFloat(buf, f, format, -1, bits)
	if format == 'e' {
		// e-09 -> e-9
		n := len(buf)
		if n >= 4 && buf[n-4] == 'e' && buf[n-3] == '-' && buf[n-2] == '0' {
			buf[n-2] = buf[n-1]
			buf = buf[:n-1]
		}
		return buf
	}
	for _, c := range buf[start:] {
		if c == '.' {
			return buf
		}
	}
	return append(buf, '.', '0')
}

type objectEncoder struct{}

func (objectEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	encodeObject((*Object)(ptr), stream)
}

func (objectEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return (*Object)(ptr).Len() == 0
}

type objectPtrEncoder struct{}

func (objectPtrEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	obj := *(**Object)(ptr)
	if obj == nil {
		stream.WriteNil()
		return
	}
	encodeObject(obj, stream)
}

func (objectPtrEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return *(**Object)(ptr) == nil
}

func encodeObject(obj *Object, stream *jsoniter.Stream) {
	stream.WriteObjectStart()
	for i, key := range obj.keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(key)
		stream.WriteVal(obj.values[key])
	}
	stream.WriteObjectEnd()
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func setStreamError(stream *jsoniter.Stream, err error) {
	if stream.Error == nil {
		stream.Error = err
	}
}
