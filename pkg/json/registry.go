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
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

// FunctionPlaceholder 为函数值编码后的字面量。
const FunctionPlaceholder = "<function>"

// layoutDateTime 固定输出微秒精度并以 Z 结尾。
const layoutDateTime = "2006-01-02T15:04:05.000000Z"

var (
	uuidType        = reflect.TypeFor[uuid.UUID]()
	timeType        = reflect.TypeFor[time.Time]()
	dateType        = reflect.TypeFor[Date]()
	timeOfDayType   = reflect.TypeFor[TimeOfDay]()
	decimalType     = reflect.TypeFor[decimal.Decimal]()
	emptyStructType = reflect.TypeFor[struct{}]()
	enumType        = reflect.TypeFor[Enum]()
	bitHandlerType  = reflect.TypeFor[BitHandler]()
	querySetType    = reflect.TypeFor[QuerySet]()
	promiseType     = reflect.TypeFor[Promise]()
)

// Extension 描述一种扩展类型：Match 判断类型是否命中，Coerce 将值转换为可直接编码的值。
// Coerce 的结果会继续按普通规则编码，因此可以返回包含其他扩展类型的容器。
type Extension struct {
	Name   string
	Match  func(t reflect.Type) bool
	Coerce func(v any) (any, error)
}

// Registry 是有序的扩展类型列表，按顺序匹配，第一个命中的扩展生效。
// 创建后只读，可被多个 Encoder 并发共享。
type Registry struct {
	extensions []Extension
}

// NewRegistry 以给定顺序创建 Registry。
func NewRegistry(extensions ...Extension) *Registry {
	return &Registry{extensions: append([]Extension(nil), extensions...)}
}

var defaultRegistry = NewRegistry(DefaultExtensions()...)

// DefaultRegistry 返回内置扩展组成的 Registry。
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Extensions 返回扩展列表的副本。
func (r *Registry) Extensions() []Extension {
	return append([]Extension(nil), r.extensions...)
}

// Find 返回第一个匹配 t 的扩展，接口类型永远不匹配。
func (r *Registry) Find(t reflect.Type) (Extension, bool) {
	if t == nil || t.Kind() == reflect.Interface {
		return Extension{}, false
	}
	for _, ext := range r.extensions {
		if ext.Match(t) {
			return ext, true
		}
	}
	return Extension{}, false
}

// Coerce 对单个值执行一次扩展转换，不递归。
// 没有扩展匹配时返回 ErrUnsupportedValue。
func (r *Registry) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	ext, ok := r.Find(reflect.TypeOf(v))
	if !ok {
		return nil, merr.WrapErrUnsupportedValue(repr(v))
	}
	return ext.Coerce(v)
}

// DefaultExtensions 返回内置扩展，顺序即优先级。
func DefaultExtensions() []Extension {
	return []Extension{
		{
			Name:  "uuid",
			Match: isType(uuidType),
			Coerce: func(v any) (any, error) {
				id := v.(uuid.UUID)
				return hex.EncodeToString(id[:]), nil
			},
		},
		{
			Name:  "datetime",
			Match: isType(timeType),
			Coerce: func(v any) (any, error) {
				return v.(time.Time).UTC().Format(layoutDateTime), nil
			},
		},
		{
			Name:  "date",
			Match: isType(dateType),
			Coerce: func(v any) (any, error) {
				return v.(Date).String(), nil
			},
		},
		{
			Name:  "time",
			Match: isType(timeOfDayType),
			Coerce: func(v any) (any, error) {
				t := v.(TimeOfDay)
				if t.Aware() {
					return nil, merr.WrapErrNaiveTimeRequired(fmt.Sprintf("%s %s", t, t.Location))
				}
				return t.String(), nil
			},
		},
		{
			Name:   "set",
			Match:  isSetType,
			Coerce: setToSlice,
		},
		{
			Name:  "decimal",
			Match: isType(decimalType),
			Coerce: func(v any) (any, error) {
				return decimalString(v.(decimal.Decimal)), nil
			},
		},
		{
			Name:  "enum",
			Match: implements(enumType),
			Coerce: func(v any) (any, error) {
				return v.(Enum).EnumValue(), nil
			},
		},
		{
			Name:  "bitfield",
			Match: implements(bitHandlerType),
			Coerce: func(v any) (any, error) {
				return v.(BitHandler).Int(), nil
			},
		},
		{
			Name:  "function",
			Match: isKind(reflect.Func),
			Coerce: func(any) (any, error) {
				return FunctionPlaceholder, nil
			},
		},
		{
			Name:  "queryset",
			Match: implements(querySetType),
			Coerce: func(v any) (any, error) {
				items, err := v.(QuerySet).Evaluate()
				if err != nil {
					return nil, errors.Wrap(err, "failed to evaluate query set")
				}
				if items == nil {
					items = []any{}
				}
				return items, nil
			},
		},
		{
			Name:  "promise",
			Match: implements(promiseType),
			Coerce: func(v any) (any, error) {
				return v.(Promise).Force(), nil
			},
		},
		{
			Name:  "unsupported",
			Match: isKind(reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer),
			Coerce: func(v any) (any, error) {
				return nil, merr.WrapErrUnsupportedValue(repr(v))
			},
		},
	}
}

func isType(want reflect.Type) func(reflect.Type) bool {
	return func(t reflect.Type) bool {
		return t == want
	}
}

func implements(iface reflect.Type) func(reflect.Type) bool {
	return func(t reflect.Type) bool {
		return t.Implements(iface)
	}
}

func isKind(kinds ...reflect.Kind) func(reflect.Type) bool {
	return func(t reflect.Type) bool {
		for _, k := range kinds {
			if t.Kind() == k {
				return true
			}
		}
		return false
	}
}

// isSetType 匹配元素类型为 struct{} 的 map，包括 typeutil.Set。
func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == emptyStructType
}

// setToSlice 将集合转换为切片。
// 字符串与数值元素按升序输出，其余类型顺序不确定。
func setToSlice(v any) (any, error) {
	keys := reflect.ValueOf(v).MapKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return lessValue(keys[i], keys[j])
	})
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k.Interface()
	}
	return out, nil
}

func lessValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.String:
		return a.String() < b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() < b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() < b.Float()
	default:
		return false
	}
}

// decimalString 保留精度与尾随零：1.50 输出 "1.50"。
// 指数为正或调整后指数小于 -6 时使用科学计数法，如 "1E+2"、"1.5E-7"。
func decimalString(d decimal.Decimal) string {
	exp := d.Exponent()
	digits := d.Coefficient().String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	adjusted := int(exp) + len(digits) - 1
	if exp <= 0 && adjusted >= -6 {
		return d.StringFixed(-exp)
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(digits[:1])
	if len(digits) > 1 {
		b.WriteByte('.')
		b.WriteString(digits[1:])
	}
	b.WriteByte('E')
	if adjusted >= 0 {
		b.WriteByte('+')
	}
	b.WriteString(strconv.Itoa(adjusted))
	return b.String()
}

func repr(v any) string {
	return fmt.Sprintf("%#v", v)
}
