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
	"slices"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

// Object 是保持插入顺序的 JSON 对象，键唯一。
// 零值可直接使用，非并发安全。
type Object struct {
	keys   []string
	values map[string]any
}

func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set 设置 key 的值。已存在的 key 保持原有位置，只更新值。
func (o *Object) Set(key string, value any) *Object {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Delete 删除 key，返回 key 是否存在。
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	return true
}

// Keys 按插入顺序返回所有 key 的副本。
func (o *Object) Keys() []string {
	return slices.Clone(o.keys)
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range 按插入顺序遍历，f 返回 false 时停止。
func (o *Object) Range(f func(key string, value any) bool) {
	for _, key := range o.keys {
		if !f(key, o.values[key]) {
			return
		}
	}
}

// MarshalJSON 使用默认 Encoder 编码，供 encoding/json 等其他编解码器使用。
func (o *Object) MarshalJSON() ([]byte, error) {
	return defaultEncoder.Marshal(o)
}

// UnmarshalJSON 解析一个 JSON 对象并保持键顺序，嵌套对象同样解析为 *Object。
// 重复的 key 以最后一次出现的值为准。
func (o *Object) UnmarshalJSON(data []byte) error {
	if !Valid(data) {
		return errInvalidJSON
	}
	iter := jsoniter.ParseBytes(standardAPI, data)
	if next := iter.WhatIsNext(); next != jsoniter.ObjectValue {
		return errors.Newf("expect a JSON object, but found value type %d", next)
	}
	v := readOrdered(iter)
	if iter.Error != nil && iter.Error != io.EOF {
		return iter.Error
	}
	*o = *v.(*Object)
	return nil
}

// readOrdered 递归读取一个 JSON 值，对象读为 *Object，数字按整数优先规则转换。
func readOrdered(iter *jsoniter.Iterator) any {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		obj := NewObject()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			obj.Set(key, readOrdered(it))
			return it.Error == nil
		})
		return obj
	case jsoniter.ArrayValue:
		arr := []any{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			arr = append(arr, readOrdered(it))
			return it.Error == nil
		})
		return arr
	case jsoniter.NumberValue:
		return normalizeNumber(iter.ReadNumber())
	default:
		return iter.Read()
	}
}
