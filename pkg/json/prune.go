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
	"reflect"

	"github.com/samber/lo"
)

// PruneEmptyKeys 返回去掉值为 nil 的键后的新对象，保持剩余键的顺序。
// 只删除 nil 与 nil 指针，空数组、空对象、零值均保留。obj 为 nil 时返回 nil。
func PruneEmptyKeys(obj *Object) *Object {
	if obj == nil {
		return nil
	}
	out := NewObject()
	obj.Range(func(key string, value any) bool {
		if !isAbsent(value) {
			out.Set(key, value)
		}
		return true
	})
	return out
}

// PruneMap 与 PruneEmptyKeys 相同，作用于普通 map。
func PruneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return lo.OmitBy(m, func(_ string, value any) bool {
		return isAbsent(value)
	})
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
