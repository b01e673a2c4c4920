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

package bitfield

import (
	"github.com/samber/lo"

	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

// maxFlags 为一个 BitField 最多可声明的标志数量。
const maxFlags = 63

// BitField 是一组具名标志位，第 i 个声明的标志对应整数的第 i 位。
// 非并发安全。
type BitField struct {
	flags []string
	index map[string]uint
	value uint64
}

// New 按声明顺序创建 BitField，所有标志初始为未设置。
// 重复的标志名或超过 63 个标志会返回 ErrParameterInvalid。
func New(flags ...string) (*BitField, error) {
	if len(flags) > maxFlags {
		return nil, merr.WrapErrParameterInvalidRange(0, maxFlags, len(flags), "too many flags")
	}
	index := make(map[string]uint, len(flags))
	for i, name := range flags {
		if name == "" {
			return nil, merr.WrapErrParameterInvalidMsg("flag name at position %d is empty", i)
		}
		if _, ok := index[name]; ok {
			return nil, merr.WrapErrParameterInvalidMsg("duplicate flag %q", name)
		}
		index[name] = uint(i)
	}
	return &BitField{flags: append([]string(nil), flags...), index: index}, nil
}

func (b *BitField) bit(name string) (uint64, error) {
	pos, ok := b.index[name]
	if !ok {
		return 0, merr.WrapErrParameterInvalidMsg("unknown flag %q", name)
	}
	return 1 << pos, nil
}

// Set 设置一个或多个标志，任一标志未声明时不做任何修改。
func (b *BitField) Set(names ...string) error {
	mask, err := b.mask(names)
	if err != nil {
		return err
	}
	b.value |= mask
	return nil
}

// Unset 清除一个或多个标志。
func (b *BitField) Unset(names ...string) error {
	mask, err := b.mask(names)
	if err != nil {
		return err
	}
	b.value &^= mask
	return nil
}

func (b *BitField) mask(names []string) (uint64, error) {
	var mask uint64
	for _, name := range names {
		bit, err := b.bit(name)
		if err != nil {
			return 0, err
		}
		mask |= bit
	}
	return mask, nil
}

// Has 判断标志是否已设置，未声明的标志返回 false。
func (b *BitField) Has(name string) bool {
	bit, err := b.bit(name)
	return err == nil && b.value&bit != 0
}

// Int 返回标志位对应的整数值。
func (b *BitField) Int() int64 {
	return int64(b.value)
}

// Flags 返回声明的全部标志名。
func (b *BitField) Flags() []string {
	return append([]string(nil), b.flags...)
}

// Items 按声明顺序返回已设置的标志名。
func (b *BitField) Items() []string {
	return lo.Filter(b.flags, func(name string, _ int) bool {
		return b.Has(name)
	})
}
