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

// Package rollout 按比例随机决定某个选项是否进入实验分支。
package rollout

import (
	"math"
	"math/rand/v2"
	"sync"

	"go.uber.org/atomic"
)

const (
	OptionJSONDumps = "json.dumps"
	OptionJSONLoads = "json.loads"
)

// Source 提供选项对应的放量比例，未配置时返回 0。
type Source interface {
	GetFloat64(key string) float64
}

// Overrides 保存运行时覆盖的放量比例，可并发读写。
type Overrides struct {
	rates sync.Map // option -> *atomic.Float64
}

func NewOverrides() *Overrides {
	return &Overrides{}
}

func (o *Overrides) Set(option string, rate float64) {
	v, loaded := o.rates.LoadOrStore(option, atomic.NewFloat64(rate))
	if loaded {
		v.(*atomic.Float64).Store(rate)
	}
}

func (o *Overrides) Delete(option string) {
	o.rates.Delete(option)
}

// Lookup 返回覆盖值以及是否存在覆盖。
func (o *Overrides) Lookup(option string) (float64, bool) {
	v, ok := o.rates.Load(option)
	if !ok {
		return 0, false
	}
	return v.(*atomic.Float64).Load(), true
}

// GetFloat64 使 Overrides 本身也可以作为 Source 使用。
func (o *Overrides) GetFloat64(option string) float64 {
	rate, _ := o.Lookup(option)
	return rate
}

// Rollout 先查 Overrides，再查 Source。
type Rollout struct {
	source    Source
	keyPrefix string
	overrides *Overrides
	random    func() float64
}

type Option func(*Rollout)

// WithKeyPrefix 读取 Source 时为选项名加上前缀，例如 "rollout."。
func WithKeyPrefix(prefix string) Option {
	return func(r *Rollout) {
		r.keyPrefix = prefix
	}
}

func WithOverrides(o *Overrides) Option {
	return func(r *Rollout) {
		if o != nil {
			r.overrides = o
		}
	}
}

// WithRandom 替换 [0, 1) 随机数来源。
func WithRandom(fn func() float64) Option {
	return func(r *Rollout) {
		r.random = fn
	}
}

func New(source Source, opts ...Option) *Rollout {
	r := &Rollout{
		source:    source,
		overrides: NewOverrides(),
		random:    rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rollout) Overrides() *Overrides {
	return r.overrides
}

// Rate 返回选项当前的放量比例，结果截断到 [0, 1]，NaN 视为 0。
func (r *Rollout) Rate(option string) float64 {
	rate, ok := r.overrides.Lookup(option)
	if !ok && r.source != nil {
		rate = r.source.GetFloat64(r.keyPrefix + option)
	}
	if math.IsNaN(rate) {
		return 0
	}
	return math.Min(math.Max(rate, 0), 1)
}

// In 判断本次调用是否命中实验分支：rate > 0 且随机数小于 rate。
func (r *Rollout) In(option string) bool {
	rate := r.Rate(option)
	return rate > 0 && r.random() < rate
}
