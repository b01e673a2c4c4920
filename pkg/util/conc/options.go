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

package conc

import (
	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonkit/pkg/log"
)

type poolOption struct {
	// preAlloc 为 true 时一次性分配全部 worker。
	preAlloc bool
	// concealPanic 为 true 时任务 panic 只记录日志并写入 Future 的错误，不再向上抛出。
	concealPanic bool
	// panicHandler 在记录日志之后调用。
	panicHandler func(any)
	// preHandler 在每个任务执行前调用。
	preHandler func()
}

// PoolOption 用于配置协程池行为的选项函数。
type PoolOption func(opt *poolOption)

// WithPreAlloc 预先分配 worker，适合容量固定且任务密集的批处理。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}

func WithPanicHandler(fn func(any)) PoolOption {
	return func(opt *poolOption) {
		opt.panicHandler = fn
	}
}

func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) {
		opt.preHandler = fn
	}
}

// antsOptions 将 poolOption 转换为 ants 的选项。
// Submit 总是阻塞等待空闲 worker，调用方依赖这一点保持提交顺序。
func (opt *poolOption) antsOptions() []ants.Option {
	return []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(false),
		ants.WithLogger(antsLogger{}),
		ants.WithPanicHandler(opt.handlePanic),
	}
}

// handlePanic 在 ants worker 中执行，任务的 Future 此时已写入错误。
func (opt *poolOption) handlePanic(v any) {
	log.L().Error("conc pool task panicked", zap.Any("panic", v))
	if opt.panicHandler != nil {
		opt.panicHandler(v)
	}
	if !opt.concealPanic {
		panic(v)
	}
}

// antsLogger 将 ants 内部日志转发到全局 zap Logger。
type antsLogger struct{}

func (antsLogger) Printf(format string, args ...any) {
	log.S().With(log.FieldComponent("ants")).Warnf(format, args...)
}
