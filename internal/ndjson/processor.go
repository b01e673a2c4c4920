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

// Package ndjson 逐行处理 NDJSON：解码、可选地去除空值键、重新编码，
// 多行并行处理，输出顺序与输入一致。
package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonkit/pkg/compressor"
	"github.com/lk2023060901/jsonkit/pkg/json"
	"github.com/lk2023060901/jsonkit/pkg/log"
	"github.com/lk2023060901/jsonkit/pkg/metrics"
	"github.com/lk2023060901/jsonkit/pkg/rollout"
	"github.com/lk2023060901/jsonkit/pkg/serializer"
	"github.com/lk2023060901/jsonkit/pkg/util/conc"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

const (
	// DefaultMaxLineBytes 为单行允许的最大字节数。
	DefaultMaxLineBytes = 16 << 20

	initialLineBuffer = 64 << 10
)

// Config 为 Processor 的配置，Workers <= 0 时使用 GOMAXPROCS。
type Config struct {
	Workers      int  `mapstructure:"workers"`
	HTMLSafe     bool `mapstructure:"html"`
	Strict       bool `mapstructure:"strict"`
	Prune        bool `mapstructure:"prune"`
	FailFast     bool `mapstructure:"failfast"`
	MaxLineBytes int  `mapstructure:"maxlinebytes"`

	// Compression 为输入输出的流式压缩格式，见 compressor.Get。
	Compression string `mapstructure:"compression"`
}

// Stats 统计一次 Process 的结果。
type Stats struct {
	Lines     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Resolver 在每次编解码前选定 Serializer，*serializer.Strategy 实现了该接口。
type Resolver interface {
	Resolve(option string) serializer.Serializer
}

type Option func(*Processor)

// WithResolver 每行按放量结果选择解码与编码实现。
func WithResolver(r Resolver) Option {
	return func(p *Processor) {
		p.resolver = r
	}
}

type Processor struct {
	log.Binder

	cfg      Config
	pool     *conc.Pool[[]byte]
	decoder  serializer.Serializer
	encoder  serializer.Serializer
	resolver Resolver
}

func NewProcessor(cfg Config, opts ...Option) *Processor {
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	p := &Processor{
		cfg:     cfg,
		pool:    conc.NewPool[[]byte](cfg.Workers, conc.WithPreAlloc(true), conc.WithConcealPanic(true)),
		decoder: serializer.JSONSerializer{Strict: cfg.Strict},
		encoder: serializer.JSONSerializer{Strict: cfg.Strict},
	}
	if cfg.HTMLSafe {
		p.encoder = serializer.HTMLSafeJSONSerializer{Strict: cfg.Strict}
	}
	for _, opt := range opts {
		opt(p)
	}
	p.SetLogger(log.With(log.FieldModule("ndjson")).WithRateGroup("ndjson.line", 1, 60))
	return p
}

// Close 释放协程池。
func (p *Processor) Close() {
	p.pool.Release()
}

type pendingLine struct {
	no      int
	skipped bool
	future  *conc.Future[[]byte]
}

// Process 从 r 逐行读取并将结果逐行写入 w。
// 空行被跳过；处理失败的行不输出，FailFast 时第一处失败即终止并返回错误。
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	codec, err := compressor.Get(p.cfg.Compression)
	if err != nil {
		return Stats{}, err
	}
	in, err := codec.NewReader(r)
	if err != nil {
		return Stats{}, merr.WrapErrIoFailed("input", err)
	}
	defer in.Close()
	sink, err := codec.NewWriter(w)
	if err != nil {
		return Stats{}, merr.WrapErrIoFailed("output", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pending := make(chan pendingLine, p.pool.Cap()*2)
	var readErr error
	go func() {
		defer close(pending)
		readErr = p.read(runCtx, in, pending)
	}()

	var (
		stats  Stats
		runErr error
		out    = bufio.NewWriter(sink)
	)
	for line := range pending {
		if runErr != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			cancel()
			continue
		}
		if line.skipped {
			stats.Skipped++
			metrics.NDJSONLinesTotal.WithLabelValues(metrics.SkipLabel).Inc()
			continue
		}

		stats.Lines++
		data, err := p.await(ctx, line.future)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				runErr = ctxErr
				cancel()
				continue
			}
			stats.Failed++
			metrics.NDJSONLinesTotal.WithLabelValues(metrics.FailLabel).Inc()
			p.Logger().RatedWarn(1, "failed to process ndjson line", zap.Int("line", line.no), zap.Error(err))
			if p.cfg.FailFast {
				runErr = errors.Wrapf(err, "line %d", line.no)
				cancel()
			}
			continue
		}

		if _, err := out.Write(data); err != nil {
			runErr = merr.WrapErrIoFailed("output", err)
			cancel()
			continue
		}
		if err := out.WriteByte('\n'); err != nil {
			runErr = merr.WrapErrIoFailed("output", err)
			cancel()
			continue
		}
		stats.Succeeded++
		metrics.NDJSONLinesTotal.WithLabelValues(metrics.SuccessLabel).Inc()
	}

	if runErr == nil {
		runErr = readErr
	}
	if runErr == nil {
		// 读取方可能因取消而提前退出，此时输出不完整。
		runErr = ctx.Err()
	}
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = merr.WrapErrIoFailed("output", err)
	}
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = merr.WrapErrIoFailed("output", err)
	}
	switch {
	case runErr == nil:
	case merr.IsCanceledOrTimeout(runErr):
		log.Ctx(log.WithModule(ctx, "ndjson")).Info("ndjson processing canceled", zap.Int("line", stats.Lines+stats.Skipped))
	default:
		log.Ctx(log.WithModule(ctx, "ndjson")).Warn("ndjson processing stopped", zap.Int("line", stats.Lines+stats.Skipped), zap.Error(runErr))
	}
	return stats, runErr
}

func (p *Processor) await(ctx context.Context, future *conc.Future[[]byte]) ([]byte, error) {
	select {
	case <-future.Inner():
		return future.Await()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// read 按行读取输入并提交到协程池，ctx 取消后停止。
func (p *Processor) read(ctx context.Context, r io.Reader, pending chan<- pendingLine) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(initialLineBuffer, p.cfg.MaxLineBytes)), p.cfg.MaxLineBytes)

	no := 0
	for scanner.Scan() {
		no++
		item := pendingLine{no: no}
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			item.skipped = true
		} else {
			line := bytes.Clone(scanner.Bytes())
			item.future = p.pool.Submit(func() ([]byte, error) {
				return p.processLine(line)
			})
		}
		select {
		case pending <- item:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return merr.WrapErrIoUnexpectEOF("input", err)
		}
		return merr.WrapErrIoFailed("input", err)
	}
	return nil
}

func (p *Processor) serializers() (serializer.Serializer, serializer.Serializer) {
	if p.resolver != nil {
		return p.resolver.Resolve(rollout.OptionJSONLoads), p.resolver.Resolve(rollout.OptionJSONDumps)
	}
	return p.decoder, p.encoder
}

// processLine 对象行按键顺序解码，其余行按普通 JSON 值解码。
func (p *Processor) processLine(line []byte) ([]byte, error) {
	decoder, encoder := p.serializers()

	if trimmed := bytes.TrimSpace(line); trimmed[0] == '{' {
		obj := json.NewObject()
		if err := decoder.Unmarshal(line, obj); err != nil {
			return nil, err
		}
		if p.cfg.Prune {
			obj = json.PruneEmptyKeys(obj)
		}
		return encoder.Marshal(obj)
	}

	var v any
	if err := decoder.Unmarshal(line, &v); err != nil {
		return nil, err
	}
	return encoder.Marshal(v)
}
