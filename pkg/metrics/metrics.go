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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// jsonkitNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	jsonkitNamespace = "jsonkit"

	jsonSubsystem    = "json"
	rolloutSubsystem = "rollout"
	ndjsonSubsystem  = "ndjson"

	variantLabelName = "variant"
	codecLabelName   = "codec"
	statusLabelName  = "status"
	optionLabelName  = "option"
	armLabelName     = "arm"

	SuccessLabel = "success"
	FailLabel    = "fail"
	SkipLabel    = "skip"
)

var (
	// sizeBuckets 为编码结果大小的桶划分，单位为字节。
	// [64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06 1.6777216e+07]
	sizeBuckets = prometheus.ExponentialBuckets(64, 4, 10)

	JSONEncodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonkitNamespace,
			Subsystem: jsonSubsystem,
			Name:      "encode_total",
			Help:      "number of encode calls by variant and status",
		}, []string{variantLabelName, statusLabelName})

	JSONDecodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonkitNamespace,
			Subsystem: jsonSubsystem,
			Name:      "decode_total",
			Help:      "number of decode calls by codec and status",
		}, []string{codecLabelName, statusLabelName})

	JSONEncodedBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: jsonkitNamespace,
			Subsystem: jsonSubsystem,
			Name:      "encoded_bytes",
			Help:      "size of successfully encoded documents in bytes",
			Buckets:   sizeBuckets,
		}, []string{variantLabelName})

	RolloutDecisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonkitNamespace,
			Subsystem: rolloutSubsystem,
			Name:      "decision_total",
			Help:      "number of serializer selections by rollout option and chosen arm",
		}, []string{optionLabelName, armLabelName})

	NDJSONLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: jsonkitNamespace,
			Subsystem: ndjsonSubsystem,
			Name:      "lines_total",
			Help:      "number of processed ndjson lines by status",
		}, []string{statusLabelName})

	registerOnce     sync.Once
	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回已注册指标的 Registerer，未调用 Register 时返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(JSONEncodeTotal)
		r.MustRegister(JSONDecodeTotal)
		r.MustRegister(JSONEncodedBytes)
		r.MustRegister(RolloutDecisionTotal)
		r.MustRegister(NDJSONLinesTotal)
		metricRegisterer = r
	})
}
