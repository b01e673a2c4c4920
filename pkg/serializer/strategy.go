package serializer

import (
	"github.com/lk2023060901/jsonkit/pkg/metrics"
)

const (
	ArmStable       = "stable"
	ArmExperimental = "experimental"
)

// Decider 决定某个选项本次是否进入实验分支，*rollout.Rollout 实现了该接口。
type Decider interface {
	In(option string) bool
}

// Strategy 在调用编解码之前选定实现，编解码器本身不感知放量。
type Strategy struct {
	Stable       Serializer
	Experimental Serializer
	Rollout      Decider
}

// Resolve 返回 option 本次应使用的 Serializer。
// 未配置 Experimental 或 Rollout 时总是返回 Stable。
func (s *Strategy) Resolve(option string) Serializer {
	arm := ArmStable
	chosen := s.Stable
	if s.Experimental != nil && s.Rollout != nil && s.Rollout.In(option) {
		arm = ArmExperimental
		chosen = s.Experimental
	}
	metrics.RolloutDecisionTotal.WithLabelValues(option, arm).Inc()
	return chosen
}

// Marshal 按 option 选定实现后编码。
func (s *Strategy) Marshal(option string, v any) ([]byte, error) {
	return s.Resolve(option).Marshal(v)
}

// Unmarshal 按 option 选定实现后解码。
func (s *Strategy) Unmarshal(option string, data []byte, v any) error {
	return s.Resolve(option).Unmarshal(data, v)
}
