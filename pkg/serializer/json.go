package serializer

import (
	"github.com/lk2023060901/jsonkit/pkg/json"
)

// JSONSerializer 使用 pkg/json 适配层编解码，Strict 为 true 时解码改用 sonic。
type JSONSerializer struct {
	Strict bool
}

// 编译期断言：确保 JSONSerializer 实现了 Serializer 接口。
var _ Serializer = (*JSONSerializer)(nil)

func (s JSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.UnmarshalTo(data, v, json.WithStrictMode(s.Strict))
}

// HTMLSafeJSONSerializer 与 JSONSerializer 相同，但编码结果额外转义 & < > '。
type HTMLSafeJSONSerializer struct {
	Strict bool
}

var _ Serializer = (*HTMLSafeJSONSerializer)(nil)

func (s HTMLSafeJSONSerializer) Marshal(v any) ([]byte, error) {
	return json.HTMLSafeEncoder().Marshal(v)
}

func (s HTMLSafeJSONSerializer) Unmarshal(data []byte, v any) error {
	return json.UnmarshalTo(data, v, json.WithStrictMode(s.Strict))
}
