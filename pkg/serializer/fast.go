package serializer

import (
	"bytes"

	"github.com/cockroachdb/errors"
	gojson "github.com/goccy/go-json"

	"github.com/lk2023060901/jsonkit/pkg/json"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

const fastCodecName = "go-json"

var errInvalidJSON = errors.New("invalid JSON input")

// FastJSONSerializer 使用 goccy/go-json 编解码，作为实验分支。
// 编码不做 HTML 转义，也不经过扩展类型转换：time.Time 等类型使用自身的 MarshalJSON。
// go-json 无法编码的值（如 NaN 与 ±Inf）交给 json.Marshal，NaN 因此仍输出 null。
// 解码前使用 json.Valid 校验，对非法输入的判定与 json.Unmarshal 一致。
type FastJSONSerializer struct{}

var _ Serializer = (*FastJSONSerializer)(nil)

func (FastJSONSerializer) Marshal(v any) ([]byte, error) {
	data, err := gojson.MarshalNoEscape(v)
	if err != nil {
		return json.Marshal(v)
	}
	return data, nil
}

func (FastJSONSerializer) Unmarshal(data []byte, v any) error {
	if !json.Valid(data) {
		return merr.WrapErrMalformedInput(fastCodecName, errInvalidJSON)
	}
	p, generic := v.(*any)
	if !generic {
		if err := gojson.Unmarshal(data, v); err != nil {
			return merr.WrapErrMalformedInput(fastCodecName, err)
		}
		return nil
	}

	// UseNumber 保留大整数精度。
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(p); err != nil {
		return merr.WrapErrMalformedInput(fastCodecName, err)
	}
	*p = json.NormalizeNumbers(*p)
	return nil
}
