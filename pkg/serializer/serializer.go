// Package serializer 定义“对象 <-> JSON 字节”的可替换实现，
// 以及按放量比例在稳定实现与实验实现之间选择的 Strategy。
package serializer

// Serializer 抽象了对象与字节序列之间的编解码能力。
//
// 调用方通过接口注入具体实现，编解码器本身不持有任何放量状态。
type Serializer interface {
	// Marshal 将任意对象编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将字节序列解码到目标对象。
	//
	// v 必须为非 nil 指针，目标为 *any 时数字按 int64 优先的规则转换。
	Unmarshal(data []byte, v any) error
}
