package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameTraceID   = "traceID"
	FieldNameCodec     = "codec"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldCodec 返回一个包含编解码器名称的 zap 字段。
func FieldCodec(codec string) zap.Field {
	return zap.String(FieldNameCodec, codec)
}
