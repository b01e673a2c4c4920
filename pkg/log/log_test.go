package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerWithWriteSyncerJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: FormatJSON, DisableTimestamp: true}, zapcore.AddSync(buf))
	require.NoError(t, err)

	lg.Debug("hidden")
	lg.Info("decoded", FieldCodec("sonic"))
	require.NoError(t, lg.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"decoded"`)
	assert.Contains(t, out, `"codec":"sonic"`)
	assert.Equal(t, zapcore.InfoLevel, props.Level.Level())
}

func TestTraceLevelMapsToDebug(t *testing.T) {
	_, props, err := InitLoggerWithWriteSyncer(&Config{Level: "trace"}, zapcore.AddSync(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())

	_, _, err = InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestInitLoggerWithFile(t *testing.T) {
	dir := t.TempDir()
	lg, _, err := InitLogger(&Config{Level: "info", File: FileLogConfig{RootPath: dir, Filename: "jsonkit.log"}})
	require.NoError(t, err)
	lg.Info("to file")
	_ = lg.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "jsonkit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	_, _, err = InitLogger(&Config{Level: "info", File: FileLogConfig{RootPath: filepath.Dir(dir), Filename: filepath.Base(dir)}})
	assert.Error(t, err)
}

func TestCtxLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", Format: FormatJSON}, zapcore.AddSync(buf))
	require.NoError(t, err)
	oldL, oldP := L(), _globalP.Load().(*ZapProperties)
	ReplaceGlobals(lg, props)
	replaceLeveledLoggers(lg)
	defer func() {
		ReplaceGlobals(oldL, oldP)
		replaceLeveledLoggers(oldL)
	}()

	ctx := WithModule(context.Background(), "json")
	ctx = WithTraceID(ctx, "abc")
	Ctx(ctx).Info("hello")
	Ctx(nil).Info("plain") //nolint:staticcheck

	out := buf.String()
	assert.Contains(t, out, `"module":"json"`)
	assert.Contains(t, out, `"traceID":"abc"`)
	assert.Contains(t, out, "plain")

	// 没有 span 时 WithSpan 原样返回。
	bare := context.Background()
	assert.Equal(t, bare, WithSpan(bare))
}

func TestRatedLogger(t *testing.T) {
	lg, _, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)

	ml := (&MLogger{Logger: lg}).WithRateGroup("test.rated", 0.0001, 1)
	assert.True(t, ml.RatedWarn(1, "first"))
	assert.False(t, ml.RatedWarn(1, "second"))

	child := ml.With(zap.String("k", "v"))
	assert.False(t, child.RatedInfo(1, "child shares limiter"))
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())

	lg, _, err := InitTestLogger(t, &Config{Level: "info"})
	require.NoError(t, err)
	ml := &MLogger{Logger: lg}
	b.SetLogger(ml)
	assert.Same(t, ml, b.Logger())
}
