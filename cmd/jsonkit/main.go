package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	zlog "github.com/lk2023060901/jsonkit/pkg/log"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		zlog.L().Error("jsonkit failed", zap.Int32("code", merr.Code(err)), zap.Error(err))
	}
	_ = zlog.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode 输入数据错误返回 2，其余错误返回 1。
func exitCode(err error) int {
	if merr.GetErrorType(err) == merr.InputError {
		return 2
	}
	return 1
}
