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

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// 叶子错误统一定义在这里。
// WARN: 新增错误前请先确认下面已有的错误是否可以复用。
// 命名规则：Err + 相关前缀 + 错误名
var (
	// Encode related
	ErrUnsupportedValue  = newJSONKitError("unsupported value", 100, false, WithErrorType(InputError))
	ErrNaiveTimeRequired = newJSONKitError("naive time required", 101, false, WithErrorType(InputError))

	// Decode related
	ErrMalformedInput = newJSONKitError("malformed input", 200, false, WithErrorType(InputError))

	// IO related
	ErrIoFailed      = newJSONKitError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newJSONKitError("unexpected EOF", 1002, true)

	// Parameter related
	ErrParameterInvalid = newJSONKitError("invalid parameter", 1100, false)

	// Config related
	ErrConfigInvalid = newJSONKitError("invalid config", 1300, false)

	// 不要导出，仅用于将未知错误转换为 jsonkitError
	errUnexpected = newJSONKitError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*jsonkitError)

func WithDetail(detail string) errorOption {
	return func(err *jsonkitError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *jsonkitError) {
		err.errType = etype
	}
}

type jsonkitError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newJSONKitError(msg string, code int32, retriable bool, options ...errorOption) jsonkitError {
	err := jsonkitError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e jsonkitError) code() int32 {
	return e.errCode
}

func (e jsonkitError) Error() string {
	return e.msg
}

func (e jsonkitError) Detail() string {
	return e.detail
}

func (e jsonkitError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(jsonkitError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// 多个错误的 cause 定义为最后一个错误
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
