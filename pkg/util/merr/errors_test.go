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
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrUnsupportedValue("make(chan int)")
	s.ErrorIs(err, ErrUnsupportedValue)
	s.Equal(Code(ErrUnsupportedValue), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newJSONKitError("new error", ErrMalformedInput.errCode, false)
	s.True(sameCodeErr.Is(ErrMalformedInput))
}

func (s *ErrSuite) TestWrap() {
	// Encode 相关错误。
	s.ErrorIs(WrapErrUnsupportedValue("(complex128) (1+2i)"), ErrUnsupportedValue)
	s.ErrorIs(WrapErrUnsupportedValue("x", "encode"), ErrUnsupportedValue)

	// Decode 相关错误。
	s.ErrorIs(WrapErrMalformedInput("sonic", errors.New("syntax error at index 3")), ErrMalformedInput)

	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("stdin", os.ErrClosed), ErrIoFailed)
	s.ErrorIs(WrapErrIoUnexpectEOF("stdin", os.ErrClosed), ErrIoUnexpectEOF)
	s.NoError(WrapErrIoFailed("stdin", nil))

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalidRange(0, 1, 2, "rate should be in range"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("unknown flag %s", "admin"), ErrParameterInvalid)

	// 配置相关错误。
	s.ErrorIs(WrapErrConfigInvalid("config.yaml", os.ErrNotExist), ErrConfigInvalid)
}

func (s *ErrSuite) TestUnsupportedValueMessage() {
	err := WrapErrUnsupportedValue("(chan int)(nil)")
	s.Contains(err.Error(), "(chan int)(nil) is not JSON serializable")
	s.Equal(InputError, GetErrorType(err))
	s.False(IsRetryableErr(err))
}

func (s *ErrSuite) TestNaiveTimeRequired() {
	err := WrapErrNaiveTimeRequired("10:00:00+08:00")
	s.ErrorIs(err, ErrUnsupportedValue)
	s.ErrorIs(err, ErrNaiveTimeRequired)
	s.Equal(Code(ErrNaiveTimeRequired), Code(err))
	s.Contains(err.Error(), "timezone-aware")
}

func (s *ErrSuite) TestMalformedInputKeepsPosition() {
	err := WrapErrMalformedInput("jsoniter", errors.New("error found in #10 byte"))
	s.Contains(err.Error(), "codec=jsoniter")
	s.Contains(err.Error(), "#10 byte")
}

func (s *ErrSuite) TestRetryable() {
	s.True(IsRetryableErr(WrapErrIoUnexpectEOF("stdin", os.ErrClosed)))
	s.False(IsRetryableErr(errors.New("plain")))
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "stop")))
	s.Equal(SystemError, GetErrorType(errors.New("plain")))
	s.Equal("input_error", InputError.String())
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrIoFailed("stdin", os.ErrClosed), WrapErrMalformedInput("sonic", errors.New("eof")))
	s.Equal(Code(ErrMalformedInput), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
