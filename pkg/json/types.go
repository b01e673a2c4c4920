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

package json

import (
	"fmt"
	"sync"
	"time"
)

// Date 表示不带时间与时区的日历日期，编码为 YYYY-MM-DD。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf 取 t 在其自身时区下的日期部分。
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOfDay 表示一天中的时刻。
// Location 非空时视为带时区的时刻，此类值无法编码为 JSON。
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	Location   *time.Location
}

// TimeOfDayOf 取 t 的时刻部分，结果不带时区。
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

// Aware 判断该时刻是否携带时区。
func (t TimeOfDay) Aware() bool {
	return t.Location != nil
}

// String 输出 hh:mm:ss，存在亚秒部分时截断到毫秒 hh:mm:ss.fff。
// 不足一微秒的部分忽略。
func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if micro := t.Nanosecond / int(time.Microsecond); micro != 0 {
		s += fmt.Sprintf(".%03d", micro/1000)
	}
	return s
}

// Enum 由枚举常量实现，编码时输出其底层标量值。
type Enum interface {
	EnumValue() any
}

// BitHandler 由位标志容器实现，编码时输出其整数值。
type BitHandler interface {
	Int() int64
}

// QuerySet 表示延迟求值的查询结果集，编码时物化为数组。
type QuerySet interface {
	Evaluate() ([]any, error)
}

// Promise 表示延迟求值的字符串，编码时强制求值。
type Promise interface {
	Force() string
}

var _ Promise = (*LazyString)(nil)

// LazyString 在第一次 Force 时才调用 fn 生成字符串，结果被缓存，可并发使用。
type LazyString struct {
	once sync.Once
	fn   func() string
	val  string
}

func Lazy(fn func() string) *LazyString {
	return &LazyString{fn: fn}
}

func (l *LazyString) Force() string {
	l.once.Do(func() {
		if l.fn != nil {
			l.val = l.fn()
		}
	})
	return l.val
}

func (l *LazyString) String() string {
	return l.Force()
}
