package json

import (
	"bytes"
	stdjson "encoding/json"
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/jsonkit/pkg/metrics"
	"github.com/lk2023060901/jsonkit/pkg/util/bitfield"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
	"github.com/lk2023060901/jsonkit/pkg/util/typeutil"
)

type color int

const (
	red color = iota
	green
)

func (c color) EnumValue() any {
	return [...]string{"red", "green"}[c]
}

type selfEnum int

func (s selfEnum) EnumValue() any {
	return s
}

// nativeEnum 同时实现 MarshalJSON 与 Enum，扩展优先。
type nativeEnum int

func (nativeEnum) MarshalJSON() ([]byte, error) {
	return []byte(`"native"`), nil
}

func (nativeEnum) EnumValue() any {
	return "coerced"
}

type customMarshaler struct{}

func (customMarshaler) MarshalJSON() ([]byte, error) {
	return []byte(`{"custom":true}`), nil
}

type fakeQuerySet struct {
	items []any
	err   error
}

func (q *fakeQuerySet) Evaluate() ([]any, error) {
	return q.items, q.err
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

type EncodeSuite struct {
	suite.Suite
}

func (s *EncodeSuite) marshal(v any) string {
	out, err := MarshalString(v)
	s.Require().NoError(err)
	return out
}

func (s *EncodeSuite) TestPrimitiveRoundTrip() {
	values := []any{
		"hello",
		"",
		"héllo \"quoted\" \\ \n tab\t",
		int64(0),
		int64(42),
		int64(-7),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		3.25,
		-0.5,
		1.0,
		1e21,
		true,
		false,
		nil,
	}
	for _, v := range values {
		data, err := Marshal(v)
		s.Require().NoError(err)
		got, err := Unmarshal(data)
		s.Require().NoError(err, string(data))
		s.Equal(v, got, string(data))

		got, err = Unmarshal(data, WithStrictMode(true))
		s.Require().NoError(err, string(data))
		s.Equal(v, got, string(data))
	}
}

func (s *EncodeSuite) TestCompactAndSorted() {
	v := map[string]any{
		"b": []any{1, "x", nil},
		"a": map[string]any{"c": false},
	}
	s.Equal(`{"a":{"c":false},"b":[1,"x",null]}`, s.marshal(v))

	type item struct {
		Name  string `json:"name"`
		Skip  string `json:"-"`
		Count *int   `json:"count,omitempty"`
	}
	s.Equal(`{"name":"n"}`, s.marshal(item{Name: "n", Skip: "s"}))
}

func (s *EncodeSuite) TestNonFiniteFloats() {
	s.Equal("null", s.marshal(math.NaN()))
	s.Equal("null", s.marshal(math.Inf(1)))
	s.Equal("null", s.marshal(math.Inf(-1)))
	s.Equal("null", s.marshal(float32(math.Inf(1))))
	s.Equal(`[1.5,null]`, s.marshal([]float64{1.5, math.NaN()}))
	s.Equal(`{"x":null}`, s.marshal(map[string]any{"x": math.NaN()}))
}

func (s *EncodeSuite) TestInvalidUTF8Replaced() {
	out := s.marshal("a\xffb")
	s.Equal("\"a\ufffdb\"", out)
	s.True(Valid([]byte(out)))

	out = s.marshal(map[string]any{"k\xfe": []any{"\xc3"}})
	s.Equal("{\"k\ufffd\":[\"\ufffd\"]}", out)

	got, err := UnmarshalString(out, WithStrictMode(true))
	s.Require().NoError(err)
	s.Equal(map[string]any{"k\ufffd": []any{"\ufffd"}}, got)
}

func (s *EncodeSuite) TestFloatFormatting() {
	s.Equal("1.0", s.marshal(1.0))
	s.Equal("0.1", s.marshal(0.1))
	s.Equal("1e+21", s.marshal(1e21))
	s.Equal("1e+16", s.marshal(1e16))
	s.Equal("1.5e+16", s.marshal(1.5e16))
	s.Equal("9999999999999998.0", s.marshal(9999999999999998.0))
	s.Equal("1e-7", s.marshal(1e-7))
	s.Equal("2.5", s.marshal(float32(2.5)))
	s.Equal("-3.0", s.marshal(float64(-3)))
}

func (s *EncodeSuite) TestExtensionTypes() {
	id := uuid.MustParse("9c4a2a5b-8f3e-4a4e-9a0b-6f2d5b1c3e7a")
	when := time.Date(2024, time.March, 5, 14, 7, 9, 123456789, time.FixedZone("CST", 8*3600))

	cases := []struct {
		value any
		want  string
	}{
		{id, "9c4a2a5b8f3e4a4e9a0b6f2d5b1c3e7a"},
		{when, "2024-03-05T06:07:09.123456Z"},
		{time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), "2024-01-01T00:00:00.000000Z"},
		{Date{Year: 2024, Month: time.March, Day: 5}, "2024-03-05"},
		{DateOf(when), "2024-03-05"},
		{TimeOfDay{Hour: 14, Minute: 7, Second: 9}, "14:07:09"},
		{TimeOfDay{Hour: 14, Minute: 7, Second: 9, Nanosecond: 123456789}, "14:07:09.123"},
		{TimeOfDay{Hour: 1, Minute: 2, Second: 3, Nanosecond: 500}, "01:02:03"},
		{decimal.RequireFromString("-3.14"), "-3.14"},
		{decimal.RequireFromString("1.50"), "1.50"},
		{decimal.RequireFromString("0.00"), "0.00"},
		{decimal.RequireFromString("100"), "100"},
		{decimal.RequireFromString("1E+2"), "1E+2"},
		{decimal.RequireFromString("-1.5E-7"), "-1.5E-7"},
		{green, "green"},
		{Lazy(func() string { return "translated" }), "translated"},
		{func() {}, FunctionPlaceholder},
	}
	for _, c := range cases {
		data, err := Marshal(c.value)
		s.Require().NoError(err)
		got, err := Unmarshal(data)
		s.Require().NoError(err)
		s.Equal(c.want, got, "%#v", c.value)
	}
}

func (s *EncodeSuite) TestNaiveTimeRequired() {
	_, err := Marshal(TimeOfDay{Hour: 1, Location: time.UTC})
	s.ErrorIs(err, merr.ErrNaiveTimeRequired)
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

func (s *EncodeSuite) TestSet() {
	data, err := Marshal(typeutil.NewSet(3, 1, 2))
	s.Require().NoError(err)
	got, err := Unmarshal(data)
	s.Require().NoError(err)
	s.ElementsMatch([]any{int64(1), int64(2), int64(3)}, got)

	s.Equal(`[["a","b"]]`, s.marshal([]any{map[string]struct{}{"b": {}, "a": {}}}))
	s.Equal("null", s.marshal(typeutil.Set[int](nil)))
}

func (s *EncodeSuite) TestBitField() {
	b, err := bitfield.New("read", "write", "admin")
	s.Require().NoError(err)
	s.Require().NoError(b.Set("read", "admin"))
	s.Equal("5", s.marshal(b))
	s.Equal(`{"flags":5}`, s.marshal(map[string]any{"flags": b}))

	var nilField *bitfield.BitField
	s.Equal("null", s.marshal(nilField))
}

func (s *EncodeSuite) TestQuerySet() {
	qs := &fakeQuerySet{items: []any{1, Date{Year: 2020, Month: time.May, Day: 1}}}
	s.Equal(`[1,"2020-05-01"]`, s.marshal(qs))
	s.Equal(`[]`, s.marshal(&fakeQuerySet{}))

	_, err := Marshal(&fakeQuerySet{err: errors.New("db closed")})
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

func (s *EncodeSuite) TestLazyStringEvaluatedOnce() {
	calls := 0
	lazy := Lazy(func() string {
		calls++
		return "once"
	})
	s.Equal(`["once","once"]`, s.marshal([]any{lazy, lazy}))
	s.Equal(1, calls)
}

func (s *EncodeSuite) TestNestedCoercion() {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	v := map[string]any{
		"dates": []any{Date{Year: 2021, Month: time.December, Day: 31}},
		"ids":   typeutil.NewSet(id),
		"fn":    func() {},
		"when":  struct{ At *time.Time }{},
	}
	s.Equal(`{"dates":["2021-12-31"],"fn":"<function>","ids":["00000000000000000000000000000001"],"when":{"At":null}}`, s.marshal(v))
}

func (s *EncodeSuite) TestPointers() {
	when := time.Date(2020, time.February, 29, 23, 59, 59, 0, time.UTC)
	s.Equal(`"2020-02-29T23:59:59.000000Z"`, s.marshal(&when))

	type holder struct {
		At *time.Time `json:"at"`
		ID *uuid.UUID `json:"id"`
	}
	s.Equal(`{"at":"2020-02-29T23:59:59.000000Z","id":null}`, s.marshal(holder{At: &when}))
}

func (s *EncodeSuite) TestRegistryBeforeNativeMarshaler() {
	s.Equal(`"coerced"`, s.marshal(nativeEnum(1)))
	s.Equal(`{"custom":true}`, s.marshal(customMarshaler{}))
}

func (s *EncodeSuite) TestUnsupported() {
	_, err := Marshal(make(chan int))
	s.ErrorIs(err, merr.ErrUnsupportedValue)
	s.Contains(err.Error(), "is not JSON serializable")

	_, err = Marshal(map[string]any{"c": complex(1, 2)})
	s.ErrorIs(err, merr.ErrUnsupportedValue)

	_, err = Marshal(selfEnum(1))
	s.ErrorIs(err, merr.ErrUnsupportedValue)

	_, err = Marshal(map[string]any{"in": []any{red, make(chan struct{})}})
	s.ErrorIs(err, merr.ErrUnsupportedValue)
}

func (s *EncodeSuite) TestEncodeToSink() {
	var buf bytes.Buffer
	s.NoError(Encode(&buf, map[string]any{"a": 1}))
	s.Equal(`{"a":1}`, buf.String())

	buf.Reset()
	s.Error(Encode(&buf, make(chan int)))
	s.Zero(buf.Len())

	err := Encode(failingWriter{}, 1)
	s.ErrorIs(err, merr.ErrIoFailed)
}

func (s *EncodeSuite) TestHTMLSafe() {
	in := "<script>alert('x')</script> & more"
	out, err := MarshalHTMLSafe(in)
	s.Require().NoError(err)
	s.NotContains(out, "<")
	s.NotContains(out, ">")
	s.NotContains(out, "&")
	s.NotContains(out, "'")

	got, err := UnmarshalString(out)
	s.Require().NoError(err)
	s.Equal(in, got)

	out, err = MarshalHTMLSafe(map[string]any{"k<": "a&'>"})
	s.Require().NoError(err)
	s.Equal(`{"k\u003c":"a\u0026\u0027\u003e"}`, out)

	plain, err := MarshalEscaped("<a>", false)
	s.Require().NoError(err)
	s.Equal(`"<a>"`, plain)
	escaped, err := MarshalEscaped("<a>", true)
	s.Require().NoError(err)
	s.Equal(`"\u003ca\u003e"`, escaped)

	var buf bytes.Buffer
	s.NoError(EncodeHTMLSafe(&buf, []string{"&"}))
	s.Equal(`["\u0026"]`, buf.String())
	s.True(HTMLSafeEncoder().HTMLSafe())
	s.False(DefaultEncoder().HTMLSafe())
}

func (s *EncodeSuite) TestInteropWithEncodingJSON() {
	var decoded any
	data, err := Marshal(map[string]any{"id": uuid.Nil, "n": 1.0})
	s.Require().NoError(err)
	s.Require().NoError(stdjson.Unmarshal(data, &decoded))
	s.Equal(map[string]any{"id": "00000000000000000000000000000000", "n": 1.0}, decoded)
}

func (s *EncodeSuite) TestMetrics() {
	success := metrics.JSONEncodeTotal.WithLabelValues(VariantHTMLSafe, metrics.SuccessLabel)
	fail := metrics.JSONEncodeTotal.WithLabelValues(VariantPlain, metrics.FailLabel)
	beforeSuccess, beforeFail := testutil.ToFloat64(success), testutil.ToFloat64(fail)

	_, err := MarshalHTMLSafe("x")
	s.NoError(err)
	_, err = Marshal(make(chan int))
	s.Error(err)

	s.Equal(beforeSuccess+1, testutil.ToFloat64(success))
	s.Equal(beforeFail+1, testutil.ToFloat64(fail))
}

func TestEncode(t *testing.T) {
	suite.Run(t, new(EncodeSuite))
}
