package telemetry

import (
	"fmt"
	"reflect"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log"
	"golang.org/x/exp/constraints"
)

// Attr is a telemetry attribute that can be attached to spans, metrics and log
// records alike.
//
// The zero value is an absent attribute, which is silently dropped.
type Attr struct {
	kind attrKind
	key  string
	str  string
	num  int64
}

type attrKind uint8

const (
	absent attrKind = iota
	stringKind
	boolKind
	intKind
)

// String returns a string attribute.
func String[T ~string](k string, v T) Attr {
	return Attr{kind: stringKind, key: k, str: string(v)}
}

// Stringer returns a string attribute with the value of v.String().
func Stringer(k string, v fmt.Stringer) Attr {
	return String(k, v.String())
}

// Type returns a string attribute set to the name of the dynamic type of v,
// with any pointer indirection removed.
func Type[T any](k string, v T) Attr {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return String(k, t.String())
}

// Bool returns a boolean attribute.
func Bool[T ~bool](k string, v T) Attr {
	var n int64
	if v {
		n = 1
	}
	return Attr{kind: boolKind, key: k, num: n}
}

// Int returns an integer attribute.
func Int[T constraints.Integer](k string, v T) Attr {
	return Attr{kind: intKind, key: k, num: int64(v)}
}

// If returns attr if cond is true; otherwise it returns an absent attribute.
func If(cond bool, attr Attr) Attr {
	if cond {
		return attr
	}
	return Attr{}
}

// Binary returns a string attribute containing v quoted as a Go string literal.
//
// Values longer than 64 bytes are truncated and the key is suffixed with
// "_truncated".
func Binary(k string, v []byte) Attr {
	if len(v) > 64 {
		v = v[:64]
		k += "_truncated"
	}

	return String(k, strconv.QuoteToASCII(string(v)))
}

func (a Attr) otel() (attribute.KeyValue, bool) {
	switch a.kind {
	case absent:
		return attribute.KeyValue{}, false
	case stringKind:
		return attribute.String(a.key, a.str), true
	case boolKind:
		return attribute.Bool(a.key, a.num != 0), true
	case intKind:
		return attribute.Int64(a.key, a.num), true
	default:
		panic("unknown attribute kind")
	}
}

func (a Attr) log() (log.KeyValue, bool) {
	switch a.kind {
	case absent:
		return log.KeyValue{}, false
	case stringKind:
		return log.String(a.key, a.str), true
	case boolKind:
		return log.Bool(a.key, a.num != 0), true
	case intKind:
		return log.Int64(a.key, a.num), true
	default:
		panic("unknown attribute kind")
	}
}

func asAttrKeyValues(attrs []Attr) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if kv, ok := a.otel(); ok {
			kvs = append(kvs, kv)
		}
	}
	return kvs
}

func asLogKeyValues(attrs []Attr) []log.KeyValue {
	kvs := make([]log.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if kv, ok := a.log(); ok {
			kvs = append(kvs, kv)
		}
	}
	return kvs
}
