package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Field priority lists. The first key present in a fault wins; values are
// never merged across keys.
var (
	messageKeys      = []string{"message", "reason", "description"}
	kindKeys         = []string{"name", "code"}
	statusKeys       = []string{"HTTPStatus", "statusCode", "status"}
	catastrophicKeys = []string{"isCatastrophic", "catastrophic"}
)

// UnknownMessage is the message of a fault that carries none.
const UnknownMessage = "Unknown error"

// Panic is a recovered panic value, routed through the error pipeline like
// any other fault. Panics are always catastrophic.
type Panic struct {
	Value any
	Trace string
}

func (p *Panic) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

// Catastrophic marks recovered panics as process-fatal.
func (p *Panic) Catastrophic() bool { return true }

// StackTrace returns the goroutine stack captured at recovery.
func (p *Panic) StackTrace() string { return p.Trace }

// Normalize converts an arbitrary fault into an *Error. It never panics: a
// fault that cannot be inspected yields the defaults (500, "Unknown error",
// catastrophic).
//
// Accepted shapes, in order:
//   - an error whose chain contains an *Error: that *Error is returned as is
//   - any other error: message from Error(), the remaining fields from
//     optional methods (Name/Code, HTTPStatus/StatusCode/Status,
//     IsCatastrophic/Catastrophic, StackTrace)
//   - map[string]any: priority field extraction, leftovers copied to Fields
//   - string or fmt.Stringer: used as the message
//   - anything else: JSON round-trip into a map, then field extraction
func Normalize(fault any) (out *Error) {
	defer func() {
		if r := recover(); r != nil {
			out = fromFields(map[string]any{}, "")
		}
	}()

	switch f := fault.(type) {
	case nil:
		return fromFields(map[string]any{}, "")
	case *Error:
		if f == nil {
			return fromFields(map[string]any{}, "")
		}
		return f
	case error:
		if isNilPointer(f) {
			return fromFields(map[string]any{}, "")
		}
		if e, ok := As(f); ok {
			return e
		}
		return fromError(f)
	case map[string]any:
		return fromFields(f, "")
	case string:
		return fromFields(map[string]any{}, f)
	case fmt.Stringer:
		if isNilPointer(f) {
			return fromFields(map[string]any{}, "")
		}
		return fromFields(map[string]any{}, f.String())
	default:
		return fromFields(toMap(f), "")
	}
}

// fromFields builds an *Error from a field map. fallback is used as the
// message when no message key is present.
func fromFields(m map[string]any, fallback string) *Error {
	msgDefault := UnknownMessage
	if fallback != "" {
		msgDefault = fallback
	}
	message := asString(pick(m, messageKeys), msgDefault)
	kind := asString(pick(m, kindKeys), KindUnknown)
	status := asStatus(pick(m, statusKeys))
	catastrophic := asBool(pick(m, catastrophicKeys), true)

	e := New(message, status, catastrophic, kind)
	e.Kind = kind
	if s, ok := m["stack"].(string); ok && s != "" {
		e.Stack = s
	}
	e.Fields = leftovers(m)
	return e
}

// fromError extracts fields from a plain error through optional methods.
func fromError(err error) *Error {
	m := map[string]any{}
	if msg := err.Error(); msg != "" {
		m["message"] = msg
	}
	if v, ok := err.(interface{ Name() string }); ok {
		m["name"] = v.Name()
	} else if v, ok := err.(interface{ Code() string }); ok {
		m["code"] = v.Code()
	}
	if v, ok := err.(interface{ HTTPStatus() int }); ok {
		m["HTTPStatus"] = v.HTTPStatus()
	} else if v, ok := err.(interface{ StatusCode() int }); ok {
		m["statusCode"] = v.StatusCode()
	} else if v, ok := err.(interface{ Status() int }); ok {
		m["status"] = v.Status()
	}
	if v, ok := err.(interface{ IsCatastrophic() bool }); ok {
		m["isCatastrophic"] = v.IsCatastrophic()
	} else if v, ok := err.(interface{ Catastrophic() bool }); ok {
		m["catastrophic"] = v.Catastrophic()
	}
	if v, ok := err.(interface{ StackTrace() string }); ok {
		m["stack"] = v.StackTrace()
	}

	e := fromFields(m, "")
	e.Cause = err
	return e
}

func pick(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func leftovers(m map[string]any) map[string]any {
	known := map[string]struct{}{"stack": {}}
	for _, keys := range [][]string{messageKeys, kindKeys, statusKeys, catastrophicKeys} {
		for _, k := range keys {
			known[k] = struct{}{}
		}
	}
	var out map[string]any
	for k, v := range m {
		if _, ok := known[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}

func asString(v any, def string) string {
	switch s := v.(type) {
	case nil:
		return def
	case string:
		if s == "" {
			return def
		}
		return s
	default:
		if str := fmt.Sprint(s); str != "" {
			return str
		}
		return def
	}
}

func asStatus(v any) int {
	var n float64
	switch s := v.(type) {
	case int:
		n = float64(s)
	case int32:
		n = float64(s)
	case int64:
		n = float64(s)
	case float64:
		n = s
	case json.Number:
		f, err := s.Float64()
		if err != nil {
			return http.StatusInternalServerError
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return http.StatusInternalServerError
		}
		n = f
	default:
		return http.StatusInternalServerError
	}
	if math.IsNaN(n) || n < 100 || n > 599 {
		return http.StatusInternalServerError
	}
	return int(n)
}

func asBool(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if p, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return p
		}
	}
	return def
}

// toMap converts a struct-like fault into a field map. Values that do not
// encode to a JSON object (numbers, slices, cyclic graphs) yield an empty map.
func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// IsCatastrophic reports whether err, once normalized, is process-fatal.
func IsCatastrophic(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Catastrophic
	}
	return Normalize(err).Catastrophic
}
