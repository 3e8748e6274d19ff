//go:build rp2040 || rp2350

package fmtx

import (
	"io"

	"lowpower-go/x/strconvx"
)

// DefaultOutput is used by Print. Set it from the platform bootstrap (e.g. a
// UART writer); until then output is dropped.
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a)
	return string(b.buf)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return io.WriteString(w, Sprintf(format, a...))
}

func Sprint(a ...any) string {
	var b builder
	for i, v := range a {
		if i > 0 {
			b.buf = append(b.buf, ' ')
		}
		b.value(v)
	}
	return string(b.buf)
}

func Print(a ...any) (int, error) { return io.WriteString(DefaultOutput, Sprint(a...)) }

// Formatter subset: %s %q %d %x %t %v %% with an optional width (zero-padded
// when it starts with 0) and a precision that truncates strings.

type builder struct{ buf []byte }

type stringer interface{ String() string }

func (b *builder) value(v any) {
	switch x := v.(type) {
	case nil:
		b.str("<nil>")
	case string:
		b.str(x)
	case []byte:
		b.buf = append(b.buf, x...)
	case error:
		b.str(x.Error())
	case stringer:
		b.str(x.String())
	case bool:
		if x {
			b.str("true")
		} else {
			b.str("false")
		}
	default:
		if i, ok := toInt(v); ok {
			b.str(strconvx.FormatInt(i, 10))
			return
		}
		if u, ok := toUint(v); ok {
			b.str(strconvx.FormatUint(u, 10))
			return
		}
		b.str("<?>")
	}
}

func (b *builder) str(s string) { b.buf = append(b.buf, s...) }

func (b *builder) pad(s string, width int, zero bool) {
	c := byte(' ')
	if zero {
		c = '0'
	}
	neg := zero && len(s) > 0 && s[0] == '-'
	if neg {
		b.buf = append(b.buf, '-')
		s = s[1:]
		width--
	}
	for n := len(s); n < width; n++ {
		b.buf = append(b.buf, c)
	}
	b.str(s)
}

func (b *builder) format(format string, args []any) {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.buf = append(b.buf, c)
			continue
		}
		i++
		if i < len(format) && format[i] == '%' {
			b.buf = append(b.buf, '%')
			continue
		}
		zero := i < len(format) && format[i] == '0'
		width, prec := 0, -1
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}
		if i < len(format) && format[i] == '.' {
			prec = 0
			for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
				prec = prec*10 + int(format[i]-'0')
			}
		}
		if i >= len(format) {
			return
		}
		verb := format[i]
		if ai >= len(args) {
			b.str("%!" + string(verb) + "(MISSING)")
			continue
		}
		arg := args[ai]
		ai++

		var s string
		switch verb {
		case 'd':
			if n, ok := toInt(arg); ok {
				s = strconvx.FormatInt(n, 10)
			} else if u, ok := toUint(arg); ok {
				s = strconvx.FormatUint(u, 10)
			}
		case 'x':
			if u, ok := toUint(arg); ok {
				s = strconvx.FormatUint(u, 16)
			} else if n, ok := toInt(arg); ok {
				s = strconvx.FormatInt(n, 16)
			}
		case 'q':
			var sb builder
			sb.value(arg)
			s = quote(string(sb.buf))
		default: // s, t, v
			var sb builder
			sb.value(arg)
			s = string(sb.buf)
			if prec >= 0 && prec < len(s) {
				s = s[:prec]
			}
		}
		b.pad(s, width, zero)
	}
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}

func toUint(v any) (uint64, bool) {
	switch t := v.(type) {
	case uint:
		return uint64(t), true
	case uint8:
		return uint64(t), true
	case uint16:
		return uint64(t), true
	case uint32:
		return uint64(t), true
	case uint64:
		return t, true
	}
	return 0, false
}

func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, c)
		}
	}
	return string(append(out, '"'))
}
