package fmtx

import (
	"bytes"
	"errors"
	"testing"
)

type mode int

func (m mode) String() string { return "per_sensor" }

func TestSprintfVerbs(t *testing.T) {
	for _, c := range []struct {
		fmt  string
		args []any
		want string
	}{
		{"hello %s", []any{"world"}, "hello world"},
		{"num %d hex %x", []any{255, uint8(255)}, "num 255 hex ff"},
		{"bool %t %t", []any{true, false}, "bool true false"},
		{"literal %%", nil, "literal %"},
		{"q=%q", []any{"a\"b\\c"}, `q="a\"b\\c"`},
		{"v=%v", []any{123}, "v=123"},
		{"trim: %.3s", []any{"abcdef"}, "trim: abc"},
		{"%d.%02d", []any{uint16(55), uint16(7)}, "55.07"},
		{"err: %v", []any{errors.New("link down")}, "err: link down"},
		{"mode=%s", []any{mode(0)}, "mode=per_sensor"},
		{"ticks %d", []any{uint32(4294967295)}, "ticks 4294967295"},
	} {
		if got := Sprintf(c.fmt, c.args...); got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestPrintUsesDefaultOutput(t *testing.T) {
	var buf bytes.Buffer
	old := DefaultOutput
	DefaultOutput = &buf
	t.Cleanup(func() { DefaultOutput = old })

	if got, want := Sprint(1, 2), "1 2"; got != want {
		t.Fatalf("Sprint = %q, want %q", got, want)
	}
	if _, err := Print("x"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if buf.String() != "x" {
		t.Fatalf("Print wrote %q", buf.String())
	}
}

func TestFprintf(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Fprintf(&buf, "hi %s", "there"); err != nil {
		t.Fatalf("Fprintf error: %v", err)
	}
	if got, want := buf.String(), "hi there"; got != want {
		t.Fatalf("Fprintf wrote %q, want %q", got, want)
	}
}
