package jsonv

import (
	"strings"
	"testing"
)

func TestParseKinds(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{`{"id":"x"}`, Object},
		{`[1,2]`, Array},
		{`"hi"`, Scalar},
		{`42`, Scalar},
		{`true`, Scalar},
		{`null`, Absent},
		{"  {\"a\":1}\n", Object},
	}
	for _, tt := range tests {
		v, err := Parse([]byte(tt.in))
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if v.Kind() != tt.want {
			t.Errorf("Parse(%q).Kind() = %s, want %s", tt.in, v.Kind(), tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not json", `{"a":1} {"b":2}`, `{"a":`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestStrAcceptsNumbers(t *testing.T) {
	v, err := Parse([]byte(`{"id":"abc","n":7,"flag":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := v.Str("id"); !ok || s != "abc" {
		t.Errorf("Str(id) = %q, %v", s, ok)
	}
	if s, ok := v.Str("n"); !ok || s != "7" {
		t.Errorf("Str(n) = %q, %v", s, ok)
	}
	if _, ok := v.Str("flag"); ok {
		t.Error("Str(flag) should not render a bool")
	}
	if _, ok := v.Str("missing"); ok {
		t.Error("Str(missing) should be false")
	}
}

func TestFindObject(t *testing.T) {
	v, err := Parse([]byte(`[{"title":"a","id":"1"},"junk",{"title":"b","id":"2"},{"title":"b","id":"3"}]`))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.FindObject("title", "b")
	if !ok {
		t.Fatal("expected a match")
	}
	if id, _ := got.Str("id"); id != "2" {
		t.Errorf("first match id = %q, want 2", id)
	}
	if _, ok := v.FindObject("title", "zzz"); ok {
		t.Error("unexpected match")
	}
	obj, _ := Parse([]byte(`{"title":"b"}`))
	if _, ok := obj.FindObject("title", "b"); ok {
		t.Error("FindObject on an object should not match")
	}
}

func TestPrettySortsKeys(t *testing.T) {
	v, err := Parse([]byte(`{"b":1,"a":{"d":2,"c":"<x>"}}`))
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"a\": {\n    \"c\": \"<x>\",\n    \"d\": 2\n  },\n  \"b\": 1\n}"
	if got := v.Pretty(); got != want {
		t.Errorf("Pretty() =\n%s\nwant\n%s", got, want)
	}
	if got := (Value{}).Pretty(); got != "null" {
		t.Errorf("absent Pretty() = %q", got)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"{\"a\":1}\n\n{\"b\":2}\n", 2},
		{"", 0},
		{"garbage\n{\"a\":1}\n", 1},
		{"{\"a\":1}\r\n{\"b\":2}", 2},
	}
	for _, tt := range tests {
		if got := CountLines(tt.in); got != tt.want {
			t.Errorf("CountLines(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := len(Lines("{\"a\":1}\n\n{\"b\":2}\n")); got != 2 {
		t.Errorf("len(Lines) = %d, want 2", got)
	}
	if !strings.Contains(Lines(`{"type":"delta"}`)[0].Pretty(), "delta") {
		t.Error("Lines lost content")
	}
}
