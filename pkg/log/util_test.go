package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name  string
		input []any
		want  int
	}{
		{"empty input", []any{}, 0},
		{"string pairs", []any{"a", "x", "b", 123, "c", true}, 3},
		{"time value", []any{"t", now}, 1},
		{"bytes", []any{"data", []byte("xyz")}, 1},
		{"bare error", []any{err}, 1},
		{"two bare errors", []any{err, errors.New("again")}, 2},
		{"mixed field types", []any{"msg", "ok", zap.String("x", "y"), "num", 42}, 3},
		{"odd number of args", []any{"key1", "val1", "key2"}, 2},
		{"non-string key", []any{123, "value", true, 99}, 2},
		{"named error pair", []any{"cause", err}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			if len(fields) != tt.want {
				t.Fatalf("got %d fields, want %d: %+v", len(fields), tt.want, fields)
			}
			for _, f := range fields {
				if f.Key == "" {
					t.Errorf("field has empty key: %+v", f)
				}
			}
		})
	}
}

func TestSetLevelIgnoresGarbage(t *testing.T) {
	SetLevel("not-a-level") // must not panic or change anything
	SetLevel("debug")
}
