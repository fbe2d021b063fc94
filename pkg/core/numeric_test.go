package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{name: "one", in: 1, want: 1},
		{name: "large", in: 64, want: 64},
		{name: "int64", in: int64(3), want: 3},
		{name: "uint8", in: uint8(2), want: 2},
		{name: "whole float from yaml", in: 4.0, want: 4},
		{name: "numeric string", in: " 5 ", want: 5},
		{name: "zero", in: 0, want: NotPositive},
		{name: "negative", in: -3, want: NotPositive},
		{name: "sentinel", in: -1, want: NotPositive},
		{name: "fraction", in: 2.5, want: NotPositive},
		{name: "word", in: "two", want: NotPositive},
		{name: "nil", in: nil, want: NotPositive},
		{name: "bool", in: true, want: NotPositive},
		{name: "overflow", in: uint64(1 << 40), want: NotPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PositiveInt(tt.in))
		})
	}
}
