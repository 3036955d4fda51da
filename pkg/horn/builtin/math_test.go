package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/term"
)

func TestIsEvaluatesOperators(t *testing.T) {
	k := newKB(t)
	tests := []struct {
		expr term.Term
		want string
	}{
		{st("+", num(1), st("*", num(2), num(3))), "7"},
		{st("-", num(10), dec(0.5)), "9.5"},
		{st("/", num(7), num(2)), "3.5"},
		{st("/", num(6), num(2)), "3"},
		{st("//", num(-7), num(2)), "-3"},
		{st("mod", num(-7), num(2)), "1"},
		{st("rem", num(-7), num(2)), "-1"},
		{st("-", num(3)), "-3"},
		{st("abs", num(-3)), "3"},
		{st("abs", dec(-1.5)), "1.5"},
		{st("max", num(1), dec(2.0)), "2.0"},
		{st("min", num(1), dec(2.0)), "1"},
		{st("round", dec(2.5)), "3"},
		{st("integer", dec(2.4)), "2"},
		{st("float", num(2)), "2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.expr.String(), func(t *testing.T) {
			r := vr("R")
			assert.Equal(t, []string{tt.want}, query(t, k, st("is", r, tt.expr), r))
		})
	}
}

func TestIsChecksExistingValue(t *testing.T) {
	k := newKB(t)
	assert.Len(t, query(t, k, st("is", num(3), st("+", num(1), num(2)))), 1)
	assert.Empty(t, query(t, k, st("is", num(4), st("+", num(1), num(2)))))
	assert.Empty(t, query(t, k, st("is", dec(3), st("+", num(1), num(2)))))
}

func TestIsErrors(t *testing.T) {
	k := newKB(t)
	ctx := context.Background()

	err := queryErr(ctx, k, st("is", vr("X"), st("sum", num(1), num(2))))
	assert.EqualError(t, err, "cannot find arithmetic operator: sum/2")

	err = queryErr(ctx, k, st("is", vr("X"), st("+", num(1), vr("Y"))))
	assert.EqualError(t, err, "cannot resolve to numeric value: Y of type: VARIABLE")
	assert.True(t, errors.Is(err, internalerr.ErrType))

	err = queryErr(ctx, k, st("is", vr("X"), st("//", num(1), num(0))))
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	err = queryErr(ctx, k, st("is", vr("X"), st("mod", dec(1.5), num(1))))
	assert.True(t, errors.Is(err, internalerr.ErrType))
}

func TestCompiledIs(t *testing.T) {
	k := newKB(t)
	x, y := vr("X"), vr("Y")
	require.NoError(t, k.Assert(rule(st("five", x), st("is", x, st("+", num(2), num(3))))))
	require.NoError(t, k.Assert(rule(st("double", x, y), st("is", y, st("*", x, num(2))))))
	require.NoError(t, k.Assert(rule(st("broken", x), st("is", x, st("nope", num(1))))))

	r := vr("R")
	assert.Equal(t, []string{"5"}, query(t, k, st("five", r), r))
	assert.Equal(t, []string{"8"}, query(t, k, st("double", num(4), r), r))
	assert.Equal(t, []string{"3.0"}, query(t, k, st("double", dec(1.5), r), r))
	assert.Empty(t, query(t, k, st("five", num(6))))

	err := queryErr(context.Background(), k, st("broken", r))
	assert.EqualError(t, err, "cannot find arithmetic operator: nope/1")

	err = queryErr(context.Background(), k, st("double", vr("Unbound"), r))
	assert.EqualError(t, err, "cannot resolve to numeric value: X of type: VARIABLE")
}

func TestNumericComparison(t *testing.T) {
	k := newKB(t)
	tests := []struct {
		op   string
		a, b term.Term
		want bool
	}{
		{"=:=", num(7), dec(7), true},
		{"=\\=", num(1), num(2), true},
		{"<", num(1), dec(2.5), true},
		{"<", num(2), num(2), false},
		{"=<", num(2), num(2), true},
		{">", st("+", num(1), num(1)), num(1), true},
		{">=", num(1), num(2), false},
	}
	for _, tt := range tests {
		got := len(query(t, k, st(tt.op, tt.a, tt.b))) == 1
		assert.Equal(t, tt.want, got, "%s %s %s", tt.a, tt.op, tt.b)
	}
}
