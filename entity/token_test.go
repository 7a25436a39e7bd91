package entity

import "testing"

func TestNewLiteral(t *testing.T) {
	tests := []struct {
		text string
		want Literal
	}{
		{"1", Literal{Raw: "1", Type: NumberLiteral}},
		{"-2.5e3", Literal{Raw: "-2.5e3", Type: NumberLiteral}},
		{"true", Literal{Raw: "true", Type: BooleanLiteral}},
		{"abc", Literal{Raw: "abc", Type: StringLiteral}},
		{"'1'", Literal{Raw: "1", Type: StringLiteral}},
		{`"two words"`, Literal{Raw: "two words", Type: StringLiteral}},
		{"'", Literal{Raw: "'", Type: StringLiteral}},
		{"NaN", Literal{Raw: "NaN", Type: StringLiteral}},
		{"Inf", Literal{Raw: "Inf", Type: StringLiteral}},
		{"-Inf", Literal{Raw: "-Inf", Type: StringLiteral}},
		{"infinity", Literal{Raw: "infinity", Type: StringLiteral}},
		{"1e400", Literal{Raw: "1e400", Type: StringLiteral}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := NewLiteral(tt.text)
			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestNumberFinite(t *testing.T) {
	for _, text := range []string{"NaN", "+Inf", "-Infinity"} {
		lit := Literal{Raw: text, Type: NumberLiteral}
		if _, ok := lit.Number(); ok {
			t.Errorf("expected %q to have no numeric value", text)
		}
	}
}

func TestLiteralText(t *testing.T) {
	if got := NewLiteral("'1'").Text(); got != "'1'" {
		t.Errorf("expected quoted text, got %q", got)
	}
	if got := NewLiteral("abc").Text(); got != "abc" {
		t.Errorf("expected bare text, got %q", got)
	}
}

func TestOperatorArity(t *testing.T) {
	tests := []struct {
		symbol string
		kind   OpKind
		arity  int
	}{
		{SymEq, Comparison, 2},
		{SymContains, Comparison, 2},
		{SymIsNull, UnaryPostfix, 1},
		{SymIsNotNull, UnaryPostfix, 1},
		{SymAnd, Logical, 2},
		{"OR", Logical, 2},
	}

	for _, tt := range tests {
		op, ok := LookupOperator(tt.symbol)
		if !ok {
			t.Fatalf("operator %q not found", tt.symbol)
		}
		if op.Kind != tt.kind || op.Arity() != tt.arity {
			t.Errorf("%q: expected kind %d arity %d, got %d %d", tt.symbol, tt.kind, tt.arity, op.Kind, op.Arity())
		}
	}

	if _, ok := LookupOperator("like"); ok {
		t.Error("expected unknown operator")
	}
}

func TestTokenEqual(t *testing.T) {
	a := Channel{SystemName: "shotnum", Label: "Shot Number"}
	b := Channel{SystemName: "shotnum", Label: "Shot Number"}

	if !Equal(a, b) {
		t.Error("expected equal channels")
	}
	if Equal(a, Op(SymAnd)) {
		t.Error("expected channel and operator to differ")
	}
	if Equal(NewLiteral("1"), NewLiteral("'1'")) {
		t.Error("expected number and string literals to differ")
	}
	if OperandSlot >= OperatorSlot {
		t.Error("expected operand slot to sort first")
	}
}

func TestFilterSetPruned(t *testing.T) {
	shot := Channel{SystemName: "shotnum", Label: "Shot Number"}
	kept := Expression{shot, Op(SymIsNull)}

	tests := []struct {
		name string
		set  FilterSet
		want FilterSet
	}{
		{"nil set", nil, FilterSet{{}}},
		{"all empty", FilterSet{{}, {}, nil}, FilterSet{{}}},
		{"drops empty", FilterSet{{}, kept, {}}, FilterSet{kept}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.Pruned()
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"shotnum", "metadata.shotnum"},
		{"activeArea", "metadata.activeArea"},
		{"CHANNEL_A", "channels.CHANNEL_A.data"},
	}

	for _, tt := range tests {
		if got := FieldPath(tt.name); got != tt.path {
			t.Errorf("expected %q, got %q", tt.path, got)
		}
		name, ok := ParseFieldPath(tt.path)
		if !ok || name != tt.name {
			t.Errorf("expected %q to parse to %q, got %q %t", tt.path, tt.name, name, ok)
		}
	}

	for _, bad := range []string{"metadata.other", "channels.x", "channels..data", "x.y"} {
		if _, ok := ParseFieldPath(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
