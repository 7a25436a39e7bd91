package condition

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"

	nt "chanfilter/entity"
	"chanfilter/catalog"
	"chanfilter/grammar"
)

var (
	testCatalog = catalog.New(
		nt.ChannelInfo{SystemName: "CHANNEL_A", Label: "Channel A", DataType: nt.Scalar},
		nt.ChannelInfo{SystemName: "CHANNEL_C", DataType: nt.Scalar},
		nt.ChannelInfo{SystemName: "NOTES", Label: "Notes", DataType: nt.Text},
		nt.ChannelInfo{SystemName: "TAKEN", Label: "Taken", DataType: nt.Date},
	)

	shotnum = nt.Channel{SystemName: "shotnum", Label: "Shot Number"}
	area    = nt.Channel{SystemName: "activeArea", Label: "Active Area"}
	chanA   = nt.Channel{SystemName: "CHANNEL_A", Label: "Channel A"}
	chanC   = nt.Channel{SystemName: "CHANNEL_C", Label: "CHANNEL_C"}
	notes   = nt.Channel{SystemName: "NOTES", Label: "Notes"}
	taken   = nt.Channel{SystemName: "TAKEN", Label: "Taken"}

	and       = nt.Op(nt.SymAnd)
	or        = nt.Op(nt.SymOr)
	isNull    = nt.Op(nt.SymIsNull)
	isNotNull = nt.Op(nt.SymIsNotNull)
)

func lit(text string) nt.Literal {
	return nt.NewLiteral(text)
}

func null(field string, isNull bool) nt.NullCheck {
	return nt.NullCheck{Field: field, IsNull: isNull}
}

func cmp(field string, op nt.CompareOp, value any) nt.ComparisonNode {
	return nt.ComparisonNode{Field: field, Op: op, Value: value}
}

func TestCompileExpression(t *testing.T) {
	tests := []struct {
		name string
		expr nt.Expression
		want nt.Condition
	}{
		{
			name: "empty",
			expr: nt.Expression{},
			want: nil,
		},
		{
			name: "is null",
			expr: nt.Expression{shotnum, isNull},
			want: null("metadata.shotnum", true),
		},
		{
			name: "is not null",
			expr: nt.Expression{area, isNotNull},
			want: null("metadata.activeArea", false),
		},
		{
			name: "channel comparison",
			expr: nt.Expression{chanC, nt.Op(nt.SymEq), lit("1")},
			want: cmp("channels.CHANNEL_C.data", nt.Eq, 1.0),
		},
		{
			name: "numeric coercion",
			expr: nt.Expression{chanA, nt.Op(nt.SymLte), lit("2.50")},
			want: cmp("channels.CHANNEL_A.data", nt.Lte, 2.5),
		},
		{
			name: "text keeps string",
			expr: nt.Expression{notes, nt.Op(nt.SymNe), lit("42")},
			want: cmp("channels.NOTES.data", nt.Ne, "42"),
		},
		{
			name: "date keeps string",
			expr: nt.Expression{taken, nt.Op(nt.SymGt), lit("2022-01-01")},
			want: cmp("channels.TAKEN.data", nt.Gt, "2022-01-01"),
		},
		{
			name: "contains escapes",
			expr: nt.Expression{notes, nt.Op(nt.SymContains), lit("a.b*")},
			want: cmp("channels.NOTES.data", nt.Regex, `a\.b\*`),
		},
		{
			name: "and",
			expr: nt.Expression{area, isNotNull, and, shotnum, isNull},
			want: nt.And{Children: []nt.Condition{
				null("metadata.activeArea", false),
				null("metadata.shotnum", true),
			}},
		},
		{
			name: "and binds tighter than or",
			expr: nt.Expression{area, isNull, or, shotnum, isNull, and, chanA, isNull},
			want: nt.Or{Children: []nt.Condition{
				null("metadata.activeArea", true),
				nt.And{Children: []nt.Condition{
					null("metadata.shotnum", true),
					null("channels.CHANNEL_A.data", true),
				}},
			}},
		},
		{
			name: "and runs on both sides of or",
			expr: nt.Expression{area, isNull, and, shotnum, isNull, or, chanA, isNull, or, chanC, isNull, and, notes, isNull},
			want: nt.Or{Children: []nt.Condition{
				nt.And{Children: []nt.Condition{
					null("metadata.activeArea", true),
					null("metadata.shotnum", true),
				}},
				null("channels.CHANNEL_A.data", true),
				nt.And{Children: []nt.Condition{
					null("channels.CHANNEL_C.data", true),
					null("channels.NOTES.data", true),
				}},
			}},
		},
	}

	cpl := New(testCatalog)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cpl.CompileExpression(tt.expr)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestCompileSet(t *testing.T) {
	first := nt.Expression{area, isNotNull}
	second := nt.Expression{shotnum, isNull, or, chanA, isNull}

	tests := []struct {
		name string
		set  nt.FilterSet
		want nt.Condition
	}{
		{
			name: "nothing",
			set:  nt.FilterSet{},
			want: nil,
		},
		{
			name: "all empty",
			set:  nt.FilterSet{{}, {}},
			want: nil,
		},
		{
			name: "single elides and",
			set:  nt.FilterSet{{}, first, {}},
			want: null("metadata.activeArea", false),
		},
		{
			name: "outer and keeps order",
			set:  nt.FilterSet{second, {}, first},
			want: nt.And{Children: []nt.Condition{
				nt.Or{Children: []nt.Condition{
					null("metadata.shotnum", true),
					null("channels.CHANNEL_A.data", true),
				}},
				null("metadata.activeArea", false),
			}},
		},
	}

	cpl := New(testCatalog)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cpl.Compile(tt.set)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestCompileInvalidPanics(t *testing.T) {
	defer func() {
		rec := recover()
		ce, ok := rec.(*ContractError)
		if !ok {
			t.Fatalf("expected *ContractError panic, got %v", rec)
		}
		if !errors.Is(ce.Problem, grammar.ErrStructure) {
			t.Errorf("expected structural problem, got %v", ce.Problem)
		}
	}()

	New(testCatalog).Compile(nt.FilterSet{{shotnum, isNull, and}})
}

func TestDecompileRoundTrip(t *testing.T) {
	exprs := []nt.Expression{
		{},
		{shotnum, isNull},
		{area, isNotNull, and, shotnum, isNull},
		{chanC, nt.Op(nt.SymEq), lit("1")},
		{chanA, nt.Op(nt.SymGte), lit("1.50"), or, chanA, nt.Op(nt.SymLt), lit("-2e3")},
		{notes, nt.Op(nt.SymContains), lit("a.b (c)"), and, notes, nt.Op(nt.SymEq), lit("true")},
		{notes, nt.Op(nt.SymEq), lit("'7'"), or, taken, nt.Op(nt.SymNe), lit("2022-01-01")},
		{area, isNull, or, shotnum, isNull, and, chanA, isNull, or, chanC, isNotNull},
		{nt.Channel{SystemName: "CHANNEL_A", Label: "stale label"}, isNull},
	}

	cpl := New(testCatalog)
	vld := grammar.NewValidator(testCatalog)
	for _, expr := range exprs {
		t.Run(expr.String(), func(t *testing.T) {
			if res := vld.Validate(expr); !res.Valid() {
				t.Fatalf("test expression is invalid: %s", res)
			}

			got, err := cpl.Decompile(cpl.CompileExpression(expr))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := cpl.Canonical(expr)
			if !got.Equal(want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestDecompileNotExpressible(t *testing.T) {
	node := nt.And{Children: []nt.Condition{
		nt.Or{Children: []nt.Condition{null("metadata.shotnum", true), null("metadata.activeArea", true)}},
		null("channels.CHANNEL_A.data", true),
	}}

	_, err := New(testCatalog).Decompile(node)
	if !errors.Is(err, ErrNotExpressible) {
		t.Errorf("expected not expressible, got %v", err)
	}
}

func TestDecompileUnknownField(t *testing.T) {
	_, err := New(testCatalog).Decompile(null("metadata.other", true))
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected unknown node, got %v", err)
	}

	expr, err := New(testCatalog).Decompile(null("channels.NEW.data", false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := nt.Expression{nt.Channel{SystemName: "NEW", Label: "NEW"}, isNotNull}
	if !expr.Equal(want) {
		t.Errorf("expected %v, got %v", want, expr)
	}
}

func TestDecompileSet(t *testing.T) {
	first := nt.Expression{area, isNotNull, and, chanA, isNull}
	second := nt.Expression{shotnum, isNull, or, chanC, isNull}
	third := nt.Expression{notes, isNotNull}

	tests := []struct {
		name string
		set  nt.FilterSet
		want nt.FilterSet
	}{
		{
			name: "empty",
			set:  nt.FilterSet{{}},
			want: nt.FilterSet{{}},
		},
		{
			name: "single",
			set:  nt.FilterSet{first},
			want: nt.FilterSet{first},
		},
		{
			name: "conjunctions merge",
			set:  nt.FilterSet{first, third},
			want: nt.FilterSet{append(first.Clone(), and, notes, isNotNull)},
		},
		{
			name: "or splits",
			set:  nt.FilterSet{first, second, third},
			want: nt.FilterSet{first, second, third},
		},
	}

	cpl := New(testCatalog)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cpl.DecompileSet(cpl.Compile(tt.set))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
