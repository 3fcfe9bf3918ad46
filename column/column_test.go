// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package column_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/creachadair/jcolumn"
	"github.com/creachadair/jcolumn/column"
	"github.com/creachadair/jcolumn/column/cursor"
	"github.com/creachadair/jcolumn/internal/testutil"
	"github.com/creachadair/jcolumn/token"
	"github.com/creachadair/jcolumn/tree"
	"github.com/google/go-cmp/cmp"
	"github.com/valyala/fastjson"
)

// materialize runs the whole pipeline on input, failing on a syntax error.
func materialize(t *testing.T, input string, layout tree.Layout, opts column.Options) (column.Column, error) {
	t.Helper()
	toks, err := token.Tokenize([]byte(input))
	if err != nil {
		t.Fatalf("Tokenize %#q: unexpected error: %v", input, err)
	}
	f, err := tree.Build(toks, layout)
	if err != nil {
		t.Fatalf("Build %#q: unexpected error: %v", input, err)
	}
	return column.Materialize([]byte(input), f, opts)
}

func mustMaterialize(t *testing.T, input string, layout tree.Layout, opts column.Options) column.Column {
	t.Helper()
	col, err := materialize(t, input, layout, opts)
	if err != nil {
		t.Fatalf("Materialize %#q: unexpected error: %v", input, err)
	}
	return col
}

func format(t *testing.T, input string, col column.Column) string {
	t.Helper()
	var sb strings.Builder
	if err := column.Format(&sb, []byte(input), col); err != nil {
		t.Fatalf("Format: unexpected error: %v", err)
	}
	return sb.String()
}

func validBits(col column.Column) string {
	var sb strings.Builder
	for i := range col.Len() {
		if col.Valid(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// texts returns the text of each row of a string column, or "-" for a row
// that is not valid.
func texts(input string, col *column.StringColumn) []string {
	var out []string
	for i := range col.Len() {
		if col.Valid(i) {
			out = append(out, string(col.Text([]byte(input), i)))
		} else {
			out = append(out, "-")
		}
	}
	return out
}

func TestFormat(t *testing.T) {
	const input = `[{"a":1},{"b":"x"}]`
	const want = `list rows=1 valid=1
  0: [1] [0, 2)
  []:
    struct rows=2 valid=2 fields=2
      0: [1]
      1: [1]
      'a':
        string rows=2 valid=1
          0: [1] 1
          1: [0]
      'b':
        string rows=2 valid=1
          0: [0]
          1: [1] "x"
`
	for _, layout := range []tree.Layout{{}, tree.Reference} {
		col := mustMaterialize(t, input, layout, column.Options{})
		if diff := cmp.Diff(want, format(t, input, col)); diff != "" {
			t.Errorf("Format %+v (-want, +got):\n%s", layout, diff)
		}
	}
}

func TestScalarRoot(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{` "abc" `, "string rows=1 valid=1\n  0: [1] \"abc\"\n"},
		{`12.5`, "string rows=1 valid=1\n  0: [1] 12.5\n"},
		{`null`, "string rows=1 valid=0\n  0: [0]\n"},
		{`[]`, "list rows=1 valid=1\n  0: [1] [0, 0)\n  []:\n    string rows=0 valid=0\n"},
		{`{}`, "struct rows=1 valid=1 fields=0\n  0: [1]\n"},
	}
	for _, tc := range tests {
		col := mustMaterialize(t, tc.input, tree.Layout{}, column.Options{})
		if diff := cmp.Diff(tc.want, format(t, tc.input, col)); diff != "" {
			t.Errorf("Format %#q (-want, +got):\n%s", tc.input, diff)
		}
	}
}

func TestRecords(t *testing.T) {
	in := testutil.Records
	for _, layout := range []tree.Layout{{}, tree.Reference} {
		root := mustMaterialize(t, in, layout, column.Options{})

		const wantShape = `list<struct<a:string,b:string,c:list<string>,d:struct<year:string,author:string>>>`
		if got := column.Shape(root); got != wantShape {
			t.Errorf("Shape: got %q, want %q", got, wantShape)
		}

		rec, err := cursor.Path[*column.StructColumn](root, cursor.Elements)
		if err != nil {
			t.Fatalf("Path: %v", err)
		}
		if rec.Len() != 7 || rec.NullCount() != 0 {
			t.Errorf("Records: got %d rows with %d null, want 7 rows with 0 null", rec.Len(), rec.NullCount())
		}

		b := rec.Field("b").(*column.StringColumn)
		if diff := cmp.Diff([]string{"2", "4.0", "6.0", "8.0", "-", "Infinity", "NaN"}, texts(in, b)); diff != "" {
			t.Errorf("Field b (-want, +got):\n%s", diff)
		}

		c := rec.Field("c").(*column.ListColumn)
		if diff := cmp.Diff([]int32{0, 1, 1, 3, 3, 3, 4, 6}, c.Offsets); diff != "" {
			t.Errorf("Field c offsets (-want, +got):\n%s", diff)
		}
		if got, want := validBits(c), "1110011"; got != want {
			t.Errorf("Field c valid: got %s, want %s", got, want)
		}
		if got, want := validBits(c.Child), "111000"; got != want {
			t.Errorf("Field c elements valid: got %s, want %s", got, want)
		}

		d := rec.Field("d").(*column.StructColumn)
		if got, want := validBits(d), "1101011"; got != want {
			t.Errorf("Field d valid: got %s, want %s", got, want)
		}
		year, err := cursor.Path[*column.StringColumn](d, "year")
		if err != nil {
			t.Fatalf("Path year: %v", err)
		}
		if diff := cmp.Diff([]string{"-", "1882", "-", "-", "-", "-600", "2"}, texts(in, year)); diff != "" {
			t.Errorf("Field d.year (-want, +got):\n%s", diff)
		}
		author, err := cursor.Path[*column.StringColumn](root, cursor.Elements, "d", -1)
		if err != nil {
			t.Fatalf("Path author: %v", err)
		}
		if got, want := string(author.Text([]byte(in), 6)), "filip ʒakotɛ"; got != want {
			t.Errorf("Author row 6: got %q, want %q", got, want)
		}
		if !author.Quoted(6) {
			t.Error("Author row 6 is not marked quoted")
		}
	}
}

func TestMissingFields(t *testing.T) {
	const input = `[{"a":1},{"b":2},{"a":3,"b":4}]`
	rec, err := cursor.Path[*column.StructColumn](mustMaterialize(t, input, tree.Layout{}, column.Options{}), cursor.Elements)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	for _, tc := range []struct {
		name, valid string
		text        []string
	}{
		{"a", "101", []string{"1", "-", "3"}},
		{"b", "011", []string{"-", "2", "4"}},
	} {
		col := rec.Field(tc.name).(*column.StringColumn)
		if got := validBits(col); got != tc.valid {
			t.Errorf("Field %q valid: got %s, want %s", tc.name, got, tc.valid)
		}
		if diff := cmp.Diff(tc.text, texts(input, col)); diff != "" {
			t.Errorf("Field %q (-want, +got):\n%s", tc.name, diff)
		}
	}
}

func TestNulls(t *testing.T) {
	// A column of only nulls has no kind, and is reported as strings.
	const input = `{"a":null,"b":[null,{"c":null}],"d":[[1],null,[]]}`
	col := mustMaterialize(t, input, tree.Layout{}, column.Options{})
	if got, want := column.Shape(col), "struct<a:string,b:list<struct<c:string>>,d:list<list<string>>>"; got != want {
		t.Errorf("Shape: got %q, want %q", got, want)
	}
	for _, tc := range []struct {
		path  []any
		valid string
	}{
		{[]any{"a"}, "0"},
		{[]any{"b"}, "1"},
		{[]any{"b", cursor.Elements}, "01"},
		{[]any{"b", cursor.Elements, "c"}, "00"},
		{[]any{"d", cursor.Elements}, "101"},
		{[]any{"d", cursor.Elements, cursor.Elements}, "1"},
	} {
		c := cursor.New(col).Down(tc.path...)
		if err := c.Err(); err != nil {
			t.Fatalf("Path %v: %v", tc.path, err)
		}
		if got := validBits(c.Value()); got != tc.valid {
			t.Errorf("Path %v valid: got %s, want %s", tc.path, got, tc.valid)
		}
	}
}

func TestUnescaped(t *testing.T) {
	const input = `["a\"b", "xé", "plain", true]`
	col := mustMaterialize(t, input, tree.Layout{}, column.Options{})
	elts := col.(*column.ListColumn).Child.(*column.StringColumn)
	var got []string
	for i := range elts.Len() {
		text, err := elts.Unescaped([]byte(input), i)
		if err != nil {
			t.Fatalf("Unescaped row %d: %v", i, err)
		}
		got = append(got, string(text))
	}
	if diff := cmp.Diff([]string{`a"b`, "xé", "plain", "true"}, got); diff != "" {
		t.Errorf("Unescaped (-want, +got):\n%s", diff)
	}
}

func TestConflicts(t *testing.T) {
	t.Run("Reject", func(t *testing.T) {
		const input = `[{"a":1},{"a":{"x":1}}]`
		want := &column.SchemaConflictError{Path: "$[*].a", Have: column.String, Got: column.Struct, Offset: 14}
		for _, layout := range []tree.Layout{{}, tree.Reference} {
			_, err := materialize(t, input, layout, column.Options{})
			var got *column.SchemaConflictError
			if !errors.As(err, &got) {
				t.Fatalf("Materialize %+v: got %v, want %v", layout, err, want)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Error %+v (-want, +got):\n%s", layout, diff)
			}
		}
	})

	t.Run("Path", func(t *testing.T) {
		const input = `{"x y":[1], "x y":{}}`
		_, err := materialize(t, input, tree.Layout{}, column.Options{})
		var got *column.SchemaConflictError
		if !errors.As(err, &got) {
			t.Fatalf("Materialize: got %v, want conflict", err)
		}
		if want := `$['x y']`; got.Path != want {
			t.Errorf("Path: got %q, want %q", got.Path, want)
		}
	})

	t.Run("Coerce", func(t *testing.T) {
		const input = `[{"a":1},{"a":{"x":1}},{"a":"s"},{"a":null},{"a":[2, 3]}]`
		opts := column.Options{Conflicts: column.CoerceToString}
		col := mustMaterialize(t, input, tree.Layout{}, opts)
		a, err := cursor.Path[*column.StringColumn](col, cursor.Elements, "a")
		if err != nil {
			t.Fatalf("Path: %v", err)
		}
		if diff := cmp.Diff([]string{"1", `{"x":1}`, `"s"`, "-", "[2, 3]"}, texts(input, a)); diff != "" {
			t.Errorf("Coerced (-want, +got):\n%s", diff)
		}
		for i := range a.Len() {
			if a.Quoted(i) {
				t.Errorf("Row %d is marked quoted", i)
			}
		}
	})

	t.Run("CoerceLayout", func(t *testing.T) {
		coerce := column.Options{Conflicts: column.CoerceToString}
		for _, input := range []string{`{}`, `[]`, `null`, `[1, "x"]`, `{"a": [1], "b": {"c": null}}`} {
			col := mustMaterialize(t, input, tree.Reference, coerce)
			want := mustMaterialize(t, input, tree.Layout{}, coerce)
			if got, want := column.Shape(col), column.Shape(want); got != want {
				t.Errorf("Shape %#q: got %q, want %q", input, got, want)
			}
		}

		_, err := materialize(t, `[1, [2]]`, tree.Reference, coerce)
		var cerr *column.SchemaConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("Materialize: got error %v, want *SchemaConflictError", err)
		}
		if cerr.Path != "$[*]" || cerr.Have != column.String || cerr.Got != column.List {
			t.Errorf("Conflict: got %s %v/%v, want $[*] string/list", cerr.Path, cerr.Have, cerr.Got)
		}
	})
}

func TestErrors(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := column.Materialize(nil, &tree.Forest{}, column.Options{})
		if !errors.Is(err, column.ErrEmpty) {
			t.Errorf("Materialize: got %v, want %v", err, column.ErrEmpty)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		input := []byte("{\n\"a\":1}}")
		toks, _ := token.Tokenize(input)
		f, _ := tree.Build(toks, tree.Layout{})
		_, err := column.Materialize(input, f, column.Options{})
		want := &jcolumn.SyntaxError{
			Location: jcolumn.LineCol{Line: 2, Column: 6},
			Offset:   8,
			Message:  "malformed input",
		}
		var got *jcolumn.SyntaxError
		if !errors.As(err, &got) {
			t.Fatalf("Materialize: got %v, want %v", err, want)
		}
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(jcolumn.SyntaxError{})); diff != "" {
			t.Errorf("Error (-want, +got):\n%s", diff)
		}
	})
}

func TestFields(t *testing.T) {
	col := mustMaterialize(t, `{"b":1,"a":2,"x y":3,"b":4}`, tree.Layout{}, column.Options{})
	s := col.(*column.StructColumn)
	var names []string
	for i := range s.Fields.Len() {
		names = append(names, s.Fields.Name(i))
	}
	if diff := cmp.Diff([]string{"b", "a", "x y"}, names); diff != "" {
		t.Errorf("Names (-want, +got):\n%s", diff)
	}
	for name, want := range map[string]int{"a": 1, "b": 0, "x y": 2, "c": -1, "": -1} {
		if got := s.Fields.Index(name); got != want {
			t.Errorf("Index(%q): got %d, want %d", name, got, want)
		}
	}
	if got := s.Field("c"); got != nil {
		t.Errorf("Field(c): got %v, want nil", got)
	}

	// The last of duplicate members wins.
	b := s.Field("b").(*column.StringColumn)
	if got := string(b.Text([]byte(`{"b":1,"a":2,"x y":3,"b":4}`), 0)); got != "4" {
		t.Errorf("Field b: got %q, want %q", got, "4")
	}

	var empty *column.Fields
	if n, i := empty.Len(), empty.Index("a"); n != 0 || i != -1 {
		t.Errorf("Empty fields: got Len %d, Index %d; want 0, -1", n, i)
	}
}

func TestKind(t *testing.T) {
	for k, want := range map[column.Kind]string{
		column.String:  "string",
		column.List:    "list",
		column.Struct:  "struct",
		column.Kind(9): "Kind(9)",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind %d: got %q, want %q", byte(k), got, want)
		}
	}
	if got := column.CoerceToString.String(); got != "coerce" {
		t.Errorf("CoerceToString: got %q, want coerce", got)
	}
}

// TestConsistency checks that the layout of the forest and the parallelism
// of materialization do not affect the result.
func TestConsistency(t *testing.T) {
	for seed := range uint64(30) {
		g := testutil.NewGenerator(seed)
		g.Uniform = seed%2 == 0
		doc := g.Document()
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			base, berr := materialize(t, doc, tree.Layout{}, column.Options{Parallelism: 1})
			for _, layout := range []tree.Layout{{}, tree.Reference} {
				for _, par := range []int{0, 1, 4} {
					col, err := materialize(t, doc, layout, column.Options{Parallelism: par})
					if fmt.Sprint(err) != fmt.Sprint(berr) {
						t.Fatalf("Materialize %+v/%d: got error %v, want %v", layout, par, err, berr)
					}
					if err != nil {
						continue
					}
					if diff := cmp.Diff(format(t, doc, base), format(t, doc, col)); diff != "" {
						t.Errorf("Format %+v/%d (-want, +got):\n%s", layout, par, diff)
					}
				}
			}
			if g.Uniform && berr != nil {
				t.Errorf("Uniform document %#q: unexpected error: %v", doc, berr)
			}

			// Coercion never fails on a well-formed document.
			opts := column.Options{Conflicts: column.CoerceToString}
			c1 := mustMaterialize(t, doc, tree.Layout{}, opts)
			opts.Parallelism = 3
			c3 := mustMaterialize(t, doc, tree.Layout{}, opts)
			if diff := cmp.Diff(format(t, doc, c1), format(t, doc, c3)); diff != "" {
				t.Errorf("Coerced (-want, +got):\n%s", diff)
			}
		})
	}
}

type literal string

// TestCompareFastJSON checks that the rows of the columns reproduce the
// values of uniform documents as decoded by fastjson.
func TestCompareFastJSON(t *testing.T) {
	var p fastjson.Parser
	for seed := range uint64(20) {
		g := testutil.NewGenerator(100 + seed)
		g.Uniform = true
		doc := g.Document()

		v, err := p.Parse(doc)
		if err != nil {
			t.Fatalf("fastjson Parse %#q: %v", doc, err)
		}
		want := fromFastJSON(v)

		col := mustMaterialize(t, doc, tree.Layout{}, column.Options{})
		got := fromColumn(t, []byte(doc), col, 0)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Document %#q (-want, +got):\n%s", doc, diff)
		}
	}
}

func fromFastJSON(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]any)
		o.Visit(func(key []byte, v *fastjson.Value) { m[string(key)] = fromFastJSON(v) })
		return m
	case fastjson.TypeArray:
		a, _ := v.Array()
		out := make([]any, 0, len(a))
		for _, elt := range a {
			out = append(out, fromFastJSON(elt))
		}
		return out
	case fastjson.TypeString:
		s, _ := v.StringBytes()
		return string(s)
	case fastjson.TypeNull:
		return nil
	default:
		return literal(v.String())
	}
}

func fromColumn(t *testing.T, input []byte, col column.Column, row int) any {
	t.Helper()
	if !col.Valid(row) {
		return nil
	}
	switch c := col.(type) {
	case *column.StringColumn:
		if !c.Quoted(row) {
			return literal(c.Text(input, row))
		}
		text, err := c.Unescaped(input, row)
		if err != nil {
			t.Fatalf("Unescaped row %d: %v", row, err)
		}
		return string(text)
	case *column.ListColumn:
		lo, hi := c.Elements(row)
		out := make([]any, 0, hi-lo)
		for i := lo; i < hi; i++ {
			out = append(out, fromColumn(t, input, c.Child, i))
		}
		return out
	case *column.StructColumn:
		m := make(map[string]any)
		for i := range c.Fields.Len() {
			fc := c.Fields.Column(i)
			if !fc.Valid(row) {
				continue
			}
			name, err := jcolumn.Unquote(`"` + c.Fields.Name(i) + `"`)
			if err != nil {
				t.Fatalf("Unquote %q: %v", c.Fields.Name(i), err)
			}
			m[string(name)] = fromColumn(t, input, fc, row)
		}
		return m
	}
	t.Fatalf("unexpected column type %T", col)
	return nil
}
