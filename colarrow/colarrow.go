// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package colarrow exports materialized columns as Apache Arrow arrays.
//
// A StringColumn becomes a utf8 array of unescaped strings, a ListColumn a
// list array, and a StructColumn a struct array whose fields are named by the
// unescaped field names. Every Arrow field is nullable, and the validity of
// each row is carried over from the column.
//
// Columns are keyed by the field name as written, so {"a":1, "\u0061":2} has
// two fields whose names unescape to the same text. Fields whose unescaped
// names collide keep their names as written.
package colarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/creachadair/jcolumn/column"
	"github.com/creachadair/jcolumn/internal/escape"
	"github.com/creachadair/jcolumn/nested"
	"go4.org/mem"
)

// DataType returns the Arrow type corresponding to col.
func DataType(col column.Column) arrow.DataType {
	switch c := col.(type) {
	case *column.StringColumn:
		return arrow.BinaryTypes.String
	case *column.ListColumn:
		return arrow.ListOf(DataType(c.Child))
	case *column.StructColumn:
		raw := make([]string, c.Fields.Len())
		for i := range raw {
			raw[i] = c.Fields.Name(i)
		}
		names := fieldNames(raw)
		fields := make([]arrow.Field, len(raw))
		for i := range fields {
			fields[i] = arrow.Field{
				Name:     names[i],
				Type:     DataType(c.Fields.Column(i)),
				Nullable: true,
			}
		}
		return arrow.StructOf(fields...)
	}
	panic(fmt.Sprintf("colarrow: unexpected column type %T", col))
}

// fieldNames returns the Arrow names for fields named raw, in order.
func fieldNames(raw []string) []string {
	out := make([]string, len(raw))
	count := make(map[string]int, len(raw))
	for i, name := range raw {
		out[i] = fieldName(name)
		count[out[i]]++
	}
	for i, name := range out {
		if count[name] > 1 {
			out[i] = raw[i]
		}
	}
	return out
}

// fieldName decodes the escapes in a field name. A name that cannot be
// decoded is used as written.
func fieldName(raw string) string {
	dec, err := escape.Unquote(mem.S(raw))
	if err != nil {
		return raw
	}
	return string(dec)
}

// Array builds an Arrow array with the contents of col, whose string rows
// index input. The caller is responsible for releasing the array.
func Array(alloc memory.Allocator, input []byte, col column.Column) (arrow.Array, error) {
	b := array.NewBuilder(alloc, DataType(col))
	defer b.Release()
	for row := range col.Len() {
		if err := appendRow(b, input, col, row); err != nil {
			return nil, err
		}
	}
	return b.NewArray(), nil
}

func appendRow(b array.Builder, input []byte, col column.Column, row int) error {
	if !col.Valid(row) {
		b.AppendNull()
		return nil
	}
	switch c := col.(type) {
	case *column.StringColumn:
		text, err := c.Unescaped(input, row)
		if err != nil {
			return fmt.Errorf("string at offset %d: %w", c.Begin[row], err)
		}
		b.(*array.StringBuilder).Append(string(text))

	case *column.ListColumn:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		lo, hi := c.Elements(row)
		for i := lo; i < hi; i++ {
			if err := appendRow(lb.ValueBuilder(), input, c.Child, i); err != nil {
				return err
			}
		}

	case *column.StructColumn:
		sb := b.(*array.StructBuilder)
		sb.Append(true)
		for i := range c.Fields.Len() {
			if err := appendRow(sb.FieldBuilder(i), input, c.Fields.Column(i), row); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unexpected column type %T", col)
	}
	return nil
}

// Record builds an Arrow record batch from the records of res, as reported
// by its Records method. The caller is responsible for releasing the record.
func Record(alloc memory.Allocator, res *nested.Result) (arrow.Record, error) {
	cols := res.Records()
	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, 0, len(cols))
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()

	var nrows int
	if len(cols) > 0 {
		nrows = cols[0].Column.Len()
	}
	raw := make([]string, len(cols))
	for i, nc := range cols {
		raw[i] = nc.Name
	}
	names := fieldNames(raw)
	for i, nc := range cols {
		arr, err := Array(alloc, res.Input(), nc.Column)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", nc.Name, err)
		}
		arrs = append(arrs, arr)
		fields[i] = arrow.Field{Name: names[i], Type: arr.DataType(), Nullable: true}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), arrs, int64(nrows)), nil
}
