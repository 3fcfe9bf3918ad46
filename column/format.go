// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package column

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Shape returns a description of the nested type of col, for example
// "struct<a:string,b:list<string>>".
func Shape(col Column) string {
	var sb strings.Builder
	writeShape(&sb, col)
	return sb.String()
}

func writeShape(sb *strings.Builder, col Column) {
	switch c := col.(type) {
	case *StringColumn:
		sb.WriteString("string")
	case *ListColumn:
		sb.WriteString("list<")
		writeShape(sb, c.Child)
		sb.WriteString(">")
	case *StructColumn:
		sb.WriteString("struct<")
		for i := range c.Fields.Len() {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(c.Fields.Name(i))
			sb.WriteString(":")
			writeShape(sb, c.Fields.Column(i))
		}
		sb.WriteString(">")
	default:
		fmt.Fprintf(sb, "%T", col)
	}
}

// Format writes a human-readable dump of col and its children to w. String
// rows are printed with their raw text from input.
//
// For example, the column for [{"a":1},{"b":"x"}] prints as:
//
//	list rows=1 valid=1
//	  0: [1] [0, 2)
//	  []:
//	    struct rows=2 valid=2 fields=2
//	      0: [1]
//	      1: [1]
//	      'a':
//	        string rows=2 valid=1
//	          0: [1] 1
//	          1: [0]
//	      'b':
//	        string rows=2 valid=1
//	          0: [0]
//	          1: [1] "x"
func Format(w io.Writer, input []byte, col Column) error {
	bw := bufio.NewWriter(w)
	formatColumn(bw, input, col, "")
	return bw.Flush()
}

func formatColumn(w *bufio.Writer, input []byte, col Column, indent string) {
	fmt.Fprintf(w, "%s%s rows=%d valid=%d", indent, col.Kind(), col.Len(), col.Len()-col.NullCount())
	if c, ok := col.(*StructColumn); ok {
		fmt.Fprintf(w, " fields=%d", c.Fields.Len())
	}
	w.WriteString("\n")

	sub := indent + "  "
	for row := range col.Len() {
		fmt.Fprintf(w, "%s%d: [%s]", sub, row, bit(col.Valid(row)))
		if col.Valid(row) {
			switch c := col.(type) {
			case *StringColumn:
				if c.Quoted(row) {
					fmt.Fprintf(w, ` "%s"`, c.Text(input, row))
				} else {
					fmt.Fprintf(w, " %s", c.Text(input, row))
				}
			case *ListColumn:
				lo, hi := c.Elements(row)
				fmt.Fprintf(w, " [%d, %d)", lo, hi)
			}
		}
		w.WriteString("\n")
	}

	switch c := col.(type) {
	case *ListColumn:
		fmt.Fprintf(w, "%s[]:\n", sub)
		formatColumn(w, input, c.Child, sub+"  ")
	case *StructColumn:
		for i := range c.Fields.Len() {
			fmt.Fprintf(w, "%s'%s':\n", sub, c.Fields.Name(i))
			formatColumn(w, input, c.Fields.Column(i), sub+"  ")
		}
	}
}

func bit(ok bool) string {
	if ok {
		return "1"
	}
	return "0"
}
