// Package testutil defines support code for unit tests.
package testutil

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Bookstore is the two-record document used by the golden token and tree
// tests. It has brackets inside strings and nested empty containers.
const Bookstore = `  [{` +
	`"category": "reference",` +
	`"index:": [4,12,42],` +
	`"author": "Nigel Rees",` +
	`"title": "[Sayings of the Century]",` +
	`"price": 8.95` +
	`},  ` +
	`{` +
	`"category": "reference",` +
	`"index": [4,{},null,{"a":[{ }, {}] } ],` +
	`"author": "Nigel Rees",` +
	`"title": "{}[], <=semantic-symbols-string",` +
	`"price": 8.95` +
	`}] `

// BookstoreEscaped is Bookstore with escaped quotes and backslashes in the
// second title, used by the golden stack context test.
const BookstoreEscaped = `  [{` +
	`"category": "reference",` +
	`"index:": [4,12,42],` +
	`"author": "Nigel Rees",` +
	`"title": "[Sayings of the Century]",` +
	`"price": 8.95` +
	`},  ` +
	`{` +
	`"category": "reference",` +
	`"index": [4,{},null,{"a":[{ }, {}] } ],` +
	`"author": "Nigel Rees",` +
	`"title": "{}\\\"[], <=semantic-symbols-string\\\\",` +
	`"price": 8.95` +
	`}] `

// Members is a list of structs whose members end in each of the ways a
// member can end: ", " after a literal, "}" after a container, and so on.
//
//	0         1         2         3         4         5         6         7         8         9
//	0123456789012345678901234567890123456789012345678901234567890123456789012345678901234567890
const Members = `[ {}, { "a": { "y" : 6, "z": [] }}, { "a" : { "x" : 8, "y": 9}, "b" : {"x": 10 , "z": 11}}]`

// Unicode has multi-byte characters inside a string. It is not well formed,
// since the outer object has a member with no name.
const Unicode = `[{"a":{"year":1882,"author": "Bharathi"}, {"a":"filip ʒakotɛ"}}]`

// Records is a list of records with nulls, non-standard literals, and UTF-8.
const Records = `[
  {"a":1,"b":2,"c":[3], "d": {}},
  {"a":1,"b":4.0,"c":[], "d": {"year":1882,"author": "Bharathi"}},
  {"a":1,"b":6.0,"c":[5, 7], "d": null},
  {"a":1,"b":8.0,"c":null, "d": {}},
  {"a":1,"b":null,"c":null},
  {"a":1,"b":Infinity,"c":[null], "d": {"year":-600,"author": "Kaniyan"}},
  {"a":1,"b":NaN,"c":[null, null], "d": {"year": 2, "author": "filip ʒakotɛ"}}]`

// A Generator produces pseudo-random well-formed JSON documents for property
// tests. Generated documents only use standard JSON literals, so that other
// JSON readers can be used to check the results.
type Generator struct {
	rng      *rand.Rand
	MaxDepth int // maximum nesting depth (default 5)
	MaxWidth int // maximum members or elements per container (default 4)

	// Uniform, if true, gives each field name a fixed kind, so that
	// generated records never have schema conflicts.
	Uniform bool
}

// NewGenerator constructs a Generator with the given seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Document returns a new document whose root is an object or array.
func (g *Generator) Document() string {
	var sb strings.Builder
	if g.rng.IntN(2) == 0 {
		g.object(&sb, 0)
	} else {
		g.array(&sb, 0)
	}
	return sb.String()
}

var (
	names   = []string{"a", "b", "c", "id", "x y", `q\"t`, "[k]", "{v}"}
	strs    = []string{"", "text", "brackets [{}]", `esc \" \\ \/`, `été`, "ʒakotɛ", "a,b:c"}
	numbers = []string{"0", "-1", "12", "3.25", "-0.5e10", "6E-3", "100"}
	spaces  = []string{"", "", " ", "\n  ", "\t"}
)

func (g *Generator) pick(s []string) string { return s[g.rng.IntN(len(s))] }

func (g *Generator) depth() int {
	if g.MaxDepth <= 0 {
		return 5
	}
	return g.MaxDepth
}

func (g *Generator) width() int {
	if g.MaxWidth <= 0 {
		return 4
	}
	return g.MaxWidth
}

func (g *Generator) value(sb *strings.Builder, depth, kind int) {
	if kind < 0 {
		kind = g.rng.IntN(7)
		if depth >= g.depth() {
			kind = 2 + g.rng.IntN(5)
		}
	}
	switch kind {
	case 0:
		g.object(sb, depth+1)
	case 1:
		g.array(sb, depth+1)
	case 2, 3:
		fmt.Fprintf(sb, `"%s"`, g.pick(strs))
	case 4:
		sb.WriteString(g.pick(numbers))
	case 5:
		sb.WriteString(g.pick([]string{"true", "false"}))
	default:
		if g.Uniform {
			sb.WriteString(g.pick(numbers))
		} else {
			sb.WriteString("null")
		}
	}
}

func (g *Generator) object(sb *strings.Builder, depth int) {
	sb.WriteString("{" + g.pick(spaces))
	n := g.rng.IntN(g.width() + 1)
	perm := g.rng.Perm(len(names))
	for i := range n {
		if i > 0 {
			sb.WriteString("," + g.pick(spaces))
		}
		name := names[perm[i%len(perm)]]
		fmt.Fprintf(sb, `"%s"%s:%s`, name, g.pick(spaces), g.pick(spaces))
		kind := -1
		if g.Uniform {
			kind = g.kindOf(name, depth)
		}
		g.value(sb, depth, kind)
		sb.WriteString(g.pick(spaces))
	}
	sb.WriteString("}")
}

// kindOf returns a fixed value kind for a field name in uniform mode.
// Containers become scalars once the depth limit is reached.
func (g *Generator) kindOf(name string, depth int) int {
	k := (len(name)*7 + int(name[0])) % 5
	if k < 2 && depth >= g.depth() {
		return 2
	}
	return k
}

func (g *Generator) array(sb *strings.Builder, depth int) {
	sb.WriteString("[" + g.pick(spaces))
	n := g.rng.IntN(g.width() + 1)
	kind := -1
	if g.Uniform {
		kind = 2 // element kinds depend only on depth
		if depth < g.depth() && depth%2 == 0 {
			kind = 0
		}
	}
	for i := range n {
		if i > 0 {
			sb.WriteString("," + g.pick(spaces))
		}
		g.value(sb, depth, kind)
	}
	sb.WriteString(g.pick(spaces) + "]")
}
