package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"artlang/internal/value"
)

// TestCodifyParseRoundTrip checks parse(codify(parse(source))) == parse(source)
// for a representative sample of syntactic forms: words, labels, literals,
// attributes, paths, numbers, strings, and nested blocks/arrays/dicts/funcs.
func TestCodifyParseRoundTrip(t *testing.T) {
	sources := []string{
		`print "Hello world!"`,
		`x: 5`,
		`fib: $[x][if? x<2 [1] else [(fib x-1)+(fib x-2)]]`,
		`loop 1..3 'x [print x]`,
		`a.b.c`,
		`obj.field: 10`,
		`.step:2`,
		`[1 2 3]`,
		`@[1 2 3]`,
		`#[a: 1 b: 2]`,
		`-1 0 1 15 16`,
		`true false null`,
		`'word :type`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			root1, errs := ParseSource(src, "test")
			require.Empty(t, errs, "initial parse of %q", src)

			codified := value.Codify(root1, false, true, false)

			root2, errs := ParseSource(codified, "test")
			require.Empty(t, errs, "re-parse of codified form %q", codified)

			require.True(t, value.Equals(root1, root2),
				"round-trip mismatch: %q codified to %q", src, codified)
		})
	}
}
