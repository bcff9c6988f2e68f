// Package irtext is a small expression language for writing symbolic value
// graphs by hand:
//
//	// balances[msg.sender] += msg.value
//	let entry = mapping(caller, 2)
//	let sum = add(sload(entry), callvalue)
//	sstore(entry, sum)
//
// Calls use EVM operator names with operands in stack order. Bare
// identifiers are let bindings or environment inputs. Every expression
// statement and every sstore is a root of the compiled graph.
package irtext

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes programs. Comments start with // or #.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `(//|#)[^\n]*`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Integer", `0[xX][0-9a-fA-F]+|[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Punct", `[(),=;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

// Program is a parsed source file.
type Program struct {
	Pos        lexer.Position
	Statements []*Statement `@@*`
}

// Statement is a binding or a root expression.
type Statement struct {
	Pos  lexer.Position
	Let  *Let  `(  @@`
	Expr *Expr ` | @@ ) ";"?`
}

// Let binds a name to the value of an expression.
type Let struct {
	Pos   lexer.Position
	Name  string `"let" @Ident "="`
	Value *Expr  `@@`
}

// Expr is a call, a literal or a name.
type Expr struct {
	Pos     lexer.Position
	Call    *Call   `  @@`
	Integer *string `| @Integer`
	String  *string `| @String`
	Name    *string `| @Ident`
}

// Call applies an operator to arguments.
type Call struct {
	Pos  lexer.Position
	Func string  `@Ident "("`
	Args []*Expr `( @@ ( "," @@ )* )? ")"`
}

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses src without building a graph.
func Parse(filename, src string) (*Program, error) {
	prog, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, wrapParseError(err)
	}
	return prog, nil
}
