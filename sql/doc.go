// Package sql turns statement text into executable commands. Tokenize
// performs lexical analysis and Parse builds the tagged Command union via
// recursive descent. Lexical failures surface as LexError and structural
// failures as SyntaxError, both carrying the source offset.
package sql
