package sql

import (
	"fmt"
	"strconv"

	"github.com/simpledb/simpledb/core"
)

// CommandKind discriminates the Command union.
type CommandKind int

const (
	CreateTableCommand CommandKind = iota
	InsertCommand
	SelectCommand
	UpdateCommand
	DeleteCommand
	CreateIndexCommand
	TransactionCommand
)

func (k CommandKind) String() string {
	switch k {
	case CreateTableCommand:
		return "CREATE TABLE"
	case InsertCommand:
		return "INSERT"
	case SelectCommand:
		return "SELECT"
	case UpdateCommand:
		return "UPDATE"
	case DeleteCommand:
		return "DELETE"
	case CreateIndexCommand:
		return "CREATE INDEX"
	case TransactionCommand:
		return "TRANSACTION"
	default:
		return "unknown"
	}
}

// Command is the parsed form of a statement. Exactly one payload field is
// non-nil, selected by Kind.
type Command struct {
	Kind        CommandKind
	CreateTable *CreateTable
	Insert      *Insert
	Select      *Select
	Update      *Update
	Delete      *Delete
	CreateIndex *CreateIndex
	Transaction *Transaction
}

// ColumnDef carries a column definition exactly as written. The type name
// is kept raw here; it is validated when the table is built.
type ColumnDef struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

type Insert struct {
	Table   string
	Columns []string
	Rows    [][]core.Value
}

type Select struct {
	Table   string
	Star    bool
	Columns []string
	Where   *core.Predicate
	OrderBy []core.OrderKey
	Limit   int
}

// SetClause is one column assignment of an UPDATE, in written order.
type SetClause struct {
	Column string
	Value  core.Value
}

type Update struct {
	Table string
	Set   []SetClause
	Where *core.Predicate
}

type Delete struct {
	Table string
	Where *core.Predicate
}

type CreateIndex struct {
	Name   string
	Table  string
	Column string
	Kind   string
}

// Transaction carries BEGIN, COMMIT or ROLLBACK as its canonical keyword.
type Transaction struct {
	Op string
}

// SyntaxError reports a structural failure, with the offending token and
// its source offset when one was available.
type SyntaxError struct {
	Pos   int
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error: %s", e.Msg)
	}
	return fmt.Sprintf("syntax error at position %d near %q: %s", e.Pos, e.Token, e.Msg)
}

// Parse builds a Command from a token sequence. The statement may carry a
// single trailing semicolon; any tokens after it are rejected.
func Parse(tokens []Token) (Command, error) {
	p := &parser{tokens: tokens}

	first, err := p.next()
	if err != nil {
		return Command{}, &SyntaxError{Msg: "empty statement"}
	}
	if first.Kind != Keyword {
		return Command{}, p.errAt(first, "statement must begin with a keyword")
	}

	var cmd Command
	switch first.Text {
	case "CREATE":
		cmd, err = p.parseCreate()
	case "INSERT":
		cmd, err = p.parseInsert()
	case "SELECT":
		cmd, err = p.parseSelect()
	case "UPDATE":
		cmd, err = p.parseUpdate()
	case "DELETE":
		cmd, err = p.parseDelete()
	case "BEGIN", "COMMIT", "ROLLBACK":
		cmd = Command{Kind: TransactionCommand, Transaction: &Transaction{Op: first.Text}}
	default:
		return Command{}, p.errAt(first, fmt.Sprintf("unsupported statement %s", first.Text))
	}
	if err != nil {
		return Command{}, err
	}

	if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == ";" {
		p.pos++
	}
	if tok, ok := p.peek(); ok {
		return Command{}, p.errAt(tok, "unexpected trailing input")
	}
	return cmd, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (Token, error) {
	if p.pos >= len(p.tokens) {
		return Token{}, &SyntaxError{Msg: "unexpected end of statement"}
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, nil
}

func (p *parser) errAt(tok Token, msg string) error {
	return &SyntaxError{Pos: tok.Pos, Token: tok.Text, Msg: msg}
}

func (p *parser) expectKeyword(word string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != Keyword || tok.Text != word {
		return p.errAt(tok, fmt.Sprintf("expected %s", word))
	}
	return nil
}

func (p *parser) expectPunct(text string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != Punct || tok.Text != text {
		return p.errAt(tok, fmt.Sprintf("expected %q", text))
	}
	return nil
}

func (p *parser) identifier(what string) (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	if tok.Kind != Identifier {
		return "", p.errAt(tok, fmt.Sprintf("expected %s", what))
	}
	return tok.Text, nil
}

// matchKeyword consumes the next token when it is the given keyword.
func (p *parser) matchKeyword(word string) bool {
	if tok, ok := p.peek(); ok && tok.Kind == Keyword && tok.Text == word {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseCreate() (Command, error) {
	tok, err := p.next()
	if err != nil {
		return Command{}, err
	}
	switch {
	case tok.Kind == Keyword && tok.Text == "TABLE":
		return p.parseCreateTable()
	case tok.Kind == Keyword && tok.Text == "INDEX":
		return p.parseCreateIndex()
	default:
		return Command{}, p.errAt(tok, "expected TABLE or INDEX after CREATE")
	}
}

func (p *parser) parseCreateTable() (Command, error) {
	name, err := p.identifier("table name")
	if err != nil {
		return Command{}, err
	}
	if err := p.expectPunct("("); err != nil {
		return Command{}, err
	}

	var cols []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return Command{}, err
		}
		cols = append(cols, col)

		tok, err := p.next()
		if err != nil {
			return Command{}, err
		}
		if tok.Kind == Punct && tok.Text == ")" {
			break
		}
		if tok.Kind != Punct || tok.Text != "," {
			return Command{}, p.errAt(tok, "expected ',' or ')' in column list")
		}
	}

	return Command{Kind: CreateTableCommand, CreateTable: &CreateTable{Table: name, Columns: cols}}, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.identifier("column name")
	if err != nil {
		return ColumnDef{}, err
	}
	typ, err := p.identifier("column type")
	if err != nil {
		return ColumnDef{}, err
	}

	col := ColumnDef{Name: name, Type: typ}
	for {
		switch {
		case p.matchKeyword("NOT"):
			if err := p.expectKeyword("NULL"); err != nil {
				return ColumnDef{}, err
			}
			col.NotNull = true
		case p.matchKeyword("PRIMARY"):
			if err := p.expectKeyword("KEY"); err != nil {
				return ColumnDef{}, err
			}
			col.PrimaryKey = true
		default:
			return col, nil
		}
	}
}

func (p *parser) parseCreateIndex() (Command, error) {
	name, err := p.identifier("index name")
	if err != nil {
		return Command{}, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return Command{}, err
	}
	table, err := p.identifier("table name")
	if err != nil {
		return Command{}, err
	}
	if err := p.expectPunct("("); err != nil {
		return Command{}, err
	}
	column, err := p.identifier("column name")
	if err != nil {
		return Command{}, err
	}
	if err := p.expectPunct(")"); err != nil {
		return Command{}, err
	}

	kind := "BTREE"
	if p.matchKeyword("USING") {
		kind, err = p.identifier("index kind")
		if err != nil {
			return Command{}, err
		}
	}

	return Command{Kind: CreateIndexCommand, CreateIndex: &CreateIndex{
		Name: name, Table: table, Column: column, Kind: kind,
	}}, nil
}

func (p *parser) parseInsert() (Command, error) {
	if err := p.expectKeyword("INTO"); err != nil {
		return Command{}, err
	}
	table, err := p.identifier("table name")
	if err != nil {
		return Command{}, err
	}

	var columns []string
	if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == "(" {
		p.pos++
		for {
			col, err := p.identifier("column name")
			if err != nil {
				return Command{}, err
			}
			columns = append(columns, col)

			tok, err := p.next()
			if err != nil {
				return Command{}, err
			}
			if tok.Kind == Punct && tok.Text == ")" {
				break
			}
			if tok.Kind != Punct || tok.Text != "," {
				return Command{}, p.errAt(tok, "expected ',' or ')' in column list")
			}
		}
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return Command{}, err
	}

	var rows [][]core.Value
	for {
		row, err := p.parseValueRow()
		if err != nil {
			return Command{}, err
		}
		rows = append(rows, row)

		if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == "," {
			p.pos++
			continue
		}
		break
	}

	return Command{Kind: InsertCommand, Insert: &Insert{Table: table, Columns: columns, Rows: rows}}, nil
}

func (p *parser) parseValueRow() ([]core.Value, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var row []core.Value
	for {
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		row = append(row, val)

		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == Punct && tok.Text == ")" {
			return row, nil
		}
		if tok.Kind != Punct || tok.Text != "," {
			return nil, p.errAt(tok, "expected ',' or ')' in value list")
		}
	}
}

// parseValue reads a literal, NULL, or a bare word such as true.
func (p *parser) parseValue() (core.Value, error) {
	tok, err := p.next()
	if err != nil {
		return core.Value{}, err
	}
	switch tok.Kind {
	case Literal:
		if content, quoted := unquoteLiteral(tok.Text); quoted {
			return core.StringValue(content), nil
		}
		return core.RawValue(tok.Text), nil
	case Identifier:
		return core.RawValue(tok.Text), nil
	case Keyword:
		if tok.Text == "NULL" {
			return core.NullValue(), nil
		}
	}
	return core.Value{}, p.errAt(tok, "expected a value")
}

func (p *parser) parseSelect() (Command, error) {
	sel := &Select{Limit: -1}

	if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == "*" {
		p.pos++
		sel.Star = true
	} else {
		for {
			col, err := p.identifier("column name")
			if err != nil {
				return Command{}, err
			}
			sel.Columns = append(sel.Columns, col)

			if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == "," {
				p.pos++
				continue
			}
			break
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return Command{}, err
	}
	table, err := p.identifier("table name")
	if err != nil {
		return Command{}, err
	}
	sel.Table = table

	if p.matchKeyword("WHERE") {
		pred, err := p.parseCondition()
		if err != nil {
			return Command{}, err
		}
		sel.Where = pred
	}

	if p.matchKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return Command{}, err
		}
		for {
			col, err := p.identifier("column name")
			if err != nil {
				return Command{}, err
			}
			key := core.OrderKey{Column: col}
			if p.matchKeyword("DESC") {
				key.Descending = true
			} else {
				p.matchKeyword("ASC")
			}
			sel.OrderBy = append(sel.OrderBy, key)

			if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == "," {
				p.pos++
				continue
			}
			break
		}
	}

	if p.matchKeyword("LIMIT") {
		tok, err := p.next()
		if err != nil {
			return Command{}, err
		}
		n, convErr := strconv.Atoi(tok.Text)
		if tok.Kind != Literal || convErr != nil || n < 0 {
			return Command{}, p.errAt(tok, "LIMIT requires a non-negative integer")
		}
		sel.Limit = n
	}

	return Command{Kind: SelectCommand, Select: sel}, nil
}

func (p *parser) parseUpdate() (Command, error) {
	table, err := p.identifier("table name")
	if err != nil {
		return Command{}, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return Command{}, err
	}

	var set []SetClause
	for {
		col, err := p.identifier("column name")
		if err != nil {
			return Command{}, err
		}
		tok, err := p.next()
		if err != nil {
			return Command{}, err
		}
		if tok.Kind != Operator || tok.Text != "=" {
			return Command{}, p.errAt(tok, "expected '=' in SET clause")
		}
		val, err := p.parseValue()
		if err != nil {
			return Command{}, err
		}
		set = append(set, SetClause{Column: col, Value: val})

		if tok, ok := p.peek(); ok && tok.Kind == Punct && tok.Text == "," {
			p.pos++
			continue
		}
		break
	}

	upd := &Update{Table: table, Set: set}
	if p.matchKeyword("WHERE") {
		pred, err := p.parseCondition()
		if err != nil {
			return Command{}, err
		}
		upd.Where = pred
	}
	return Command{Kind: UpdateCommand, Update: upd}, nil
}

func (p *parser) parseDelete() (Command, error) {
	if err := p.expectKeyword("FROM"); err != nil {
		return Command{}, err
	}
	table, err := p.identifier("table name")
	if err != nil {
		return Command{}, err
	}

	del := &Delete{Table: table}
	if p.matchKeyword("WHERE") {
		pred, err := p.parseCondition()
		if err != nil {
			return Command{}, err
		}
		del.Where = pred
	}
	return Command{Kind: DeleteCommand, Delete: del}, nil
}

// parseCondition reads a single comparison. Compound conditions with AND,
// OR or NOT are recognized as a structural error here rather than being
// carried forward as predicates the engine would refuse anyway.
func (p *parser) parseCondition() (*core.Predicate, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != Operator {
		return nil, p.errAt(tok, "expected a comparison operator")
	}
	op, err := compareOp(tok)
	if err != nil {
		return nil, err
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if next, ok := p.peek(); ok && next.Kind == Keyword &&
		(next.Text == "AND" || next.Text == "OR" || next.Text == "NOT") {
		return nil, p.errAt(next, "compound conditions are not supported")
	}

	return core.Compare(left, op, right), nil
}

func (p *parser) parseOperand() (core.Value, error) {
	tok, err := p.next()
	if err != nil {
		return core.Value{}, err
	}
	switch tok.Kind {
	case Identifier:
		return core.RawValue(tok.Text), nil
	case Literal:
		if content, quoted := unquoteLiteral(tok.Text); quoted {
			return core.StringValue(content), nil
		}
		return core.RawValue(tok.Text), nil
	case Keyword:
		if tok.Text == "NULL" {
			return core.NullValue(), nil
		}
	}
	return core.Value{}, p.errAt(tok, "expected a column or value")
}

func compareOp(tok Token) (core.CompareOp, error) {
	switch tok.Text {
	case "=":
		return core.OpEquals, nil
	case "<>", "!=":
		return core.OpNotEquals, nil
	case "<":
		return core.OpLessThan, nil
	case "<=":
		return core.OpLessThanOrEqual, nil
	case ">":
		return core.OpGreaterThan, nil
	case ">=":
		return core.OpGreaterThanOrEqual, nil
	default:
		return 0, &SyntaxError{Pos: tok.Pos, Token: tok.Text, Msg: "unknown operator"}
	}
}
