package crm

import (
	"fmt"
	"strings"
)

// Arg is a value bound to a named placeholder in a SOQL statement.
type Arg interface {
	literal() string
}

// quoted binds a value as a quoted SOQL string literal.
type quoted string

func (s quoted) literal() string {
	return "'" + escapeLiteral(string(s)) + "'"
}

// Contains binds a value as a LIKE pattern matching any string that contains
// it. Wildcards in the value are matched literally.
type Contains string

func (c Contains) literal() string {
	return "'%" + escapeLike(escapeLiteral(string(c))) + "%'"
}

// Query is a SOQL statement with :name placeholders and their bound values.
type Query struct {
	Statement string
	Args      map[string]Arg
}

// NewQuery returns a query for statement with no bound values.
func NewQuery(statement string) Query {
	return Query{Statement: statement, Args: map[string]Arg{}}
}

// Bind returns a copy of q with name bound to arg.
func (q Query) Bind(name string, arg Arg) Query {
	args := make(map[string]Arg, len(q.Args)+1)
	for k, v := range q.Args {
		args[k] = v
	}
	args[name] = arg
	return Query{Statement: q.Statement, Args: args}
}

// Render substitutes every placeholder with its escaped literal. Unbound
// placeholders and unused arguments are errors.
func (q Query) Render() (string, error) {
	var out strings.Builder
	used := make(map[string]bool, len(q.Args))
	s := q.Statement
	for i := 0; i < len(s); i++ {
		if s[i] != ':' || i+1 >= len(s) || !isIdentStart(s[i+1]) {
			out.WriteByte(s[i])
			continue
		}
		j := i + 1
		for j < len(s) && isIdentPart(s[j]) {
			j++
		}
		name := s[i+1 : j]
		arg, ok := q.Args[name]
		if !ok {
			return "", fmt.Errorf("soql: unbound parameter :%s", name)
		}
		used[name] = true
		out.WriteString(arg.literal())
		i = j - 1
	}
	for name := range q.Args {
		if !used[name] {
			return "", fmt.Errorf("soql: parameter :%s not referenced", name)
		}
	}
	return out.String(), nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
