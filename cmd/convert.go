// convert.go contains a converter from JSON introspection results to IDL.

package cmd

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type inputValue struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	DefaultValue *string `json:"defaultValue"`
	Type         *typ    `json:"type"`
}

type field struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Args              []*inputValue `json:"args"`
	Type              *typ          `json:"type"`
	IsDeprecated      bool          `json:"isDeprecated"`
	DeprecationReason string        `json:"deprecationReason"`
}

type enum struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason"`
}

type typ struct {
	Kind          string        `json:"kind"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	OfType        *typ          `json:"ofType"`
	Fields        []*field      `json:"fields"`
	Interfaces    []*typ        `json:"interfaces"`
	PossibleTypes []*typ        `json:"possibleTypes"`
	EnumValues    []*enum       `json:"enumValues"`
	InputFields   []*inputValue `json:"inputFields"`
}

type directive struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Locations    []string      `json:"locations"`
	IsRepeatable bool          `json:"isRepeatable"`
	Args         []*inputValue `json:"args"`
}

type typeName struct {
	Name string `json:"name"`
}

type introspectionSchema struct {
	QueryType        *typeName    `json:"queryType"`
	MutationType     *typeName    `json:"mutationType"`
	SubscriptionType *typeName    `json:"subscriptionType"`
	Types            []*typ       `json:"types"`
	Directives       []*directive `json:"directives"`
}

// introspectionResult accepts both a full GraphQL response and its bare
// data object.
type introspectionResult struct {
	Data *struct {
		Schema *introspectionSchema `json:"__schema"`
	} `json:"data"`
	Schema *introspectionSchema `json:"__schema"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// convertIntrospection converts a JSON GraphQL introspection result to the GraphQL IDL.
func convertIntrospection(b []byte) (string, error) {
	var res introspectionResult
	if err := json.Unmarshal(b, &res); err != nil {
		return "", err
	}

	if len(res.Errors) > 0 {
		msgs := make([]string, len(res.Errors))
		for i, e := range res.Errors {
			msgs[i] = e.Message
		}
		return "", errors.New(strings.Join(msgs, "; "))
	}

	s := res.Schema
	if res.Data != nil {
		s = res.Data.Schema
	}
	if s == nil {
		return "", errors.New(`expected field: "__schema"`)
	}

	var b2 bytes.Buffer
	writeSchema(&b2, s)

	for _, d := range s.Directives {
		// Skip builtin directives
		if isBuiltinDirective(d.Name) {
			continue
		}

		writeDirective(&b2, d)
		b2.WriteByte('\n')
	}

	for _, t := range s.Types {
		// Skip introspection types and builtin types
		if strings.HasPrefix(t.Name, "__") || isBuiltinType(t.Name) {
			continue
		}

		writeDescr(&b2, t.Description, "\n")
		writeTyp(&b2, t)
		b2.WriteByte('\n')
	}
	return b2.String(), nil
}

// writeSchema writes a schema definition when the root types are not named
// after their operation.
func writeSchema(b *bytes.Buffer, s *introspectionSchema) {
	roots := []struct {
		op, def string
		t       *typeName
	}{
		{"query", "Query", s.QueryType},
		{"mutation", "Mutation", s.MutationType},
		{"subscription", "Subscription", s.SubscriptionType},
	}

	custom := false
	for _, r := range roots {
		if r.t != nil && r.t.Name != r.def {
			custom = true
		}
	}
	if !custom {
		return
	}

	b.WriteString("schema {\n")
	for _, r := range roots {
		if r.t == nil {
			continue
		}
		b.WriteString("  ")
		b.WriteString(r.op)
		b.WriteString(": ")
		b.WriteString(r.t.Name)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
}

func writeDirective(b *bytes.Buffer, d *directive) {
	writeDescr(b, d.Description, "\n")

	b.WriteString("directive @")
	b.WriteString(d.Name)

	if len(d.Args) > 0 {
		b.WriteByte('(')
		writeArgs(b, d.Args)
		b.WriteByte(')')
	}

	if d.IsRepeatable {
		b.WriteString(" repeatable")
	}

	b.WriteString(" on ")
	b.WriteString(strings.Join(d.Locations, " | "))
}

func writeArgs(b *bytes.Buffer, args []*inputValue) {
	l := len(args) - 1
	for i, a := range args {
		writeArg(b, a)
		if i != l {
			b.WriteString(", ")
		}
	}
}

func writeArg(b *bytes.Buffer, a *inputValue) {
	writeDescr(b, a.Description, " ")

	b.WriteString(a.Name)
	b.WriteString(": ")
	writeTypSig(b, a.Type)

	if a.DefaultValue != nil {
		b.WriteString(" = ")
		b.WriteString(*a.DefaultValue)
	}
}

// writeDescr writes a description followed by sep. Descriptions with
// newlines, quotes or backslashes are written as block strings.
//
func writeDescr(b *bytes.Buffer, descr, sep string) {
	if descr == "" {
		return
	}

	if !strings.ContainsAny(descr, "\n\"\\") {
		b.WriteByte('"')
		b.WriteString(descr)
		b.WriteByte('"')
		b.WriteString(sep)
		return
	}

	b.WriteString(`"""`)
	b.WriteString(strings.ReplaceAll(descr, `"""`, `\"""`))
	if strings.HasSuffix(descr, `"`) {
		b.WriteByte('\n')
	}
	b.WriteString(`"""`)
	b.WriteString(sep)
}

func writeDeprecated(b *bytes.Buffer, isDeprecated bool, reason string) {
	if !isDeprecated {
		return
	}

	b.WriteString(" @deprecated")
	if reason != "" {
		b.WriteString("(reason: ")
		b.WriteString(strconv.Quote(reason))
		b.WriteByte(')')
	}
}

const (
	scalarKind      = "SCALAR"
	objectKind      = "OBJECT"
	interfaceKind   = "INTERFACE"
	unionKind       = "UNION"
	enumKind        = "ENUM"
	inputObjectKind = "INPUT_OBJECT"
	listKind        = "LIST"
	nonNullKind     = "NON_NULL"
)

func writeTyp(b *bytes.Buffer, t *typ) {
	switch t.Kind {
	case scalarKind:
		b.WriteString("scalar ")
		b.WriteString(t.Name)
	case objectKind:
		b.WriteString("type ")
		b.WriteString(t.Name)
		writeImplements(b, t.Interfaces)
		b.WriteString(" {\n")
		writeFields(b, t.Fields)
		b.WriteByte('}')
	case interfaceKind:
		b.WriteString("interface ")
		b.WriteString(t.Name)
		writeImplements(b, t.Interfaces)
		b.WriteString(" {\n")
		writeFields(b, t.Fields)
		b.WriteByte('}')
	case unionKind:
		b.WriteString("union ")
		b.WriteString(t.Name)
		b.WriteString(" = ")

		l := len(t.PossibleTypes) - 1
		for i, m := range t.PossibleTypes {
			b.WriteString(m.Name)
			if i != l {
				b.WriteString(" | ")
			}
		}
	case enumKind:
		b.WriteString("enum ")
		b.WriteString(t.Name)
		b.WriteString(" {\n")

		for _, v := range t.EnumValues {
			b.WriteString("  ")
			writeDescr(b, v.Description, " ")
			b.WriteString(v.Name)
			writeDeprecated(b, v.IsDeprecated, v.DeprecationReason)
			b.WriteByte('\n')
		}

		b.WriteByte('}')
	case inputObjectKind:
		b.WriteString("input ")
		b.WriteString(t.Name)
		b.WriteString(" {\n")

		for _, a := range t.InputFields {
			b.WriteString("  ")
			writeArg(b, a)
			b.WriteByte('\n')
		}

		b.WriteByte('}')
	}
}

func writeImplements(b *bytes.Buffer, interfaces []*typ) {
	if len(interfaces) == 0 {
		return
	}

	names := make([]string, len(interfaces))
	for i, it := range interfaces {
		names[i] = it.Name
	}
	b.WriteString(" implements ")
	b.WriteString(strings.Join(names, " & "))
}

func writeFields(b *bytes.Buffer, fields []*field) {
	for _, f := range fields {
		b.WriteString("  ")
		writeField(b, f)
		b.WriteByte('\n')
	}
}

func writeField(b *bytes.Buffer, f *field) {
	writeDescr(b, f.Description, " ")
	b.WriteString(f.Name)

	if len(f.Args) > 0 {
		b.WriteByte('(')
		writeArgs(b, f.Args)
		b.WriteByte(')')
	}
	b.WriteString(": ")

	writeTypSig(b, f.Type)
	writeDeprecated(b, f.IsDeprecated, f.DeprecationReason)
}

func writeTypSig(b *bytes.Buffer, t *typ) {
	switch t.Kind {
	case nonNullKind:
		writeTypSig(b, t.OfType)
		b.WriteByte('!')
	case listKind:
		b.WriteByte('[')
		writeTypSig(b, t.OfType)
		b.WriteByte(']')
	default:
		b.WriteString(t.Name)
	}
}

func isBuiltinType(name string) bool {
	return name == "ID" || name == "Int" || name == "Float" || name == "String" || name == "Boolean"
}

func isBuiltinDirective(name string) bool {
	switch name {
	case "skip", "include", "deprecated", "specifiedBy", "oneOf", "defer":
		return true
	}
	return false
}
