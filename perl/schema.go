package perl

import (
	"fmt"
	"strings"

	"github.com/gqlc/gqlc-perl/gen"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// UnresolvedTypeError is returned when a field type is neither a mapped
// scalar nor a type declared by the schema.
type UnresolvedTypeError struct {
	// Type is the type declaring the field or operation.
	Type string

	// Field is the field or variable name.
	Field string

	// Name is the unresolved type name.
	Name string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("perl: unresolved type %q for %s.%s", e.Name, e.Type, e.Field)
}

// resolver maps GraphQL type names to Moose type constraint names.
type resolver struct {
	doc  *gen.Document
	opts *Options
}

// resolve returns the Moose type name of a GraphQL named type. Mapped
// scalars win over declared types.
func (r *resolver) resolve(owner, field, name string) (string, error) {
	if s, ok := r.opts.Scalars[name]; ok && s != "" {
		return s, nil
	}

	def, ok := r.doc.Schema.Types[name]
	if (ok && def.Kind != ast.Scalar) || r.opts.AllowUnresolved {
		return r.opts.typesNamespace() + "::" + name, nil
	}
	return "", &UnresolvedTypeError{Type: owner, Field: field, Name: name}
}

// unwrapType strips every non-null and list layer from t and reports
// whether a list layer was found.
func unwrapType(t *ast.Type) (name string, isList bool) {
	for t.Elem != nil {
		isList = true
		t = t.Elem
	}
	return t.NamedType, isList
}

// attribute is a resolved field declaration.
type attribute struct {
	name     string
	descr    string
	isa      string
	isList   bool
	required bool
}

func (a attribute) typeConstraint() string {
	if a.isList {
		return "ArrayRef[" + a.isa + "]"
	}
	return a.isa
}

// reservedAttrs may not be used as field names since every generated
// class inherits them from Moose or the roles package.
var reservedAttrs = map[string]bool{
	"meta":      true,
	"new":       true,
	"does":      true,
	"DOES":      true,
	"can":       true,
	"isa":       true,
	"BUILD":     true,
	"BUILDARGS": true,
	"BUILDALL":  true,
	"DEMOLISH":  true,
	"DESTROY":   true,
	"AUTOLOAD":  true,
	"as_hash":   true,
	"to_plain":  true,
}

// rolesName is the package, under the types namespace, holding the role
// every generated class consumes.
const rolesName = "Roles"

// attributes resolves every field of def, in source order.
func (r *resolver) attributes(def *ast.Definition) ([]attribute, error) {
	attrs := make([]attribute, 0, len(def.Fields))
	for _, f := range def.Fields {
		// Introspection fields are added to the query root by the validator.
		if strings.HasPrefix(f.Name, "__") {
			continue
		}

		if reservedAttrs[f.Name] {
			return nil, fmt.Errorf("perl: field name is reserved: %s.%s", def.Name, f.Name)
		}

		name, isList := unwrapType(f.Type)
		isa, err := r.resolve(def.Name, f.Name, name)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, attribute{
			name:     f.Name,
			descr:    f.Description,
			isa:      isa,
			isList:   isList,
			required: f.Type.NonNull,
		})
	}
	return attrs, nil
}

// mooseTypes are the builtin Moose type constraints.
var mooseTypes = map[string]bool{
	"Any": true, "Item": true, "Bool": true, "Maybe": true, "Undef": true,
	"Defined": true, "Value": true, "Str": true, "Num": true, "Int": true,
	"ClassName": true, "RoleName": true, "Ref": true, "ScalarRef": true,
	"ArrayRef": true, "HashRef": true, "CodeRef": true, "RegexpRef": true,
	"GlobRef": true, "FileHandle": true, "Object": true,
}

// isConstraint reports whether a scalar mapping names a type constraint
// rather than a class.
func isConstraint(target string) bool {
	return mooseTypes[target] || strings.ContainsAny(target, "|[")
}

// generateBasicTypes generates the type constraint package holding
// scalars, enums and unions.
func (g *Generator) generateBasicTypes(log *zap.Logger, opts *Options, defs []*ast.Definition) {
	g.P()
	g.P("package ", opts.typesNamespace(), ";")
	g.P()
	g.P("use Moose;")
	g.P("use Moose::Util::TypeConstraints;")
	g.P()

	for _, def := range defs {
		switch def.Kind {
		case ast.Scalar:
			if !g.generateScalar(opts, def) {
				log.Warn("dropping unmapped scalar", zap.String("scalar", def.Name))
			}
		case ast.Enum:
			g.generateEnum(opts, def)
		case ast.Union:
			g.generateUnion(opts, def)
		}
	}

	g.P()
	g.P("no Moose::Util::TypeConstraints;")
	g.P("no Moose;")
	g.P()
	g.P("1;")
}

// generateScalar declares a mapped scalar. Unmapped scalars are not
// declared and false is returned.
func (g *Generator) generateScalar(opts *Options, def *ast.Definition) bool {
	target := opts.Scalars[def.Name]
	if target == "" {
		return false
	}

	g.printDescr(opts.Descriptions, def.Description)

	name := opts.typesNamespace() + "::" + def.Name
	if isConstraint(target) {
		g.P("subtype '", name, "' => as '", quote(target), "';")
		return true
	}
	g.P("class_type '", name, "' => { class => '", quote(target), "' };")
	return true
}

func (g *Generator) generateEnum(opts *Options, def *ast.Definition) {
	g.printDescr(opts.Descriptions, def.Description)

	vals := make([]string, len(def.EnumValues))
	for i, v := range def.EnumValues {
		vals[i] = v.Name
	}
	g.P("enum '", opts.typesNamespace(), "::", def.Name, "' => [qw/ ", strings.Join(vals, " "), " /];")
}

func (g *Generator) generateUnion(opts *Options, def *ast.Definition) {
	g.printDescr(opts.Descriptions, def.Description)

	ns := opts.typesNamespace()
	mems := make([]string, len(def.Types))
	for i, t := range def.Types {
		mems[i] = ns + "::" + t
	}
	g.P("union '", ns, "::", def.Name, "' => [qw/ ", strings.Join(mems, " "), " /];")
}

// generatePackage generates a Moose class for an object, interface or
// input type.
func (g *Generator) generatePackage(r *resolver, def *ast.Definition) error {
	attrs, err := r.attributes(def)
	if err != nil {
		return err
	}

	ns := r.opts.typesNamespace()

	g.P()
	g.printDescr(r.opts.Descriptions, def.Description)
	g.P("package ", ns, "::", def.Name, ";")
	g.P()
	g.P("use Moose;")
	if len(attrs) > 0 {
		g.P("use Moose::Util::TypeConstraints;")
	}
	g.P()

	if len(def.Interfaces) > 0 {
		parents := make([]string, len(def.Interfaces))
		for i, inter := range def.Interfaces {
			parents[i] = "'" + ns + "::" + inter + "'"
		}
		g.P("extends ", strings.Join(parents, ", "), ";")
	}
	g.P("with '", ns, "::", rolesName, "';")

	for _, a := range attrs {
		g.P()
		g.printDescr(r.opts.Descriptions, a.descr)
		g.P("has '", a.name, "' => (")
		g.In()
		g.P("is => 'ro',")
		g.P("isa => '", quote(a.typeConstraint()), "',")
		g.P("required => ", a.required)
		g.Out()
		g.P(");")
	}

	g.P()
	g.P("no Moose;")
	if len(attrs) > 0 {
		g.P("no Moose::Util::TypeConstraints;")
	}
	g.P()
	g.P("1;")
	return nil
}
