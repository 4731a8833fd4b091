// sort.go orders type definitions for emission

package perl

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
)

// declKind defines the order of types in the generated module.
type declKind uint8

// Top-Level type declarations in the generated module.
const (
	scalarKind declKind = 1 << iota
	enumKind
	unionKind
	interfaceKind
	objectKind
	inputKind
)

const (
	basicKinds = scalarKind | enumKind | unionKind
	fullKinds  = interfaceKind | objectKind | inputKind
)

func getDeclKind(def *ast.Definition) declKind {
	switch def.Kind {
	case ast.Scalar:
		return scalarKind
	case ast.Enum:
		return enumKind
	case ast.Union:
		return unionKind
	case ast.Interface:
		return interfaceKind
	case ast.Object:
		return objectKind
	case ast.InputObject:
		return inputKind
	}
	return 0
}

// sortDefinitions returns the definitions whose kind is in mask.
//
// Basic types keep their source order. Full types are ordered interfaces,
// objects then inputs, and an interface always follows the interfaces it
// implements, since a Moose class must exist before it is extended.
//
func sortDefinitions(defs []*ast.Definition, mask declKind) []*ast.Definition {
	out := make([]*ast.Definition, 0, len(defs))
	for _, def := range defs {
		if getDeclKind(def)&mask != 0 {
			out = append(out, def)
		}
	}
	if mask&fullKinds == 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return getDeclKind(out[i]) < getDeclKind(out[j])
	})

	n := 0
	for n < len(out) && out[n].Kind == ast.Interface {
		n++
	}
	copy(out, orderInterfaces(out[:n]))
	return out
}

// orderInterfaces places every interface after its parent interfaces.
func orderInterfaces(ifaces []*ast.Definition) []*ast.Definition {
	byName := make(map[string]*ast.Definition, len(ifaces))
	for _, def := range ifaces {
		byName[def.Name] = def
	}

	out := make([]*ast.Definition, 0, len(ifaces))
	visited := make(map[string]bool, len(ifaces))

	var visit func(*ast.Definition)
	visit = func(def *ast.Definition) {
		if visited[def.Name] {
			return
		}
		visited[def.Name] = true

		for _, parent := range def.Interfaces {
			if p, ok := byName[parent]; ok {
				visit(p)
			}
		}
		out = append(out, def)
	}

	for _, def := range ifaces {
		visit(def)
	}
	return out
}
