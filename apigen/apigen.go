// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package apigen generates strongly typed Go bindings for JavaScript
// functions. It parses a Go interface declaration and emits a wrapper type
// whose methods call the JavaScript function of the same name through a
// jsbridge.Session.
package apigen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultBridgeImport is the import path of the bridge package generated
// code calls into.
const DefaultBridgeImport = "github.com/buke/js-bridge"

// maxParams mirrors the argument limit of the call protocol.
const maxParams = 5

// ReturnShape classifies how a wrapper method reports its result.
type ReturnShape int

const (
	// ReturnUnit is func(...): no result, the wrapper panics on failure.
	ReturnUnit ReturnShape = iota
	// ReturnUnitErr is func(...) error: no result, failures are returned.
	ReturnUnitErr
	// ReturnDirect is func(...) T: the wrapper panics on failure.
	ReturnDirect
	// ReturnResultErr is func(...) (T, error): failures are returned.
	ReturnResultErr
)

// Param is one parameter of a wrapped method.
type Param struct {
	Name string
	Type string
}

// Method is one interface method and the JavaScript function it maps to.
type Method struct {
	Name   string
	JSName string
	Params []Param
	Shape  ReturnShape
	Result string // result type text, empty for ReturnUnit and ReturnUnitErr
}

// Import is an import the generated file needs for parameter or result types.
type Import struct {
	Name string // local name, empty when the package name is used
	Path string
}

// Interface is a parsed interface declaration ready for code generation.
type Interface struct {
	Package string
	Name    string
	Methods []Method
	Imports []Import
}

// Parse locates the named interface in the Go package at dir and validates
// that every method can be implemented as a JavaScript call.
func Parse(dir, typeName string) (*Interface, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read package directory: %w", err)
	}

	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, 0)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		spec, ok := findInterface(file, typeName)
		if !ok {
			continue
		}
		return buildInterface(file, spec, typeName)
	}
	return nil, fmt.Errorf("interface %s not found in %s", typeName, dir)
}

// findInterface returns the type spec declaring typeName in file.
func findInterface(file *ast.File, typeName string) (*ast.TypeSpec, bool) {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if ok && ts.Name.Name == typeName {
				return ts, true
			}
		}
	}
	return nil, false
}

func buildInterface(file *ast.File, spec *ast.TypeSpec, typeName string) (*Interface, error) {
	if spec.TypeParams != nil {
		return nil, fmt.Errorf("interface %s: type parameters are not supported", typeName)
	}
	it, ok := spec.Type.(*ast.InterfaceType)
	if !ok {
		return nil, fmt.Errorf("%s is not an interface", typeName)
	}
	if it.Methods == nil || len(it.Methods.List) == 0 {
		return nil, fmt.Errorf("interface %s has no methods", typeName)
	}

	iface := &Interface{Package: file.Name.Name, Name: typeName}
	var typeExprs []ast.Expr
	for _, field := range it.Methods.List {
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("interface %s: embedded interfaces are not supported", typeName)
		}
		fn, ok := field.Type.(*ast.FuncType)
		if !ok {
			return nil, fmt.Errorf("interface %s: embedded interfaces are not supported", typeName)
		}
		method, exprs, err := buildMethod(field.Names[0].Name, fn)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", typeName, err)
		}
		iface.Methods = append(iface.Methods, *method)
		typeExprs = append(typeExprs, exprs...)
	}
	iface.Imports = neededImports(file, typeExprs)
	return iface, nil
}

func buildMethod(name string, fn *ast.FuncType) (*Method, []ast.Expr, error) {
	m := &Method{Name: name, JSName: lowerFirst(name)}
	var exprs []ast.Expr

	if fn.Params != nil {
		for _, field := range fn.Params.List {
			if _, ok := field.Type.(*ast.Ellipsis); ok {
				return nil, nil, fmt.Errorf("method %s: variadic parameters are not supported", name)
			}
			if len(field.Names) == 0 {
				return nil, nil, fmt.Errorf("method %s: parameters must be named", name)
			}
			if err := validateType(field.Type); err != nil {
				return nil, nil, fmt.Errorf("method %s: %w", name, err)
			}
			typeText := types.ExprString(field.Type)
			for _, ident := range field.Names {
				if ident.Name == "_" {
					return nil, nil, fmt.Errorf("method %s: parameters must be named", name)
				}
				m.Params = append(m.Params, Param{Name: ident.Name, Type: typeText})
			}
			exprs = append(exprs, field.Type)
		}
	}
	if len(m.Params) > maxParams {
		return nil, nil, fmt.Errorf("method %s: at most %d parameters are supported", name, maxParams)
	}

	results := fn.Results
	switch {
	case results == nil || len(results.List) == 0:
		m.Shape = ReturnUnit
	case len(results.List) == 1 && len(results.List[0].Names) <= 1:
		if isErrorType(results.List[0].Type) {
			m.Shape = ReturnUnitErr
			break
		}
		if err := validateType(results.List[0].Type); err != nil {
			return nil, nil, fmt.Errorf("method %s: %w", name, err)
		}
		m.Shape = ReturnDirect
		m.Result = types.ExprString(results.List[0].Type)
		exprs = append(exprs, results.List[0].Type)
	case len(results.List) == 2 && len(results.List[0].Names) <= 1 && len(results.List[1].Names) <= 1:
		if !isErrorType(results.List[1].Type) {
			return nil, nil, fmt.Errorf("method %s: second result must be error", name)
		}
		if isErrorType(results.List[0].Type) {
			return nil, nil, fmt.Errorf("method %s: first result must be a value, not error", name)
		}
		if err := validateType(results.List[0].Type); err != nil {
			return nil, nil, fmt.Errorf("method %s: %w", name, err)
		}
		m.Shape = ReturnResultErr
		m.Result = types.ExprString(results.List[0].Type)
		exprs = append(exprs, results.List[0].Type)
	default:
		return nil, nil, fmt.Errorf("method %s: results must be (), (error), (T) or (T, error)", name)
	}
	return m, exprs, nil
}

// validateType rejects types JSON cannot carry across the bridge.
func validateType(expr ast.Expr) error {
	var bad error
	ast.Inspect(expr, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.ChanType:
			bad = fmt.Errorf("channel types cannot be encoded to JSON")
			return false
		case *ast.FuncType:
			bad = fmt.Errorf("function types cannot be encoded to JSON")
			return false
		case *ast.InterfaceType:
			if x.Methods != nil && len(x.Methods.List) > 0 {
				bad = fmt.Errorf("non-empty interface types cannot be encoded to JSON")
				return false
			}
		case *ast.SelectorExpr:
			if ident, ok := x.X.(*ast.Ident); ok && ident.Name == "unsafe" {
				bad = fmt.Errorf("unsafe.Pointer cannot be encoded to JSON")
				return false
			}
		}
		return true
	})
	return bad
}

func isErrorType(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == "error"
}

// neededImports resolves the package qualifiers used in the given type
// expressions against the source file's import table.
func neededImports(file *ast.File, exprs []ast.Expr) []Import {
	quals := make(map[string]bool)
	for _, expr := range exprs {
		ast.Inspect(expr, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if ident, ok := sel.X.(*ast.Ident); ok {
					quals[ident.Name] = true
				}
			}
			return true
		})
	}
	if len(quals) == 0 {
		return nil
	}

	var imports []Import
	for _, spec := range file.Imports {
		path := strings.Trim(spec.Path.Value, `"`)
		var name string
		if spec.Name != nil {
			name = spec.Name.Name
		}
		effective := name
		if effective == "" {
			effective = path[strings.LastIndex(path, "/")+1:]
		}
		if quals[effective] {
			imports = append(imports, Import{Name: name, Path: path})
		}
	}
	sort.Slice(imports, func(i, j int) bool { return imports[i].Path < imports[j].Path })
	return imports
}

// Generate emits the binding source for iface, calling into the bridge
// package at bridgeImport. The output is gofmt formatted.
func Generate(iface *Interface, bridgeImport string) ([]byte, error) {
	if bridgeImport == "" {
		bridgeImport = DefaultBridgeImport
	}
	recv := chooseReceiver(iface.Methods)
	binding := iface.Name + "Binding"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by jsapigen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", iface.Package)
	writeImports(&buf, iface, bridgeImport)

	fmt.Fprintf(&buf, "// %s implements %s by calling JavaScript functions\n", binding, iface.Name)
	fmt.Fprintf(&buf, "// loaded in a jsbridge.Session.\n")
	fmt.Fprintf(&buf, "type %s struct {\n", binding)
	fmt.Fprintf(&buf, "\tsession *jsbridge.Session\n")
	fmt.Fprintf(&buf, "}\n\n")
	fmt.Fprintf(&buf, "// Bind%s returns a %s backed by the given Session.\n", iface.Name, iface.Name)
	fmt.Fprintf(&buf, "func Bind%s(session *jsbridge.Session) *%s {\n", iface.Name, binding)
	fmt.Fprintf(&buf, "\treturn &%s{session: session}\n", binding)
	fmt.Fprintf(&buf, "}\n\n")
	fmt.Fprintf(&buf, "var _ %s = (*%s)(nil)\n", iface.Name, binding)

	for _, m := range iface.Methods {
		writeMethod(&buf, recv, binding, m)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return src, nil
}

func writeImports(buf *bytes.Buffer, iface *Interface, bridgeImport string) {
	needFmt := false
	for _, m := range iface.Methods {
		if m.Shape == ReturnUnit || m.Shape == ReturnDirect {
			needFmt = true
		}
	}

	fmt.Fprintf(buf, "import (\n")
	if needFmt {
		fmt.Fprintf(buf, "\t\"fmt\"\n")
	}
	for _, imp := range iface.Imports {
		if imp.Name != "" {
			fmt.Fprintf(buf, "\t%s %q\n", imp.Name, imp.Path)
		} else {
			fmt.Fprintf(buf, "\t%q\n", imp.Path)
		}
	}
	fmt.Fprintf(buf, "\n\tjsbridge %q\n", bridgeImport)
	fmt.Fprintf(buf, ")\n\n")
}

func writeMethod(buf *bytes.Buffer, recv, binding string, m Method) {
	params := make([]string, len(m.Params))
	args := make([]string, 0, len(m.Params)+2)
	args = append(args, "", fmt.Sprintf("%q", m.JSName))
	for i, p := range m.Params {
		params[i] = p.Name + " " + p.Type
		args = append(args, p.Name)
	}

	fmt.Fprintf(buf, "\n// %s calls the JavaScript function %q.\n", m.Name, m.JSName)
	switch m.Shape {
	case ReturnUnit:
		fmt.Fprintf(buf, "// It panics if the call fails.\n")
		fmt.Fprintf(buf, "func (%s *%s) %s(%s) {\n", recv, binding, m.Name, strings.Join(params, ", "))
		args[0] = "nil"
		fmt.Fprintf(buf, "\tif err := %s.session.Call(%s); err != nil {\n", recv, strings.Join(args, ", "))
		fmt.Fprintf(buf, "\t\tpanic(fmt.Sprintf(\"call %s: %%v\", err))\n", m.JSName)
		fmt.Fprintf(buf, "\t}\n")
		fmt.Fprintf(buf, "}\n")
	case ReturnUnitErr:
		fmt.Fprintf(buf, "func (%s *%s) %s(%s) error {\n", recv, binding, m.Name, strings.Join(params, ", "))
		args[0] = "nil"
		fmt.Fprintf(buf, "\treturn %s.session.Call(%s)\n", recv, strings.Join(args, ", "))
		fmt.Fprintf(buf, "}\n")
	case ReturnDirect:
		fmt.Fprintf(buf, "// It panics if the call fails or the result does not decode.\n")
		fmt.Fprintf(buf, "func (%s *%s) %s(%s) %s {\n", recv, binding, m.Name, strings.Join(params, ", "), m.Result)
		fmt.Fprintf(buf, "\tvar out %s\n", m.Result)
		args[0] = "&out"
		fmt.Fprintf(buf, "\tif err := %s.session.Call(%s); err != nil {\n", recv, strings.Join(args, ", "))
		fmt.Fprintf(buf, "\t\tpanic(fmt.Sprintf(\"call %s: %%v\", err))\n", m.JSName)
		fmt.Fprintf(buf, "\t}\n")
		fmt.Fprintf(buf, "\treturn out\n")
		fmt.Fprintf(buf, "}\n")
	case ReturnResultErr:
		fmt.Fprintf(buf, "func (%s *%s) %s(%s) (%s, error) {\n", recv, binding, m.Name, strings.Join(params, ", "), m.Result)
		fmt.Fprintf(buf, "\tvar out %s\n", m.Result)
		args[0] = "&out"
		fmt.Fprintf(buf, "\tif err := %s.session.Call(%s); err != nil {\n", recv, strings.Join(args, ", "))
		fmt.Fprintf(buf, "\t\treturn out, err\n")
		fmt.Fprintf(buf, "\t}\n")
		fmt.Fprintf(buf, "\treturn out, nil\n")
		fmt.Fprintf(buf, "}\n")
	}
}

// chooseReceiver picks a receiver identifier that collides with no
// parameter name of any method.
func chooseReceiver(methods []Method) string {
	used := make(map[string]bool)
	for _, m := range methods {
		for _, p := range m.Params {
			used[p.Name] = true
		}
	}
	recv := "b"
	for used[recv] {
		recv += "b"
	}
	return recv
}

// lowerFirst maps an exported Go method name to its JavaScript counterpart.
func lowerFirst(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
