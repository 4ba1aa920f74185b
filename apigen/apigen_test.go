// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package apigen

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePackage materializes source as a one-file Go package in a temp dir.
func writePackage(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "iface.go"), []byte(source), 0o644))
	return dir
}

const calculatorSource = `package calcdemo

import "time"

// Calculator mirrors calculator.js.
type Calculator interface {
	Add(x, y float64) (float64, error)
	Reset()
	Total() float64
	Store(note string) error
	Since(start time.Time) (string, error)
}
`

func TestParse(t *testing.T) {
	dir := writePackage(t, calculatorSource)

	iface, err := Parse(dir, "Calculator")
	require.NoError(t, err)
	require.Equal(t, "calcdemo", iface.Package)
	require.Equal(t, "Calculator", iface.Name)
	require.Len(t, iface.Methods, 5)

	add := iface.Methods[0]
	require.Equal(t, "Add", add.Name)
	require.Equal(t, "add", add.JSName)
	require.Equal(t, ReturnResultErr, add.Shape)
	require.Equal(t, "float64", add.Result)
	require.Equal(t, []Param{{Name: "x", Type: "float64"}, {Name: "y", Type: "float64"}}, add.Params)

	require.Equal(t, ReturnUnit, iface.Methods[1].Shape)
	require.Equal(t, ReturnDirect, iface.Methods[2].Shape)
	require.Equal(t, ReturnUnitErr, iface.Methods[3].Shape)
	require.Equal(t, ReturnResultErr, iface.Methods[4].Shape)

	// The time qualifier used by Since must be carried over.
	require.Equal(t, []Import{{Path: "time"}}, iface.Imports)
}

func TestParse_NotFound(t *testing.T) {
	dir := writePackage(t, "package empty\n")
	_, err := Parse(dir, "Missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestParse_SkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types_test.go"), []byte(calculatorSource), 0o644))

	_, err := Parse(dir, "Calculator")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
	}{
		{
			"variadic parameter",
			`package p
type X interface{ Sum(xs ...int) int }`,
			"variadic",
		},
		{
			"unnamed parameter",
			`package p
type X interface{ Add(int, int) int }`,
			"must be named",
		},
		{
			"blank parameter",
			`package p
type X interface{ Add(_ int) int }`,
			"must be named",
		},
		{
			"too many parameters",
			`package p
type X interface{ Wide(a, b, c, d, e, f int) int }`,
			"at most 5",
		},
		{
			"channel parameter",
			`package p
type X interface{ Watch(ch chan int) error }`,
			"channel types",
		},
		{
			"function parameter",
			`package p
type X interface{ Apply(f func()) error }`,
			"function types",
		},
		{
			"non-empty interface parameter",
			`package p
type X interface{ Accept(v interface{ M() }) error }`,
			"non-empty interface",
		},
		{
			"unsafe pointer result",
			`package p
import "unsafe"
type X interface{ Ptr() unsafe.Pointer }`,
			"unsafe.Pointer",
		},
		{
			"embedded interface",
			`package p
import "io"
type X interface {
	io.Reader
	Name() string
}`,
			"embedded interfaces",
		},
		{
			"error-only pair",
			`package p
type X interface{ Run() (error, error) }`,
			"first result must be a value",
		},
		{
			"second result not error",
			`package p
type X interface{ Run() (int, string) }`,
			"second result must be error",
		},
		{
			"three results",
			`package p
type X interface{ Run() (int, string, error) }`,
			"results must be",
		},
		{
			"generic interface",
			`package p
type X[T any] interface{ Get() T }`,
			"type parameters",
		},
		{
			"not an interface",
			`package p
type X struct{}`,
			"not an interface",
		},
		{
			"no methods",
			`package p
type X interface{}`,
			"has no methods",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePackage(t, tt.source)
			_, err := Parse(dir, "X")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate(t *testing.T) {
	dir := writePackage(t, calculatorSource)
	iface, err := Parse(dir, "Calculator")
	require.NoError(t, err)

	src, err := Generate(iface, "")
	require.NoError(t, err)
	code := string(src)

	require.True(t, strings.HasPrefix(code, "// Code generated by jsapigen. DO NOT EDIT."))
	require.Contains(t, code, "package calcdemo")
	require.Contains(t, code, `jsbridge "github.com/buke/js-bridge"`)
	require.Contains(t, code, `"time"`)
	require.Contains(t, code, "type CalculatorBinding struct")
	require.Contains(t, code, "func BindCalculator(session *jsbridge.Session) *CalculatorBinding")
	require.Contains(t, code, "var _ Calculator = (*CalculatorBinding)(nil)")

	// Value-or-error methods return the call error.
	require.Contains(t, code, "func (b *CalculatorBinding) Add(x float64, y float64) (float64, error)")
	require.Contains(t, code, `b.session.Call(&out, "add", x, y)`)

	// Bare methods panic on failure.
	require.Contains(t, code, "func (b *CalculatorBinding) Reset()")
	require.Contains(t, code, `panic(fmt.Sprintf("call reset: %v", err))`)

	// The output must itself be valid Go.
	_, err = parser.ParseFile(token.NewFileSet(), "generated.go", src, 0)
	require.NoError(t, err)
}

func TestGenerate_CustomBridgeImport(t *testing.T) {
	dir := writePackage(t, calculatorSource)
	iface, err := Parse(dir, "Calculator")
	require.NoError(t, err)

	src, err := Generate(iface, "example.com/own/bridge")
	require.NoError(t, err)
	require.Contains(t, string(src), `jsbridge "example.com/own/bridge"`)
}

func TestGenerate_NoFmtWithoutPanics(t *testing.T) {
	dir := writePackage(t, `package p
type Store interface {
	Put(key string, value string) error
	Get(key string) (string, error)
}
`)
	iface, err := Parse(dir, "Store")
	require.NoError(t, err)

	src, err := Generate(iface, "")
	require.NoError(t, err)
	require.NotContains(t, string(src), `"fmt"`)
}

func TestChooseReceiver(t *testing.T) {
	methods := []Method{{
		Name:   "Mix",
		Params: []Param{{Name: "b", Type: "int"}, {Name: "bb", Type: "int"}},
	}}
	require.Equal(t, "bbb", chooseReceiver(methods))

	require.Equal(t, "b", chooseReceiver([]Method{{Name: "Plain"}}))
}

func TestLowerFirst(t *testing.T) {
	require.Equal(t, "add", lowerFirst("Add"))
	require.Equal(t, "fetchAll", lowerFirst("FetchAll"))
	require.Equal(t, "", lowerFirst(""))
}
