package nodetree

import (
	"fmt"
	"strings"

	"github.com/getsentry/simpleperf/internal/packageutil"
)

type Kind string

const (
	KindJavaMethod  Kind = "java_method"
	KindCppFunction Kind = "cpp_function"
	KindSyscall     Kind = "syscall"
	KindNoSymbol    Kind = "no_symbol"
	KindSingleName  Kind = "single_name"
)

// Model describes the function a Node is an activation of. The set of
// implementations is closed: JavaMethodModel, CppFunctionModel, SyscallModel,
// NoSymbolModel and SingleNameModel.
type Model interface {
	Kind() Kind
	// FullName is the human readable label of the function.
	FullName() string
	// ID identifies the function across nodes and threads.
	ID() string

	isModel()
}

type (
	JavaMethodModel struct {
		MethodName string `json:"method_name"`
		ClassName  string `json:"class_name"`
		Signature  string `json:"signature,omitempty"`
	}

	CppFunctionModel struct {
		Name             string `json:"name"`
		ClassOrNamespace string `json:"class_or_namespace,omitempty"`
		Parameters       string `json:"parameters,omitempty"`
		IsUserCode       bool   `json:"is_user_code"`
		FileName         string `json:"file_name,omitempty"`
		Tag              string `json:"tag,omitempty"`
		// VirtualAddress is the address of the calling frame, -1 when the
		// function is the outermost frame of its call chain.
		VirtualAddress int64 `json:"virtual_address"`
	}

	SyscallModel struct {
		Tag  string `json:"tag,omitempty"`
		Name string `json:"name"`
	}

	NoSymbolModel struct {
		FilePath    string `json:"file_path"`
		DisplayName string `json:"display_name"`
		Tag         string `json:"tag,omitempty"`
	}

	SingleNameModel struct {
		Name string `json:"name"`
	}
)

func (JavaMethodModel) Kind() Kind { return KindJavaMethod }

func (m JavaMethodModel) FullName() string {
	if m.ClassName == "" {
		return m.MethodName
	}
	return m.ClassName + "." + m.MethodName
}

func (m JavaMethodModel) ID() string {
	return m.FullName() + m.Signature
}

func (CppFunctionModel) Kind() Kind { return KindCppFunction }

func (m CppFunctionModel) FullName() string {
	if m.ClassOrNamespace == "" {
		return m.Name
	}
	return m.ClassOrNamespace + "::" + m.Name
}

func (m CppFunctionModel) ID() string {
	var b strings.Builder
	b.WriteString(m.FullName())
	b.WriteByte('(')
	b.WriteString(m.Parameters)
	b.WriteByte(')')
	return b.String()
}

func (SyscallModel) Kind() Kind { return KindSyscall }

func (m SyscallModel) FullName() string { return m.Name }

func (m SyscallModel) ID() string { return m.Name }

func (NoSymbolModel) Kind() Kind { return KindNoSymbol }

func (m NoSymbolModel) FullName() string { return m.DisplayName }

func (m NoSymbolModel) ID() string {
	return fmt.Sprintf("%s:%s", m.FilePath, m.DisplayName)
}

func (SingleNameModel) Kind() Kind { return KindSingleName }

func (m SingleNameModel) FullName() string { return m.Name }

func (m SingleNameModel) ID() string { return m.Name }

func (JavaMethodModel) isModel()  {}
func (CppFunctionModel) isModel() {}
func (SyscallModel) isModel()     {}
func (NoSymbolModel) isModel()    {}
func (SingleNameModel) isModel()  {}

// TagOf returns the tag of the binary a model was found in, if it has one.
func TagOf(m Model) (string, bool) {
	switch v := m.(type) {
	case CppFunctionModel:
		return v.Tag, v.Tag != ""
	case SyscallModel:
		return v.Tag, v.Tag != ""
	case NoSymbolModel:
		return v.Tag, v.Tag != ""
	default:
		return "", false
	}
}

// IsNative reports whether the model describes native code, as opposed to
// managed (JVM) code or a synthetic node.
func IsNative(m Model) bool {
	switch m.(type) {
	case CppFunctionModel, SyscallModel, NoSymbolModel:
		return true
	default:
		return false
	}
}

// IsUserCode reports whether the model belongs to the application itself.
func IsUserCode(m Model) bool {
	switch v := m.(type) {
	case CppFunctionModel:
		return v.IsUserCode
	case JavaMethodModel:
		return packageutil.IsAndroidApplicationPackage(v.ClassName)
	default:
		return false
	}
}

// Package returns the grouping the function belongs to: its class, namespace
// or the file it was found in.
func Package(m Model) string {
	switch v := m.(type) {
	case JavaMethodModel:
		return v.ClassName
	case CppFunctionModel:
		return v.ClassOrNamespace
	case NoSymbolModel:
		return v.FilePath
	default:
		return ""
	}
}
