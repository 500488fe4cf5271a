package symbol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/getsentry/simpleperf/internal/errorutil"
	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/testutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		fullName      string
		isUserWritten bool
		fileName      string
		vaddr         int64
		want          nodetree.Model
	}{
		{
			name:     "java method",
			fullName: "java.lang.Object.equals",
			want: nodetree.JavaMethodModel{
				ClassName:  "java.lang.Object",
				MethodName: "equals",
			},
		},
		{
			name:     "template function in nested namespace",
			fullName: "art::interpreter::DoCall<false, false>(void)",
			fileName: "/apex/com.android.art/lib64/libart.so",
			vaddr:    -1,
			want: nodetree.CppFunctionModel{
				Name:             "DoCall",
				ClassOrNamespace: "art::interpreter",
				Parameters:       "void",
				FileName:         "/apex/com.android.art/lib64/libart.so",
				Tag:              "/apex/*",
				VirtualAddress:   -1,
			},
		},
		{
			name:     "operator keeps its angle brackets",
			fullName: "operator<<(std::ostream&, int)",
			vaddr:    4096,
			want: nodetree.CppFunctionModel{
				Name:           "operator<<",
				Parameters:     "std::ostream&, int",
				VirtualAddress: 4096,
			},
		},
		{
			name:     "return type is dropped",
			fullName: "std::ostream& operator<<(std::ostream&, Foo const&)",
			want: nodetree.CppFunctionModel{
				Name:       "operator<<",
				Parameters: "std::ostream&, Foo const&",
			},
		},
		{
			name:     "conversion operator keeps its space",
			fullName: "android::sp<Foo>::operator bool() const",
			want: nodetree.CppFunctionModel{
				Name:             "operator bool",
				ClassOrNamespace: "android::sp",
			},
		},
		{
			name:     "namespace inside template arguments",
			fullName: "std::__1::vector<std::__1::string>::push_back(std::__1::string const&)",
			want: nodetree.CppFunctionModel{
				Name:             "push_back",
				ClassOrNamespace: "std::__1::vector",
				Parameters:       "std::__1::string const&",
			},
		},
		{
			name:     "template parameters are stripped",
			fullName: "Foo::bar(std::vector<int, std::allocator<int> > const&)",
			want: nodetree.CppFunctionModel{
				Name:             "bar",
				ClassOrNamespace: "Foo",
				Parameters:       "std::vector const&",
			},
		},
		{
			name:     "lambda call operator",
			fullName: "foo(int)::$_0::operator()() const",
			want: nodetree.CppFunctionModel{
				Name:             "operator()",
				ClassOrNamespace: "foo(int)::$_0",
			},
		},
		{
			name:          "user code",
			fullName:      "native_work(int)",
			isUserWritten: true,
			fileName:      "/data/app/com.example/lib/arm64/libnative.so",
			want: nodetree.CppFunctionModel{
				Name:       "native_work",
				Parameters: "int",
				IsUserCode: true,
				FileName:   "/data/app/com.example/lib/arm64/libnative.so",
				Tag:        "/data/app/com.example/lib/arm64/libnative.so",
			},
		},
		{
			name:     "mangled symbol",
			fullName: "_ZN3foo3barEi",
			want: nodetree.CppFunctionModel{
				Name:             "bar",
				ClassOrNamespace: "foo",
				Parameters:       "int",
			},
		},
		{
			name:     "syscall",
			fullName: "ioctl",
			fileName: "[kernel.kallsyms]",
			want: nodetree.SyscallModel{
				Name: "ioctl",
				Tag:  "[kernel.kallsyms]",
			},
		},
		{
			name:     "syscall without file",
			fullName: "ioctl",
			want:     nodetree.SyscallModel{Name: "ioctl"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.fullName, tt.isUserWritten, tt.fileName, tt.vaddr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := testutil.Diff(got, tt.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestParseUnbalancedAngleBrackets(t *testing.T) {
	var buf bytes.Buffer
	p := NewParser(zerolog.New(&buf))

	got, err := p.Parse("foo<int(bar)", false, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := nodetree.CppFunctionModel{Name: "foo<int(bar)"}
	if diff := testutil.Diff(got, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if !strings.Contains(buf.String(), "unbalanced brackets") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
}

func TestParseUnmatchedParentheses(t *testing.T) {
	for _, name := range []string{"foo(int", "foo)(bar"} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(name, false, "", 0)
			if !errors.Is(err, errorutil.ErrDataIntegrity) {
				t.Fatalf("expected a data integrity error, got %v", err)
			}
		})
	}
}

func TestTag(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/apex/com.android.runtime/lib64/bionic/libc.so", want: "/apex/*"},
		{path: "/system/lib64/libc.so", want: "/system/*"},
		{path: "/vendor/lib64/libgles.so", want: "/vendor/*"},
		{path: "/data/app/com.example/base.apk", want: "/data/app/com.example/base.apk"},
		{path: "[kernel.kallsyms]", want: "[kernel.kallsyms]"},
		{path: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if diff := testutil.Diff(Tag(tt.path), tt.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}
