package nodetree

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/getsentry/simpleperf/internal/testutil"
)

func TestAddChildAssignsDepthAndParent(t *testing.T) {
	root := NewRoot(SingleNameModel{Name: "main"}, 10, 10)
	a := root.AddChild(JavaMethodModel{ClassName: "a.B", MethodName: "c"}, 10, 10)
	b := a.AddChild(SyscallModel{Name: "ioctl"}, 12, 11)

	if root.Depth != 0 || root.Parent != nil {
		t.Fatalf("unexpected root: depth %d parent %v", root.Depth, root.Parent)
	}
	if a.Depth != 1 || a.Parent != root {
		t.Fatalf("unexpected child: depth %d", a.Depth)
	}
	if b.Depth != 2 || b.Parent != a {
		t.Fatalf("unexpected grandchild: depth %d", b.Depth)
	}
	if b.Root() != root {
		t.Fatal("grandchild should resolve to the root")
	}
	if !b.IsOpen() {
		t.Fatal("new nodes should be open")
	}
	b.Close(20, 15)
	if b.IsOpen() {
		t.Fatal("closed node reported open")
	}
	if diff := testutil.Diff([]int64{b.Duration(GlobalClock), b.Duration(ThreadClock)}, []int64{8, 4}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestModelNames(t *testing.T) {
	tests := []struct {
		name     string
		model    Model
		fullName string
		native   bool
		tag      string
	}{
		{
			name:     "java method",
			model:    JavaMethodModel{ClassName: "java.lang.Object", MethodName: "equals"},
			fullName: "java.lang.Object.equals",
		},
		{
			name: "cpp function in namespace",
			model: CppFunctionModel{
				Name:             "DoCall",
				ClassOrNamespace: "art::interpreter",
				Tag:              "/apex/*",
			},
			fullName: "art::interpreter::DoCall",
			native:   true,
			tag:      "/apex/*",
		},
		{
			name:     "free cpp function",
			model:    CppFunctionModel{Name: "operator<<"},
			fullName: "operator<<",
			native:   true,
		},
		{
			name:     "syscall",
			model:    SyscallModel{Name: "ioctl", Tag: "[kernel.kallsyms]"},
			fullName: "ioctl",
			native:   true,
			tag:      "[kernel.kallsyms]",
		},
		{
			name:     "no symbol",
			model:    NoSymbolModel{FilePath: "/system/lib/libc.so", DisplayName: "libc.so+0x1a2b", Tag: "/system/*"},
			fullName: "libc.so+0x1a2b",
			native:   true,
			tag:      "/system/*",
		},
		{
			name:     "thread root",
			model:    SingleNameModel{Name: "RenderThread"},
			fullName: "RenderThread",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, _ := TagOf(tt.model)
			got := []interface{}{tt.model.FullName(), IsNative(tt.model), tag}
			want := []interface{}{tt.fullName, tt.native, tt.tag}
			if diff := testutil.Diff(got, want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestNodeTreeCollectFunctions(t *testing.T) {
	foo := CppFunctionModel{Name: "foo", ClassOrNamespace: "app", IsUserCode: true}
	bar := CppFunctionModel{Name: "bar", ClassOrNamespace: "lib"}
	baz := JavaMethodModel{ClassName: "com.example.Baz", MethodName: "run"}

	root := NewRoot(SingleNameModel{Name: "main"}, 0, 0)
	f1 := root.AddChild(foo, 0, 0)
	b1 := f1.AddChild(bar, 0, 0)
	b1.Close(10, 10)
	f1.Close(10, 10)
	f2 := root.AddChild(foo, 10, 10)
	z := f2.AddChild(baz, 15, 15)
	z.Close(40, 40)
	f2.Close(40, 40)
	root.Close(40, 40)

	results := make(map[uint64]CallTreeFunction)
	root.CollectFunctions(GlobalClock, results)

	want := map[uint64]CallTreeFunction{
		Fingerprint(foo): {
			Fingerprint:   Fingerprint(foo),
			Function:      "app::foo",
			Package:       "app",
			InApp:         true,
			IsNative:      true,
			SelfTimesUS:   []int64{5},
			SumSelfTimeUS: 5,
		},
		Fingerprint(bar): {
			Fingerprint:   Fingerprint(bar),
			Function:      "lib::bar",
			Package:       "lib",
			IsNative:      true,
			SelfTimesUS:   []int64{10},
			SumSelfTimeUS: 10,
		},
		Fingerprint(baz): {
			Fingerprint:   Fingerprint(baz),
			Function:      "com.example.Baz.run",
			Package:       "com.example.Baz",
			InApp:         true,
			SelfTimesUS:   []int64{25},
			SumSelfTimeUS: 25,
		},
	}
	if diff := testutil.Diff(results, want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}

	top := TopFunctions([]*Node{root}, GlobalClock, 2)
	if len(top) != 2 || top[0].Function != "com.example.Baz.run" || top[1].Function != "lib::bar" {
		t.Fatalf("unexpected top functions: %+v", top)
	}
}

func TestNodeMarshalJSONIncludesKind(t *testing.T) {
	root := NewRoot(SingleNameModel{Name: "main"}, 0, 0)
	root.AddChild(SyscallModel{Name: "read"}, 0, 0).Close(5, 5)
	root.AddChild(CppFunctionModel{Name: "draw"}, 5, 5).Close(10, 10)
	root.Close(10, 10)

	b, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("we should be able to marshal the tree: %v", err)
	}

	type node struct {
		Kind  Kind `json:"kind"`
		Model struct {
			Name string `json:"name"`
		} `json:"model"`
		EndGlobal int64  `json:"end_global_us"`
		Children  []node `json:"children"`
	}
	var got node
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("we should be able to unmarshal the tree: %v", err)
	}

	kinds := []Kind{got.Kind}
	names := []string{got.Model.Name}
	for _, c := range got.Children {
		kinds = append(kinds, c.Kind)
		names = append(names, c.Model.Name)
	}
	if diff := testutil.Diff(kinds, []Kind{KindSingleName, KindSyscall, KindCppFunction}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if diff := testutil.Diff(names, []string{"main", "read", "draw"}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if got.EndGlobal != 10 {
		t.Fatalf("expected node fields next to the kind, got end %d", got.EndGlobal)
	}
}
