package simpleperf

import (
	"testing"

	"github.com/getsentry/simpleperf/internal/testutil"
)

func TestSortTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "classes",
			input: []string{"/system/*", "[kernel.kallsyms]", "/data/app/foo/base.apk"},
			want:  []string{"/data/app/foo/base.apk", "[kernel.kallsyms]", "/system/*"},
		},
		{
			name:  "alphabetical within a class",
			input: []string{"/vendor/*", "/apex/*", "/system/*", "[vdso]", "[kernel.kallsyms]"},
			want:  []string{"[kernel.kallsyms]", "[vdso]", "/apex/*", "/system/*", "/vendor/*"},
		},
		{
			name:  "duplicates",
			input: []string{"/system/*", "/system/*", "/data/app/foo/base.apk", "/data/app/foo/base.apk"},
			want:  []string{"/data/app/foo/base.apk", "/system/*"},
		},
		{
			name:  "empty",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := testutil.Diff(SortTags(tt.input), tt.want); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestRange(t *testing.T) {
	if r := EmptyRange(); !r.IsEmpty() || r.Length() != 0 {
		t.Fatalf("expected an empty range, got %+v", r)
	}
	if r := (Range{Min: 10, Max: 10}); r.IsEmpty() || r.Length() != 0 {
		t.Fatalf("a single point range is not empty, got %+v", r)
	}
	if r := (Range{Min: 10, Max: 25}); r.Length() != 15 {
		t.Fatalf("expected a length of 15, got %d", r.Length())
	}
}
