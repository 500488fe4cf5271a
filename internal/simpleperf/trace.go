package simpleperf

import (
	"math"
	"sort"

	"github.com/getsentry/simpleperf/internal/nodetree"
)

// ThreadTimeUnsupportedMessage is shown when a trace has no cpu-clock events.
const ThreadTimeUnsupportedMessage = "This imported trace supports Wall Clock Time only. To view Thread Time, take a new recording using the latest version of Android Studio."

const (
	cpuClockEventType = "cpu-clock"
	notFound          = -1
)

type (
	ThreadDescriptor struct {
		ID           int32  `json:"id"`
		Name         string `json:"name"`
		IsMainThread bool   `json:"is_main_thread"`
	}

	// Range is an inclusive interval in microseconds. It is empty when Min is
	// greater than Max.
	Range struct {
		Min int64 `json:"min"`
		Max int64 `json:"max"`
	}

	Trace struct {
		Version        uint16
		Range          Range
		CaptureTrees   map[ThreadDescriptor]*nodetree.Node
		Tags           []string
		EventTypes     []string
		AppPackageName string
		TraceOffCPU    bool
		SampleCount    uint64
		LostCount      uint64

		cpuClockEventTypeID int
	}
)

func EmptyRange() Range {
	return Range{Min: math.MaxInt64, Max: math.MinInt64}
}

func (r Range) IsEmpty() bool {
	return r.Min > r.Max
}

func (r Range) Length() int64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Max - r.Min
}

// SupportsThreadTime reports whether the thread clock of the capture trees
// carries on-CPU time.
func (t *Trace) SupportsThreadTime() bool {
	return t.cpuClockEventTypeID != notFound
}

// ThreadTimeMessage is empty when thread time is supported.
func (t *Trace) ThreadTimeMessage() string {
	if t.SupportsThreadTime() {
		return ""
	}
	return ThreadTimeUnsupportedMessage
}

// Threads returns the threads with a capture tree, main thread first and the
// rest by id.
func (t *Trace) Threads() []ThreadDescriptor {
	threads := make([]ThreadDescriptor, 0, len(t.CaptureTrees))
	for td := range t.CaptureTrees {
		threads = append(threads, td)
	}
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].IsMainThread != threads[j].IsMainThread {
			return threads[i].IsMainThread
		}
		return threads[i].ID < threads[j].ID
	})
	return threads
}

// Roots returns the capture trees in the order of Threads.
func (t *Trace) Roots() []*nodetree.Node {
	threads := t.Threads()
	roots := make([]*nodetree.Node, 0, len(threads))
	for _, td := range threads {
		roots = append(roots, t.CaptureTrees[td])
	}
	return roots
}

func nsToUs(ns uint64) int64 {
	return int64(ns / 1000)
}
