package simpleperf

import (
	"fmt"
	"path"

	"github.com/getsentry/simpleperf/internal/errorutil"
	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/packageutil"
	"github.com/getsentry/simpleperf/internal/symbol"
)

// treeBuilder reconstructs the call tree of a single thread. It only reads
// the file table, so builders of different threads can run concurrently.
type treeBuilder struct {
	files               map[uint32]File
	names               symbol.Parser
	cpuClockEventTypeID int
	appPackageName      string

	// tags collects the tags of every model created.
	tags map[string]struct{}
}

func newTreeBuilder(files map[uint32]File, names symbol.Parser, cpuClockEventTypeID int, appPackageName string) *treeBuilder {
	return &treeBuilder{
		files:               files,
		names:               names,
		cpuClockEventTypeID: cpuClockEventTypeID,
		appPackageName:      appPackageName,
		tags:                make(map[string]struct{}),
	}
}

// build consumes the samples of a thread in order. Every sample is a full
// stack snapshot: frames shared with the previous sample stay open, frames
// that disappeared are closed at the time of the sample and new frames are
// opened at that same time.
//
// Both clocks start at the time of the first sample. The thread clock then
// only advances by the event count of cpu-clock samples.
func (b *treeBuilder) build(thread Thread, samples []Sample) (*nodetree.Node, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("simpleperf: thread %d has no samples", thread.ThreadID)
	}
	threadTimeNS := samples[0].Time
	root := nodetree.NewRoot(
		nodetree.SingleNameModel{Name: thread.ThreadName},
		nsToUs(samples[0].Time),
		nsToUs(threadTimeNS),
	)

	var previousCallChain []CallChainEntry
	lastVisitedNode := root
	for i, s := range samples {
		if i > 0 && b.isCPUClock(s) {
			threadTimeNS += s.EventCount
		}
		globalUS, threadUS := nsToUs(s.Time), nsToUs(threadTimeNS)
		callChain := reverseCallChain(s.CallChain)
		divergence := divergenceIndex(previousCallChain, callChain)

		node := lastVisitedNode
		for k := len(previousCallChain) - divergence; k > 0; k-- {
			node.Close(globalUS, threadUS)
			node = node.Parent
		}
		for j := divergence; j < len(callChain); j++ {
			model, err := b.model(callChain, j)
			if err != nil {
				return nil, err
			}
			node = node.AddChild(model, globalUS, threadUS)
		}

		lastVisitedNode = node
		previousCallChain = callChain
	}

	endGlobalUS := nsToUs(samples[len(samples)-1].Time)
	endThreadUS := nsToUs(threadTimeNS)
	for n := lastVisitedNode; n != root; n = n.Parent {
		n.Close(endGlobalUS, endThreadUS)
	}
	root.Close(endGlobalUS, endThreadUS)
	return root, nil
}

func (b *treeBuilder) isCPUClock(s Sample) bool {
	return b.cpuClockEventTypeID != notFound && int(s.EventTypeID) == b.cpuClockEventTypeID
}

// model names the frame at position i of a root-to-leaf call chain.
func (b *treeBuilder) model(callChain []CallChainEntry, i int) (nodetree.Model, error) {
	entry := callChain[i]
	file, ok := b.files[entry.FileID]
	if !ok {
		return nil, fmt.Errorf("simpleperf: %w: call chain references unknown file %d", errorutil.ErrDataIntegrity, entry.FileID)
	}

	var model nodetree.Model
	if entry.SymbolID == InvalidSymbolID {
		model = nodetree.NoSymbolModel{
			FilePath:    file.Path,
			DisplayName: fmt.Sprintf("%s+0x%x", path.Base(file.Path), entry.VAddrInFile),
			Tag:         symbol.Tag(file.Path),
		}
	} else {
		if entry.SymbolID < 0 || int(entry.SymbolID) >= len(file.Symbols) {
			return nil, fmt.Errorf("simpleperf: %w: file %d has no symbol %d", errorutil.ErrDataIntegrity, entry.FileID, entry.SymbolID)
		}
		parentVAddr := int64(-1)
		if i > 0 {
			parentVAddr = int64(callChain[i-1].VAddrInFile)
		}
		isUserWritten := packageutil.IsAndroidApplicationBinary(file.Path, b.appPackageName)
		var err error
		model, err = b.names.Parse(file.Symbols[entry.SymbolID], isUserWritten, file.Path, parentVAddr)
		if err != nil {
			return nil, err
		}
	}

	if tag, ok := nodetree.TagOf(model); ok {
		b.tags[tag] = struct{}{}
	}
	return model, nil
}

// divergenceIndex is the length of the common prefix of two root-to-leaf
// call chains.
func divergenceIndex(previous, current []CallChainEntry) int {
	n := min(len(previous), len(current))
	for i := 0; i < n; i++ {
		if !previous[i].Equal(current[i]) {
			return i
		}
	}
	return n
}

func reverseCallChain(callChain []CallChainEntry) []CallChainEntry {
	reversed := make([]CallChainEntry, len(callChain))
	for i, e := range callChain {
		reversed[len(callChain)-1-i] = e
	}
	return reversed
}
