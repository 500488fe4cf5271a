package simpleperf

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"github.com/getsentry/simpleperf/internal/errorutil"
	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/symbol"
)

type Options struct {
	// Logger receives non-fatal anomalies. They are discarded when nil.
	Logger *zerolog.Logger
	// Workers is the number of threads whose call trees are built
	// concurrently. Values below 1 mean 1.
	Workers int
	// MaxRecordSize overrides DefaultMaxRecordSize when set.
	MaxRecordSize uint32
}

// tables is everything read from the stream before any tree is built.
type tables struct {
	version  uint16
	files    map[uint32]File
	threads  map[int32]Thread
	samples  []Sample
	lost     *LostSituation
	metaInfo MetaInfo
}

// ParseFile memory-maps the trace at path and parses it.
func ParseFile(ctx context.Context, path string, opts Options) (*Trace, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(ctx, io.NewSectionReader(r, 0, int64(r.Len())), opts)
}

// Parse reads a whole trace and builds one capture tree per thread. Either a
// complete trace or an error is returned.
func Parse(ctx context.Context, r io.Reader, opts Options) (*Trace, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	t, err := readTables(r, opts.MaxRecordSize, logger)
	if err != nil {
		return nil, err
	}

	trace := &Trace{
		Version:             t.version,
		Range:               EmptyRange(),
		CaptureTrees:        make(map[ThreadDescriptor]*nodetree.Node),
		EventTypes:          t.metaInfo.EventTypes,
		AppPackageName:      t.metaInfo.AppPackageName,
		TraceOffCPU:         t.metaInfo.TraceOffCPU,
		SampleCount:         uint64(len(t.samples)),
		cpuClockEventTypeID: notFound,
	}
	if t.lost != nil {
		trace.LostCount = t.lost.LostCount
	}
	for i, et := range t.metaInfo.EventTypes {
		if et == cpuClockEventType {
			trace.cpuClockEventTypeID = i
			break
		}
	}
	if !trace.SupportsThreadTime() {
		logger.Info().Strs("event_types", t.metaInfo.EventTypes).Msg("trace has no cpu-clock events, thread time is unsupported")
	}
	if len(t.samples) > 0 {
		trace.Range = Range{
			Min: nsToUs(t.samples[0].Time),
			Max: nsToUs(t.samples[len(t.samples)-1].Time),
		}
	}

	groups, err := splitByThread(t)
	if err != nil {
		return nil, err
	}
	for id, thread := range t.threads {
		if _, ok := groups.samples[id]; !ok {
			logger.Warn().Int32("thread_id", id).Str("thread_name", thread.ThreadName).Msg("thread has no samples")
		}
	}

	results := make([]*threadTree, len(groups.order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, id := range groups.order {
		i := i
		thread, samples := t.threads[id], groups.samples[id]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := newTreeBuilder(t.files, symbol.NewParser(logger), trace.cpuClockEventTypeID, t.metaInfo.AppPackageName)
			root, err := b.build(thread, samples)
			if err != nil {
				return err
			}
			results[i] = &threadTree{thread: thread, root: root, tags: b.tags}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var tags []string
	for _, r := range results {
		trace.CaptureTrees[ThreadDescriptor{
			ID:           r.thread.ThreadID,
			Name:         r.thread.ThreadName,
			IsMainThread: r.thread.ThreadID == r.thread.ProcessID,
		}] = r.root
		for tag := range r.tags {
			tags = append(tags, tag)
		}
	}
	trace.Tags = SortTags(tags)
	return trace, nil
}

type threadTree struct {
	thread Thread
	root   *nodetree.Node
	tags   map[string]struct{}
}

// readTables drains the stream. Samples may reference files and threads that
// are only described later in the stream, so nothing is resolved here.
func readTables(r io.Reader, maxRecordSize uint32, logger zerolog.Logger) (*tables, error) {
	reader := NewReader(r)
	if maxRecordSize > 0 {
		reader.MaxRecordSize = maxRecordSize
	}
	version, err := reader.ReadHeader()
	if err != nil {
		return nil, err
	}
	t := &tables{
		version: version,
		files:   make(map[uint32]File),
		threads: make(map[int32]Thread),
	}
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch record.Kind {
		case KindSample:
			t.samples = append(t.samples, *record.Sample)
		case KindLost:
			t.lost = record.Lost
		case KindFile:
			t.files[record.File.ID] = *record.File
		case KindThread:
			t.threads[record.Thread.ThreadID] = *record.Thread
		case KindMetaInfo:
			t.metaInfo = *record.MetaInfo
		case KindContextSwitch:
			logger.Debug().Msg("skipping context switch record")
		default:
			logger.Warn().Stringer("kind", record.Kind).Int64("offset", reader.BytesRead()).Msg("skipping unknown record")
		}
	}

	var declared uint64
	if t.lost != nil {
		declared = t.lost.SampleCount
	}
	if declared != uint64(len(t.samples)) {
		return nil, fmt.Errorf("simpleperf: %w: %d samples declared but %d read", errorutil.ErrDataIntegrity, declared, len(t.samples))
	}
	return t, nil
}

type threadGroups struct {
	// order is the order in which threads first appear in the sample stream.
	order   []int32
	samples map[int32][]Sample
}

func splitByThread(t *tables) (threadGroups, error) {
	groups := threadGroups{samples: make(map[int32][]Sample)}
	for _, s := range t.samples {
		if _, ok := t.threads[s.ThreadID]; !ok {
			return threadGroups{}, fmt.Errorf("simpleperf: %w: sample references unknown thread %d", errorutil.ErrDataIntegrity, s.ThreadID)
		}
		if _, ok := groups.samples[s.ThreadID]; !ok {
			groups.order = append(groups.order, s.ThreadID)
		}
		groups.samples[s.ThreadID] = append(groups.samples[s.ThreadID], s)
	}
	return groups, nil
}
