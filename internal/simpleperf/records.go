package simpleperf

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/getsentry/simpleperf/internal/errorutil"
)

// RecordKind is the field number of the payload set in a record.
type RecordKind int

const (
	KindSample        RecordKind = 1
	KindLost          RecordKind = 2
	KindFile          RecordKind = 3
	KindThread        RecordKind = 4
	KindMetaInfo      RecordKind = 5
	KindContextSwitch RecordKind = 6
)

func (k RecordKind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindLost:
		return "lost"
	case KindFile:
		return "file"
	case KindThread:
		return "thread"
	case KindMetaInfo:
		return "meta_info"
	case KindContextSwitch:
		return "context_switch"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// InvalidSymbolID marks a call chain entry whose address could not be
// resolved to a symbol of its file.
const InvalidSymbolID = -1

type ExecutionType int

const (
	NativeMethod ExecutionType = iota
	InterpretedJVMMethod
	JITJVMMethod
	ARTMethod
)

type (
	CallChainEntry struct {
		VAddrInFile   uint64
		FileID        uint32
		SymbolID      int32
		ExecutionType ExecutionType
	}

	Sample struct {
		// Time is in nanoseconds.
		Time     uint64
		ThreadID int32
		// CallChain is ordered from the innermost frame to the outermost.
		CallChain   []CallChainEntry
		EventCount  uint64
		EventTypeID uint32
	}

	LostSituation struct {
		SampleCount uint64
		LostCount   uint64
	}

	File struct {
		ID             uint32
		Path           string
		Symbols        []string
		MangledSymbols []string
	}

	Thread struct {
		ThreadID   int32
		ProcessID  int32
		ThreadName string
	}

	MetaInfo struct {
		EventTypes        []string
		AppPackageName    string
		AppType           string
		AndroidSDKVersion string
		AndroidBuildType  string
		TraceOffCPU       bool
	}

	// Record holds exactly one decoded payload, the one matching Kind. Records
	// of a kind this package does not know only carry their Kind.
	Record struct {
		Kind     RecordKind
		Sample   *Sample
		Lost     *LostSituation
		File     *File
		Thread   *Thread
		MetaInfo *MetaInfo
	}
)

// Equal reports whether two entries refer to the same frame. Entries without
// a symbol are only equal when they point at the same address.
func (e CallChainEntry) Equal(o CallChainEntry) bool {
	if e.FileID != o.FileID || e.SymbolID != o.SymbolID {
		return false
	}
	return e.SymbolID != InvalidSymbolID || e.VAddrInFile == o.VAddrInFile
}

func decodeRecord(b []byte) (Record, error) {
	var r Record
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		r.Kind = RecordKind(num)
		var err error
		switch r.Kind {
		case KindSample:
			r.Sample, err = decodeSample(v)
		case KindLost:
			r.Lost, err = decodeLost(v)
		case KindFile:
			r.File, err = decodeFile(v)
		case KindThread:
			r.Thread, err = decodeThread(v)
		case KindMetaInfo:
			r.MetaInfo, err = decodeMetaInfo(v)
		}
		return n, err
	})
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func decodeSample(b []byte) (*Sample, error) {
	var s Sample
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, func(v uint64) { s.Time = v })
		case 2:
			return consumeVarint(typ, b, func(v uint64) { s.ThreadID = int32(v) })
		case 3:
			return consumeMessage(typ, b, func(v []byte) error {
				e, err := decodeCallChainEntry(v)
				if err != nil {
					return err
				}
				s.CallChain = append(s.CallChain, e)
				return nil
			})
		case 4:
			return consumeVarint(typ, b, func(v uint64) { s.EventCount = v })
		case 5:
			return consumeVarint(typ, b, func(v uint64) { s.EventTypeID = uint32(v) })
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeCallChainEntry(b []byte) (CallChainEntry, error) {
	// A missing symbol_id field decodes as symbol 0, like the generated code
	// of the schema would.
	var e CallChainEntry
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, func(v uint64) { e.VAddrInFile = v })
		case 2:
			return consumeVarint(typ, b, func(v uint64) { e.FileID = uint32(v) })
		case 3:
			return consumeVarint(typ, b, func(v uint64) { e.SymbolID = int32(v) })
		case 4:
			return consumeVarint(typ, b, func(v uint64) { e.ExecutionType = ExecutionType(v) })
		}
		return 0, nil
	})
	return e, err
}

func decodeLost(b []byte) (*LostSituation, error) {
	var l LostSituation
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, func(v uint64) { l.SampleCount = v })
		case 2:
			return consumeVarint(typ, b, func(v uint64) { l.LostCount = v })
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func decodeFile(b []byte) (*File, error) {
	var f File
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, func(v uint64) { f.ID = uint32(v) })
		case 2:
			return consumeString(typ, b, func(v string) { f.Path = v })
		case 3:
			return consumeString(typ, b, func(v string) { f.Symbols = append(f.Symbols, v) })
		case 4:
			return consumeString(typ, b, func(v string) { f.MangledSymbols = append(f.MangledSymbols, v) })
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func decodeThread(b []byte) (*Thread, error) {
	var t Thread
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, func(v uint64) { t.ThreadID = int32(v) })
		case 2:
			return consumeVarint(typ, b, func(v uint64) { t.ProcessID = int32(v) })
		case 3:
			return consumeString(typ, b, func(v string) { t.ThreadName = v })
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeMetaInfo(b []byte) (*MetaInfo, error) {
	var m MetaInfo
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, func(v string) { m.EventTypes = append(m.EventTypes, v) })
		case 2:
			return consumeString(typ, b, func(v string) { m.AppPackageName = v })
		case 3:
			return consumeString(typ, b, func(v string) { m.AppType = v })
		case 4:
			return consumeString(typ, b, func(v string) { m.AndroidSDKVersion = v })
		case 5:
			return consumeString(typ, b, func(v string) { m.AndroidBuildType = v })
		case 6:
			return consumeVarint(typ, b, func(v uint64) { m.TraceOffCPU = v != 0 })
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// fieldFunc decodes the value of one field and returns the number of bytes
// it consumed. Returning 0 leaves the field to be skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(n)
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return wireError(n)
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte, set func(uint64)) (int, error) {
	if typ != protowire.VarintType {
		return 0, nil
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		set(v)
	}
	return n, nil
}

func consumeString(typ protowire.Type, b []byte, set func(string)) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		set(v)
	}
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte, decode func([]byte) error) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	return n, decode(v)
}

func wireError(n int) error {
	return fmt.Errorf("simpleperf: %w: malformed record: %v", errorutil.ErrInvalidFormat, protowire.ParseError(n))
}
