package simpleperf

import (
	"bytes"
	"encoding/binary"

	"google.golang.org/protobuf/encoding/protowire"
)

// traceEncoder writes traces in the on-disk layout for tests.
type traceEncoder struct {
	buf bytes.Buffer
}

func newTraceEncoder(version uint16) *traceEncoder {
	e := &traceEncoder{}
	e.buf.WriteString(Magic)
	_ = binary.Write(&e.buf, binary.LittleEndian, version)
	return e
}

func (e *traceEncoder) record(kind RecordKind, payload []byte) *traceEncoder {
	var b []byte
	b = protowire.AppendTag(b, protowire.Number(kind), protowire.BytesType)
	b = protowire.AppendBytes(b, payload)
	e.raw(b)
	return e
}

func (e *traceEncoder) raw(record []byte) {
	_ = binary.Write(&e.buf, binary.LittleEndian, uint32(len(record)))
	e.buf.Write(record)
}

func (e *traceEncoder) file(id uint32, path string, symbols ...string) *traceEncoder {
	var b []byte
	b = appendVarint(b, 1, uint64(id))
	b = appendString(b, 2, path)
	for _, s := range symbols {
		b = appendString(b, 3, s)
	}
	return e.record(KindFile, b)
}

func (e *traceEncoder) thread(tid, pid int32, name string) *traceEncoder {
	var b []byte
	b = appendVarint(b, 1, uint64(tid))
	b = appendVarint(b, 2, uint64(pid))
	b = appendString(b, 3, name)
	return e.record(KindThread, b)
}

func (e *traceEncoder) metaInfo(appPackageName string, eventTypes ...string) *traceEncoder {
	var b []byte
	for _, et := range eventTypes {
		b = appendString(b, 1, et)
	}
	if appPackageName != "" {
		b = appendString(b, 2, appPackageName)
	}
	b = appendString(b, 3, "debuggable")
	return e.record(KindMetaInfo, b)
}

func (e *traceEncoder) lost(sampleCount, lostCount uint64) *traceEncoder {
	var b []byte
	b = appendVarint(b, 1, sampleCount)
	b = appendVarint(b, 2, lostCount)
	return e.record(KindLost, b)
}

type testSample struct {
	timeNS      uint64
	threadID    int32
	eventTypeID uint32
	eventCount  uint64
	// callChain is root first, the way tests read best. It is written leaf
	// first like simpleperf does.
	callChain []CallChainEntry
}

func (e *traceEncoder) sample(s testSample) *traceEncoder {
	var b []byte
	b = appendVarint(b, 1, s.timeNS)
	b = appendVarint(b, 2, uint64(int64(s.threadID)))
	for i := len(s.callChain) - 1; i >= 0; i-- {
		c := s.callChain[i]
		var entry []byte
		entry = appendVarint(entry, 1, c.VAddrInFile)
		entry = appendVarint(entry, 2, uint64(c.FileID))
		entry = appendVarint(entry, 3, uint64(int64(c.SymbolID)))
		entry = appendVarint(entry, 4, uint64(c.ExecutionType))
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	b = appendVarint(b, 4, s.eventCount)
	b = appendVarint(b, 5, uint64(s.eventTypeID))
	return e.record(KindSample, b)
}

func (e *traceEncoder) bytes() []byte {
	out := append([]byte(nil), e.buf.Bytes()...)
	return binary.LittleEndian.AppendUint32(out, 0)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func frame(fileID uint32, symbolID int32) CallChainEntry {
	return CallChainEntry{FileID: fileID, SymbolID: symbolID}
}
