package speedscope

import (
	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/simpleperf"
)

const (
	Schema   = "https://www.speedscope.app/file-format-schema.json"
	Exporter = "simpleperf"

	ValueUnitMicroseconds ValueUnit = "microseconds"

	EventTypeOpenFrame  EventType = "O"
	EventTypeCloseFrame EventType = "C"

	ProfileTypeEvented ProfileType = "evented"
)

type (
	Frame struct {
		File          string `json:"file,omitempty"`
		Image         string `json:"image,omitempty"`
		IsApplication bool   `json:"is_application"`
		Name          string `json:"name"`
	}

	Event struct {
		Type  EventType `json:"type"`
		Frame int       `json:"frame"`
		At    uint64    `json:"at"`
	}

	EventedProfile struct {
		EndValue     uint64      `json:"endValue"`
		Events       []Event     `json:"events"`
		IsMainThread bool        `json:"isMainThread"`
		Name         string      `json:"name"`
		StartValue   uint64      `json:"startValue"`
		ThreadID     uint64      `json:"threadID"`
		Type         ProfileType `json:"type"`
		Unit         ValueUnit   `json:"unit"`
	}

	SharedData struct {
		Frames []Frame `json:"frames"`
	}

	EventType   string
	ProfileType string
	ValueUnit   string

	Output struct {
		Schema             string            `json:"$schema"`
		ActiveProfileIndex int               `json:"activeProfileIndex"`
		AndroidClock       string            `json:"androidClock"`
		Exporter           string            `json:"exporter"`
		Metadata           Metadata          `json:"metadata"`
		Profiles           []*EventedProfile `json:"profiles"`
		Shared             SharedData        `json:"shared"`
	}

	Metadata struct {
		AppPackageName    string   `json:"appPackageName,omitempty"`
		EventTypes        []string `json:"eventTypes"`
		LostCount         uint64   `json:"lostCount"`
		SampleCount       uint64   `json:"sampleCount"`
		Tags              []string `json:"tags"`
		ThreadTimeMessage string   `json:"threadTimeMessage,omitempty"`
		Version           uint16   `json:"version"`
	}
)

// FromTrace turns every capture tree of a trace into an evented profile
// measured on clock c. Thread roots are not emitted as frames, they name the
// profile instead. Frames are shared across threads and deduplicated by the
// ID of their model.
func FromTrace(t *simpleperf.Trace, c nodetree.Clock) Output {
	o := Output{
		Schema:       Schema,
		AndroidClock: string(c),
		Exporter:     Exporter,
		Metadata: Metadata{
			AppPackageName:    t.AppPackageName,
			EventTypes:        t.EventTypes,
			LostCount:         t.LostCount,
			SampleCount:       t.SampleCount,
			Tags:              t.Tags,
			ThreadTimeMessage: t.ThreadTimeMessage(),
			Version:           t.Version,
		},
		Profiles: make([]*EventedProfile, 0, len(t.CaptureTrees)),
	}
	frames := make([]Frame, 0)
	frameIndex := make(map[string]int)
	emitEvent := func(p *EventedProfile, et EventType, m nodetree.Model, ts int64) {
		id := m.ID()
		i, ok := frameIndex[id]
		if !ok {
			i = len(frames)
			frameIndex[id] = i
			frames = append(frames, newFrame(m))
		}
		p.Events = append(p.Events, Event{
			Type:  et,
			Frame: i,
			At:    uint64(ts),
		})
	}

	for _, td := range t.Threads() {
		root := t.CaptureTrees[td]
		p := &EventedProfile{
			EndValue:     uint64(root.End(c)),
			Events:       make([]Event, 0),
			IsMainThread: td.IsMainThread,
			Name:         td.Name,
			StartValue:   uint64(root.Start(c)),
			ThreadID:     uint64(td.ID),
			Type:         ProfileTypeEvented,
			Unit:         ValueUnitMicroseconds,
		}
		for _, child := range root.Children {
			emitNode(p, child, c, emitEvent)
		}
		if td.IsMainThread {
			o.ActiveProfileIndex = len(o.Profiles)
		}
		o.Profiles = append(o.Profiles, p)
	}
	o.Shared.Frames = frames
	return o
}

func emitNode(p *EventedProfile, n *nodetree.Node, c nodetree.Clock, emit func(*EventedProfile, EventType, nodetree.Model, int64)) {
	emit(p, EventTypeOpenFrame, n.Model, n.Start(c))
	for _, child := range n.Children {
		emitNode(p, child, c, emit)
	}
	emit(p, EventTypeCloseFrame, n.Model, n.End(c))
}

func newFrame(m nodetree.Model) Frame {
	f := Frame{
		Name:          m.FullName(),
		Image:         nodetree.Package(m),
		IsApplication: nodetree.IsUserCode(m),
	}
	switch v := m.(type) {
	case nodetree.CppFunctionModel:
		f.File = v.FileName
	case nodetree.NoSymbolModel:
		f.File = v.FilePath
	}
	return f
}
