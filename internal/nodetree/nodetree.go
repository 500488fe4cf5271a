package nodetree

import "github.com/goccy/go-json"

// Clock selects one of the two time axes a Node is measured on.
type Clock string

const (
	// GlobalClock is wall-clock time, always present.
	GlobalClock Clock = "Global"
	// ThreadClock is on-CPU time of the thread.
	ThreadClock Clock = "Thread"
)

type (
	// Node is a single function activation. Times are in microseconds and an
	// end time of 0 means the activation has not been closed yet.
	Node struct {
		Model       Model   `json:"model"`
		Depth       int     `json:"depth"`
		StartGlobal int64   `json:"start_global_us"`
		EndGlobal   int64   `json:"end_global_us"`
		StartThread int64   `json:"start_thread_us"`
		EndThread   int64   `json:"end_thread_us"`
		Parent      *Node   `json:"-"`
		Children    []*Node `json:"children,omitempty"`
	}
)

// NewRoot returns a depth 0 node without a parent.
func NewRoot(m Model, startGlobal, startThread int64) *Node {
	return &Node{
		Model:       m,
		StartGlobal: startGlobal,
		StartThread: startThread,
	}
}

// AddChild appends a new open node under n and returns it.
func (n *Node) AddChild(m Model, startGlobal, startThread int64) *Node {
	c := &Node{
		Model:       m,
		Depth:       n.Depth + 1,
		StartGlobal: startGlobal,
		StartThread: startThread,
		Parent:      n,
	}
	n.Children = append(n.Children, c)
	return c
}

// Close sets the end of the activation on both clocks.
func (n *Node) Close(endGlobal, endThread int64) {
	n.EndGlobal = endGlobal
	n.EndThread = endThread
}

func (n *Node) IsOpen() bool {
	return n.EndGlobal == 0
}

func (n *Node) Start(c Clock) int64 {
	if c == ThreadClock {
		return n.StartThread
	}
	return n.StartGlobal
}

func (n *Node) End(c Clock) int64 {
	if c == ThreadClock {
		return n.EndThread
	}
	return n.EndGlobal
}

func (n *Node) Duration(c Clock) int64 {
	return n.End(c) - n.Start(c)
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// MarshalJSON adds the model kind next to the model, since variants with the
// same fields can't be told apart otherwise.
func (n *Node) MarshalJSON() ([]byte, error) {
	type node Node
	var kind Kind
	if n.Model != nil {
		kind = n.Model.Kind()
	}
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		node
	}{
		Kind: kind,
		node: node(*n),
	})
}

// Root follows parent references up to the root of the tree.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}
