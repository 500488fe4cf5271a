package nodetree

import (
	"hash/fnv"
	"sort"
)

type CallTreeFunction struct {
	Fingerprint   uint64  `json:"fingerprint"`
	Function      string  `json:"function"`
	Package       string  `json:"package"`
	InApp         bool    `json:"in_app"`
	IsNative      bool    `json:"is_native"`
	SelfTimesUS   []int64 `json:"self_times_us"`
	SumSelfTimeUS int64   `json:"sum_self_time_us"`
}

// Fingerprint hashes the package and label of a model.
func Fingerprint(m Model) uint64 {
	h := fnv.New64()
	if p := Package(m); p != "" {
		h.Write([]byte(p))
	} else {
		h.Write([]byte("-"))
	}
	h.Write([]byte(m.ID()))
	return h.Sum64()
}

// CollectFunctions accumulates the self time of every function activation
// below n into results. Synthetic nodes and activations without self time
// are skipped.
func (n *Node) CollectFunctions(c Clock, results map[uint64]CallTreeFunction) {
	var childrenTime int64
	for _, child := range n.Children {
		childrenTime += child.Duration(c)
		child.CollectFunctions(c, results)
	}
	if n.Model == nil || n.Model.Kind() == KindSingleName {
		return
	}
	selfTime := n.Duration(c) - childrenTime
	if selfTime <= 0 {
		return
	}
	fingerprint := Fingerprint(n.Model)
	f, exists := results[fingerprint]
	if !exists {
		f = CallTreeFunction{
			Fingerprint: fingerprint,
			Function:    n.Model.FullName(),
			Package:     Package(n.Model),
			InApp:       IsUserCode(n.Model),
			IsNative:    IsNative(n.Model),
		}
	}
	f.SelfTimesUS = append(f.SelfTimesUS, selfTime)
	f.SumSelfTimeUS += selfTime
	results[fingerprint] = f
}

// TopFunctions returns the functions of all roots sorted by descending total
// self time, limited to max entries when max > 0.
func TopFunctions(roots []*Node, c Clock, max int) []CallTreeFunction {
	results := make(map[uint64]CallTreeFunction)
	for _, r := range roots {
		r.CollectFunctions(c, results)
	}
	functions := make([]CallTreeFunction, 0, len(results))
	for _, f := range results {
		functions = append(functions, f)
	}
	sort.Slice(functions, func(i, j int) bool {
		if functions[i].SumSelfTimeUS != functions[j].SumSelfTimeUS {
			return functions[i].SumSelfTimeUS > functions[j].SumSelfTimeUS
		}
		return functions[i].Function < functions[j].Function
	})
	if max > 0 && len(functions) > max {
		functions = functions[:max]
	}
	return functions
}
