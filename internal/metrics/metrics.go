package metrics

import (
	"sort"

	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/quantile"
)

type FunctionsMetadata struct {
	MaxVal   int64
	WorstID  string
	Examples []string
}

// Aggregator merges the functions of several traces. IDs name the trace the
// functions were collected from.
type Aggregator struct {
	MaxUniqueFunctions uint
	MaxNumOfExamples   uint
	CallTreeFunctions  map[uint64]nodetree.CallTreeFunction
	FunctionsMetadata  map[uint64]FunctionsMetadata
}

type FunctionMetrics struct {
	Name        string   `json:"name"`
	Package     string   `json:"package"`
	Fingerprint uint64   `json:"fingerprint"`
	InApp       bool     `json:"in_app"`
	IsNative    bool     `json:"is_native"`
	P75         float64  `json:"p75"`
	P95         float64  `json:"p95"`
	P99         float64  `json:"p99"`
	Avg         float64  `json:"avg"`
	Sum         int64    `json:"sum"`
	Count       uint64   `json:"count"`
	Worst       string   `json:"worst"`
	Examples    []string `json:"examples"`
}

func NewAggregator(maxUniqueFunctions uint, maxNumOfExamples uint) Aggregator {
	return Aggregator{
		MaxUniqueFunctions: maxUniqueFunctions,
		MaxNumOfExamples:   maxNumOfExamples,
		CallTreeFunctions:  make(map[uint64]nodetree.CallTreeFunction),
		FunctionsMetadata:  make(map[uint64]FunctionsMetadata),
	}
}

func (ma *Aggregator) AddFunctions(functions []nodetree.CallTreeFunction, ID string) {
	for _, f := range functions {
		fn, ok := ma.CallTreeFunctions[f.Fingerprint]
		if !ok {
			f.SelfTimesUS = append([]int64(nil), f.SelfTimesUS...)
			ma.CallTreeFunctions[f.Fingerprint] = f
			ma.FunctionsMetadata[f.Fingerprint] = FunctionsMetadata{
				MaxVal:   f.SumSelfTimeUS,
				WorstID:  ID,
				Examples: []string{ID},
			}
			continue
		}
		fn.SelfTimesUS = append(fn.SelfTimesUS, f.SelfTimesUS...)
		fn.SumSelfTimeUS += f.SumSelfTimeUS
		ma.CallTreeFunctions[f.Fingerprint] = fn

		funcMetadata := ma.FunctionsMetadata[f.Fingerprint]
		if f.SumSelfTimeUS > funcMetadata.MaxVal {
			funcMetadata.MaxVal = f.SumSelfTimeUS
			funcMetadata.WorstID = ID
		}
		if len(funcMetadata.Examples) < int(ma.MaxNumOfExamples) {
			funcMetadata.Examples = append(funcMetadata.Examples, ID)
		}
		ma.FunctionsMetadata[f.Fingerprint] = funcMetadata
	}
}

// ToMetrics returns the functions with the most self time first. Functions
// with the same self time are sorted by name.
func (ma *Aggregator) ToMetrics() []FunctionMetrics {
	metrics := make([]FunctionMetrics, 0, len(ma.CallTreeFunctions))

	for _, f := range ma.CallTreeFunctions {
		q := quantile.New(f.SelfTimesUS)
		metadata := ma.FunctionsMetadata[f.Fingerprint]
		metrics = append(metrics, FunctionMetrics{
			Name:        f.Function,
			Package:     f.Package,
			Fingerprint: f.Fingerprint,
			InApp:       f.InApp,
			IsNative:    f.IsNative,
			P75:         q.Percentile(0.75),
			P95:         q.Percentile(0.95),
			P99:         q.Percentile(0.99),
			Avg:         float64(f.SumSelfTimeUS) / float64(len(f.SelfTimesUS)),
			Sum:         f.SumSelfTimeUS,
			Count:       uint64(len(f.SelfTimesUS)),
			Worst:       metadata.WorstID,
			Examples:    metadata.Examples,
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		if metrics[i].Sum != metrics[j].Sum {
			return metrics[i].Sum > metrics[j].Sum
		}
		return metrics[i].Name < metrics[j].Name
	})
	if ma.MaxUniqueFunctions > 0 && len(metrics) > int(ma.MaxUniqueFunctions) {
		metrics = metrics[:ma.MaxUniqueFunctions]
	}
	return metrics
}
