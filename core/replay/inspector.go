package replay

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/lexlapax/rs-llmspell-sub006/core/hooks"
)

// Inspector provides read-only navigation and analysis over a captured hook
// execution timeline, independent of any live Session.
type Inspector struct {
	timeline []hooks.CapturedHookExecution
}

// NewInspector builds an Inspector over executions, sorted by Timestamp.
func NewInspector(executions []hooks.CapturedHookExecution) *Inspector {
	sorted := make([]hooks.CapturedHookExecution, len(executions))
	copy(sorted, executions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	return &Inspector{timeline: sorted}
}

// Len returns the number of executions in the timeline.
func (i *Inspector) Len() int { return len(i.timeline) }

// At returns the execution at the given timeline index.
func (i *Inspector) At(index int) (hooks.CapturedHookExecution, bool) {
	if index < 0 || index >= len(i.timeline) {
		return hooks.CapturedHookExecution{}, false
	}
	return i.timeline[index], true
}

// StateAt returns the latest captured execution at or before ts, i.e. the
// state of the replay timeline as of that moment.
func (i *Inspector) StateAt(ts time.Time) (hooks.CapturedHookExecution, bool) {
	var found hooks.CapturedHookExecution
	var ok bool
	for _, exec := range i.timeline {
		if exec.Timestamp.After(ts) {
			break
		}
		found, ok = exec, true
	}
	return found, ok
}

// Diff is a human- and machine-readable comparison between two points on
// the timeline.
type Diff struct {
	FromTimestamp    time.Time
	ToTimestamp      time.Time
	ContextChanged   bool
	ResultChanged    bool
	MetadataChanged  bool
	Summary          string
}

// Compare diffs the captured state at t1 against t2 (t1 should precede t2,
// but Compare does not require it).
func (i *Inspector) Compare(t1, t2 time.Time) (Diff, error) {
	from, ok1 := i.StateAt(t1)
	to, ok2 := i.StateAt(t2)
	if !ok1 || !ok2 {
		return Diff{}, fmt.Errorf("replay: no captured state at one or both timestamps")
	}

	ctxChanged := !bytesEqual(from.SerializedContext, to.SerializedContext)
	resultChanged := !bytesEqual(from.SerializedResult, to.SerializedResult)
	metaChanged := !reflect.DeepEqual(from.Metadata, to.Metadata)

	summary := "no observable change"
	switch {
	case ctxChanged && resultChanged:
		summary = "both context and result changed"
	case ctxChanged:
		summary = "context changed"
	case resultChanged:
		summary = "result changed"
	case metaChanged:
		summary = "only metadata changed"
	}

	return Diff{
		FromTimestamp:   from.Timestamp,
		ToTimestamp:     to.Timestamp,
		ContextChanged:  ctxChanged,
		ResultChanged:   resultChanged,
		MetadataChanged: metaChanged,
		Summary:         summary,
	}, nil
}

// ErrorRecord is one failed or halted captured execution, as seen by
// AnalyzeErrors.
type ErrorRecord struct {
	HookID    string
	Timestamp time.Time
	ErrorType string
}

// ErrorAnalysis summarizes failures across the timeline.
type ErrorAnalysis struct {
	TotalErrors      int
	CountByType      map[string]int
	CountByHookID    map[string]int
	FirstSeen        time.Time
	LastSeen         time.Time
	MostCommonType   string
	ErrorsPerHour    float64
}

// AnalyzeErrors scans the timeline's captured results for Halt/Error
// outcomes and aggregates them. classify extracts an error "type" label
// from a captured result (e.g. the Reason string, or a coarser category);
// callers control the taxonomy since captured results are opaque JSON here.
func (i *Inspector) AnalyzeErrors(classify func(hooks.CapturedHookExecution) (errType string, isError bool)) ErrorAnalysis {
	analysis := ErrorAnalysis{
		CountByType:   make(map[string]int),
		CountByHookID: make(map[string]int),
	}

	var records []ErrorRecord
	for _, exec := range i.timeline {
		errType, isError := classify(exec)
		if !isError {
			continue
		}
		records = append(records, ErrorRecord{HookID: exec.HookID, Timestamp: exec.Timestamp, ErrorType: errType})
		analysis.CountByType[errType]++
		analysis.CountByHookID[exec.HookID]++
	}

	analysis.TotalErrors = len(records)
	if len(records) == 0 {
		return analysis
	}

	analysis.FirstSeen = records[0].Timestamp
	analysis.LastSeen = records[0].Timestamp
	for _, r := range records {
		if r.Timestamp.Before(analysis.FirstSeen) {
			analysis.FirstSeen = r.Timestamp
		}
		if r.Timestamp.After(analysis.LastSeen) {
			analysis.LastSeen = r.Timestamp
		}
	}

	var mostCommon string
	var mostCommonCount int
	for errType, count := range analysis.CountByType {
		if count > mostCommonCount || (count == mostCommonCount && errType < mostCommon) {
			mostCommon, mostCommonCount = errType, count
		}
	}
	analysis.MostCommonType = mostCommon

	span := analysis.LastSeen.Sub(analysis.FirstSeen)
	if span > 0 {
		analysis.ErrorsPerHour = float64(analysis.TotalErrors) / span.Hours()
	}

	return analysis
}

// Bundle is the exportable, structured snapshot of everything the debug
// inspector knows, suitable for handing to an external viewer.
type Bundle struct {
	Timeline []hooks.CapturedHookExecution
	Errors   ErrorAnalysis
}

// Export serializes the current timeline plus an error analysis (using
// classify) as JSON.
func (i *Inspector) Export(classify func(hooks.CapturedHookExecution) (string, bool)) ([]byte, error) {
	bundle := Bundle{Timeline: i.timeline, Errors: i.AnalyzeErrors(classify)}
	return json.Marshal(bundle)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}
