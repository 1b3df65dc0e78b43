package refinement

import (
	"sort"
	"strings"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/prediction"
	"medica-diagnosis/internal/validation"
)

// TopK is how many hypothesis diseases drive a refinement round.
const TopK = 3

// Index maps a disease to its associated symptoms.
type Index interface {
	SymptomsFor(disease string) []string
}

// Engine derives refinement candidates and second-round requests from a
// previous prediction. It holds no per-session state.
type Engine struct {
	index Index
}

func NewEngine(index Index) *Engine {
	return &Engine{index: index}
}

// TopDiseases concatenates every model's top predictions in model order and
// keeps the first TopK disease names. This is positional, not a ranking by
// confidence.
func TopDiseases(res *prediction.Result) []string {
	if res == nil {
		return nil
	}
	var out []string
	for _, m := range res.Models {
		for _, tp := range m.Prediction.TopPredictions {
			if len(out) == TopK {
				return out
			}
			out = append(out, tp.Disease)
		}
	}
	return out
}

// Candidates is the deduplicated union of the indexed symptoms of the given
// diseases, sorted. Diseases missing from the index contribute nothing.
func (e *Engine) Candidates(diseases []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range diseases {
		for _, s := range e.index.SymptomsFor(d) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// CandidatesFor is Candidates over TopDiseases(res).
func (e *Engine) CandidatesFor(res *prediction.Result) []string {
	return e.Candidates(TopDiseases(res))
}

// Selection validates a user selection against the candidates of res and
// returns it with duplicates removed, in the order given.
func (e *Engine) Selection(res *prediction.Result, selected []string) ([]string, error) {
	allowed := make(map[string]struct{})
	for _, c := range e.CandidatesFor(res) {
		allowed[c] = struct{}{}
	}

	seen := make(map[string]struct{}, len(selected))
	var out, invalid []string
	for _, s := range selected {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := allowed[s]; !ok {
			invalid = append(invalid, s)
			continue
		}
		out = append(out, s)
	}
	if len(invalid) > 0 {
		return nil, &validation.ValidationError{
			Field:   "selected_symptoms",
			Message: "Not a refinement candidate: " + strings.Join(invalid, ", "),
		}
	}
	return out, nil
}

// MergeSymptoms appends the selection to the original symptom text and
// splits the result back into trimmed, non-empty entries.
func MergeSymptoms(original string, selection []string) []string {
	joined := original
	if len(selection) > 0 {
		joined += ", " + strings.Join(selection, ", ")
	}
	var out []string
	for _, s := range strings.Split(joined, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildRequest assembles the refinement-round request from the first-round
// request. An empty selection is rejected and never sent.
func BuildRequest(first agent.PredictRequest, selection, topDiseases []string) (agent.RepredictRequest, error) {
	if len(selection) == 0 {
		return agent.RepredictRequest{}, &validation.ValidationError{
			Field:   "selected_symptoms",
			Message: "Select at least one symptom to refine the prediction",
		}
	}
	return agent.RepredictRequest{
		Symptoms:         MergeSymptoms(first.Symptoms, selection),
		SelectedSymptoms: append([]string(nil), selection...),
		TopDiseases:      append([]string(nil), topDiseases...),
		Vitals:           first.Vitals,
		Model:            agent.EnsembleModel,
	}, nil
}
