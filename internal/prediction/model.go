package prediction

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type SinglePrediction struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// ModelPrediction is one model's answer. TopPredictions keeps the order the
// oracle sent; it is not assumed to be sorted by confidence, and is left
// out of the JSON when the model sent none.
type ModelPrediction struct {
	Disease        string             `json:"disease"`
	Confidence     float64            `json:"confidence"`
	TopPredictions []SinglePrediction `json:"top_predictions,omitempty"`
}

// ModelResult pairs a model name with its prediction.
type ModelResult struct {
	Model      string
	Prediction ModelPrediction
}

// Result is the canonical prediction shape. Models is ordered as received
// from the oracle, and PredictedDisease/Confidence are copied from the first
// entry.
type Result struct {
	PredictedDisease string
	Confidence       float64
	Models           []ModelResult
}

// Model looks up a model's prediction by name.
func (r *Result) Model(name string) (ModelPrediction, bool) {
	for _, m := range r.Models {
		if m.Model == name {
			return m.Prediction, true
		}
	}
	return ModelPrediction{}, false
}

// MarshalJSON renders all_predictions as an object whose key order follows
// Models.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"predicted_disease":`)
	if err := writeJSON(&buf, r.PredictedDisease); err != nil {
		return nil, err
	}
	buf.WriteString(`,"confidence":`)
	if err := writeJSON(&buf, r.Confidence); err != nil {
		return nil, err
	}
	buf.WriteString(`,"all_predictions":{`)
	for i, m := range r.Models {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, m.Model); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, m.Prediction); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the shape written by MarshalJSON, keeping the key
// order of all_predictions.
func (r *Result) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	var out Result
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return err
		}
		switch key {
		case "predicted_disease":
			err = dec.Decode(&out.PredictedDisease)
		case "confidence":
			err = dec.Decode(&out.Confidence)
		case "all_predictions":
			out.Models, err = decodeOrdered(dec, func(d *json.Decoder) (ModelPrediction, error) {
				var p ModelPrediction
				err := d.Decode(&p)
				return p, err
			})
		default:
			err = skipValue(dec)
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	*r = out
	return nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
