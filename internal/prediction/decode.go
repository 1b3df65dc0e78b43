package prediction

import (
	"encoding/json"
	"fmt"
)

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func nextKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// decodeOrdered reads a JSON object into model/prediction pairs in wire
// order. A null object yields no pairs. A repeated key keeps its first
// position and takes the later value.
func decodeOrdered(dec *json.Decoder, value func(*json.Decoder) (ModelPrediction, error)) ([]ModelResult, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var out []ModelResult
	index := make(map[string]int)
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return nil, err
		}
		p, err := value(dec)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", key, err)
		}
		if i, dup := index[key]; dup {
			out[i].Prediction = p
			continue
		}
		index[key] = len(out)
		out = append(out, ModelResult{Model: key, Prediction: p})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return out, nil
}
