package prediction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Round identifies which oracle endpoint produced a response. The rounds
// differ only in how an empty model mapping is treated.
type Round int

const (
	RoundPredict Round = iota
	RoundRepredict
)

func (r Round) String() string {
	if r == RoundRepredict {
		return "repredict"
	}
	return "predict"
}

func (r Round) defaultFailure() string {
	if r == RoundRepredict {
		return "Re-predict failed"
	}
	return "Failed to get prediction"
}

// ErrNoPredictions is returned for a syntactically valid /repredict response
// that carries no models.
var ErrNoPredictions = errors.New("no predictions returned")

// OracleError is a failure reported by, or while talking to, the prediction
// oracle. Message is shown to the user verbatim.
type OracleError struct {
	Status  int
	Message string
}

func (e *OracleError) Error() string {
	return e.Message
}

// wireModel is one entry of the oracle's "result" mapping.
type wireModel struct {
	Prediction     string             `json:"prediction"`
	Confidence     float64            `json:"confidence"`
	TopPredictions []SinglePrediction `json:"top_predictions"`
}

type envelope struct {
	models []ModelResult
	err    string
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := expectDelim(dec, '{'); err != nil {
		return env, err
	}
	for dec.More() {
		key, err := nextKey(dec)
		if err != nil {
			return env, err
		}
		switch key {
		case "result":
			env.models, err = decodeOrdered(dec, decodeWireModel)
		case "error":
			env.err, err = decodeErrorField(dec)
		default:
			err = skipValue(dec)
		}
		if err != nil {
			return env, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return env, err
	}
	if _, err := dec.Token(); err == nil {
		return env, fmt.Errorf("trailing data after response object")
	}
	return env, nil
}

func decodeWireModel(dec *json.Decoder) (ModelPrediction, error) {
	var w wireModel
	if err := dec.Decode(&w); err != nil {
		return ModelPrediction{}, err
	}
	return ModelPrediction{
		Disease:        w.Prediction,
		Confidence:     w.Confidence,
		TopPredictions: w.TopPredictions,
	}, nil
}

// decodeErrorField accepts a string, null, or any other JSON value, which is
// kept as raw text.
func decodeErrorField(dec *json.Decoder) (string, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	if string(raw) == "null" {
		return "", nil
	}
	return string(raw), nil
}

// Normalize turns a raw oracle response into a Result. It is a pure function
// of its inputs.
func Normalize(round Round, status int, body []byte) (*Result, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, &OracleError{
			Status:  status,
			Message: fmt.Sprintf("Server returned status %d and non-JSON response", status),
		}
	}

	if status < 200 || status > 299 {
		msg := env.err
		if strings.TrimSpace(msg) == "" {
			msg = round.defaultFailure()
		}
		return nil, &OracleError{Status: status, Message: msg}
	}
	if env.err != "" {
		return nil, &OracleError{Status: status, Message: env.err}
	}

	res := &Result{Models: env.models}
	if len(env.models) == 0 {
		if round == RoundRepredict {
			return nil, ErrNoPredictions
		}
		res.Models = []ModelResult{}
		return res, nil
	}
	primary := env.models[0].Prediction
	res.PredictedDisease = primary.Disease
	res.Confidence = primary.Confidence
	return res, nil
}
