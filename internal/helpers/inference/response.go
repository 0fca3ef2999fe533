package inference

import (
	"encoding/json"
	"fmt"
)

// Response is the verbatim answer of the serving endpoint.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Decode(into any) error {
	if err := json.Unmarshal(r.Body, into); err != nil {
		return fmt.Errorf("unable to decode inference response: %w", err)
	}
	return nil
}

// Predictions extracts the prediction rows, accepting both the v1
// {"predictions": [...]} and the v2 {"outputs": [{"data": [...]}]} shapes.
func (r *Response) Predictions() ([][]float64, error) {
	var body struct {
		Predictions json.RawMessage `json:"predictions"`
		Outputs     []struct {
			Name  string    `json:"name"`
			Shape []int     `json:"shape"`
			Data  []float64 `json:"data"`
		} `json:"outputs"`
	}
	if err := r.Decode(&body); err != nil {
		return nil, err
	}

	if len(body.Predictions) > 0 {
		var rows [][]float64
		if err := json.Unmarshal(body.Predictions, &rows); err == nil {
			return rows, nil
		}
		var flat []float64
		if err := json.Unmarshal(body.Predictions, &flat); err != nil {
			return nil, fmt.Errorf("predictions are neither a vector nor a matrix: %w", err)
		}
		return [][]float64{flat}, nil
	}

	if len(body.Outputs) == 0 {
		return nil, fmt.Errorf("inference response has no predictions nor outputs")
	}
	out := body.Outputs[0]
	if len(out.Shape) == 2 && out.Shape[0] > 0 && out.Shape[0]*out.Shape[1] == len(out.Data) {
		rows := make([][]float64, 0, out.Shape[0])
		for i := 0; i < out.Shape[0]; i++ {
			rows = append(rows, out.Data[i*out.Shape[1]:(i+1)*out.Shape[1]])
		}
		return rows, nil
	}
	return [][]float64{out.Data}, nil
}

// Mask extracts the first explanation mask of an AIX explainer response.
func (r *Response) Mask() (any, error) {
	var body struct {
		Explanations struct {
			Masks []any `json:"masks"`
		} `json:"explanations"`
	}
	if err := r.Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Explanations.Masks) == 0 {
		return nil, fmt.Errorf("explain response has no masks")
	}
	return body.Explanations.Masks[0], nil
}
