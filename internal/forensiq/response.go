package forensiq

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// Score holds the fields read from a provider response.
type Score struct {
	// RiskScore is the provider's fraud confidence; higher is riskier.
	RiskScore int `json:"riskScore"`
	// TimeMs is the provider-reported processing time. Informational only.
	TimeMs int `json:"timeMs"`
}

// ParseResponse extracts riskScore and timeMs from a provider body. Both must
// be present as integral JSON numbers.
func ParseResponse(body []byte) (Score, error) {
	if !gjson.ValidBytes(body) {
		return Score{}, &MalformedResponseError{Reason: "body is not valid JSON", Body: snippet(body)}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Score{}, &MalformedResponseError{Reason: "body is not a JSON object", Body: snippet(body)}
	}

	risk, err := intField(root, "riskScore")
	if err != nil {
		return Score{}, &MalformedResponseError{Reason: err.Error(), Body: snippet(body)}
	}
	took, err := intField(root, "timeMs")
	if err != nil {
		return Score{}, &MalformedResponseError{Reason: err.Error(), Body: snippet(body)}
	}
	return Score{RiskScore: risk, TimeMs: took}, nil
}

func intField(root gjson.Result, name string) (int, error) {
	v := root.Get(name)
	if !v.Exists() {
		return 0, fmt.Errorf("field %s is missing", name)
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("field %s is not numeric: %s", name, v.Raw)
	}
	if v.Num != math.Trunc(v.Num) || v.Num > math.MaxInt32 || v.Num < math.MinInt32 {
		return 0, fmt.Errorf("field %s is not an integer: %s", name, v.Raw)
	}
	return int(v.Num), nil
}
