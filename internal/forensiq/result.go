package forensiq

// Outcome is the verdict kind of an evaluation.
type Outcome int

const (
	// OutcomeClear means the provider scored the request at or under the threshold.
	OutcomeClear Outcome = iota
	// OutcomeFlagged means the risk score exceeded the threshold.
	OutcomeFlagged
	// OutcomeUnavailable means no verdict could be obtained. FailOpen on the
	// result tells the pipeline whether to bid anyway.
	OutcomeUnavailable
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeClear:
		return "clear"
	case OutcomeFlagged:
		return "flagged"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the verdict for one Request. It is built fresh per call and
// owned by the caller.
type Result struct {
	Outcome      Outcome `json:"outcome"`
	Source       string  `json:"source"`
	IP           string  `json:"ip"`
	URL          string  `json:"url,omitempty"`
	UserAgent    string  `json:"ua,omitempty"`
	SellerDomain string  `json:"seller"`
	CreativeID   string  `json:"crid,omitempty"`

	// RiskScore is set for Clear and Flagged, nil for Unavailable.
	RiskScore *int `json:"riskScore,omitempty"`
	// ProviderTimeMs is the provider's own processing time.
	ProviderTimeMs int `json:"providerTimeMs,omitempty"`
	// RoundTripMillis is the measured call time, or FallbackLatencyMillis
	// for Unavailable.
	RoundTripMillis int64 `json:"roundTripMillis"`

	// Reason explains an Unavailable outcome.
	Reason string `json:"reason,omitempty"`
	// FailOpen is the configured FailOpenOnError, set only on Unavailable.
	FailOpen bool `json:"failOpen,omitempty"`
}

// Clear reports whether the provider found nothing to flag.
func (r *Result) Clear() bool { return r != nil && r.Outcome == OutcomeClear }

// Flagged reports whether the provider scored the request above threshold.
func (r *Result) Flagged() bool { return r != nil && r.Outcome == OutcomeFlagged }

// Unavailable reports whether the verdict is the provider-unavailable fallback.
func (r *Result) Unavailable() bool { return r != nil && r.Outcome == OutcomeUnavailable }

func newResult(outcome Outcome, req Request) *Result {
	return &Result{
		Outcome:      outcome,
		Source:       Source,
		IP:           req.ClientIP,
		URL:          req.PublisherURL,
		UserAgent:    req.UserAgent,
		SellerDomain: req.SellerDomain,
		CreativeID:   req.CreativeID,
	}
}

// ShouldBid maps the verdict to the bidding decision: bid on Clear, skip on
// Flagged, and follow FailOpen on Unavailable.
func (r *Result) ShouldBid() bool {
	switch {
	case r.Clear():
		return true
	case r.Unavailable():
		return r.FailOpen
	default:
		return false
	}
}
