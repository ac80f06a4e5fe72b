package forensiq

import (
	"net/url"
	"strings"
)

// Request carries the bid fields sent to the provider. SellerDomain and
// ClientIP are required; the rest are included only when non-empty.
type Request struct {
	RequestType  string `json:"rt,omitempty"`
	ClientIP     string `json:"ip"`
	PublisherURL string `json:"url,omitempty"`
	UserAgent    string `json:"ua,omitempty"`
	SellerDomain string `json:"seller"`
	CreativeID   string `json:"crid,omitempty"`
}

// Validate reports the first missing required field. Seller is checked
// before IP.
func (r Request) Validate() error {
	if r.SellerDomain == "" {
		return &MissingFieldError{Field: "seller"}
	}
	if r.ClientIP == "" {
		return &MissingFieldError{Field: "ip"}
	}
	return nil
}

// EncodeURL builds the provider check URL for req:
//
//	<endpoint>?ck=<key>&output=JSON&sub=s&rt=..&ip=..&seller=..[&url=..][&ua=..][&cmp=..]&sub=s
//
// Parameter order is fixed, so url.Values (which sorts) is not used. Every
// value is percent-encoded with spaces as %20.
func EncodeURL(endpoint *url.URL, apiKey string, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	rt := req.RequestType
	if rt == "" {
		rt = DefaultRequestType
	}

	var sb strings.Builder
	sb.Grow(256 + len(req.PublisherURL) + len(req.UserAgent))
	sb.WriteString(endpoint.String())
	sb.WriteString("?ck=")
	sb.WriteString(escape(apiKey))
	sb.WriteString("&output=JSON&sub=s")

	appendParam(&sb, "rt", rt)
	appendParam(&sb, "ip", req.ClientIP)
	appendParam(&sb, "seller", req.SellerDomain)
	if req.PublisherURL != "" {
		appendParam(&sb, "url", req.PublisherURL)
	}
	if req.UserAgent != "" {
		appendParam(&sb, "ua", req.UserAgent)
	}
	if req.CreativeID != "" {
		appendParam(&sb, "cmp", req.CreativeID)
	}

	sb.WriteString("&sub=s")
	return sb.String(), nil
}

func appendParam(sb *strings.Builder, key, value string) {
	sb.WriteByte('&')
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(escape(value))
}

// escape is url.QueryEscape with spaces written as %20 rather than '+'.
// url.QueryUnescape reverses both forms.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
