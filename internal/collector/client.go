package collector

import (
	"net/http"

	"github.com/pharma-intellect/pharmarag/internal/config"
)

var pooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// userAgentTransport stamps every outbound request with the collector
// identity. NCBI asks clients to identify themselves.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", config.CollectorUserAgent)
	return t.base.RoundTrip(clone)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: userAgentTransport{base: pooledTransport},
	}
}
