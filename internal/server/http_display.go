package server

import (
	"fmt"
	"io"
)

// displayServerInfo prints the endpoint list and the active limits
func (s *Server) displayServerInfo(w io.Writer) {
	scheme := "http"
	if s.TLSConfig.Enabled() {
		scheme = "https"
	}
	fmt.Fprintf(w, "NeuroMatch %s listening on %s://%s:%s\n", s.Version, scheme, s.Host, s.Port)

	fmt.Fprintln(w, "Available endpoints:")
	fmt.Fprintln(w, "  GET  /health         - Health check")
	fmt.Fprintln(w, "  GET  /stats          - Cache, rate limit and generator statistics")
	fmt.Fprintln(w, "  POST /report         - Full career report as one JSON document")
	fmt.Fprintln(w, "  POST /report/stream  - Career report as Server-Sent Events")
	fmt.Fprintln(w, "  POST /extract        - Extract text from an uploaded .txt, .md or .docx")
	fmt.Fprintln(w, "  POST /export         - Download a report as markdown, text or JSON")
	fmt.Fprintln(w, "  POST /jobs/search    - Search and score job postings")

	if len(s.APIKeys) > 0 {
		fmt.Fprintf(w, "API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
	} else {
		fmt.Fprintln(w, "API authentication: DISABLED (no API keys configured)")
	}

	if s.MaxRequestSize > 0 {
		fmt.Fprintf(w, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(w, "Request size limit: DISABLED")
	}

	if s.RateLimiter != nil {
		fmt.Fprintf(w, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	} else {
		fmt.Fprintln(w, "Rate limiting: DISABLED")
	}
}
