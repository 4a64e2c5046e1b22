package client

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog/log"
)

// debugEnabled reports whether verbose HTTP dumps were requested via env.
func debugEnabled() bool {
	return os.Getenv("SOCIALSENSE_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

// debugTransport wraps an http.RoundTripper to log requests and responses.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if debugEnabled() {
		if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
			log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("request_dump", string(reqDump)).
				Msg("HTTP request")
		}
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		if debugEnabled() {
			log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		}
		return nil, err
	}

	if debugEnabled() {
		if respDump, err := httputil.DumpResponse(resp, true); err == nil {
			log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status_code", resp.StatusCode).
				Str("response_dump", string(respDump)).
				Msg("HTTP response")
		}
	}
	return resp, nil
}
