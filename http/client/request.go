package client

import (
	"net/http"
	"strconv"
)

// requestSnapshot holds the request data we need to report, captured
// before the request is handed to the next step: after that, there is
// no guarantee the request can be safely read.
type requestSnapshot struct {
	method          string
	scheme          string
	host            string // empty when not available
	port            string // empty when not available
	protocolVersion string // empty when not available
	uri             string // only filled when the uri label is enabled
	bodySize        int64
}

func newRequestSnapshot(req *http.Request, withURI bool) requestSnapshot {
	s := requestSnapshot{
		method:          requestMethod(req.Method),
		protocolVersion: protocolVersion(req.ProtoMajor, req.ProtoMinor),
		bodySize:        requestBodySize(req),
	}
	if req.URL == nil {
		return s
	}
	s.scheme = urlScheme(req.URL.Scheme)
	s.host = req.URL.Hostname()
	s.port = serverPort(req.URL.Port(), s.scheme)
	if withURI {
		s.uri = requestURI(req.URL.EscapedPath(), req.URL.RawQuery)
	}
	return s
}

func requestMethod(m string) string {
	switch m {
	case http.MethodGet, "":
		// the http client sends an empty method as a GET
		return http.MethodGet
	case http.MethodPost:
		return http.MethodPost
	case http.MethodPut:
		return http.MethodPut
	case http.MethodDelete:
		return http.MethodDelete
	case http.MethodHead:
		return http.MethodHead
	case http.MethodOptions:
		return http.MethodOptions
	case http.MethodConnect:
		return http.MethodConnect
	case http.MethodPatch:
		return http.MethodPatch
	case http.MethodTrace:
		return http.MethodTrace
	}
	return m
}

func urlScheme(s string) string {
	switch s {
	case "http":
		return "http"
	case "https":
		return "https"
	}
	return s
}

// serverPort returns the explicit port if it is a valid one, or the
// well known port for the scheme.
func serverPort(explicit string, scheme string) string {
	if explicit != "" {
		p, err := strconv.ParseUint(explicit, 10, 16)
		if err != nil {
			return ""
		}
		return strconv.FormatUint(p, 10)
	}
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}

func protocolVersion(major, minor int) string {
	switch {
	case major == 0 && minor == 9:
		return "0.9"
	case major == 1 && minor == 0:
		return "1.0"
	case major == 1 && minor == 1:
		return "1.1"
	case major == 2 && minor == 0:
		return "2"
	case major == 3 && minor == 0:
		return "3"
	}
	return ""
}

// requestBodySize uses the Content-Length of the request: the body
// is never read to find out its size. For bodies created from an
// in memory buffer, the http package already fills it.
func requestBodySize(req *http.Request) int64 {
	if req.Body == nil || req.Body == http.NoBody {
		return 0
	}
	if req.ContentLength > 0 {
		return req.ContentLength
	}
	return 0
}

func requestURI(path, rawQuery string) string {
	if path == "" {
		path = "/"
	}
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}
