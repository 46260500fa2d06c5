package client

import (
	"net/http"
	"strconv"
)

// Outcome is a coarse classification of the result of a request.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeInformational
	OutcomeSuccess
	OutcomeRedirection
	OutcomeClientError
	OutcomeServerError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInformational:
		return "INFORMATIONAL"
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeRedirection:
		return "REDIRECTION"
	case OutcomeClientError:
		return "CLIENT_ERROR"
	case OutcomeServerError:
		return "SERVER_ERROR"
	}
	return "UNKNOWN"
}

// IsError tells if the outcome should be reported as an error.
func (o Outcome) IsError() bool {
	return o == OutcomeClientError || o == OutcomeServerError || o == OutcomeUnknown
}

// OutcomeFromStatus classifies a status code. Codes outside
// the 100-599 range are UNKNOWN.
func OutcomeFromStatus(code int) Outcome {
	switch {
	case code >= 100 && code < 200:
		return OutcomeInformational
	case code >= 200 && code < 300:
		return OutcomeSuccess
	case code >= 300 && code < 400:
		return OutcomeRedirection
	case code >= 400 && code < 500:
		return OutcomeClientError
	case code >= 500 && code < 600:
		return OutcomeServerError
	}
	return OutcomeUnknown
}

// ErrorClassification selects the value reported under the error
// type label.
type ErrorClassification int

const (
	// ErrorTypeFromStatus reports the status code for 4xx and 5xx
	// responses, and the error message when no response was received.
	ErrorTypeFromStatus ErrorClassification = iota
	// ErrorTypeFromOutcome reports the outcome (CLIENT_ERROR, SERVER_ERROR
	// or UNKNOWN) for failed requests.
	ErrorTypeFromOutcome
)

// outcome holds the data extracted from the result of a request.
type outcome struct {
	hasResponse bool
	status      string
	errorType   string // empty when the request is not considered failed
	bucket      Outcome
	bodySize    int64
}

func newOutcome(resp *http.Response, err error, errClass ErrorClassification) outcome {
	if err != nil || resp == nil {
		o := outcome{bucket: OutcomeUnknown}
		switch {
		case errClass == ErrorTypeFromOutcome:
			o.errorType = o.bucket.String()
		case err != nil:
			o.errorType = err.Error()
		default:
			o.errorType = "no response"
		}
		return o
	}

	o := outcome{
		hasResponse: true,
		status:      strconv.Itoa(resp.StatusCode),
		bucket:      OutcomeFromStatus(resp.StatusCode),
		bodySize:    responseBodySize(resp),
	}
	if o.bucket == OutcomeClientError || o.bucket == OutcomeServerError {
		if errClass == ErrorTypeFromOutcome {
			o.errorType = o.bucket.String()
		} else {
			o.errorType = o.status
		}
	} else if errClass == ErrorTypeFromOutcome && o.bucket == OutcomeUnknown {
		o.errorType = o.bucket.String()
	}
	return o
}

// responseBodySize only uses the Content-Length provided by the server:
// waiting to read the full body would add latency to the call, so
// chunked (or unsized) responses are reported as 0.
func responseBodySize(resp *http.Response) int64 {
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return 0
}
