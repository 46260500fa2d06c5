package client

import (
	"errors"
	"fmt"

	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// ErrUnknownLabelKey is returned when parsing a label key that is not
// one of the supported ones.
var ErrUnknownLabelKey = errors.New("unknown label key")

// LabelKey identifies one of the labels reported for each request.
type LabelKey int

const (
	RequestMethod LabelKey = iota
	ServerAddress
	ServerPort
	ErrorType
	ResponseStatus
	ProtocolName
	ProtocolVersion
	URLScheme
	URI

	numLabelKeys
)

var labelKeyTokens = [numLabelKeys]string{
	RequestMethod:   "request_method",
	ServerAddress:   "server_address",
	ServerPort:      "server_port",
	ErrorType:       "error_type",
	ResponseStatus:  "response_status",
	ProtocolName:    "protocol_name",
	ProtocolVersion: "protocol_version",
	URLScheme:       "url_scheme",
	URI:             "uri",
}

// Defaults follow the OpenTelemetry HTTP client semantic conventions:
// https://opentelemetry.io/docs/specs/semconv/http/http-metrics/#http-client
var defaultLabelNames = [numLabelKeys]string{
	RequestMethod:   string(semconv.HTTPRequestMethodKey),
	ServerAddress:   string(semconv.ServerAddressKey),
	ServerPort:      string(semconv.ServerPortKey),
	ErrorType:       string(semconv.ErrorTypeKey),
	ResponseStatus:  string(semconv.HTTPResponseStatusCodeKey),
	ProtocolName:    string(semconv.NetworkProtocolNameKey),
	ProtocolVersion: string(semconv.NetworkProtocolVersionKey),
	URLScheme:       string(semconv.URLSchemeKey),
	URI:             "uri",
}

// LabelKeys returns all the supported label keys.
func LabelKeys() []LabelKey {
	keys := make([]LabelKey, 0, numLabelKeys)
	for k := LabelKey(0); k < numLabelKeys; k++ {
		keys = append(keys, k)
	}
	return keys
}

// String returns the token used for the key in the configuration.
func (k LabelKey) String() string {
	if k < 0 || k >= numLabelKeys {
		return fmt.Sprintf("LabelKey(%d)", int(k))
	}
	return labelKeyTokens[k]
}

// ParseLabelKey returns the key for a configuration token (like `server_port`).
func ParseLabelKey(s string) (LabelKey, error) {
	for k, token := range labelKeyTokens {
		if token == s {
			return LabelKey(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLabelKey, s)
}

// LabelNames holds the names to use for each one of the reported labels.
// It is an immutable value: the zero value uses the default names, and
// a [LabelNamesBuilder] must be used to rename them.
//
// There is no check for different keys being renamed to the same name:
// how colliding names are handled depends on the metrics backend.
type LabelNames struct {
	names [numLabelKeys]string
}

// DefaultLabelNames returns the semantic convention label names.
func DefaultLabelNames() LabelNames {
	return LabelNames{names: defaultLabelNames}
}

// Name returns the name reported for the given key.
func (l LabelNames) Name(k LabelKey) string {
	if k < 0 || k >= numLabelKeys {
		return ""
	}
	if n := l.names[k]; n != "" {
		return n
	}
	return defaultLabelNames[k]
}

// Conflicts returns the names that are used by more than one key.
func (l LabelNames) Conflicts() []string {
	seen := make(map[string]int, numLabelKeys)
	var conflicts []string
	for _, k := range LabelKeys() {
		n := l.Name(k)
		seen[n]++
		if seen[n] == 2 {
			conflicts = append(conflicts, n)
		}
	}
	return conflicts
}

// LabelNamesBuilder allows to rename the reported labels.
type LabelNamesBuilder struct {
	names LabelNames
}

// NewLabelNamesBuilder creates a builder starting with the default names.
func NewLabelNamesBuilder() *LabelNamesBuilder {
	return &LabelNamesBuilder{names: DefaultLabelNames()}
}

// WithLabelName renames the label for the given key. Empty names and
// unknown keys are ignored.
func (b *LabelNamesBuilder) WithLabelName(k LabelKey, name string) *LabelNamesBuilder {
	if name == "" || k < 0 || k >= numLabelKeys {
		return b
	}
	b.names.names[k] = name
	return b
}

// RequestMethodLabel renames the `http.request.method` label.
func (b *LabelNamesBuilder) RequestMethodLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(RequestMethod, name)
}

// ServerAddressLabel renames the `server.address` label.
func (b *LabelNamesBuilder) ServerAddressLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(ServerAddress, name)
}

// ServerPortLabel renames the `server.port` label.
func (b *LabelNamesBuilder) ServerPortLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(ServerPort, name)
}

// ErrorTypeLabel renames the `error.type` label.
func (b *LabelNamesBuilder) ErrorTypeLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(ErrorType, name)
}

// ResponseStatusLabel renames the `http.response.status_code` label.
func (b *LabelNamesBuilder) ResponseStatusLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(ResponseStatus, name)
}

// ProtocolNameLabel renames the `network.protocol.name` label.
func (b *LabelNamesBuilder) ProtocolNameLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(ProtocolName, name)
}

// ProtocolVersionLabel renames the `network.protocol.version` label.
func (b *LabelNamesBuilder) ProtocolVersionLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(ProtocolVersion, name)
}

// URLSchemeLabel renames the `url.scheme` label.
func (b *LabelNamesBuilder) URLSchemeLabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(URLScheme, name)
}

// URILabel renames the `uri` label (only reported when enabled).
func (b *LabelNamesBuilder) URILabel(name string) *LabelNamesBuilder {
	return b.WithLabelName(URI, name)
}

// Build returns a snapshot of the current names: later changes to the
// builder do not affect it.
func (b *LabelNamesBuilder) Build() LabelNames {
	return b.names
}
