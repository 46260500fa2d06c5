package client

import (
	"errors"
	"testing"
)

func TestDefaultLabelNames(t *testing.T) {
	want := map[LabelKey]string{
		RequestMethod:   "http.request.method",
		ServerAddress:   "server.address",
		ServerPort:      "server.port",
		ErrorType:       "error.type",
		ResponseStatus:  "http.response.status_code",
		ProtocolName:    "network.protocol.name",
		ProtocolVersion: "network.protocol.version",
		URLScheme:       "url.scheme",
		URI:             "uri",
	}
	var zero LabelNames
	defaults := DefaultLabelNames()
	for k, n := range want {
		if got := defaults.Name(k); got != n {
			t.Errorf("default name for %s, want: %s, got: %s", k, n, got)
		}
		if got := zero.Name(k); got != n {
			t.Errorf("zero value name for %s, want: %s, got: %s", k, n, got)
		}
	}
	if len(defaults.Conflicts()) != 0 {
		t.Errorf("unexpected conflicts in default names: %v", defaults.Conflicts())
	}
}

func TestLabelNamesBuilder(t *testing.T) {
	b := NewLabelNamesBuilder().
		ServerPortLabel("my_port").
		ProtocolVersionLabel("proto_v").
		URILabel("")
	names := b.Build()

	if got := names.Name(ServerPort); got != "my_port" {
		t.Errorf("server port, want: my_port, got: %s", got)
	}
	if got := names.Name(ProtocolVersion); got != "proto_v" {
		t.Errorf("protocol version, want: proto_v, got: %s", got)
	}
	// the protocol version setter must not touch the protocol name
	if got := names.Name(ProtocolName); got != "network.protocol.name" {
		t.Errorf("protocol name, want: network.protocol.name, got: %s", got)
	}
	// empty names are ignored
	if got := names.Name(URI); got != "uri" {
		t.Errorf("uri, want: uri, got: %s", got)
	}

	// the built names are not affected by later changes
	b.ServerPortLabel("other_port")
	if got := names.Name(ServerPort); got != "my_port" {
		t.Errorf("built names changed after build: %s", got)
	}
	if got := b.Build().Name(ServerPort); got != "other_port" {
		t.Errorf("server port, want: other_port, got: %s", got)
	}
}

func TestLabelNamesBuilderSetters(t *testing.T) {
	names := NewLabelNamesBuilder().
		RequestMethodLabel("a").
		ServerAddressLabel("b").
		ServerPortLabel("c").
		ErrorTypeLabel("d").
		ResponseStatusLabel("e").
		ProtocolNameLabel("f").
		ProtocolVersionLabel("g").
		URLSchemeLabel("h").
		URILabel("i").
		Build()

	want := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	for idx, k := range LabelKeys() {
		if got := names.Name(k); got != want[idx] {
			t.Errorf("name for %s, want: %s, got: %s", k, want[idx], got)
		}
	}
}

func TestLabelNamesConflicts(t *testing.T) {
	names := NewLabelNamesBuilder().
		ServerPortLabel("server.address").
		URILabel("url.scheme").
		Build()
	conflicts := names.Conflicts()
	if len(conflicts) != 2 {
		t.Errorf("want 2 conflicts, got: %v", conflicts)
		return
	}
	if conflicts[0] != "server.address" || conflicts[1] != "url.scheme" {
		t.Errorf("unexpected conflicts: %v", conflicts)
	}
}

func TestParseLabelKey(t *testing.T) {
	for _, k := range LabelKeys() {
		parsed, err := ParseLabelKey(k.String())
		if err != nil {
			t.Errorf("cannot parse %s: %s", k, err.Error())
			continue
		}
		if parsed != k {
			t.Errorf("want: %s, got: %s", k, parsed)
		}
	}

	_, err := ParseLabelKey("server.port")
	if !errors.Is(err, ErrUnknownLabelKey) {
		t.Errorf("want ErrUnknownLabelKey, got: %v", err)
	}
}

func TestLabelKeyOutOfRange(t *testing.T) {
	names := NewLabelNamesBuilder().WithLabelName(numLabelKeys, "foo").Build()
	if got := names.Name(numLabelKeys); got != "" {
		t.Errorf("want empty name for unknown key, got: %s", got)
	}
	if got := LabelKey(-1).String(); got != "LabelKey(-1)" {
		t.Errorf("unexpected string for unknown key: %s", got)
	}
}
