package lura

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/luraproject/lura/v2/config"
	"github.com/luraproject/lura/v2/logging"
	transport "github.com/luraproject/lura/v2/transport/http/client"

	kconfig "github.com/krakend/krakend-httpclient-metrics/config"
	"github.com/krakend/krakend-httpclient-metrics/exporter"
	"github.com/krakend/krakend-httpclient-metrics/state"
)

type testState struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
}

func newTestState() *testState {
	reader := sdkmetric.NewManualReader()
	return &testState{
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		reader:   reader,
	}
}

func (s *testState) Meter() metric.Meter {
	return s.provider.Meter("io.krakend.httpclient-metrics-test")
}

func (s *testState) MeterProvider() metric.MeterProvider {
	return s.provider
}

func (*testState) Shutdown(_ context.Context) {}

func (s *testState) getter() state.OTEL {
	return s
}

func (s *testState) durationPoints(t *testing.T) []metricdata.HistogramDataPoint[float64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("cannot collect metrics: %s", err.Error())
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.client.request.duration" {
				continue
			}
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok {
				return h.DataPoints
			}
		}
	}
	return nil
}

func newBackend(serverURL string) *config.Backend {
	return &config.Backend{
		URLPattern:     "/users/{{.Id}}?a=1",
		ParentEndpoint: "/api/users/{{.Id}}",
		Host:           []string{serverURL},
		Method:         http.MethodGet,
	}
}

func TestHTTPRequestExecutorFromConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	s := newTestState()
	opts := &kconfig.ClientMetricOpts{
		StaticAttributes: kconfig.Attributes{{Key: "env", Value: "test"}},
	}
	opts.UnsetFieldsToDefaults()

	exec := HTTPRequestExecutorFromConfig(transport.NewHTTPClient, newBackend(server.URL),
		opts, nil, s.getter, logging.NoOp)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/users/1", nil)
	resp, err := exec(context.Background(), req)
	if err != nil {
		t.Errorf("unexpected error: %s", err.Error())
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	points := s.durationPoints(t)
	if len(points) != 1 {
		t.Errorf("want 1 data point, got: %d", len(points))
		return
	}
	attrs := points[0].Attributes
	for k, want := range map[string]string{
		"krakend.endpoint":          "/api/users/{id}",
		"url.pattern":               "/users/{id}",
		"env":                       "test",
		"http.response.status_code": "200",
	} {
		v, ok := attrs.Value(attribute.Key(k))
		if !ok {
			t.Errorf("missing label %s", k)
			continue
		}
		if v.AsString() != want {
			t.Errorf("label %s, want: %s, got: %s", k, want, v.AsString())
		}
	}
}

func TestInstrumentedHTTPClientFactorySkipped(t *testing.T) {
	s := newTestState()
	called := 0
	cf := func(_ context.Context) *http.Client {
		called++
		return &http.Client{}
	}
	backend := newBackend("http://localhost:1")

	for _, tc := range []struct {
		name      string
		opts      *kconfig.ClientMetricOpts
		skipPaths []string
	}{
		{"skip path", nil, []string{"/api/users/{{.Id}}"}},
		{"disabled", &kconfig.ClientMetricOpts{DisableMetrics: true}, nil},
		{"bad config", &kconfig.ClientMetricOpts{LabelNames: map[string]string{"foo": "bar"}}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			instrumented := InstrumentedHTTPClientFactory(cf, backend, tc.opts, tc.skipPaths,
				s.getter, logging.NoOp)
			c := instrumented(context.Background())
			if c.Transport != nil {
				t.Errorf("the client should not be instrumented")
			}
		})
	}
	if called != 3 {
		t.Errorf("the original factory should be used, called: %d", called)
	}
}

func TestInstrumentedHTTPClientFactoryNilState(t *testing.T) {
	cf := func(_ context.Context) *http.Client {
		return &http.Client{}
	}
	nilGetter := func() state.OTEL { return nil }
	instrumented := InstrumentedHTTPClientFactory(cf, newBackend("http://localhost:1"), nil, nil,
		nilGetter, nil)
	if c := instrumented(context.Background()); c.Transport == nil {
		t.Errorf("the client should be instrumented with the global meter")
	}
}

type manualExporter struct {
	reader *sdkmetric.ManualReader
}

func (e manualExporter) MetricReader(_ time.Duration) sdkmetric.Reader {
	return e.reader
}

func (manualExporter) MetricDefaultReporting() bool {
	return true
}

// setGlobals stores a global state reading with a manual reader, and the
// provided config. The returned function restores the unset globals.
func setGlobals(t *testing.T, cfgData *kconfig.ConfigData) (*testState, func()) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	s, err := state.NewWithVersion("test", &state.OTELStateConfig{MetricProviders: []string{"manual"}},
		"0.0.1", map[string]exporter.MetricReader{"manual": manualExporter{reader: reader}})
	if err != nil {
		t.Fatalf("cannot create the state: %s", err.Error())
	}
	state.SetGlobalState(s)
	state.SetGlobalConfig(state.NewConfig(cfgData))
	return &testState{reader: reader}, func() {
		s.Shutdown(context.Background())
		state.SetGlobalState(nil)
		state.SetGlobalConfig(nil)
	}
}

func TestGlobalHTTPRequestExecutor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	ts, restore := setGlobals(t, &kconfig.ConfigData{
		Client: &kconfig.ClientMetricOpts{
			StaticAttributes: kconfig.Attributes{{Key: "env", Value: "test"}},
		},
	})
	defer restore()

	backend := newBackend(server.URL)
	backend.ExtraConfig = config.ExtraConfig{
		kconfig.Namespace: map[string]interface{}{
			"client": map[string]interface{}{
				"static_attributes": []interface{}{
					map[string]interface{}{"key": "tier", "value": "gold"},
				},
			},
		},
	}

	exec := GlobalHTTPRequestExecutor(transport.NewHTTPClient, backend, logging.NoOp)
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/users/1", nil)
	resp, err := exec(context.Background(), req)
	if err != nil {
		t.Errorf("unexpected error: %s", err.Error())
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	points := ts.durationPoints(t)
	if len(points) != 1 {
		t.Errorf("want 1 data point, got: %d", len(points))
		return
	}
	attrs := points[0].Attributes
	if v, ok := attrs.Value("tier"); !ok || v.AsString() != "gold" {
		t.Errorf("the backend override should be used, got: %v", attrs.ToSlice())
	}
	if _, ok := attrs.Value("env"); ok {
		t.Errorf("the service level attributes should be replaced, got: %v", attrs.ToSlice())
	}
	if v, ok := attrs.Value("krakend.endpoint"); !ok || v.AsString() != "/api/users/{id}" {
		t.Errorf("missing the endpoint label, got: %v", attrs.ToSlice())
	}
}

func TestGlobalHTTPClientFactorySkipped(t *testing.T) {
	cf := func(_ context.Context) *http.Client {
		return &http.Client{}
	}
	backend := newBackend("http://localhost:1")

	// not registered
	if c := GlobalHTTPClientFactory(cf, backend, nil)(context.Background()); c.Transport != nil {
		t.Errorf("the client should not be instrumented without a global config")
	}

	_, restore := setGlobals(t, &kconfig.ConfigData{
		SkipPaths: []string{"/api/users/{{.Id}}"},
	})
	defer restore()

	if c := GlobalHTTPClientFactory(cf, backend, nil)(context.Background()); c.Transport != nil {
		t.Errorf("the backends of a skipped endpoint should not be instrumented")
	}

	backend.ParentEndpoint = "/api/other"
	if c := GlobalHTTPClientFactory(cf, backend, nil)(context.Background()); c.Transport == nil {
		t.Errorf("the client should be instrumented")
	}
}
