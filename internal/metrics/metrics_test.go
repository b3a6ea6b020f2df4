package metrics

import (
	"testing"
)

func TestNew_GathersMetrics(t *testing.T) {
	m := New()

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	// Should include at least Go runtime and process collectors.
	if len(families) == 0 {
		t.Fatal("expected non-empty metric families from Gather()")
	}

	// Vec metrics only show up once a label set has been used.
	m.RequestsTotal.WithLabelValues("GET", "200", "/whoami").Inc()
	m.SchemeResolutions.WithLabelValues("https", "HTTP_X_FORWARDED_PROTO").Inc()
	m.AuthorizationParsed.WithLabelValues("basic").Inc()
	m.CookiesIssued.WithLabelValues("issue").Inc()

	families, err = m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := map[string]bool{
		"httpmsg_http_requests_total":          false,
		"httpmsg_scheme_resolutions_total":     false,
		"httpmsg_authorization_parsed_total":   false,
		"httpmsg_cookies_issued_total":         false,
		"httpmsg_transmitted_body_bytes_total": false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %s in gathered metrics", name)
		}
	}
}

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"GET", "GET"},
		{"POST", "POST"},
		{"PUT", "PUT"},
		{"DELETE", "DELETE"},
		{"PATCH", "PATCH"},
		{"HEAD", "HEAD"},
		{"OPTIONS", "OPTIONS"},
		{"FOOBAR", "other"},
		{"get", "other"},
		{"X-CUSTOM", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got := NormalizeMethod(tt.method)
			if got != tt.want {
				t.Errorf("NormalizeMethod(%q) = %q, want %q", tt.method, got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/whoami", "/whoami"},
		{"/session", "/session"},
		{"/session/abc", "/session"},
		{"/healthz", "/healthz"},
		{"/status", "/status"},
		{"/metrics", "/metrics"},
		{"/unknown", "other"},
		{"/", "other"},
		{"/whoamix", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := NormalizePath(tt.path)
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalizeAuthType(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"", "absent"},
		{"Basic", "basic"},
		{"BEARER", "bearer"},
		{"Digest", "digest"},
		{"Negotiate", "negotiate"},
		{"OtherAuth", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			if got := NormalizeAuthType(tt.typ); got != tt.want {
				t.Errorf("NormalizeAuthType(%q) = %q, want %q", tt.typ, got, tt.want)
			}
		})
	}
}
