package theme

import "testing"

func TestSchemeByKind(t *testing.T) {
	tests := []struct {
		kind   ButtonKind
		normal string
		active string
	}{
		{KindWake, "#4287f5", "#3269cc"},
		{KindShutdown, "#f44336", "#d32f2f"},
		{KindStartService, "#4caf50", "#3d8b40"},
		{KindStopService, "#f44336", "#d32f2f"},
		{KindSession, "#673ab7", "#5e34a0"},
		{KindStopSession, "#f44336", "#d32f2f"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			s := Light.Scheme(tt.kind)
			if string(s.Normal) != tt.normal || string(s.Active) != tt.active {
				t.Errorf("Scheme(%s) = %s/%s, want %s/%s", tt.kind, s.Normal, s.Active, tt.normal, tt.active)
			}
			if s.Disabled != Light.Disabled {
				t.Errorf("disabled color = %s, want %s", s.Disabled, Light.Disabled)
			}
		})
	}
}

func TestForDark(t *testing.T) {
	if For(true).Name != "dark" || For(false).Name != "light" {
		t.Error("For picked the wrong palette")
	}
	if Dark.Scheme(KindWake).Disabled != "#555555" {
		t.Error("dark disabled color")
	}
}

func TestStatusColor(t *testing.T) {
	if StatusColor("running") != ColorHealthy {
		t.Error("running should be healthy")
	}
	if StatusColor("unknown") != ColorWarning {
		t.Error("unknown should warn")
	}
	if StatusColor("stopped") != ColorOffline {
		t.Error("stopped should be offline")
	}
}
