package profile

import (
	"strings"
	"testing"
)

func TestLatest(t *testing.T) {
	tests := []struct {
		browser string
		want    string
	}{
		{Chrome, "131"},
		{Edge, "101"},
		{Firefox, "135"},
		{Safari, "18.0"},
		{"opera", ""},
	}

	for _, tt := range tests {
		t.Run(tt.browser, func(t *testing.T) {
			if got := Latest(tt.browser); got != tt.want {
				t.Errorf("Latest(%q) = %q, want %q", tt.browser, got, tt.want)
			}
		})
	}
}

func TestBrowsers(t *testing.T) {
	got := strings.Join(Browsers(), ",")
	if got != "chrome,edge,firefox,safari" {
		t.Errorf("Browsers() = %s", got)
	}
}

func TestLookup(t *testing.T) {
	p, ok := Lookup(Safari, "17.0")
	if !ok {
		t.Fatal("safari 17.0 not found")
	}
	if p.Name() != "safari17_0" {
		t.Errorf("Name() = %q, want safari17_0", p.Name())
	}

	if _, ok := Lookup(Chrome, "1"); ok {
		t.Error("chrome 1 should not exist")
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	p, ok := Lookup(Chrome, "131")
	if !ok {
		t.Fatal("chrome 131 not found")
	}
	wantArg, wantHeader := p.Args[0], p.Headers[0]
	p.Args[0] = "--changed"
	p.Args = append(p.Args, "--extra")
	p.Headers[0] = [2]string{"X-Changed", "1"}

	again, _ := Lookup(Chrome, "131")
	if again.Args[0] != wantArg || again.Headers[0] != wantHeader {
		t.Errorf("table modified through Lookup: args[0] = %q, headers[0] = %v", again.Args[0], again.Headers[0])
	}
	if len(again.Args) != len(p.Args)-1 {
		t.Errorf("len(Args) = %d, want %d", len(again.Args), len(p.Args)-1)
	}

	all := All()
	all[0].Args[0] = "--changed"
	if All()[0].Args[0] == "--changed" {
		t.Error("table modified through All")
	}
}

func TestProfilesWellFormed(t *testing.T) {
	for _, p := range All() {
		t.Run(p.Name(), func(t *testing.T) {
			if len(p.Args) == 0 {
				t.Error("profile has no args")
			}
			if len(p.Args) > 0 && !strings.HasPrefix(p.Args[0], "--") {
				t.Errorf("first arg %q is not a flag", p.Args[0])
			}

			hasUA := false
			for _, h := range p.Headers {
				if strings.ContainsAny(h[0]+h[1], "\r\n") {
					t.Errorf("header %q contains a line break", h[0])
				}
				if strings.EqualFold(h[0], "User-Agent") {
					hasUA = true
					if !strings.Contains(h[1], strings.SplitN(p.Version, ".", 2)[0]) {
						t.Errorf("User-Agent %q does not carry version %s", h[1], p.Version)
					}
				}
			}
			if !hasUA {
				t.Error("profile has no User-Agent")
			}
		})
	}
}

func TestChromiumArgsPostQuantum(t *testing.T) {
	old := strings.Join(chromiumArgs(120), " ")
	if strings.Contains(old, "MLKEM") {
		t.Error("chrome 120 must not offer the post-quantum share")
	}
	recent := strings.Join(chromiumArgs(131), " ")
	if !strings.Contains(recent, "X25519MLKEM768") {
		t.Error("chrome 131 must offer the post-quantum share")
	}
}
