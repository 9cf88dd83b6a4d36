package config

import (
	"context"
	"testing"
)

func TestSandbox_BlocksEscapes(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"os_execute", `os.execute("true")`},
		{"io_open", `io.open("/etc/passwd")`},
		{"require", `require("socket")`},
		{"dofile", `dofile("/tmp/x.lua")`},
		{"loadstring", `loadstring("return 1")()`},
		{"debug", `debug.getinfo(1)`},
		{"rawset_platform", `rawset(platform, "os", "windows")`},
		{"setmetatable", `setmetatable({}, {})`},
		{"platform_write", `platform.os = "windows"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(linuxDetector()).ParseString(context.Background(), tt.code+"\ncuimp = {}")
			if err == nil {
				t.Errorf("%s should fail inside the sandbox", tt.code)
			}
		})
	}
}

func TestSandbox_KeepsSafeLibraries(t *testing.T) {
	code := `
		local parts = {}
		for word in string.gmatch("a,b", "[^,]+") do
			table.insert(parts, "--" .. word)
		end
		cuimp = {
			extra_args = parts,
			timeout = math.max(1, 3),
			version = tostring(131),
		}
	`
	cfg, err := NewParser(nil).ParseString(context.Background(), code)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(cfg.ExtraArgs) != 2 || cfg.Version != "131" {
		t.Errorf("got %+v", cfg)
	}
}
