package config

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Generator renders a Config as a Lua config file.
type Generator struct {
	indent string // Indentation string (default: two spaces)
	now    func() time.Time
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
		now:    time.Now,
	}
}

// Generate renders config. Zero-valued fields are omitted so the defaults
// keep applying.
func (g *Generator) Generate(config *Config) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("-- cuimp configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n--\n")
	buf.WriteString("-- The read-only `platform` table (platform.is_linux, platform.arch, ...)\n")
	buf.WriteString("-- is available for conditionals.\n\n")

	buf.WriteString(luaGlobalCuimp + " = {\n")

	g.writeString(&buf, luaFieldBrowser, config.Browser)
	g.writeString(&buf, luaFieldVersion, config.Version)
	g.writeString(&buf, luaFieldPlatform, config.Platform)
	g.writeString(&buf, luaFieldArchitecture, config.Architecture)
	g.writeString(&buf, luaFieldRelease, config.Release)
	g.writeString(&buf, luaFieldCacheDir, config.CacheDir)
	g.writeString(&buf, luaFieldReleaseBaseURL, config.ReleaseBaseURL)
	g.writeString(&buf, luaFieldProxy, config.Proxy)
	g.writeString(&buf, luaFieldKeyring, config.Keyring)
	g.writeString(&buf, luaFieldBinaryPath, config.BinaryPath)

	if config.Timeout > 0 {
		g.writeRaw(&buf, luaFieldTimeout, strconv.FormatFloat(config.Timeout.Seconds(), 'f', -1, 64))
	}
	if config.MaxRedirects != 0 {
		g.writeRaw(&buf, luaFieldMaxRedirects, strconv.Itoa(config.MaxRedirects))
	}
	if config.Retries > 0 {
		g.writeRaw(&buf, luaFieldRetries, strconv.Itoa(config.Retries))
	}
	if config.InsecureTLS {
		g.writeRaw(&buf, luaFieldInsecureTLS, "true")
	}
	if config.SystemBinary {
		g.writeRaw(&buf, luaFieldSystemBinary, "true")
	}

	if len(config.ExtraArgs) > 0 {
		g.writeExtraArgs(&buf, config.ExtraArgs)
	}
	if len(config.Headers) > 0 {
		g.writeHeaders(&buf, config.Headers)
	}
	if len(config.Checksums) > 0 {
		g.writeChecksums(&buf, config.Checksums)
	}
	if config.RateLimit > 0 {
		g.writeRateLimit(&buf, config.RateLimit, config.RateBurst)
	}

	buf.WriteString("}\n")

	return buf.String(), nil
}

func (g *Generator) writeString(buf *bytes.Buffer, field, value string) {
	if value == "" {
		return
	}
	g.writeRaw(buf, field, g.quoteLuaString(value))
}

func (g *Generator) writeRaw(buf *bytes.Buffer, field, value string) {
	buf.WriteString(g.indent)
	buf.WriteString(field)
	buf.WriteString(" = ")
	buf.WriteString(value)
	buf.WriteString(",\n")
}

func (g *Generator) writeExtraArgs(buf *bytes.Buffer, args []string) {
	buf.WriteString(g.indent)
	buf.WriteString(luaFieldExtraArgs + " = {\n")
	for _, arg := range args {
		buf.WriteString(g.indent)
		buf.WriteString(g.indent)
		buf.WriteString(g.quoteLuaString(arg))
		buf.WriteString(",\n")
	}
	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

func (g *Generator) writeHeaders(buf *bytes.Buffer, headers [][2]string) {
	buf.WriteString(g.indent)
	buf.WriteString(luaFieldHeaders + " = {\n")
	for _, h := range headers {
		buf.WriteString(g.indent)
		buf.WriteString(g.indent)
		fmt.Fprintf(buf, "{ %s, %s },\n", g.quoteLuaString(h[0]), g.quoteLuaString(h[1]))
	}
	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

func (g *Generator) writeChecksums(buf *bytes.Buffer, checksums map[string]string) {
	assets := make([]string, 0, len(checksums))
	for asset := range checksums {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	buf.WriteString(g.indent)
	buf.WriteString(luaFieldChecksums + " = {\n")
	for _, asset := range assets {
		buf.WriteString(g.indent)
		buf.WriteString(g.indent)
		fmt.Fprintf(buf, "[%s] = %s,\n", g.quoteLuaString(asset), g.quoteLuaString(checksums[asset]))
	}
	buf.WriteString(g.indent)
	buf.WriteString("},\n")
}

func (g *Generator) writeRateLimit(buf *bytes.Buffer, rps float64, burst int) {
	buf.WriteString(g.indent)
	fmt.Fprintf(buf, "%s = { %s = %s", luaFieldRateLimit, luaFieldRPS, strconv.FormatFloat(rps, 'f', -1, 64))
	if burst > 0 {
		fmt.Fprintf(buf, ", %s = %d", luaFieldBurst, burst)
	}
	buf.WriteString(" },\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
