package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
)

// Parser evaluates Lua config files with the host's platform table
// injected.
type Parser struct {
	detector platform.Detector
	logger   Logger
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: NopLogger()}
}

// WithLogger sets the logger used for parse diagnostics.
func (p *Parser) WithLogger(l Logger) *Parser {
	p.logger = OrNop(l)
	return p
}

// ParseFile reads and parses a config file. A missing file is reported
// with an error wrapping os.ErrNotExist.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxConfigSize),
		}
	}

	for _, finding := range DetectSensitiveData(string(data)) {
		p.logger.Warn("possible secret in config file",
			"path", path, "line", finding.Line, "kind", finding.PatternName, "preview", finding.Preview)
	}

	cfg, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, err
	}
	p.logger.Debug("parsed config", "path", path)
	return cfg, nil
}

// ParseString parses a Lua config from a string.
// Without a deadline on ctx, evaluation is bounded by DefaultParseTimeout.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate config: %w", ctxErr)
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "cuimp" table.
func extractConfig(L *lua.LState) (*Config, error) {
	global := L.GetGlobal(luaGlobalCuimp)
	if global.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'cuimp' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}
	table := global.(*lua.LTable)

	var (
		cfg = &Config{}
		err error
	)
	strField := func(name string, dst *string) {
		if err == nil {
			*dst, err = optString(table, name)
		}
	}
	strField(luaFieldBrowser, &cfg.Browser)
	strField(luaFieldVersion, &cfg.Version)
	strField(luaFieldPlatform, &cfg.Platform)
	strField(luaFieldArchitecture, &cfg.Architecture)
	strField(luaFieldRelease, &cfg.Release)
	strField(luaFieldCacheDir, &cfg.CacheDir)
	strField(luaFieldReleaseBaseURL, &cfg.ReleaseBaseURL)
	strField(luaFieldProxy, &cfg.Proxy)
	strField(luaFieldKeyring, &cfg.Keyring)
	strField(luaFieldBinaryPath, &cfg.BinaryPath)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout, err = optSeconds(table, luaFieldTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxRedirects, err = optInt(table, luaFieldMaxRedirects); err != nil {
		return nil, err
	}
	if cfg.Retries, err = optInt(table, luaFieldRetries); err != nil {
		return nil, err
	}
	if cfg.InsecureTLS, err = optBool(table, luaFieldInsecureTLS); err != nil {
		return nil, err
	}
	if cfg.SystemBinary, err = optBool(table, luaFieldSystemBinary); err != nil {
		return nil, err
	}
	if cfg.ExtraArgs, err = extractStringList(table, luaFieldExtraArgs); err != nil {
		return nil, err
	}
	if cfg.Headers, err = extractHeaders(table); err != nil {
		return nil, err
	}
	if cfg.Checksums, err = extractStringMap(table, luaFieldChecksums); err != nil {
		return nil, err
	}
	if err := extractRateLimit(table, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return cfg, nil
}

func typeError(field string, want string, got lua.LValue) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf("expected %s, got %s", want, got.Type())}
}

func optString(table *lua.LTable, field string) (string, error) {
	switch v := table.RawGetString(field); v.Type() {
	case lua.LTNil:
		return "", nil
	case lua.LTString:
		return v.String(), nil
	case lua.LTNumber:
		if field == luaFieldVersion || field == luaFieldRelease {
			return v.String(), nil
		}
		return "", typeError(field, "string", v)
	default:
		return "", typeError(field, "string", v)
	}
}

func optInt(table *lua.LTable, field string) (int, error) {
	v := table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return 0, nil
	case lua.LTNumber:
		n := float64(lua.LVAsNumber(v))
		if n != math.Trunc(n) {
			return 0, &ValidationError{Field: field, Message: "expected an integer"}
		}
		return int(n), nil
	default:
		return 0, typeError(field, "number", v)
	}
}

func optBool(table *lua.LTable, field string) (bool, error) {
	v := table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return false, nil
	case lua.LTBool:
		return bool(v.(lua.LBool)), nil
	default:
		return false, typeError(field, "boolean", v)
	}
}

// optSeconds reads a number of seconds, or a Go duration string.
func optSeconds(table *lua.LTable, field string) (time.Duration, error) {
	v := table.RawGetString(field)
	switch v.Type() {
	case lua.LTNil:
		return 0, nil
	case lua.LTNumber:
		return time.Duration(float64(lua.LVAsNumber(v)) * float64(time.Second)), nil
	case lua.LTString:
		d, err := time.ParseDuration(v.String())
		if err != nil {
			return 0, &ValidationError{Field: field, Message: err.Error()}
		}
		return d, nil
	default:
		return 0, typeError(field, "number of seconds", v)
	}
}

// extractStringList reads an array of strings. nil entries, which come from
// platform conditionals such as `platform.is_linux and "--x" or nil`, are
// skipped.
func extractStringList(table *lua.LTable, field string) ([]string, error) {
	v := table.RawGetString(field)
	if v.Type() == lua.LTNil {
		return nil, nil
	}
	list, ok := v.(*lua.LTable)
	if !ok {
		return nil, typeError(field, "table", v)
	}

	var (
		out []string
		err error
	)
	for i := 1; i <= list.MaxN(); i++ {
		item := list.RawGetInt(i)
		switch item.Type() {
		case lua.LTNil:
		case lua.LTString, lua.LTNumber:
			out = append(out, item.String())
		default:
			if err == nil {
				err = typeError(fmt.Sprintf("%s[%d]", field, i), "string", item)
			}
		}
	}
	return out, err
}

// extractStringMap reads a table with string keys and string values.
func extractStringMap(table *lua.LTable, field string) (map[string]string, error) {
	v := table.RawGetString(field)
	if v.Type() == lua.LTNil {
		return nil, nil
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, typeError(field, "table", v)
	}

	out := make(map[string]string)
	var err error
	t.ForEach(func(key, value lua.LValue) {
		if err != nil {
			return
		}
		if key.Type() != lua.LTString || value.Type() != lua.LTString {
			err = &ValidationError{Field: field, Message: "expected string keys and values"}
			return
		}
		out[key.String()] = value.String()
	})
	return out, err
}

// extractHeaders accepts an ordered list of {name, value} pairs, a map of
// name to value, or both in one table. Pairs keep their order and map
// entries follow sorted by name.
func extractHeaders(table *lua.LTable) ([][2]string, error) {
	v := table.RawGetString(luaFieldHeaders)
	if v.Type() == lua.LTNil {
		return nil, nil
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		return nil, typeError(luaFieldHeaders, "table", v)
	}

	var headers [][2]string
	for i := 1; i <= t.MaxN(); i++ {
		item := t.RawGetInt(i)
		if item.Type() == lua.LTNil {
			continue
		}
		pair, ok := item.(*lua.LTable)
		if !ok || pair.RawGetInt(1).Type() != lua.LTString || pair.RawGetInt(2).Type() != lua.LTString {
			return nil, &ValidationError{
				Field:   fmt.Sprintf("%s[%d]", luaFieldHeaders, i),
				Message: `expected {"Name", "value"}`,
			}
		}
		headers = append(headers, [2]string{pair.RawGetInt(1).String(), pair.RawGetInt(2).String()})
	}

	var named [][2]string
	var err error
	t.ForEach(func(key, value lua.LValue) {
		if key.Type() != lua.LTString || err != nil {
			return
		}
		if value.Type() != lua.LTString {
			err = typeError(luaFieldHeaders+"."+key.String(), "string", value)
			return
		}
		named = append(named, [2]string{key.String(), value.String()})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(named, func(i, j int) bool { return named[i][0] < named[j][0] })

	return append(headers, named...), nil
}

func extractRateLimit(table *lua.LTable, cfg *Config) error {
	v := table.RawGetString(luaFieldRateLimit)
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTNumber:
		cfg.RateLimit = float64(lua.LVAsNumber(v))
		return nil
	case lua.LTTable:
		t := v.(*lua.LTable)
		if rps := t.RawGetString(luaFieldRPS); rps.Type() == lua.LTNumber {
			cfg.RateLimit = float64(lua.LVAsNumber(rps))
		}
		burst, err := optInt(t, luaFieldBurst)
		if err != nil {
			return &ValidationError{Field: luaFieldRateLimit + "." + luaFieldBurst, Message: err.Error()}
		}
		cfg.RateBurst = burst
		return nil
	default:
		return typeError(luaFieldRateLimit, "number or table", v)
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
