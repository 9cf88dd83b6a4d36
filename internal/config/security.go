package config

import (
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate sensitive data
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "Proxy Credentials",
		Pattern:     regexp.MustCompile(`(?i)[a-z][a-z0-9+.-]*://[^/\s:@'"]+:[^/\s@'"]+@`),
		Description: "URL with embedded credentials",
	},
	{
		Name:        "Authorization Header",
		Pattern:     regexp.MustCompile(`(?i)['"](proxy-)?authorization['"]\s*[,=\]]`),
		Description: "Authorization header value",
	},
	{
		Name:        "Cookie Header",
		Pattern:     regexp.MustCompile(`(?i)['"]cookie['"]\s*[,=\]]`),
		Description: "Cookie header value",
	},
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(token|api[_-]?key|secret)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
		Description: "Potential authentication token",
	},
}

// SensitiveDataFinding represents a detected sensitive data instance
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans configuration content for potential sensitive data
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	lines := strings.Split(content, "\n")

	for lineNum, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Description: pattern.Description,
					Line:        lineNum + 1,
					Preview:     redactSensitiveValue(line),
				})
			}
		}
	}

	return findings
}

// redactSensitiveValue keeps the key part of an assignment and hides the
// rest.
func redactSensitiveValue(line string) string {
	line = strings.TrimSpace(line)
	eqIdx := strings.IndexAny(line, "=,")
	if eqIdx == -1 {
		if len(line) > 30 {
			return line[:30] + "... [REDACTED]"
		}
		return line + " [REDACTED]"
	}
	return strings.TrimSpace(line[:eqIdx]) + " = [REDACTED]"
}
