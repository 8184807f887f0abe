// Package redact removes credentials from text that leaves the gateway in
// error details, logs and audit records.
package redact

import (
	"regexp"
	"sort"
)

// SecretType names a family of credentials
type SecretType string

const (
	SecretTypeAPIKey      SecretType = "api_key"
	SecretTypeAWSKey      SecretType = "aws_key"
	SecretTypeGCPKey      SecretType = "gcp_key"
	SecretTypePassword    SecretType = "password"
	SecretTypeToken       SecretType = "token"
	SecretTypePrivateKey  SecretType = "private_key"
	SecretTypeJWT         SecretType = "jwt"
	SecretTypeGitHubToken SecretType = "github_token"
	SecretTypeDatabaseURL SecretType = "database_url"
)

// Detection is one matched secret
type Detection struct {
	Type     SecretType
	StartPos int
	EndPos   int
}

type rule struct {
	kind    SecretType
	pattern *regexp.Regexp
	// group selects the submatch to redact; 0 is the whole match
	group int
}

// Rules are ordered from most to least specific. Overlapping matches keep
// the first detection.
var rules = []rule{
	{SecretTypePrivateKey, regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----[\s\S]*?(?:-----END\s+(?:RSA\s+|EC\s+|DSA\s+|OPENSSH\s+)?PRIVATE\s+KEY-----|$)`), 0},
	{SecretTypeJWT, regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`), 0},
	{SecretTypeAWSKey, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), 0},
	{SecretTypeGCPKey, regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`), 0},
	{SecretTypeGitHubToken, regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`), 0},
	{SecretTypeAPIKey, regexp.MustCompile(`\bsk-(?:ant-|proj-)?[A-Za-z0-9_\-]{20,}`), 0},
	{SecretTypeAPIKey, regexp.MustCompile(`\bgsk_[A-Za-z0-9]{20,}\b`), 0},
	{SecretTypeDatabaseURL, regexp.MustCompile(`(?i)\b(?:postgres|postgresql|mysql|mongodb|redis)://[^\s'"]+:[^\s'"]+@[^\s'"]+`), 0},
	{SecretTypeToken, regexp.MustCompile(`(?i)\bbearer\s+([A-Za-z0-9_\-\.=]{16,})`), 1},
	{SecretTypeAPIKey, regexp.MustCompile(`(?i)api[_\-]?key["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{16,})`), 1},
	{SecretTypePassword, regexp.MustCompile(`(?i)(?:password|passwd|pwd)["']?\s*[:=]\s*["']?([^\s'",}]{8,})`), 1},
}

// Detect returns the secrets found in text, ordered by position
func Detect(text string) []Detection {
	var detections []Detection
	for _, r := range rules {
		for _, match := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := match[2*r.group], match[2*r.group+1]
			if start < 0 || overlaps(detections, start, end) {
				continue
			}
			detections = append(detections, Detection{Type: r.kind, StartPos: start, EndPos: end})
		}
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].StartPos < detections[j].StartPos
	})
	return detections
}

// HasSecrets reports whether text contains any detectable secret
func HasSecrets(text string) bool {
	return len(Detect(text)) > 0
}

// String replaces every detected secret with a typed placeholder
func String(text string) string {
	detections := Detect(text)
	if len(detections) == 0 {
		return text
	}

	out := make([]byte, 0, len(text))
	last := 0
	for _, d := range detections {
		out = append(out, text[last:d.StartPos]...)
		out = append(out, Placeholder(d.Type)...)
		last = d.EndPos
	}
	out = append(out, text[last:]...)
	return string(out)
}

// Placeholder is the replacement text for a secret of type t
func Placeholder(t SecretType) string {
	return "[REDACTED_" + string(t) + "]"
}

func overlaps(detections []Detection, start, end int) bool {
	for _, d := range detections {
		if start < d.EndPos && d.StartPos < end {
			return true
		}
	}
	return false
}
