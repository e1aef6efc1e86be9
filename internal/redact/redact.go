// Package redact masks secret-looking values before they reach logs or the
// terminal. Instance environment overlays and command lines routinely carry
// API tokens, so both are masked by default in `ps` and `status` output.
package redact

import (
	"strings"
)

// SecretKeyPatterns contains substrings that indicate a key likely contains sensitive data.
// Keys are matched case-insensitively.
var SecretKeyPatterns = []string{
	"TOKEN",
	"KEY",
	"SECRET",
	"PASSWORD",
	"AUTH",
	"CREDENTIAL",
	"PRIVATE",
}

// TokenPrefixes contains known API token prefixes that indicate sensitive values
// regardless of key name.
var TokenPrefixes = []string{
	"ghp_",  // GitHub personal access token
	"gho_",  // GitHub OAuth token
	"ghu_",  // GitHub user-to-server token
	"ghs_",  // GitHub server-to-server token
	"ghr_",  // GitHub refresh token
	"sk-",   // OpenAI/Anthropic keys
	"AKIA",  // AWS access key prefix
	"xoxb-", // Slack bot token
	"xoxp-", // Slack user token
	"sbp_",  // Supabase access token
}

// Env returns a copy of env with sensitive values masked.
func Env(env map[string]string) map[string]string {
	if env == nil {
		return nil
	}

	masked := make(map[string]string, len(env))
	for k, v := range env {
		if ShouldMask(k) || ContainsTokenPrefix(v) {
			masked[k] = Value(v)
		} else {
			masked[k] = v
		}
	}
	return masked
}

// Args returns a copy of a command argument vector with secrets masked.
// It handles "--api-key value", "--api-key=value", "API_KEY=value" and bare
// token-prefixed arguments.
func Args(args []string) []string {
	out := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		switch {
		case maskNext:
			out[i] = Value(arg)
			maskNext = false
		case ContainsTokenPrefix(arg):
			out[i] = Value(arg)
		case strings.Contains(arg, "="):
			k, v, _ := strings.Cut(arg, "=")
			if ShouldMask(strings.TrimLeft(k, "-")) || ContainsTokenPrefix(v) {
				out[i] = k + "=" + Value(v)
			} else {
				out[i] = arg
			}
		case strings.HasPrefix(arg, "-") && ShouldMask(strings.TrimLeft(arg, "-")):
			out[i] = arg
			maskNext = true
		default:
			out[i] = arg
		}
	}
	return out
}

// Value masks a potentially sensitive string value.
// Values with 4 or fewer characters are fully masked as "********".
// Longer values show the last 4 characters: "****xxxx".
func Value(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// ShouldMask returns true if the key name suggests it contains sensitive data.
// Matching is case-insensitive; dashes are treated as underscores so flag
// names like "api-key" match.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	for _, pattern := range SecretKeyPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// ContainsTokenPrefix returns true if the value starts with a known token prefix.
func ContainsTokenPrefix(value string) bool {
	for _, prefix := range TokenPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
