package image

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

var (
	retryDelayJSONPattern = regexp.MustCompile(`"retryDelay"\s*:\s*"(\d+)s"`)
	retryInPattern        = regexp.MustCompile(`(?i)retry in\s+(\d+)(\.\d+)?s`)
)

// QuotaStatusFromReason classifies a provider failure reason as a quota
// problem. It returns "" for non-quota failures.
func QuotaStatusFromReason(reason string) domain.ImageStatus {
	if strings.Contains(reason, "only accessible to billed users") {
		return domain.ImageStatusBillingRequired
	}
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(reason, "HTTP 429"),
		strings.Contains(reason, "Too Many Requests"),
		strings.Contains(lower, "rate limit"),
		strings.Contains(reason, "RESOURCE_EXHAUSTED"),
		strings.Contains(reason, "Quota exceeded"),
		strings.Contains(reason, "generate_content_free_tier"):
		return domain.ImageStatusQuotaExceeded
	}
	return ""
}

// RetryDelaySeconds extracts the provider-suggested retry delay from a
// failure reason, 0 when none is present.
func RetryDelaySeconds(reason string) int {
	if m := retryDelayJSONPattern.FindStringSubmatch(reason); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := retryInPattern.FindStringSubmatch(reason); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			if m[2] != "" {
				n++ // round fractional seconds up
			}
			return n
		}
	}
	return 0
}

// retryableReason reports whether a non-quota failure is worth another
// attempt against the same provider.
func retryableReason(reason string) bool {
	lower := strings.ToLower(reason)
	if lower == "" {
		return true
	}
	switch {
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "temporarily unavailable"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "socket hang up"),
		strings.Contains(lower, "network") && strings.Contains(lower, "error"):
		return true
	}
	return false
}

// LikelyAPIKey checks whether a configured key matches a known provider key
// format (Google AIza..., OpenAI sk-..., Hugging Face hf_...).
func LikelyAPIKey(key string) bool {
	return strings.HasPrefix(key, "AIza") || strings.HasPrefix(key, "sk-") || strings.HasPrefix(key, "hf_")
}

// ProviderForKey picks the provider matching a key's format.
func ProviderForKey(key string) string {
	switch {
	case strings.HasPrefix(key, "sk-"):
		return "openai"
	case strings.HasPrefix(key, "hf_"):
		return "huggingface"
	default:
		return "google"
	}
}
