package pricing

import "strings"

type Platform string

const (
	PlatformMobile  Platform = "mobile"
	PlatformDesktop Platform = "desktop"
)

// DetectPlatform maps the Telegram WebApp platform tag to a commission
// bucket. Unknown tags default to mobile, the higher-commission bucket.
func DetectPlatform(tag string) Platform {
	t := strings.ToLower(tag)
	switch {
	case strings.Contains(t, "android"),
		strings.Contains(t, "ios"),
		strings.Contains(t, "mobile"):
		return PlatformMobile
	case strings.Contains(t, "macos"),
		strings.Contains(t, "windows"),
		strings.Contains(t, "linux"),
		strings.Contains(t, "web"):
		return PlatformDesktop
	}
	return PlatformMobile
}
