package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformAshby is the Ashby ATS platform
	PlatformAshby Platform = "ashby"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// platformHosts maps host suffixes to platforms, checked in order.
var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	for _, ph := range platformHosts {
		if host == ph.suffix || strings.HasSuffix(host, "."+ph.suffix) {
			return ph.platform
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors optimized for a specific platform.
func PlatformContentSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		}
	case PlatformLever:
		return []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='jobDescription']",
			".job-description",
		}
	case PlatformAshby:
		return []string{
			"[class*='descriptionText']",
			"main",
		}
	default:
		return JobPostingSelectors()
	}
}

// PlatformNoiseSelectors returns noise exclusion selectors for a specific platform.
// Application forms and EEO boilerplate would otherwise leak keywords such as
// "equal opportunity" into the job description.
func PlatformNoiseSelectors(platform Platform) []string {
	common := []string{
		"form",
		"#application-form",
		".application-form",
		".apply-button-container",
		"[data-testid='application-form']",
		".voluntary-disclosure",
		".eeo-statement",
		".eeo-section",
		"[data-testid='eeo']",
		".legal-disclosure",
		".self-identification",
		".social-share",
		".share-buttons",
		".cookie-consent",
		".gdpr-notice",
	}

	switch platform {
	case PlatformGreenhouse:
		return append(common,
			".application--wrapper",
			".voluntary-self-id",
			"#usa_self_id_section",
		)
	case PlatformLever:
		return append(common,
			".apply-section",
			".posting-apply",
		)
	case PlatformWorkday:
		return append(common,
			"[data-automation-id='applyButton']",
		)
	default:
		return common
	}
}
