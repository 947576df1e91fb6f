package browser

import (
	"fmt"
	"math/rand"
)

// Fingerprint is the set of simulated client characteristics held constant
// for the lifetime of one session. It is chosen once at session start and
// never changes mid-run; every navigation the session performs presents the
// same device.
type Fingerprint struct {
	UserAgent string
	Locale    string
	Timezone  string
	ViewportW int
	ViewportH int
}

// Internally consistent desktop profiles. UA, locale and timezone are kept
// together so a session never mixes, say, a macOS UA with a Windows viewport.
var profiles = []Fingerprint{
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Locale:    "en-US",
		Timezone:  "America/New_York",
		ViewportW: 1440, ViewportH: 900,
	},
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Locale:    "en-US",
		Timezone:  "America/Chicago",
		ViewportW: 1920, ViewportH: 1080,
	},
	{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Locale:    "en-GB",
		Timezone:  "Europe/London",
		ViewportW: 1680, ViewportH: 1050,
	},
}

// NewFingerprint picks a profile deterministically from seed. The same seed
// always yields the same fingerprint, which keeps re-authentication within a
// run on the same device identity.
func NewFingerprint(seed int64) Fingerprint {
	r := rand.New(rand.NewSource(seed))
	return profiles[r.Intn(len(profiles))]
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s/%s %dx%d", f.Locale, f.Timezone, f.ViewportW, f.ViewportH)
}
