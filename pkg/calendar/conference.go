package calendar

import (
	"regexp"

	gcal "google.golang.org/api/calendar/v3"
)

// conferenceSource is the raw material a matcher may inspect.
type conferenceSource struct {
	entryPoints []*gcal.EntryPoint
	description string
	location    string
}

// conferenceMatcher inspects one provider's footprint. Matchers run in strict
// priority order; the first match wins.
type conferenceMatcher interface {
	Match(src conferenceSource) (ConferenceInfo, bool)
}

// conferenceMatchers is the ordered detection chain. Adding a provider means
// appending a matcher here; the pipeline never changes.
var conferenceMatchers = []conferenceMatcher{
	nativeEntryPointMatcher{},
	regexMatcher{provider: ProviderZoom, pattern: regexp.MustCompile(`(?i)https://[a-z0-9.-]*zoom\.us/j/[0-9]+(\?pwd=[a-zA-Z0-9._-]+)?`)},
	regexMatcher{provider: ProviderTeams, pattern: regexp.MustCompile(`(?i)https://teams\.microsoft\.com/l/meetup-join/[^\s<>"']+`)},
	regexMatcher{provider: ProviderWebex, pattern: regexp.MustCompile(`(?i)https://[a-z0-9.-]*webex\.com/[^\s<>"']*/j\.php\?[^\s<>"']+`)},
}

// detectConference runs the matcher chain and returns nil when no provider matched.
func detectConference(src conferenceSource) *ConferenceInfo {
	for _, m := range conferenceMatchers {
		if info, ok := m.Match(src); ok {
			return &info
		}
	}
	return nil
}

// nativeEntryPointMatcher picks the provider's own structured conference
// metadata: the first entry point of type "video".
type nativeEntryPointMatcher struct{}

func (nativeEntryPointMatcher) Match(src conferenceSource) (ConferenceInfo, bool) {
	for _, ep := range src.entryPoints {
		if ep != nil && ep.EntryPointType == "video" && ep.Uri != "" {
			return ConferenceInfo{Provider: ProviderGoogleMeet, JoinURL: ep.Uri}, true
		}
	}
	return ConferenceInfo{}, false
}

// regexMatcher scans the description first, then the location, for a provider
// join-link pattern and takes the first occurrence.
type regexMatcher struct {
	provider ConferenceProvider
	pattern  *regexp.Regexp
}

func (m regexMatcher) Match(src conferenceSource) (ConferenceInfo, bool) {
	for _, text := range []string{src.description, src.location} {
		if text == "" {
			continue
		}
		if link := m.pattern.FindString(text); link != "" {
			return ConferenceInfo{Provider: m.provider, JoinURL: link}, true
		}
	}
	return ConferenceInfo{}, false
}
