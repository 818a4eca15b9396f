package service

import (
	"strings"

	"github.com/rebloomsa/social-publisher/internal/models"
)

const anchorHashtag = "#RebloomSA"

// facebookHashtagLimit caps the inline tags on the long-form platform.
const facebookHashtagLimit = 5

var HashtagSets = map[string][]string{
	"A": {"#RebloomSA", "#GriefSupport", "#HealingJourney", "#WidowStrong", "#SouthAfrica"},
	"B": {"#RebloomSA", "#WidowCommunity", "#FindConnection", "#YouAreNotAlone", "#MzansiCommunity"},
	"C": {"#RebloomSA", "#AfterLossLifeBloomsAgain", "#HopeAfterLoss", "#NewBeginnings", "#LifeAfterLoss"},
	"D": {"#RebloomSA", "#SouthAfrica", "#Mzansi", "#ProudlySouthAfrican", "#CommunityMatters"},
	"E": {"#RebloomSA", "#WidowsOfSouthAfrica", "#ShareToHelp", "#EndLoneliness", "#SupportEachOther"},
}

var HashtagSetKeys = []string{"A", "B", "C", "D", "E"}

// HashtagSetForDay returns the rotating set key for a 1-based day of year.
func HashtagSetForDay(dayOfYear int) string {
	idx := dayOfYear % len(HashtagSetKeys)
	if idx < 0 {
		idx += len(HashtagSetKeys)
	}
	return HashtagSetKeys[idx]
}

// SelectHashtags formats the tags for a platform. An unknown override falls
// back to set A.
func SelectHashtags(platform models.Platform, dayOfYear int, override string) string {
	key := strings.ToUpper(strings.TrimSpace(override))
	if key == "" {
		key = HashtagSetForDay(dayOfYear)
	}
	tags, ok := HashtagSets[key]
	if !ok {
		tags = HashtagSets["A"]
	}

	switch platform {
	case models.PlatformInstagram:
		return strings.Join(tags, "\n")
	case models.PlatformFacebook:
		return strings.Join(tags[:min(len(tags), facebookHashtagLimit)], " ")
	case models.PlatformTwitter:
		for _, tag := range tags {
			if tag != anchorHashtag {
				return anchorHashtag + " " + tag
			}
		}
		return anchorHashtag
	default:
		return strings.Join(tags, " ")
	}
}
