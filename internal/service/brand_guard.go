package service

import (
	"fmt"
	"regexp"
	"strings"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/models"
)

const maxExclamationMarks = 3

// BannedWords lists dating and sales language. Entries containing a space
// are matched as substrings, the rest on word boundaries.
var BannedWords = []string{
	"dating", "date", "singles", "hookup", "swipe", "match", "romance", "romantic",
	"sexy", "hot", "attractive", "looking for love", "find love", "meet singles",
	"urgent", "limited time", "act now", "don't miss", "last chance", "fomo",
	"buy now", "discount", "sale", "offer", "deal", "promo", "subscribe now",
	"100% guaranteed", "risk-free", "no obligation",
}

// SafePhrases are removed before the banned word scan.
var SafePhrases = []string{
	"not a dating app", "isn't a dating app", "not dating", "no dating",
	"not a date", "isn't a date",
	"no sales", "not a sale", "not a deal", "not a promo",
	"no romance", "not romance", "not romantic",
}

var (
	urlRegex     = regexp.MustCompile(`(?i)https?://[^\s)]+`)
	capsRunRegex = regexp.MustCompile(`\b[A-Z]{3,}\s+[A-Z]{3,}\s+[A-Z]{3,}\b`)
)

type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons"`
}

type ContentValidator interface {
	Validate(post *models.Post) ValidationResult
}

type bannedPattern struct {
	word string
	re   *regexp.Regexp
}

type brandGuard struct {
	brand        config.Brand
	domainRe     *regexp.Regexp
	canonicalRe  *regexp.Regexp
	hashtagRe    *regexp.Regexp
	singleWords  []bannedPattern
	phraseChecks []string
}

func NewBrandGuard(brand config.Brand) ContentValidator {
	domain := regexp.QuoteMeta(brand.Domain)
	g := &brandGuard{
		brand:       brand,
		domainRe:    regexp.MustCompile(`(?i)` + domain),
		canonicalRe: regexp.MustCompile(`(?i)^https?://(www\.)?` + domain + `([/?#:]|$)`),
		hashtagRe:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(brand.Hashtag)),
	}
	for _, w := range BannedWords {
		if strings.Contains(w, " ") {
			g.phraseChecks = append(g.phraseChecks, w)
			continue
		}
		g.singleWords = append(g.singleWords, bannedPattern{
			word: w,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return g
}

func (g *brandGuard) Validate(post *models.Post) ValidationResult {
	reasons := []string{}
	primary := post.Content
	alt := models.StringValue(post.ContentAlt)
	fullText := primary + " " + alt

	if !g.domainRe.MatchString(fullText) {
		reasons = append(reasons, fmt.Sprintf("Missing link to %s", g.brand.Domain))
	}
	if g.brand.Emoji != "" && !strings.Contains(fullText, g.brand.Emoji) {
		reasons = append(reasons, fmt.Sprintf("Missing brand emoji %s", g.brand.Emoji))
	}
	if g.brand.Hashtag != "" && !g.hashtagRe.MatchString(fullText) {
		reasons = append(reasons, fmt.Sprintf("Missing %s hashtag", g.brand.Hashtag))
	}

	textToCheck := strings.ToLower(fullText)
	for _, safe := range SafePhrases {
		textToCheck = strings.ReplaceAll(textToCheck, safe, "")
	}
	for _, w := range g.singleWords {
		if w.re.MatchString(textToCheck) {
			reasons = append(reasons, fmt.Sprintf("Banned word detected: %q", w.word))
		}
	}
	for _, phrase := range g.phraseChecks {
		if strings.Contains(textToCheck, phrase) {
			reasons = append(reasons, fmt.Sprintf("Banned phrase detected: %q", phrase))
		}
	}

	// Caps and exclamation rules apply to each variant separately.
	if capsRunRegex.MatchString(primary) || capsRunRegex.MatchString(alt) {
		reasons = append(reasons, "ALL CAPS run detected (more than 2 consecutive caps words)")
	}
	exclamations := max(strings.Count(primary, "!"), strings.Count(alt, "!"))
	if exclamations > maxExclamationMarks {
		reasons = append(reasons, fmt.Sprintf("Too many exclamation marks (%d, max %d)", exclamations, maxExclamationMarks))
	}

	for _, u := range urlRegex.FindAllString(fullText, -1) {
		if !g.canonicalRe.MatchString(u) {
			reasons = append(reasons, fmt.Sprintf("Off-domain URL detected: %s", u))
		}
	}

	return ValidationResult{Valid: len(reasons) == 0, Reasons: reasons}
}
