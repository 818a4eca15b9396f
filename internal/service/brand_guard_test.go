package service

import (
	"testing"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/stretchr/testify/assert"
)

var testBrand = config.Brand{Domain: "rebloomsa.co.za", Emoji: "\U0001F338", Hashtag: "#RebloomSA"}

const validContent = "Healing takes time \U0001F338 Join us at https://rebloomsa.co.za #RebloomSA"

func TestBrandGuard_ValidPost(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: validContent})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Reasons)
}

func TestBrandGuard_RequiredMarkers(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: "A quiet morning"})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{
		"Missing link to rebloomsa.co.za",
		"Missing brand emoji \U0001F338",
		"Missing #RebloomSA hashtag",
	}, res.Reasons)
}

func TestBrandGuard_MarkersMayComeFromAltContent(t *testing.T) {
	guard := NewBrandGuard(testBrand)
	alt := "rebloomsa.co.za \U0001F338 #rebloomsa"

	res := guard.Validate(&models.Post{Content: "A quiet morning", ContentAlt: &alt})

	assert.True(t, res.Valid, res.Reasons)
}

func TestBrandGuard_SafeNegationPasses(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: "Rebloom is not a dating app. " + validContent})

	assert.True(t, res.Valid, res.Reasons)
}

func TestBrandGuard_BannedWords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"single word", "Try our dating circle", `Banned word detected: "dating"`},
		{"case insensitive", "A HOT topic", `Banned word detected: "hot"`},
		{"phrase", "Don't wait, buy now", `Banned phrase detected: "buy now"`},
		{"hyphenated word", "It's risk-free", `Banned word detected: "risk-free"`},
	}

	guard := NewBrandGuard(testBrand)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := guard.Validate(&models.Post{Content: tt.text + " " + validContent})
			assert.False(t, res.Valid)
			assert.Contains(t, res.Reasons, tt.expected)
		})
	}
}

func TestBrandGuard_WordBoundaries(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: "Update: the photographer shared a matchless sunset. " + validContent})

	assert.True(t, res.Valid, res.Reasons)
}

func TestBrandGuard_CapsRun(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: "ALWAYS HERE FOR you " + validContent})

	assert.Contains(t, res.Reasons, "ALL CAPS run detected (more than 2 consecutive caps words)")
}

func TestBrandGuard_OffDomainURLsReportedIndividually(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: validContent + " https://example.com/a http://rebloomsa.co.za.evil.io"})

	assert.Contains(t, res.Reasons, "Off-domain URL detected: https://example.com/a")
	assert.Contains(t, res.Reasons, "Off-domain URL detected: http://rebloomsa.co.za.evil.io")
	assert.Len(t, res.Reasons, 2)
}

func TestBrandGuard_UrgentScenario(t *testing.T) {
	guard := NewBrandGuard(testBrand)

	res := guard.Validate(&models.Post{Content: "URGENT, ACT NOW!!!!! Join us \U0001F338 #RebloomSA"})

	assert.False(t, res.Valid)
	assert.Contains(t, res.Reasons, "Missing link to rebloomsa.co.za")
	assert.Contains(t, res.Reasons, `Banned word detected: "urgent"`)
	assert.Contains(t, res.Reasons, `Banned phrase detected: "act now"`)
	assert.Contains(t, res.Reasons, "Too many exclamation marks (5, max 3)")
}
