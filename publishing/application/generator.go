package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/casapress/casapress/providers"
	"github.com/casapress/casapress/publishing/domain/content"
	"github.com/casapress/casapress/publishing/domain/property"
	"github.com/sirupsen/logrus"
)

// GenerateOptions tunes one generation call. Zero values fall back to the
// generator defaults.
type GenerateOptions struct {
	Tone           string
	Length         string
	IncludeContact *bool
}

// GeneratedContent is the parsed output of one generation call.
type GeneratedContent struct {
	Title    string
	Body     string
	Hashtags []string
}

// ContentGenerator builds a channel/language-specific prompt from property
// and agent context and delegates to the configured text provider.
type ContentGenerator struct {
	provider      providers.TextProvider
	timeout       time.Duration
	defaultTone   string
	defaultLength string
}

func NewContentGenerator(provider providers.TextProvider, timeout time.Duration, defaultTone, defaultLength string) *ContentGenerator {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if defaultTone == "" {
		defaultTone = "professional"
	}
	if defaultLength == "" {
		defaultLength = "medium"
	}
	return &ContentGenerator{
		provider:      provider,
		timeout:       timeout,
		defaultTone:   defaultTone,
		defaultLength: defaultLength,
	}
}

var languageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"mr": "Marathi",
	"gu": "Gujarati",
	"ta": "Tamil",
	"te": "Telugu",
	"bn": "Bengali",
	"kn": "Kannada",
}

// Generate produces title, body and hashtags for one (language, channel)
// pair. The prompt is deterministic for identical inputs.
func (g *ContentGenerator) Generate(ctx context.Context, prop property.Property, contact property.AgentContact, language string, ch content.Channel, opts GenerateOptions) (GeneratedContent, error) {
	if !content.IsSupportedLanguage(language) {
		return GeneratedContent{}, fmt.Errorf("unsupported language %q", language)
	}
	if !content.IsSupportedChannel(ch) {
		return GeneratedContent{}, fmt.Errorf("unsupported channel %q", ch)
	}

	includeContact := true
	if opts.IncludeContact != nil {
		includeContact = *opts.IncludeContact
	}

	prompt := g.buildPrompt(prop, contact, language, ch, opts, includeContact)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.provider.GenerateText(ctx, prompt)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"property_id": prop.ID,
			"language":    language,
			"channel":     ch,
			"provider":    g.provider.Name(),
		}).WithError(err).Warn("[GENERATOR] text generation failed")
		return GeneratedContent{}, err
	}

	gen := parseGenerated(raw)
	if gen.Title == "" && gen.Body == "" {
		return GeneratedContent{}, fmt.Errorf("generation returned empty content")
	}
	return gen, nil
}

func (g *ContentGenerator) buildPrompt(prop property.Property, contact property.AgentContact, language string, ch content.Channel, opts GenerateOptions, includeContact bool) string {
	tone := opts.Tone
	if tone == "" {
		tone = g.defaultTone
	}
	length := opts.Length
	if length == "" {
		length = g.defaultLength
	}
	langName := languageNames[language]
	if langName == "" {
		langName = language
	}

	var sb strings.Builder
	sb.WriteString("You are a real-estate marketing copywriter.\n")
	fmt.Fprintf(&sb, "Write a %s, %s-length listing post in %s for the %s channel.\n\n", tone, length, langName, ch)

	sb.WriteString("PROPERTY FACTS:\n")
	fmt.Fprintf(&sb, "- Title: %s\n", prop.Title)
	if prop.Description != "" {
		fmt.Fprintf(&sb, "- Description: %s\n", prop.Description)
	}
	if prop.Price > 0 {
		fmt.Fprintf(&sb, "- Price: %.0f\n", prop.Price)
	}
	if prop.Location != "" {
		fmt.Fprintf(&sb, "- Location: %s\n", prop.Location)
	}
	if prop.Bedrooms > 0 {
		fmt.Fprintf(&sb, "- Bedrooms: %d\n", prop.Bedrooms)
	}
	if prop.Bathrooms > 0 {
		fmt.Fprintf(&sb, "- Bathrooms: %d\n", prop.Bathrooms)
	}
	if len(prop.Amenities) > 0 {
		fmt.Fprintf(&sb, "- Amenities: %s\n", strings.Join(prop.Amenities, ", "))
	}
	if len(prop.Features) > 0 {
		fmt.Fprintf(&sb, "- Features: %s\n", strings.Join(prop.Features, ", "))
	}

	if includeContact {
		sb.WriteString("\nAGENT CONTACT (include at the end of the post):\n")
		if contact.DisplayName != "" {
			fmt.Fprintf(&sb, "- Name: %s\n", contact.DisplayName)
		}
		if contact.Phone != "" {
			fmt.Fprintf(&sb, "- Phone: %s\n", contact.Phone)
		}
		if contact.WhatsApp != "" {
			fmt.Fprintf(&sb, "- WhatsApp: %s\n", contact.WhatsApp)
		}
		if contact.Email != "" {
			fmt.Fprintf(&sb, "- Email: %s\n", contact.Email)
		}
		if contact.Website != "" {
			fmt.Fprintf(&sb, "- Website: %s\n", contact.Website)
		}
	} else {
		sb.WriteString("\nDo not include any agent contact details.\n")
	}

	sb.WriteString("\nCHANNEL RULES:\n")
	switch ch {
	case content.ChannelInstagram:
		sb.WriteString("- Caption must stay under 2200 characters.\n")
		sb.WriteString("- Use at most 30 hashtags.\n")
		sb.WriteString("- Emojis are welcome.\n")
	case content.ChannelFacebook:
		sb.WriteString("- Conversational tone, 3-8 hashtags.\n")
	case content.ChannelWebsite:
		sb.WriteString("- Longer descriptive copy, no hashtags needed.\n")
	}

	sb.WriteString("\nRespond in exactly this format:\n")
	sb.WriteString("TITLE: <one line title>\n")
	sb.WriteString("BODY: <the post body, may span multiple lines>\n")
	sb.WriteString("HASHTAGS: <space-separated hashtags, or empty>\n")

	return sb.String()
}

// parseGenerated extracts the TITLE/BODY/HASHTAGS sections. Providers do not
// always honor the format strictly, so unlabeled output falls back to
// whole-text body.
func parseGenerated(raw string) GeneratedContent {
	raw = strings.TrimSpace(raw)
	var gen GeneratedContent

	titleIdx := strings.Index(raw, "TITLE:")
	bodyIdx := strings.Index(raw, "BODY:")
	tagsIdx := strings.Index(raw, "HASHTAGS:")

	if titleIdx == -1 && bodyIdx == -1 {
		gen.Body = raw
		return gen
	}

	if titleIdx != -1 {
		end := len(raw)
		if bodyIdx > titleIdx {
			end = bodyIdx
		} else if tagsIdx > titleIdx {
			end = tagsIdx
		}
		gen.Title = strings.TrimSpace(raw[titleIdx+len("TITLE:") : end])
	}
	if bodyIdx != -1 {
		end := len(raw)
		if tagsIdx > bodyIdx {
			end = tagsIdx
		}
		gen.Body = strings.TrimSpace(raw[bodyIdx+len("BODY:") : end])
	}
	if tagsIdx != -1 {
		tags := strings.Fields(strings.TrimSpace(raw[tagsIdx+len("HASHTAGS:"):]))
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if !strings.HasPrefix(t, "#") {
				t = "#" + t
			}
			gen.Hashtags = append(gen.Hashtags, t)
		}
	}
	return gen
}
