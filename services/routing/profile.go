package routing

import (
	"fmt"
	"strings"
)

// Profile names
const (
	ProfileChat      = "chat"
	ProfileTranslate = "translate"
)

// targetLanguagePlaceholder is substituted into Profile.SystemTemplate
const targetLanguagePlaceholder = "{target_language}"

var (
	// DefaultChatOrder is the automatic fallback order of the chat router
	DefaultChatOrder = []string{"deepseek", "openai"}

	// DefaultTranslateOrder is the automatic fallback order of the translate router
	DefaultTranslateOrder = []string{"deepseek", "groq", "openai"}
)

// Profile describes one use case served by a Router: which providers it may
// call and in what order, and how its payload is read.
type Profile struct {
	// Name identifies the profile in logs and audit records
	Name string

	// Order is the automatic fallback order; it is also the set of
	// providers a caller may force
	Order []string

	// InputAliases are the payload keys accepted for the input, by priority
	InputAliases []string

	// TargetLanguageAliases are payload keys for an optional target language
	TargetLanguageAliases []string

	// SystemTemplate composes the system instruction when the payload has none.
	// "{target_language}" is replaced with the requested or default language.
	SystemTemplate string

	// DefaultTargetLanguage is used when the payload names no target language
	DefaultTargetLanguage string
}

// ChatProfile returns the general chat profile
func ChatProfile(order []string) Profile {
	if len(order) == 0 {
		order = DefaultChatOrder
	}
	return Profile{
		Name:         ProfileChat,
		Order:        NormalizeOrder(order),
		InputAliases: []string{"input"},
	}
}

// TranslateProfile returns the translation profile
func TranslateProfile(order []string, defaultTargetLanguage string) Profile {
	if len(order) == 0 {
		order = DefaultTranslateOrder
	}
	if strings.TrimSpace(defaultTargetLanguage) == "" {
		defaultTargetLanguage = "English"
	}
	return Profile{
		Name:                  ProfileTranslate,
		Order:                 NormalizeOrder(order),
		InputAliases:          []string{"input", "sourceText", "source_text"},
		TargetLanguageAliases: []string{"targetLanguage", "target_language"},
		SystemTemplate: "You are a professional translator. Translate the user's text into " +
			targetLanguagePlaceholder + ". Preserve meaning, tone and formatting. Return only the translated text.",
		DefaultTargetLanguage: strings.TrimSpace(defaultTargetLanguage),
	}
}

// ComposeSystem renders the profile's default system instruction
func (p Profile) ComposeSystem(targetLanguage string) string {
	if p.SystemTemplate == "" {
		return ""
	}
	if targetLanguage == "" {
		targetLanguage = p.DefaultTargetLanguage
	}
	return strings.ReplaceAll(p.SystemTemplate, targetLanguagePlaceholder, targetLanguage)
}

// NormalizeOrder lower-cases and trims names, dropping blanks and duplicates
func NormalizeOrder(names []string) []string {
	seen := make(map[string]bool, len(names))
	order := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	return order
}

// ParseOrder splits a comma-separated provider list such as "deepseek,groq"
func ParseOrder(value string) []string {
	return NormalizeOrder(strings.Split(value, ","))
}

// ValidateOrder checks that every name in order is one of known
func ValidateOrder(order []string, known []string) error {
	allowed := make(map[string]bool, len(known))
	for _, name := range known {
		allowed[strings.ToLower(name)] = true
	}
	for _, name := range order {
		if !allowed[name] {
			return fmt.Errorf("unknown provider %q (known: %s)", name, strings.Join(known, ", "))
		}
	}
	return nil
}
