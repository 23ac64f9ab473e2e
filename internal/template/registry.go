package template

import (
	"fmt"
	"strconv"
	"strings"

	appErr "github.com/xxxsen/literag/internal/pkg/errors"
)

const (
	keySystemPrompt = "system_prompt"
	keyContextEntry = "context_entry"
	keyFooter       = "footer"
)

var builtinEN = map[string]string{
	keySystemPrompt: strings.Join([]string{
		"You are an assistant to generate a response for the user.",
		"You will be provided by a set of documents associated with the user's query.",
		"You have to generate a response based on the documents provided.",
		"Ignore the documents that are not relevant to the user's query.",
		"You can apologize to the user if you are not able to generate a response.",
		"You have to generate response in the same language as the user's query.",
		"Be polite and respectful to the user.",
		"Be precise and concise in your response. Avoid unnecessary information.",
	}, "\n"),
	keyContextEntry: "## Document No: $index\n### Content: $content",
	keyFooter: strings.Join([]string{
		"Based only on the above documents, please generate an answer for the user.",
		"## Question:",
		"$query",
		"## Answer:",
	}, "\n"),
}

// Registry resolves prompt templates by locale with a single fallback hop.
type Registry struct {
	primary  string
	fallback string
	locales  map[string]map[string]string
}

func NewRegistry(primary string, fallback string) *Registry {
	r := &Registry{
		primary:  primary,
		fallback: fallback,
		locales:  make(map[string]map[string]string),
	}
	r.RegisterLocale("en", builtinEN)
	return r
}

// RegisterLocale adds or extends the template set for a locale.
func (r *Registry) RegisterLocale(locale string, entries map[string]string) {
	set, ok := r.locales[locale]
	if !ok {
		set = make(map[string]string, len(entries))
		r.locales[locale] = set
	}
	for k, v := range entries {
		set[k] = v
	}
}

func (r *Registry) lookup(key string) (string, error) {
	if set, ok := r.locales[r.primary]; ok {
		if tpl, ok := set[key]; ok {
			return tpl, nil
		}
	}
	if set, ok := r.locales[r.fallback]; ok {
		if tpl, ok := set[key]; ok {
			return tpl, nil
		}
	}
	return "", fmt.Errorf("%w: %s (locale %s, fallback %s)", appErr.ErrTemplateMissing, key, r.primary, r.fallback)
}

func (r *Registry) SystemPrompt() (string, error) {
	return r.lookup(keySystemPrompt)
}

// ContextEntry renders one retrieved document labeled with its 1-based rank.
func (r *Registry) ContextEntry(index int, content string) (string, error) {
	tpl, err := r.lookup(keyContextEntry)
	if err != nil {
		return "", err
	}
	return strings.NewReplacer(
		"$index", strconv.Itoa(index),
		"$content", content,
	).Replace(tpl), nil
}

func (r *Registry) Footer(query string) (string, error) {
	tpl, err := r.lookup(keyFooter)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(tpl, "$query", query), nil
}
