package template_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/literag/internal/pkg/errors"
	"github.com/xxxsen/literag/internal/template"
)

func TestRegistryBuiltinEnglish(t *testing.T) {
	r := template.NewRegistry("en", "en")

	system, err := r.SystemPrompt()
	require.NoError(t, err)
	require.Contains(t, system, "You are an assistant")

	entry, err := r.ContextEntry(3, "some content")
	require.NoError(t, err)
	require.Equal(t, "## Document No: 3\n### Content: some content", entry)

	footer, err := r.Footer("what time is it?")
	require.NoError(t, err)
	require.Contains(t, footer, "## Question:\nwhat time is it?")
}

func TestRegistryFallsBackToFallbackLocale(t *testing.T) {
	r := template.NewRegistry("de", "en")

	system, err := r.SystemPrompt()
	require.NoError(t, err)
	require.NotEmpty(t, system)
}

func TestRegistryPrimaryOverridesFallback(t *testing.T) {
	r := template.NewRegistry("de", "en")
	r.RegisterLocale("de", map[string]string{
		"system_prompt": "Du bist ein Assistent.",
	})

	system, err := r.SystemPrompt()
	require.NoError(t, err)
	require.Equal(t, "Du bist ein Assistent.", system)

	// keys missing from the primary locale still resolve through the fallback
	entry, err := r.ContextEntry(1, "inhalt")
	require.NoError(t, err)
	require.Contains(t, entry, "inhalt")
}

func TestRegistryMissingTemplate(t *testing.T) {
	r := template.NewRegistry("de", "fr")

	_, err := r.SystemPrompt()
	require.ErrorIs(t, err, appErr.ErrTemplateMissing)
}
