package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "a,b,c", JoinTags([]string{"a", "b", "c"}))
	assert.Equal(t, "a,b", JoinTags([]string{" a ", "", "b", "  "}))
	assert.Equal(t, "", JoinTags(nil))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitTags("a,b,c"))
	assert.Equal(t, []string{"a", "b"}, SplitTags(" a , ,b,"))
	assert.Equal(t, []string{}, SplitTags(""))
	assert.Equal(t, []string{}, SplitTags("   "))
}

func TestTagsRoundTrip(t *testing.T) {
	tags := []string{"code-review", "quality", "go"}
	assert.Equal(t, tags, SplitTags(JoinTags(tags)))
}

func TestPromptPatchApply(t *testing.T) {
	p := Prompt{
		Title:    "Old title",
		Content:  "Old content",
		Category: "development",
		Tags:     []string{"a"},
	}

	title := "New title"
	fav := true
	patch := PromptPatch{Title: &title, IsFavorite: &fav}
	patch.Apply(&p)

	assert.Equal(t, "New title", p.Title)
	assert.True(t, p.IsFavorite)
	assert.Equal(t, "Old content", p.Content)
	assert.Equal(t, "development", p.Category)
	assert.Equal(t, []string{"a"}, p.Tags)
}
