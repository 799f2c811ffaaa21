package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out, err := Render("Review this {{language}} code: {{code}}", map[string]string{
		"language": "Go",
		"code":     "func main() {}",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Review this Go code: func main() {}", out)
}

func TestRenderMissingVariable(t *testing.T) {
	_, err := Render("Hello {{name}}, welcome to {{place}}", map[string]string{"name": "Ada"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "place")
}

func TestRenderNoPlaceholders(t *testing.T) {
	out, err := Render("plain text", nil)
	assert.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("{{a}} then {{b}} then {{a}} again")
	assert.Equal(t, []string{"a", "b"}, vars)

	assert.Nil(t, ExtractVariables("no placeholders here"))
}

func TestExtractVariablesIgnoresMalformed(t *testing.T) {
	vars := ExtractVariables("{{ok}} {not} {{with space}} {{}}")
	assert.Equal(t, []string{"ok"}, vars)
}
