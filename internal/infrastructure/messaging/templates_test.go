package messaging

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_RenderText(t *testing.T) {
	r := NewTemplateRenderer("en-US")
	out, err := r.RenderText("sms", `Hi {{.Name | title}}, you have {{.Points}} points. Spend {{money .Total "USD"}}!`, map[string]any{
		"Name":   "jane doe",
		"Points": 1200,
		"Total":  decimal.RequireFromString("1234.5"),
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Hi Jane Doe,")
	assert.Contains(t, out, "1200 points")
	assert.Contains(t, out, "USD 1,234.5")
}

func TestTemplateRenderer_RenderHTMLEscapes(t *testing.T) {
	r := NewTemplateRenderer("en")
	out, err := r.RenderHTML("email", `<p>Hello {{.Name}}</p>`, map[string]any{"Name": "<script>x</script>"})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestTemplateRenderer_Errors(t *testing.T) {
	r := NewTemplateRenderer("not a locale!!")
	_, err := r.RenderText("empty", "  ", nil)
	assert.Error(t, err)

	_, err = r.RenderText("broken", "{{.Name", nil)
	assert.Error(t, err)
}

func TestTemplateRenderer_Money(t *testing.T) {
	r := NewTemplateRenderer("en")
	assert.Equal(t, "JPY 1,500", r.Money(1500, "JPY"))
	assert.Equal(t, "9.99", r.Money("9.99", "???"))
}
