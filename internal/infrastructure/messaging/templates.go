package messaging

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TemplateRenderer renders message templates: text/template for SMS and
// WhatsApp bodies, html/template for email HTML
type TemplateRenderer struct {
	tag language.Tag
}

// NewTemplateRenderer creates a renderer for a BCP 47 locale such as "en-US".
// Unknown locales fall back to English.
func NewTemplateRenderer(locale string) *TemplateRenderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &TemplateRenderer{tag: tag}
}

func (r *TemplateRenderer) funcs() map[string]any {
	return map[string]any{
		"money": r.Money,
		"title": r.Title,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"default": func(def, v any) any {
			if s, ok := v.(string); ok && s == "" {
				return def
			}
			if v == nil {
				return def
			}
			return v
		},
	}
}

// RenderText renders a text/template
func (r *TemplateRenderer) RenderText(name, content string, data any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("template %s is empty", name)
	}
	tmpl, err := texttemplate.New(name).Funcs(r.funcs()).Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderHTML renders an html/template; values are escaped for HTML
func (r *TemplateRenderer) RenderHTML(name, content string, data any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("template %s is empty", name)
	}
	tmpl, err := htmltemplate.New(name).Funcs(r.funcs()).Option("missingkey=zero").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Money formats an amount in the renderer's locale with the ISO currency code
// and the currency's standard number of decimals, e.g. "USD 1,234.50"
func (r *TemplateRenderer) Money(v any, code string) string {
	d := toDecimal(v)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return d.StringFixed(2)
	}
	scale, _ := currency.Standard.Rounding(unit)
	f := d.Round(int32(scale)).InexactFloat64()
	return message.NewPrinter(r.tag).Sprintf("%s %v", unit.String(), number.Decimal(f, number.Scale(scale)))
}

// Title title-cases s for the renderer's locale. Casers are not safe for
// concurrent use, so one is made per call.
func (r *TemplateRenderer) Title(s string) string {
	return cases.Title(r.tag).String(s)
}

// toDecimal converts template values to a decimal
func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
