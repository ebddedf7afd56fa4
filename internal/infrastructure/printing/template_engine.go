package printing

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine renders HTML templates with invoice data using Go's
// html/template with formatting helpers.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a new template engine
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{}
	e.funcMap = template.FuncMap{
		"formatMoney":   formatMoney,
		"formatDate":    formatDate,
		"formatPercent": formatPercent,
		"formatDecimal": formatDecimal,
		"upper":         strings.ToUpper,
		"lower":         strings.ToLower,
		"title":         titleCase,
		"trim":          strings.TrimSpace,
	}
	return e
}

// RenderString parses and executes a template against data
func (e *TemplateEngine) RenderString(name, content string, data interface{}) (string, error) {
	if content == "" {
		return "", NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}

	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// formatMoney formats a decimal value with thousand separators and two
// decimal places. Example: 1234.5 -> "1,234.50"
func formatMoney(v interface{}) string {
	d := toDecimal(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(2), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return sign + result.String() + "." + decPart
}

// formatDate formats a time value as "2006-01-02"
func formatDate(v interface{}) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatPercent renders a decimal as a percentage without trailing zeros
func formatPercent(v interface{}) string {
	return toDecimal(v).String() + "%"
}

// formatDecimal renders a decimal with its natural precision
func formatDecimal(v interface{}) string {
	return toDecimal(v).String()
}

func titleCase(s string) string {
	caser := cases.Title(language.English)
	return caser.String(s)
}

func toDecimal(v interface{}) decimal.Decimal {
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

func toTime(v interface{}) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	default:
		return time.Time{}
	}
}
