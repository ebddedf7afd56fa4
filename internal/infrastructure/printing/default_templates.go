package printing

import (
	"embed"
)

//go:embed templates/*.html
var templateFS embed.FS

// invoiceTemplateName is the embedded template used for every invoice render
const invoiceTemplateName = "templates/invoice.html"

// InvoiceTemplate returns the embedded invoice template source
func InvoiceTemplate() (string, error) {
	data, err := templateFS.ReadFile(invoiceTemplateName)
	if err != nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "embedded invoice template missing", err)
	}
	return string(data), nil
}

// BuildInvoiceHTML renders the invoice template against a document
func BuildInvoiceHTML(engine *TemplateEngine, doc *InvoiceDocument) (string, error) {
	src, err := InvoiceTemplate()
	if err != nil {
		return "", err
	}
	return engine.RenderString("invoice", src, doc)
}
