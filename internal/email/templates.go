// AngelaMos | 2026
// templates.go

package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateCredentials     = "credentials"
	TemplateAssetCreated    = "asset_created"
	TemplateProfileRequest  = "profile_request"
	TemplateProfileApproved = "profile_approved"
	TemplateProfileRejected = "profile_rejected"
)

// Templates holds one parsed set per message, each combined with the
// shared layout.
type Templates struct {
	sets map[string]*template.Template
}

func LoadTemplates() (*Templates, error) {
	names := []string{
		TemplateCredentials,
		TemplateAssetCreated,
		TemplateProfileRequest,
		TemplateProfileApproved,
		TemplateProfileRejected,
	}

	t := &Templates{sets: make(map[string]*template.Template, len(names))}

	for _, name := range names {
		set, err := template.New(name).
			Funcs(sprig.FuncMap()).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.sets[name] = set
	}

	return t, nil
}

// Render returns the subject line and HTML body for the named message.
func (t *Templates) Render(name string, data any) (string, string, error) {
	set, ok := t.sets[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}

	var subject, body bytes.Buffer

	if err := set.ExecuteTemplate(&subject, "subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}

	if err := set.ExecuteTemplate(&body, "layout", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}

	return strings.TrimSpace(subject.String()), body.String(), nil
}
