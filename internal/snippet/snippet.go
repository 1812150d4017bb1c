// Package snippet renders a request as ready to paste code in a handful of
// languages.
package snippet

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"blitztest/internal/model"
)

// ErrUnsupportedLanguage is returned for a language with no template.
var ErrUnsupportedLanguage = errors.New("unsupported language")

//go:embed templates/*.tmpl
var templateFS embed.FS

// languages are the template names, in display order.
var languages = []string{"curl", "javascript", "python", "go", "rust"}

// singleQuoter escapes text for a single quoted JavaScript or Python string.
var singleQuoter = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// functions are the custom template functions available to every snippet.
var functions = template.FuncMap{
	"shell":  shellQuote,
	"quote":  func(s string) string { return "'" + singleQuoter.Replace(s) + "'" },
	"dquote": strconv.Quote,
	"raw":    goRaw,
	"lower":  strings.ToLower,
}

// templates is parsed once; each file is looked up by its base name.
var templates = template.Must(template.New("snippet").Funcs(functions).ParseFS(templateFS, "templates/*.tmpl"))

// data is what every template renders.
type data struct {
	Method  string
	URL     string
	Headers []model.Header
	Body    string
	HasBody bool
}

// Languages returns the supported languages.
func Languages() []string {
	return slices.Clone(languages)
}

// Generate renders req in lang. The snippet uses the URL with enabled params
// appended and the headers the request would be sent with.
func Generate(req model.Request, lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !slices.Contains(languages, lang) {
		return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnsupportedLanguage, lang, strings.Join(languages, ", "))
	}

	d := data{
		Method:  model.NormalizeMethod(req.Method),
		URL:     req.FullURL(),
		Headers: req.WireHeaders(),
		HasBody: req.HasBody(),
	}
	if d.HasBody {
		d.Body = req.Body
	}

	var out strings.Builder
	if err := templates.ExecuteTemplate(&out, lang+".tmpl", d); err != nil {
		return "", fmt.Errorf("could not render %s snippet: %w", lang, err)
	}
	return out.String(), nil
}

// shellQuote wraps s in single quotes for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// goRaw renders s as a Go raw string literal, falling back to an interpreted
// literal when s itself contains a backtick.
func goRaw(s string) string {
	if strings.Contains(s, "`") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}
