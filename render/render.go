// Package render turns a named template and a parameter map into text.
package render

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttemplate "text/template"

	apperrors "github.com/leeforge/support/errors"
)

// Renderer is the template capability. It has no null object: callers that
// need one without a configured renderer get ErrorTypeCapabilityUnavailable.
type Renderer interface {
	Render(ctx context.Context, name string, params map[string]any) (string, error)
}

// FileRenderer renders HTML templates stored as <dir>/<name><ext>. Parsed
// templates are kept until Reset.
type FileRenderer struct {
	dir   string
	ext   string
	cache sync.Map // name -> *htmltemplate.Template
}

// NewFileRenderer uses ".html" when ext is empty.
func NewFileRenderer(dir, ext string) *FileRenderer {
	if ext == "" {
		ext = ".html"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FileRenderer{dir: dir, ext: ext}
}

func (r *FileRenderer) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "render "+name).
			WithDetail("template", name)
	}
	return buf.String(), nil
}

// Reset drops parsed templates so edits on disk are picked up.
func (r *FileRenderer) Reset() {
	r.cache.Range(func(k, _ any) bool {
		r.cache.Delete(k)
		return true
	})
}

func (r *FileRenderer) lookup(name string) (*htmltemplate.Template, error) {
	if v, ok := r.cache.Load(name); ok {
		return v.(*htmltemplate.Template), nil
	}

	rel := filepath.FromSlash(name + r.ext)
	if !filepath.IsLocal(rel) {
		return nil, apperrors.NewInvalid("template", name, "name escapes the template directory")
	}
	path := filepath.Join(r.dir, rel)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInvalid("template", name, "template not found").WithInnerError(err)
	}
	tmpl, err := htmltemplate.New(name).Parse(string(src))
	if err != nil {
		return nil, apperrors.NewInvalid("template", name, "parse failed").WithInnerError(err)
	}

	actual, _ := r.cache.LoadOrStore(name, tmpl)
	return actual.(*htmltemplate.Template), nil
}

// MapRenderer renders plain-text templates registered in memory.
type MapRenderer struct {
	mu        sync.RWMutex
	templates map[string]*texttemplate.Template
}

func NewMapRenderer() *MapRenderer {
	return &MapRenderer{templates: make(map[string]*texttemplate.Template)}
}

// Add parses src and registers it under name, replacing any earlier one.
func (r *MapRenderer) Add(name, src string) error {
	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return apperrors.NewInvalid("template", name, "parse failed").WithInnerError(err)
	}
	r.mu.Lock()
	r.templates[name] = tmpl
	r.mu.Unlock()
	return nil
}

// MustAdd is Add that panics on a parse error.
func (r *MapRenderer) MustAdd(name, src string) *MapRenderer {
	if err := r.Add(name, src); err != nil {
		panic(err)
	}
	return r
}

func (r *MapRenderer) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return "", apperrors.NewInvalid("template", name, "template not found")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "render "+name).
			WithDetail("template", name)
	}
	return buf.String(), nil
}
