package view

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/sagarc03/relay"
)

// File is the on-disk layout of a view document file.
type File struct {
	Views []Document `yaml:"views"`
}

// Document is a view rendered from a text/template body.
//
// The template is executed with a TemplateData value.
type Document struct {
	Name        string            `yaml:"name"`
	Status      int               `yaml:"status,omitempty"`
	ContentType string            `yaml:"content_type,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body"`

	tmpl *template.Template
}

// TemplateData is what a document body template sees.
type TemplateData struct {
	ID      string
	Method  string
	Path    string
	Query   map[string][]string
	Headers http.Header
	Cookies map[string]string
}

// Compile parses the document body. It must be called before Get.
func (d *Document) Compile() error {
	if d.Name == "" {
		return fmt.Errorf("compile view: name is required: %w", relay.ErrConfig)
	}
	if d.Status != 0 && (d.Status < 100 || d.Status > 999) {
		return fmt.Errorf("compile view %q: status %d: %w", d.Name, d.Status, relay.ErrInvalidStatusCode)
	}

	tmpl, err := template.New(d.Name).
		Option("missingkey=zero").
		Funcs(template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
		}).
		Parse(d.Body)
	if err != nil {
		return fmt.Errorf("compile view %q: %w", d.Name, err)
	}
	d.tmpl = tmpl
	return nil
}

// Get renders the document into msg and replies.
func (d *Document) Get(ctx context.Context, msg *relay.Message) {
	data := TemplateData{
		ID:      msg.ID,
		Method:  msg.RequestMethod,
		Headers: msg.RequestHeaders,
		Cookies: msg.Cookies,
	}
	if msg.URL != nil {
		data.Path = msg.URL.Path
		data.Query = msg.URL.Query()
	}

	var sb strings.Builder
	if err := d.tmpl.Execute(&sb, data); err != nil {
		slog.ErrorContext(ctx, "view render failed", "view", d.Name, "error", err)
		msg.ResponseStatusCode = http.StatusInternalServerError
		msg.Response = nil
		reply(ctx, msg)
		return
	}

	if msg.ResponseHeaders == nil {
		msg.ResponseHeaders = make(http.Header)
	}
	for k, v := range d.Headers {
		msg.ResponseHeaders.Set(k, v)
	}
	contentType := d.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	msg.ResponseHeaders.Set("Content-Type", contentType)
	msg.ResponseStatusCode = d.Status
	msg.Response = sb.String()

	reply(ctx, msg)
}

func reply(ctx context.Context, msg *relay.Message) {
	if _, err := msg.Reply(ctx); err != nil {
		slog.ErrorContext(ctx, "view reply failed", "error", err)
		if msg.Connection != nil {
			msg.Connection.End()
		}
	}
}

// Parse reads a view document file and compiles every document in it.
func Parse(r io.Reader) (Map, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return Map{}, nil
		}
		return nil, fmt.Errorf("parse views: %w", err)
	}

	views := make(Map, len(f.Views))
	for i := range f.Views {
		doc := &f.Views[i]
		if err := doc.Compile(); err != nil {
			return nil, err
		}
		if _, dup := views[doc.Name]; dup {
			return nil, fmt.Errorf("parse views: duplicate view %q: %w", doc.Name, relay.ErrConfig)
		}
		views[doc.Name] = doc
	}
	return views, nil
}

// LoadFile reads and parses the view document file at path.
func LoadFile(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}
