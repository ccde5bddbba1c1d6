// Package scaffolding creates new htmlssg projects.
package scaffolding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"text/template"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/htmlssg/htmlssg/internal/build"
	"github.com/htmlssg/htmlssg/internal/config"
	"github.com/htmlssg/htmlssg/internal/errors"
	"github.com/htmlssg/htmlssg/internal/logging"
)

// DefaultProjectName is used when init is given no name.
const DefaultProjectName = "my-ssg-site"

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Options describes the project to create.
type Options struct {
	// Name is the project name, also used as the directory name under
	// ParentDir.
	Name      string
	ParentDir string
	Author    string
	Tailwind  bool
}

// ProjectGenerator writes new projects.
type ProjectGenerator struct {
	fs        afero.Fs
	templates []ProjectTemplate
	logger    logging.Logger
	now       func() time.Time
}

// NewProjectGenerator creates a generator writing to fs.
func NewProjectGenerator(fs afero.Fs, logger logging.Logger) *ProjectGenerator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ProjectGenerator{
		fs:        fs,
		templates: GetProjectTemplates(),
		logger:    logger.WithComponent("scaffolding"),
		now:       time.Now,
	}
}

// ValidateProjectName checks that name can be used as a directory name.
func ValidateProjectName(name string) error {
	if name == "" {
		return errors.NewValidationError(errors.ErrCodeConfigInvalid, "project name cannot be empty")
	}
	if !projectNamePattern.MatchString(name) {
		return errors.NewValidationError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("project name %q may only contain letters, digits, '.', '_' and '-'", name))
	}
	return nil
}

// ProjectDir returns the directory Generate writes to.
func (o Options) ProjectDir() string {
	return filepath.Join(o.ParentDir, o.Name)
}

// Generate creates the project and returns the written files, relative to
// the project directory. An existing non-empty directory is never touched.
func (g *ProjectGenerator) Generate(ctx context.Context, opts Options) ([]string, error) {
	if opts.Name == "" {
		opts.Name = DefaultProjectName
	}
	if err := ValidateProjectName(opts.Name); err != nil {
		return nil, err
	}
	if opts.Author == "" {
		opts.Author = "Your Name"
	}

	dir := opts.ProjectDir()
	if err := g.ensureEmpty(dir); err != nil {
		return nil, err
	}

	tctx := TemplateContext{
		Name:     opts.Name,
		Title:    build.TitleFromName(opts.Name),
		Author:   opts.Author,
		Year:     g.now().Year(),
		Tailwind: opts.Tailwind,
	}

	files := make(map[string][]byte)
	for _, tmpl := range g.templates {
		if (tmpl.TailwindOnly && !opts.Tailwind) || (tmpl.PlainOnly && opts.Tailwind) {
			continue
		}
		content, err := render(tmpl, tctx)
		if err != nil {
			return nil, err
		}
		files[tmpl.Path] = content
	}

	siteJSON, err := siteData(tctx)
	if err != nil {
		return nil, err
	}
	files["site.json"] = siteJSON

	configYAML, err := projectConfig()
	if err != nil {
		return nil, err
	}
	files[config.DefaultConfigFile] = configYAML

	written := make([]string, 0, len(files))
	for rel := range files {
		written = append(written, rel)
	}
	sort.Strings(written)

	for _, rel := range written {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := g.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeWriteFile, "failed to create directory").WithPath(filepath.Dir(path))
		}
		if err := afero.WriteFile(g.fs, path, files[rel], 0o644); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeWriteFile, "failed to write file").WithPath(path)
		}
		g.logger.Debug(ctx, "Created file", "path", path)
	}

	dataDir := filepath.Join(dir, "data")
	if err := g.fs.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeWriteFile, "failed to create directory").WithPath(dataDir)
	}

	g.logger.Info(ctx, "Project created", "dir", dir, "files", len(written), "tailwind", opts.Tailwind)
	return written, nil
}

func (g *ProjectGenerator) ensureEmpty(dir string) error {
	exists, err := afero.Exists(g.fs, dir)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeReadFile, "failed to check project directory").WithPath(dir)
	}
	if !exists {
		return nil
	}

	isDir, err := afero.IsDir(g.fs, dir)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeReadFile, "failed to check project directory").WithPath(dir)
	}
	if !isDir {
		return errors.NewValidationError(errors.ErrCodeProjectExists, "a file with the project name already exists").WithPath(dir)
	}

	empty, err := afero.IsEmpty(g.fs, dir)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeReadFile, "failed to check project directory").WithPath(dir)
	}
	if !empty {
		return errors.NewValidationError(errors.ErrCodeProjectExists, "project directory already exists and is not empty").WithPath(dir)
	}
	return nil
}

func render(tmpl ProjectTemplate, ctx TemplateContext) ([]byte, error) {
	t, err := template.New(tmpl.Path).Parse(tmpl.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", tmpl.Path, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", tmpl.Path, err)
	}
	return buf.Bytes(), nil
}

func siteData(ctx TemplateContext) ([]byte, error) {
	site := map[string]string{
		"title":       ctx.Title,
		"description": "A static site generated with htmlssg",
		"author":      ctx.Author,
	}
	out, err := json.MarshalIndent(site, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// projectConfig renders the default configuration. Workers is left at zero
// so the project uses every CPU of whichever machine builds it.
func projectConfig() ([]byte, error) {
	cfg := config.Default()
	cfg.Build.Workers = 0

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", config.DefaultConfigFile, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
