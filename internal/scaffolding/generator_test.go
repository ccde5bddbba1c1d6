package scaffolding

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htmlssg/htmlssg/internal/build"
	"github.com/htmlssg/htmlssg/internal/config"
	"github.com/htmlssg/htmlssg/internal/errors"
	"github.com/htmlssg/htmlssg/internal/logging"
	"github.com/htmlssg/htmlssg/internal/testutils"
)

func newTestGenerator() (*ProjectGenerator, afero.Fs) {
	fs := afero.NewMemMapFs()
	g := NewProjectGenerator(fs, logging.Discard())
	g.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return g, fs
}

func TestGenerate(t *testing.T) {
	g, fs := newTestGenerator()

	files, err := g.Generate(context.Background(), Options{Name: "travel-blog", ParentDir: "/work", Author: "Ana"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		".gitignore",
		".htmlssg.yml",
		"pages/about/about.html",
		"pages/index/index.md",
		"site.html",
		"site.json",
		"static/styles.css",
		"templates/footer.html",
		"templates/header.html",
	}, files)

	dir := "/work/travel-blog"
	testutils.AssertNotExists(t, fs, filepath.Join(dir, "site.css"))
	ok, err := afero.DirExists(fs, filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.True(t, ok)

	site := testutils.ReadFile(t, fs, filepath.Join(dir, "site.json"))
	assert.JSONEq(t, `{"title":"Travel Blog","description":"A static site generated with htmlssg","author":"Ana"}`, site)

	assert.Contains(t, testutils.ReadFile(t, fs, filepath.Join(dir, "pages/index/index.md")), "title: Welcome to Travel Blog")
	assert.Contains(t, testutils.ReadFile(t, fs, filepath.Join(dir, "templates/footer.html")), "&copy; 2026")
	assert.NotContains(t, testutils.ReadFile(t, fs, filepath.Join(dir, "site.html")), "class=")
}

func TestGenerateTailwind(t *testing.T) {
	g, fs := newTestGenerator()

	files, err := g.Generate(context.Background(), Options{Name: "tw", ParentDir: "/work", Tailwind: true})
	require.NoError(t, err)
	assert.Contains(t, files, "site.css")
	assert.Contains(t, files, "static/styles.css")

	assert.Contains(t, testutils.ReadFile(t, fs, "/work/tw/site.css"), `@import "tailwindcss";`)
	assert.Contains(t, testutils.ReadFile(t, fs, "/work/tw/site.html"), `<body class="bg-gray-50 min-h-screen">`)
	assert.Contains(t, testutils.ReadFile(t, fs, "/work/tw/static/styles.css"), "tailwindcss/cli")
}

func TestGenerateDefaultName(t *testing.T) {
	g, fs := newTestGenerator()

	_, err := g.Generate(context.Background(), Options{ParentDir: "/work"})
	require.NoError(t, err)
	testutils.AssertFileExists(t, fs, filepath.Join("/work", DefaultProjectName, "site.html"))
	assert.Contains(t, testutils.ReadFile(t, fs, "/work/my-ssg-site/site.json"), `"author": "Your Name"`)
}

func TestGenerateRefusesNonEmptyDirectory(t *testing.T) {
	g, fs := newTestGenerator()
	require.NoError(t, afero.WriteFile(fs, "/work/site/keep.txt", []byte("mine"), 0o644))

	_, err := g.Generate(context.Background(), Options{Name: "site", ParentDir: "/work"})
	require.Error(t, err)

	var se *errors.SiteError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, errors.ErrCodeProjectExists, se.Code)
	assert.Equal(t, "mine", testutils.ReadFile(t, fs, "/work/site/keep.txt"))
	testutils.AssertNotExists(t, fs, "/work/site/site.html")
}

func TestGenerateIntoEmptyDirectory(t *testing.T) {
	g, fs := newTestGenerator()
	require.NoError(t, fs.MkdirAll("/work/site", 0o755))

	_, err := g.Generate(context.Background(), Options{Name: "site", ParentDir: "/work"})
	require.NoError(t, err)
	testutils.AssertFileExists(t, fs, "/work/site/site.html")
}

func TestGenerateRefusesFile(t *testing.T) {
	g, fs := newTestGenerator()
	require.NoError(t, afero.WriteFile(fs, "/work/site", []byte("x"), 0o644))

	_, err := g.Generate(context.Background(), Options{Name: "site", ParentDir: "/work"})
	require.Error(t, err)
}

func TestValidateProjectName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"my-site", false},
		{"site_2.0", false},
		{"Blog", false},
		{"", true},
		{"../escape", true},
		{"a/b", true},
		{".hidden", true},
		{"with space", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeneratedConfigLoads(t *testing.T) {
	g, fs := newTestGenerator()
	_, err := g.Generate(context.Background(), Options{Name: "cfg", ParentDir: "/work"})
	require.NoError(t, err)

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewReader([]byte(testutils.ReadFile(t, fs, "/work/cfg/.htmlssg.yml")))))

	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Source.Dir)
	assert.Equal(t, "./dist", cfg.Build.Output)
	assert.Equal(t, 300*time.Millisecond, cfg.Development.Debounce)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestGeneratedProjectBuilds(t *testing.T) {
	for _, tailwind := range []bool{false, true} {
		g, fs := newTestGenerator()
		_, err := g.Generate(context.Background(), Options{Name: "demo", ParentDir: "/work", Author: "Bo", Tailwind: tailwind})
		require.NoError(t, err)

		gen := build.NewGenerator(fs, build.Options{SourceDir: "/work/demo", OutputDir: "/work/demo/dist"}, logging.Discard())
		result, err := gen.Build(context.Background())
		require.NoError(t, err)

		assert.Len(t, result.Pages, 2)
		assert.Empty(t, result.Skipped)
		assert.False(t, result.HasErrors(), "%v", result.Diagnostics)

		index := testutils.ReadFile(t, fs, "/work/demo/dist/index/index.html")
		assert.Contains(t, index, "<title>Demo</title>")
		assert.Contains(t, index, "Welcome to Demo</h1>")
		assert.Contains(t, index, `<span>Bo</span>`)
		assert.NotContains(t, index, "<template")

		about := testutils.ReadFile(t, fs, "/work/demo/dist/about/index.html")
		assert.Contains(t, about, ">About</h1>")
		testutils.AssertFileExists(t, fs, "/work/demo/dist/styles.css")
	}
}
