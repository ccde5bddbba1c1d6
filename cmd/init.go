package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/htmlssg/htmlssg/internal/scaffolding"
)

var initCmd = &cobra.Command{
	Use:     "init [name]",
	Aliases: []string{"i"},
	Short:   "Create a new site project",
	Long: `Create a new project directory with a root layout, a home page,
header and footer fragments, site data, styles and a .htmlssg.yml.

The directory is named after the project and must not exist or be empty.

Examples:
  htmlssg init                     # Creates ./my-ssg-site
  htmlssg init blog                # Creates ./blog
  htmlssg init blog --tailwind     # Tailwind classes and a site.css source
  htmlssg init blog --dir ~/sites  # Creates ~/sites/blog`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initTailwind bool
	initAuthor   string
	initDir      string
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initTailwind, "tailwind", false, "add Tailwind CSS classes and a site.css source")
	initCmd.Flags().StringVar(&initAuthor, "author", "", "author shown in the footer")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "directory to create the project in")
}

func runInit(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := scaffolding.Options{
		Name:      scaffolding.DefaultProjectName,
		ParentDir: initDir,
		Author:    initAuthor,
		Tailwind:  initTailwind,
	}
	if len(args) > 0 {
		opts.Name = args[0]
	}

	gen := scaffolding.NewProjectGenerator(afero.NewOsFs(), logger)
	files, err := gen.Generate(commandContext(cmd), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created project %q in %s\n", opts.Name, opts.ProjectDir())
	for _, f := range files {
		fmt.Fprintf(out, "  %s\n", f)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  cd %s\n", opts.ProjectDir())
	if opts.Tailwind {
		fmt.Fprintln(out, "  npx @tailwindcss/cli -i ./site.css -o ./static/styles.css")
	}
	fmt.Fprintln(out, "  htmlssg serve")
	return nil
}
