package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/folioapp/folio/internal/client"
	"github.com/folioapp/folio/internal/model"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ===================================================================
// project
// ===================================================================

// projectFlags are shared by project create and update.
type projectFlags struct {
	title, description, short string
	technologies              []string
	image, live, github       string
	featured                  bool
	category                  string
	order                     int
}

func (f *projectFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "Project title")
	fs.StringVar(&f.description, "description", "", "Full description")
	fs.StringVar(&f.short, "short", "", "Short description for cards (max 150 chars)")
	fs.StringSliceVar(&f.technologies, "tech", nil, "Technologies (repeatable or comma-separated)")
	fs.StringVar(&f.image, "image", "", "Image URL")
	fs.StringVar(&f.live, "live", "", "Live demo URL")
	fs.StringVar(&f.github, "github", "", "Source repository URL")
	fs.BoolVar(&f.featured, "featured", false, "Show on the home page")
	fs.StringVar(&f.category, "category", "", "Category: web, mobile, full-stack, design or other")
	fs.IntVar(&f.order, "order", 0, "Sort position (lower first)")
}

// changed returns only the fields whose flags were given, keyed by their
// JSON names, so updates leave everything else alone.
func (f *projectFlags) changed(fs *pflag.FlagSet) map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(flag, key string, v interface{}) {
		if fs.Changed(flag) {
			fields[key] = v
		}
	}
	set("title", "title", f.title)
	set("description", "description", f.description)
	set("short", "shortDescription", f.short)
	set("tech", "technologies", f.technologies)
	set("image", "imageUrl", f.image)
	set("live", "liveUrl", f.live)
	set("github", "githubUrl", f.github)
	set("featured", "featured", f.featured)
	set("category", "category", f.category)
	set("order", "order", f.order)
	return fields
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "List and edit portfolio projects",
	}

	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectGetCmd())
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var (
		filter     client.ProjectFilter
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			projects, err := api.ListProjects(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(projects)
			}
			if len(projects) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			fmt.Printf("%-5s %-32s %-28s %-10s %-8s\n", "ORDER", "TITLE", "SLUG", "CATEGORY", "FEATURED")
			for _, p := range projects {
				fmt.Printf("%-5d %-32s %-28s %-10s %-8s\n",
					p.Order, truncate(p.Title, 32), truncate(p.Slug, 28), p.Category, yesNo(p.Featured))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter.Featured, "featured", false, "Only featured projects")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only projects in this category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newProjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id-or-slug>",
		Short: "Show one project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			p, err := api.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(p)
		},
	}
}

func newProjectCreateCmd() *cobra.Command {
	var f projectFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Example: `  folio project create --title "Folio" --description "Portfolio backend" \
    --short "Go API for my site" --tech go,sqlite --featured`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			p, err := api.CreateProject(cmd.Context(), &model.Project{
				Title:            f.title,
				Description:      f.description,
				ShortDescription: f.short,
				Technologies:     f.technologies,
				ImageURL:         f.image,
				LiveURL:          f.live,
				GithubURL:        f.github,
				Featured:         f.featured,
				Category:         f.category,
				Order:            f.order,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created project %q (id %s, slug %s)\n", p.Title, p.ID, p.Slug)
			return nil
		},
	}

	f.register(cmd.Flags())
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("description")
	cmd.MarkFlagRequired("short")
	return cmd
}

func newProjectUpdateCmd() *cobra.Command {
	var f projectFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a project",
		Long:  "Change the given fields of a project. Fields without a flag keep their value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := f.changed(cmd.Flags())
			if len(fields) == 0 {
				return fmt.Errorf("nothing to update; pass at least one field flag")
			}
			api, err := apiClient()
			if err != nil {
				return err
			}
			p, err := api.UpdateProject(cmd.Context(), args[0], fields)
			if err != nil {
				return err
			}
			fmt.Printf("Updated project %q\n", p.Title)
			return nil
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			if err := api.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Project deleted.")
			return nil
		},
	}
}

// ===================================================================
// testimonial
// ===================================================================

func newTestimonialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "testimonial",
		Aliases: []string{"testimonials"},
		Short:   "List and edit testimonials",
	}

	cmd.AddCommand(newTestimonialListCmd())
	cmd.AddCommand(newTestimonialAddCmd())
	cmd.AddCommand(newTestimonialFeatureCmd())
	cmd.AddCommand(newTestimonialDeleteCmd())
	return cmd
}

func newTestimonialListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List testimonials",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			items, err := api.ListTestimonials(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("No testimonials.")
				return nil
			}
			fmt.Printf("%-36s %-22s %-6s %-8s %s\n", "ID", "NAME", "RATING", "FEATURED", "CONTENT")
			for _, t := range items {
				fmt.Printf("%-36s %-22s %-6d %-8s %s\n",
					t.ID, truncate(t.Name, 22), t.Rating, yesNo(t.Featured), truncate(t.Content, 40))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTestimonialAddCmd() *cobra.Command {
	var t model.Testimonial

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a testimonial",
		Example: `  folio testimonial add --name "Ada" --role "CTO" --company Acme \
    --content "Shipped on time." --rating 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			created, err := api.CreateTestimonial(cmd.Context(), &t)
			if err != nil {
				return err
			}
			fmt.Printf("Added testimonial from %s (id %s)\n", created.Name, created.ID)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&t.Name, "name", "", "Author name")
	fs.StringVar(&t.Role, "role", "", "Author role")
	fs.StringVar(&t.Company, "company", "", "Author company")
	fs.StringVar(&t.Content, "content", "", "Testimonial text")
	fs.StringVar(&t.Avatar, "avatar", "", "Avatar image URL")
	fs.IntVar(&t.Rating, "rating", 5, "Rating from 1 to 5")
	fs.BoolVar(&t.Featured, "featured", false, "Show on the home page")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("role")
	cmd.MarkFlagRequired("content")
	return cmd
}

func newTestimonialFeatureCmd() *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "feature <id>",
		Short: "Feature (or with --off, unfeature) a testimonial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			t, err := api.UpdateTestimonial(cmd.Context(), args[0], map[string]interface{}{"featured": !off})
			if err != nil {
				return err
			}
			fmt.Printf("Testimonial from %s featured: %s\n", t.Name, yesNo(t.Featured))
			return nil
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "Remove from the featured list")
	return cmd
}

func newTestimonialDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a testimonial",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			if err := api.DeleteTestimonial(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Testimonial deleted.")
			return nil
		},
	}
}

// ===================================================================
// messages
// ===================================================================

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"inbox"},
		Short:   "Triage contact form messages",
	}

	cmd.AddCommand(newMessagesListCmd())
	cmd.AddCommand(newMessagesMarkCmd())
	cmd.AddCommand(newMessagesDeleteCmd())
	return cmd
}

func newMessagesListCmd() *cobra.Command {
	var (
		status     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List contact messages, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			msgs, err := api.ListMessages(cmd.Context(), status)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(msgs)
			}
			if len(msgs) == 0 {
				fmt.Println("No messages.")
				return nil
			}
			for _, m := range msgs {
				fmt.Printf("%s  [%s]  %s <%s>  %s\n", m.ID, m.Status, m.Name, m.Email,
					m.CreatedAt.Local().Format("2006-01-02 15:04"))
				fmt.Printf("    %s\n", truncate(strings.ReplaceAll(m.Message, "\n", " "), 100))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only messages with this status (pending, read, replied)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newMessagesMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mark <id> <status>",
		Short:     "Set a message's status",
		Example:   "  folio messages mark 0192f3c4-... replied",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{model.StatusPending, model.StatusRead, model.StatusReplied},
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			m, err := api.UpdateMessageStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Message from %s marked %s\n", m.Name, m.Status)
			return nil
		},
	}
}

func newMessagesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a message",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := apiClient()
			if err != nil {
				return err
			}
			if err := api.DeleteMessage(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Message deleted.")
			return nil
		},
	}
}
