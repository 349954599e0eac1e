// Command inkwell is a terminal client for an Inkwell blog instance: reading
// and searching notes, and authoring them when logged in.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	inkwell "github.com/inkwellhq/inkwell.go"
	"github.com/inkwellhq/inkwell.go/internal/config"
	"github.com/inkwellhq/inkwell.go/pkg/logger"
	"github.com/inkwellhq/inkwell.go/pkg/logger/zero"
	"github.com/inkwellhq/inkwell.go/pkg/render"
	"github.com/inkwellhq/inkwell.go/pkg/token"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "inkwell",
	Short:         "Inkwell blog client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newClient builds an SDK client from the CLI configuration. The returned
// cleanup stops the token file watcher and must be deferred.
func newClient(cmd *cobra.Command) (*inkwell.Client, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.APIURL == "" {
		return nil, nil, fmt.Errorf("no API URL configured; run `inkwell config init` or set %s", config.EnvAPIURL)
	}

	var log logger.Logger = logger.Nop{}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log = zero.New(os.Stderr)
	}

	tokens := token.NewFile(cfg.TokenFile)
	clientCfg := inkwell.NewConfig(cfg.APIURL)
	clientCfg.Tokens = tokens
	clientCfg.Logger = log

	c, err := inkwell.New(clientCfg)
	if err != nil {
		return nil, nil, err
	}

	// An external logout (another process removing the token file) drops
	// the identity mid-command instead of failing on the next request.
	if err := tokens.Watch(c.Session.HandleTokenLoss); err != nil {
		return nil, nil, fmt.Errorf("watching token file: %w", err)
	}
	return c, func() { tokens.Close() }, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		defer fmt.Fprintln(os.Stderr)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// config commands

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init API_URL",
	Short: "Initialize configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		tokenFile, err := config.DefaultTokenFile()
		if err != nil {
			return err
		}
		cfg := &config.Config{APIURL: args[0], TokenFile: tokenFile}
		if err := config.Init(path, cfg); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n", path)
		fmt.Printf("API URL:     %s\n", cfg.APIURL)
		fmt.Printf("Token file:  %s\n", cfg.TokenFile)
		return nil
	},
}

// auth commands

var loginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Log in and store the auth token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		user, err := c.Session.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Role)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup NAME EMAIL",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		user, err := c.Session.Signup(cmd.Context(), inkwell.SignupInput{
			Name:     args[0],
			Email:    args[1],
			Password: password,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Account created for %s\n", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored auth token",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		if err := c.Session.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := c.Session.Load(cmd.Context()); err != nil {
			return err
		}
		user, state := c.Session.User()
		if state != inkwell.SessionAuthenticated {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Printf("%s <%s>  role:%s\n", user.Name, user.Email, user.Role)
		if user.City != "" || user.Country != "" {
			fmt.Printf("%s %s\n", user.City, user.Country)
		}
		return nil
	},
}

// profile command

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		var in inkwell.ProfileInput
		in.Name, _ = cmd.Flags().GetString("name")
		in.Country, _ = cmd.Flags().GetString("country")
		in.City, _ = cmd.Flags().GetString("city")
		in.About, _ = cmd.Flags().GetString("about")

		user, err := c.Session.UpdateProfile(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Profile updated for %s\n", user.Name)
		return nil
	},
}

var profilePictureCmd = &cobra.Command{
	Use:   "picture FILE",
	Short: "Upload a profile picture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		user, err := c.Session.UploadProfilePicture(cmd.Context(), f.Name(), f)
		if err != nil {
			return err
		}
		fmt.Printf("Picture updated: %s\n", user.ProfilePicture)
		return nil
	},
}

// notes commands

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Read and manage notes",
}

func printNotes(notes []inkwell.Note) {
	for _, n := range notes {
		featured := " "
		if n.Featured {
			featured = "*"
		}
		fmt.Printf("%s %-24s  %s  %s\n", featured, n.ID, n.Date.Format("2006-01-02"), n.Title)
	}
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		pages, _ := cmd.Flags().GetInt("pages")
		categoryID, _ := cmd.Flags().GetString("category")
		featured, _ := cmd.Flags().GetBool("featured")
		mine, _ := cmd.Flags().GetBool("mine")

		switch {
		case mine:
			if err := c.Notes.FetchUserNotes(ctx); err != nil {
				return err
			}
			printNotes(c.Notes.UserNotes().Items())
		case featured:
			for i := 0; i < pages && c.Notes.Featured().HasMore(); i++ {
				if err := c.Notes.FetchFeaturedNotes(ctx, false); err != nil {
					return err
				}
			}
			printNotes(c.Notes.Featured().Items())
		case categoryID != "":
			col, _ := c.Notes.CategoryFeed()
			for i := 0; i < pages; i++ {
				if err := c.Notes.FetchCategoryNotes(ctx, categoryID, false); err != nil {
					return err
				}
				if !col.HasMore() {
					break
				}
			}
			printNotes(col.Items())
		default:
			for i := 0; i < pages && c.Notes.Global().HasMore(); i++ {
				if err := c.Notes.FetchNextNotes(ctx, false); err != nil {
					return err
				}
			}
			printNotes(c.Notes.Global().Items())
		}
		return nil
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show SLUG",
	Short: "Show one note by slug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := c.Notes.FetchNoteBySlug(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("%s", c.Notes.NoteErr())
		}
		note := c.Notes.CurrentNote()
		if note == nil {
			return fmt.Errorf("note not loaded")
		}

		fmt.Printf("%s\n", note.Title)
		fmt.Printf("category:%s  read:%dmin  %s\n\n", note.Category, note.ReadTime, note.Date.Format("2006-01-02"))

		if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
			out, err := render.HTML(note.Description)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}
		fmt.Println(note.Description)
		return nil
	},
}

var notesSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search notes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := c.Notes.SearchNotes(cmd.Context(), strings.Join(args, " ")); err != nil {
			return err
		}
		results := c.Notes.Search().Items()
		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		printNotes(results)
		return nil
	},
}

func noteInputFromFlags(cmd *cobra.Command) (inkwell.NoteInput, error) {
	var in inkwell.NoteInput
	in.Title, _ = cmd.Flags().GetString("title")
	in.Category, _ = cmd.Flags().GetString("category")
	in.Tag, _ = cmd.Flags().GetString("tag")
	in.Featured, _ = cmd.Flags().GetBool("featured")

	if file, _ := cmd.Flags().GetString("body-file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return in, fmt.Errorf("reading body file: %w", err)
		}
		in.Description = string(data)
		return in, nil
	}
	in.Description, _ = cmd.Flags().GetString("body")
	return in, nil
}

func addNoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Note title")
	cmd.Flags().String("category", "", "Category id")
	cmd.Flags().String("tag", "", "Tag")
	cmd.Flags().Bool("featured", false, "Mark as featured")
	cmd.Flags().String("body", "", "Note body")
	cmd.Flags().String("body-file", "", "Read the note body from a file")
}

var notesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		in, err := noteInputFromFlags(cmd)
		if err != nil {
			return err
		}
		note, err := c.Notes.AddNote(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", note.ID, note.Slug)
		return nil
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Update a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		in, err := noteInputFromFlags(cmd)
		if err != nil {
			return err
		}
		note, err := c.Notes.EditNote(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", note.ID)
		return nil
	},
}

var notesRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := c.Notes.DeleteNote(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// categories commands

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Browse and manage categories",
}

func printCategoryTree(cats []inkwell.Category, depth int) {
	for _, cat := range cats {
		fmt.Printf("%s%-24s  %s\n", strings.Repeat("  ", depth), cat.ID, cat.Name)
		printCategoryTree(cat.Children, depth+1)
	}
}

var categoriesTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the category tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := c.Categories.FetchCategoryTree(cmd.Context()); err != nil {
			return err
		}
		printCategoryTree(c.Categories.Tree(), 0)
		return nil
	},
}

var categoriesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		in := inkwell.CategoryInput{Name: args[0]}
		in.Description, _ = cmd.Flags().GetString("description")
		if parent, _ := cmd.Flags().GetString("parent"); parent != "" {
			in.Parent = &parent
		}
		cat, err := c.Categories.AddCategory(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", cat.Name, cat.ID)
		return nil
	},
}

var categoriesUpdateCmd = &cobra.Command{
	Use:   "update ID NAME",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		in := inkwell.CategoryInput{Name: args[1]}
		in.Description, _ = cmd.Flags().GetString("description")
		cat, err := c.Categories.UpdateCategory(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", cat.ID)
		return nil
	},
}

// consultations commands

var consultationsCmd = &cobra.Command{
	Use:   "consultations",
	Short: "Manage consultation requests",
}

var consultationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List consultation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		pages, _ := cmd.Flags().GetInt("pages")
		for i := 0; i < pages && c.Consultations.Requests().HasMore(); i++ {
			if err := c.Consultations.FetchNext(ctx, false); err != nil {
				return err
			}
		}
		for _, req := range c.Consultations.Requests().Items() {
			fmt.Printf("%-24s  %-10s  %s  %s <%s>\n",
				req.ID, req.Status, req.Date.Format("2006-01-02"), req.Name, req.Email)
		}
		return nil
	},
}

var consultationsSubmitCmd = &cobra.Command{
	Use:   "submit NAME EMAIL MESSAGE",
	Short: "Submit a consultation request",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		err = c.Consultations.Submit(cmd.Context(), inkwell.ConsultationInput{
			Name:    args[0],
			Email:   args[1],
			Message: args[2],
		})
		if err != nil {
			return err
		}
		fmt.Println("Request submitted.")
		return nil
	},
}

var consultationsResolveCmd = &cobra.Command{
	Use:   "resolve ID",
	Short: "Mark a consultation request resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cleanup, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		req, err := c.Consultations.UpdateStatus(cmd.Context(), args[0], inkwell.ConsultationResolved)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", req.ID, req.Status)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log SDK diagnostics to stderr")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	profileUpdateCmd.Flags().String("name", "", "Display name")
	profileUpdateCmd.Flags().String("country", "", "Country")
	profileUpdateCmd.Flags().String("city", "", "City")
	profileUpdateCmd.Flags().String("about", "", "About text")
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profilePictureCmd)
	rootCmd.AddCommand(profileCmd)

	notesListCmd.Flags().IntP("pages", "n", 1, "Number of pages to fetch")
	notesListCmd.Flags().String("category", "", "List notes in one category")
	notesListCmd.Flags().Bool("featured", false, "List featured notes")
	notesListCmd.Flags().Bool("mine", false, "List your own notes")
	notesShowCmd.Flags().Bool("html", false, "Render the body to HTML")
	addNoteFlags(notesAddCmd)
	addNoteFlags(notesEditCmd)
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesShowCmd)
	notesCmd.AddCommand(notesSearchCmd)
	notesCmd.AddCommand(notesAddCmd)
	notesCmd.AddCommand(notesEditCmd)
	notesCmd.AddCommand(notesRmCmd)
	rootCmd.AddCommand(notesCmd)

	categoriesAddCmd.Flags().String("description", "", "Category description")
	categoriesAddCmd.Flags().String("parent", "", "Parent category id")
	categoriesUpdateCmd.Flags().String("description", "", "Category description")
	categoriesCmd.AddCommand(categoriesTreeCmd)
	categoriesCmd.AddCommand(categoriesAddCmd)
	categoriesCmd.AddCommand(categoriesUpdateCmd)
	rootCmd.AddCommand(categoriesCmd)

	consultationsListCmd.Flags().IntP("pages", "n", 1, "Number of pages to fetch")
	consultationsCmd.AddCommand(consultationsListCmd)
	consultationsCmd.AddCommand(consultationsSubmitCmd)
	consultationsCmd.AddCommand(consultationsResolveCmd)
	rootCmd.AddCommand(consultationsCmd)
}
