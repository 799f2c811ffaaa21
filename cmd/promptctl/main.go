// promptctl is the command-line client for the prompt store. It works
// against the local device store, the remote API, or both (hybrid mode
// with local failover), selected via STORE_MODE or --mode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"promptvault/internal/config"
	"promptvault/internal/models"
	"promptvault/internal/store"
	"promptvault/internal/store/local"
)

var (
	flagMode      string
	flagLocalPath string
	flagRemoteURL string
)

var rootCmd = &cobra.Command{
	Use:   "promptctl",
	Short: "Manage AI prompts from the terminal",
	Long: `promptctl stores, searches and organizes reusable AI prompts.

Prompts live in a local SQLite file by default. Point it at a running
prompt API with --mode remote, or use --mode hybrid to prefer the API
and fall back to the local store when the network is down.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "storage mode: local, remote or hybrid (default from STORE_MODE)")
	rootCmd.PersistentFlags().StringVar(&flagLocalPath, "db", "", "path to the local store file (default from STORE_LOCAL_PATH)")
	rootCmd.PersistentFlags().StringVar(&flagRemoteURL, "api", "", "base URL of the prompt API (default from STORE_REMOTE_URL)")

	rootCmd.AddCommand(listCmd, searchCmd, showCmd, createCmd, favoriteCmd, deleteCmd, executeCmd, exportCmd, importCmd, clearCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the configured store and warns on every degraded
// operation in hybrid mode.
func openStore() (store.Store, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg := c.Store
	if flagMode != "" {
		cfg.Mode = flagMode
	}
	if flagLocalPath != "" {
		cfg.LocalPath = flagLocalPath
	}
	if flagRemoteURL != "" {
		cfg.RemoteBaseURL = flagRemoteURL
	}

	return store.Open(cfg, func(op string, err error) {
		fmt.Fprintf(os.Stderr, "warning: %s served from local store (remote error: %v)\n", op, err)
	})
}

func printPrompts(prompts []models.Prompt) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tMODEL\tFAV\tUSES")
	for _, p := range prompts {
		fav := ""
		if p.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.ID, p.Title, p.Category, p.AIModel, fav, p.UsageCount)
	}
	w.Flush()
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		prompts, err := s.GetAllPrompts(context.Background())
		if err != nil {
			return err
		}
		printPrompts(prompts)
		return nil
	},
}

var (
	searchCategory string
	searchModel    string
	searchTags     []string
	searchFavorite bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search prompts by text and filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		filters := models.SearchFilters{
			Category: searchCategory,
			AIModel:  searchModel,
			Tags:     searchTags,
		}
		if cmd.Flags().Changed("favorite") {
			filters.Favorite = &searchFavorite
		}

		prompts, err := s.SearchPrompts(context.Background(), query, filters)
		if err != nil {
			return err
		}
		printPrompts(prompts)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one prompt in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.GetPromptByID(context.Background(), args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var (
	createTitle       string
	createContent     string
	createDescription string
	createCategory    string
	createModel       string
	createTags        []string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		if createTitle == "" || createContent == "" {
			return fmt.Errorf("--title and --content are required")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.SavePrompt(context.Background(), models.PromptDraft{
			Title:       createTitle,
			Content:     createContent,
			Description: createDescription,
			Category:    createCategory,
			AIModel:     createModel,
			Tags:        createTags,
		})
		if err != nil {
			return err
		}
		if fo, ok := s.(*store.Failover); ok && fo.Degraded() {
			fmt.Printf("created %s (saved only locally, will not reach the API)\n", p.ID)
			return nil
		}
		fmt.Printf("created %s\n", p.ID)
		return nil
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle a prompt's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		p, err := s.ToggleFavorite(context.Background(), args[0])
		if err != nil {
			return err
		}
		state := "unfavorited"
		if p.IsFavorite {
			state = "favorited"
		}
		fmt.Printf("%s %q\n", state, p.Title)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeletePrompt(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

var executeCmd = &cobra.Command{
	Use:   "execute <id>",
	Short: "Record one use of a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.IncrementUsage(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("recorded execution for", args[0])
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the local store as a backup file",
	Long:  "Export writes the full prompt list and analytics summary as JSON to the given file, or to stdout when no file is given. Export always reads the local store.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := openLocal()
		if err != nil {
			return err
		}
		defer l.Close()

		b, err := l.Export(context.Background())
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return err
		}

		if len(args) == 0 {
			fmt.Println(string(out))
			return nil
		}
		if err := os.WriteFile(args[0], out, 0o644); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		fmt.Printf("exported %d prompts to %s\n", len(b.Prompts), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a backup file into the local store",
	Long:  "Import merges the backup's prompts into the local store by id, with the backup winning conflicts, and replaces the analytics summary when the backup carries one.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		var b models.Backup
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("parse backup: %w", err)
		}

		l, err := openLocal()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := l.Import(context.Background(), &b); err != nil {
			return err
		}
		fmt.Printf("imported %d prompts\n", len(b.Prompts))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the local store and re-seed it",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("This deletes every locally stored prompt. Type 'yes' to continue: ")
		var answer string
		fmt.Scanln(&answer)
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Println("aborted")
			return nil
		}

		l, err := openLocal()
		if err != nil {
			return err
		}
		defer l.Close()

		if err := l.ClearAll(context.Background()); err != nil {
			return err
		}
		fmt.Println("local store cleared")
		return nil
	},
}

// openLocal opens the local store directly for the backup commands,
// which are local-only regardless of mode.
func openLocal() (*local.Store, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}
	path := c.Store.LocalPath
	if flagLocalPath != "" {
		path = flagLocalPath
	}
	return local.New(path)
}

func init() {
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "filter by category")
	searchCmd.Flags().StringVar(&searchModel, "model", "", "filter by AI model")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "filter by tag (repeatable)")
	searchCmd.Flags().BoolVar(&searchFavorite, "favorite", false, "only favorites")

	createCmd.Flags().StringVar(&createTitle, "title", "", "prompt title (required)")
	createCmd.Flags().StringVar(&createContent, "content", "", "prompt text (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "short description")
	createCmd.Flags().StringVar(&createCategory, "category", "", "category label")
	createCmd.Flags().StringVar(&createModel, "model", "", "target AI model")
	createCmd.Flags().StringSliceVar(&createTags, "tag", nil, "tag (repeatable)")
}
