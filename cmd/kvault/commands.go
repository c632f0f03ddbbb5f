package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/kvault/internal/config"
	"github.com/kalambet/kvault/internal/extract"
	"github.com/kalambet/kvault/internal/storage"
)

// --- store ---

var storeCmd = &cobra.Command{
	Use:   "store [content...]",
	Short: "Store a knowledge note",
	Long: `Store a knowledge note. Content comes from the arguments, from --file,
or from stdin when neither is given.

Examples:
  kvault store "Channels in Go are typed conduits" --tags go
  kvault store --file ./paper.pdf --title "Raft paper"
  pbpaste | kvault store --no-auto-tag`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		tags, _ := cmd.Flags().GetString("tags")
		noAutoTag, _ := cmd.Flags().GetBool("no-auto-tag")
		file, _ := cmd.Flags().GetString("file")
		asJSON, _ := cmd.Flags().GetBool("json")

		var content string
		switch {
		case file != "" && len(args) > 0:
			return fmt.Errorf("pass content as arguments or --file, not both")
		case file != "":
			doc, err := extract.File(file)
			if err != nil {
				return fmt.Errorf("extracting %s: %w", file, err)
			}
			content = doc.Text
			if title == "" {
				title = doc.Title
			}
		case len(args) > 0:
			content = strings.Join(args, " ")
		default:
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			content = string(data)
		}

		return withApp(func(a *app) error {
			summary, err := a.store.Store(commandContext(cmd), storage.StoreInput{
				Content: content,
				Title:   title,
				Tags:    tags,
				AutoTag: !noAutoTag,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary.ID)
			printSuccess("Stored %q [%s]", summary.Title, tagLabel(summary.Tags))
			return nil
		})
	},
}

func init() {
	storeCmd.Flags().String("title", "", "title for the note (generated when empty)")
	storeCmd.Flags().String("tags", "", "comma-separated tags")
	storeCmd.Flags().Bool("no-auto-tag", false, "do not add suggested category tags")
	storeCmd.Flags().String("file", "", "read content from a text, HTML or PDF file")
	storeCmd.Flags().Bool("json", false, "print the stored summary as JSON")
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes by keyword or phrase",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		tags, _ := cmd.Flags().GetString("tags")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(func(a *app) error {
			resp, err := a.search.Search(commandContext(cmd), strings.Join(args, " "), limit, tags)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if len(resp.Results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No notes match %q.\n", resp.Query)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d match(es) for %q\n\n", resp.Total, resp.Query)
			printResults(cmd.OutOrStdout(), resp.Results)
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().Int("limit", 10, "maximum number of results")
	searchCmd.Flags().String("tags", "", "only search notes with one of these comma-separated tags")
	searchCmd.Flags().Bool("json", false, "print results as JSON")
}

// --- recent ---

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently stored notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(func(a *app) error {
			results, err := a.search.Recent(commandContext(cmd), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notes stored yet.")
				return nil
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		})
	},
}

func init() {
	recentCmd.Flags().Int("limit", 20, "number of notes to list")
	recentCmd.Flags().Bool("json", false, "print results as JSON")
}

// --- get ---

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a note in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(func(a *app) error {
			rec, err := a.store.Get(commandContext(cmd), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no note with id %q", args[0])
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		})
	},
}

func init() {
	getCmd.Flags().Bool("json", false, "print the note as JSON")
}

// --- tags ---

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Suggest tags or find notes by tag",
}

var tagsSuggestCmd = &cobra.Command{
	Use:   "suggest [content...]",
	Short: "Suggest category tags for content without storing it",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")

		content := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			content = string(data)
		}
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("content is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		suggester, err := newSuggester(cfg.Tagging.KeywordsFile)
		if err != nil {
			return err
		}

		tags := suggester.Suggest(content, title)
		if len(tags) == 0 {
			printWarning("No tag suggestions; the content may need more keywords")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, ", "))
		return nil
	},
}

var tagsSearchCmd = &cobra.Command{
	Use:   "search <tags>",
	Short: "List notes carrying any of the comma-separated tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(func(a *app) error {
			records, err := a.store.SearchByTags(commandContext(cmd), storage.ParseTagList(strings.Join(args, ",")), limit)
			if err != nil {
				return err
			}

			results := a.search.Previews(records)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notes carry those tags.")
				return nil
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		})
	},
}

func init() {
	tagsSuggestCmd.Flags().String("title", "", "optional title considered with the content")
	tagsSearchCmd.Flags().Int("limit", 20, "maximum number of results")
	tagsSearchCmd.Flags().Bool("json", false, "print results as JSON")
	tagsCmd.AddCommand(tagsSuggestCmd)
	tagsCmd.AddCommand(tagsSearchCmd)
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record and tag counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		return withApp(func(a *app) error {
			stats, err := a.store.Stats(commandContext(cmd))
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		})
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "print statistics as JSON")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kvault version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kvault version %s\n", version)
	},
}

// commandContext returns cmd's context, falling back to Background when
// the command was not started through ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
