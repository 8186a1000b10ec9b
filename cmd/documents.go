package cmd

import (
	"fmt"
	"time"

	"document-search/core"
	"document-search/stores"

	"github.com/spf13/cobra"
)

var (
	saveDoc        core.Document
	saveAuthorID   string
	saveAuthorName string
	saveCreated    string

	searchTitlePrefixes []string
	searchContents      []string
	searchAuthorIDs     []string
	searchCreatedFrom   string
	searchCreatedTo     string
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a document and print it",
	Long: `Save inserts a document or replaces the one stored under --id.
A document saved again under the same id keeps its original creation time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		documentStore, err := stores.GetStore(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}

		document := saveDoc
		if saveAuthorID != "" || saveAuthorName != "" {
			document.Author = &core.Author{ID: saveAuthorID, Name: saveAuthorName}
		}
		if saveCreated != "" {
			if document.Created, err = time.Parse(time.RFC3339Nano, saveCreated); err != nil {
				return fmt.Errorf("invalid --created: %w", err)
			}
		}

		saved, err := documentStore.Save(cmd.Context(), document)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), saved)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print the document stored under id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		documentStore, err := stores.GetStore(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		document, err := documentStore.FindID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), document)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Print the documents matching every given criterion",
	Long: `Search prints the documents that match all given criteria. Repeating a
flag matches any of its values. Without flags every document is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		request := core.SearchRequest{
			TitlePrefixes:    searchTitlePrefixes,
			ContainsContents: searchContents,
			AuthorIDs:        searchAuthorIDs,
		}
		var err error
		if request.CreatedFrom, err = parseFlagTime("created-from", searchCreatedFrom); err != nil {
			return err
		}
		if request.CreatedTo, err = parseFlagTime("created-to", searchCreatedTo); err != nil {
			return err
		}

		documentStore, err := stores.GetStore(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		results, err := documentStore.Search(cmd.Context(), request)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

func parseFlagTime(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &t, nil
}

func init() {
	saveCmd.Flags().StringVar(&saveDoc.ID, "id", "", "document id (generated when empty)")
	saveCmd.Flags().StringVar(&saveDoc.Title, "title", "", "document title")
	saveCmd.Flags().StringVar(&saveDoc.Content, "content", "", "document content")
	saveCmd.Flags().StringVar(&saveAuthorID, "author-id", "", "author id")
	saveCmd.Flags().StringVar(&saveAuthorName, "author-name", "", "author name")
	saveCmd.Flags().StringVar(&saveCreated, "created", "", "creation time (RFC 3339), ignored when the id already exists")

	searchCmd.Flags().StringArrayVar(&searchTitlePrefixes, "title-prefix", nil, "title prefix (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchContents, "content", nil, "content substring (repeatable)")
	searchCmd.Flags().StringArrayVar(&searchAuthorIDs, "author-id", nil, "author id (repeatable)")
	searchCmd.Flags().StringVar(&searchCreatedFrom, "created-from", "", "inclusive lower bound (RFC 3339)")
	searchCmd.Flags().StringVar(&searchCreatedTo, "created-to", "", "inclusive upper bound (RFC 3339)")

	rootCmd.AddCommand(saveCmd, getCmd, searchCmd)
}
