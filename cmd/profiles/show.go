package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/denormalize"
	"github.com/spf13/cobra"
)

var (
	showViewer string
	showPublic bool
)

var showCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print the denormalized profile of a user",
	Long: `show builds the same profile the API would return and prints it as JSON.

With --viewer the profile is built as seen by that user; private data is
kept unless --public is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showViewer, "viewer", "", "user ID of the viewer")
	showCmd.Flags().BoolVar(&showPublic, "public", false, "strip private data")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	ctx := context.Background()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	opts := denormalize.Options{DoNotKeepPrivateData: showPublic}
	if showViewer != "" {
		viewerID, err := uuid.Parse(showViewer)
		if err != nil {
			return fmt.Errorf("invalid viewer id %q: %w", showViewer, err)
		}
		if opts.Viewer, err = s.users.GetByID(ctx, viewerID); err != nil {
			return fmt.Errorf("get viewer: %w", err)
		}
	}

	p, err := s.denormalizer().Denormalize(ctx, u, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}
