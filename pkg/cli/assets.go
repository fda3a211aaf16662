package cli

import (
	"context"
	"fmt"

	urfave "github.com/urfave/cli/v3"
)

func newAssetsCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "assets",
		Usage:           "Download missing BRISQUE model files and print their status",
		UsageText:       "brisque --cache-dir ./.cache assets",
		HideHelpCommand: true,
		Action:          cmdAssets,
	}
}

func cmdAssets(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	store := cfg.store()

	if err := store.Ensure(ctx, store.Assets()...); err != nil {
		return err
	}

	list, err := store.Status(store.Assets()...)
	if err != nil {
		return fmt.Errorf("error reading asset status: %w", err)
	}

	if err := encode(cmd.Root().Writer, cfg.Format, list); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
