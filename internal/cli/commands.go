package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls [dir]",
		Aliases: []string{"list"},
		Short:   "List object names under a directory",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return withBackend(cmd.Context(), opts, func(b *backend) error {
				names, err := b.store.List(cmd.Context(), dir)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			})
		},
	}
}

func newCatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "Write an object's contents to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), opts, func(b *backend) error {
				data, err := b.store.ReadBytes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newPutCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "put <name>",
		Short: "Write stdin (or --file) to an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file != "" && file != "-" {
				data, err = os.ReadFile(file)
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			return withBackend(cmd.Context(), opts, func(b *backend) error {
				if err := b.store.WriteBytes(cmd.Context(), args[0], data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read contents from this file instead of stdin")
	return cmd
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the bucket is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), opts, func(b *backend) error {
				if err := b.health.Check(cmd.Context()); err != nil {
					return fmt.Errorf("%s: %w", b.health.Name(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (bucket %s)\n", b.health.Name(), b.store.Bucket())
				return nil
			})
		},
	}
}
