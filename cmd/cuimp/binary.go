package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/cuimp"
)

func newBinaryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "binary",
		Short: "Manage cached curl-impersonate binaries",
	}
	cmd.AddCommand(newBinaryEnsureCmd(g), newBinaryClearCmd(g), newBinaryDirCmd(g))
	return cmd
}

func newBinaryEnsureCmd(g *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Download and verify the binary for the selected browser and platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClient(cmd, g)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.client.Ensure(cmd.Context(), cuimp.Descriptor{}, force)
			if err != nil {
				return err
			}
			s.bar.Finish()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path:   %s\n", rec.Path)
			fmt.Fprintf(out, "source: %s\n", rec.Source)
			if rec.Release != "" {
				fmt.Fprintf(out, "release: %s\n", rec.Release)
			}
			if len(rec.Verified) > 0 {
				fmt.Fprintf(out, "verified: %v\n", rec.Verified)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "discard a cached binary and download it again")
	return cmd
}

func newBinaryClearCmd(g *globalFlags) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached binary for the selected platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClient(cmd, g)
			if err != nil {
				return err
			}
			defer s.Close()

			var d *cuimp.Descriptor
			if !all {
				d = &cuimp.Descriptor{}
			}
			if err := s.client.ClearCache(cmd.Context(), d); err != nil {
				return err
			}
			if all {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", s.client.CacheDir())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared cached binary")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove every cached binary")
	return cmd
}

func newBinaryDirCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Print the binary cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newClient(cmd, g)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintln(cmd.OutOrStdout(), s.client.CacheDir())
			return nil
		},
	}
}
