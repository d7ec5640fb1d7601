package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/mens-health/internal/domain/access"
	"github.com/yanqian/mens-health/internal/domain/scoring"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "healthctl",
		Short:         "Offline tools for the men's health service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScoreCmd(), newProfileCmd(), newAccessCmd())
	return root
}

func newScoreCmd() *cobra.Command {
	var (
		profileName string
		profilePath string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "score <intake.json|->",
		Short: "Score a questionnaire intake with a scoring profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := resolveProfile(profileName, profilePath)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			var intake scoring.Intake
			if err := json.Unmarshal(raw, &intake); err != nil {
				return fmt.Errorf("decode intake: %w", err)
			}
			if missing := intake.MissingSections(); len(missing) > 0 {
				return fmt.Errorf("intake is missing sections: %s", strings.Join(missing, ", "))
			}
			result := scoring.NewEngine(profile).Score(intake)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintf(out, "Score: %d (%s) [%s profile]\n", result.Score, result.Status, profile.Name)
			for _, rec := range result.Recommendations {
				fmt.Fprintf(out, "- %s\n", rec)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", scoring.ProfileServer, "built-in profile (server or local)")
	cmd.Flags().StringVar(&profilePath, "profile-path", "", "YAML profile file, overrides --profile")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile <server|local>",
		Short: "Print a built-in scoring profile as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, ok := scoring.ProfileByName(args[0])
			if !ok {
				return fmt.Errorf("unknown profile %q", args[0])
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(profile)
		},
	}
}

func newAccessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "access [role]",
		Short: "List the views a role may open. No role means a signed-out visitor.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := ""
			if len(args) == 1 {
				role = args[0]
				if !access.ValidRole(role) {
					return fmt.Errorf("unknown role %q", role)
				}
			}
			out := cmd.OutOrStdout()
			if role == "" {
				fmt.Fprintln(out, "Signed out")
			} else {
				fmt.Fprintf(out, "%s: %s\n", access.RoleDisplayName(role), access.RoleDescription(role))
			}
			for _, view := range access.AccessibleViews(role) {
				marker := ""
				if access.IsAdminView(view) {
					marker = " (admin)"
				}
				fmt.Fprintf(out, "  %s%s\n", view, marker)
			}
			return nil
		},
	}
}

func resolveProfile(name, path string) (scoring.Profile, error) {
	if strings.TrimSpace(path) != "" {
		return scoring.LoadProfile(path)
	}
	profile, ok := scoring.ProfileByName(name)
	if !ok {
		return scoring.Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return profile, nil
}

func readInput(stdin io.Reader, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read intake: %w", err)
	}
	return raw, nil
}
