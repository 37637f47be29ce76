package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/model"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagAdd,
}

var tagShowCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show tags",
	Args:  cobra.NoArgs,
	RunE:  runTagShow,
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete [tag-id]",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagDelete,
}

var tagSetCmd = &cobra.Command{
	Use:   "set [task-id] [tag-id...]",
	Short: "Replace a task's tags",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTagSet,
}

func init() {
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagShowCmd)
	tagCmd.AddCommand(tagDeleteCmd)
	tagCmd.AddCommand(tagSetCmd)

	tagAddCmd.Flags().String("color", "", "Display color")
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	color, _ := cmd.Flags().GetString("color")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	tag := &model.Tag{Name: args[0], Color: color}
	if err := e.store.CreateTag(cmd.Context(), tag); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created tag %s  %s\n", tag.ID, tag.Name)
	return nil
}

func runTagShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	tags, err := e.store.GetTags(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(tags) == 0 {
		fmt.Fprintln(out, "No tags.")
		return nil
	}
	for _, t := range tags {
		fmt.Fprintf(out, "%s  %s\n", t.ID, t.Name)
	}
	return nil
}

func runTagDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.DeleteTag(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s\n", args[0])
	return nil
}

func runTagSet(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.SetTaskTags(cmd.Context(), args[0], args[1:]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tagged %s with %d tag(s)\n", args[0], len(args)-1)
	return nil
}
