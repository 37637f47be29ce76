package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage task lists",
}

var listAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runListAdd,
}

var listShowCmd = &cobra.Command{
	Use:   "ls",
	Short: "Show lists",
	Args:  cobra.NoArgs,
	RunE:  runListShow,
}

var listRenameCmd = &cobra.Command{
	Use:   "rename [list-id] [name]",
	Short: "Rename a list",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runListRename,
}

var listArchiveCmd = &cobra.Command{
	Use:   "archive [list-id]",
	Short: "Archive a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListArchive,
}

var listRestoreCmd = &cobra.Command{
	Use:   "restore [list-id]",
	Short: "Restore an archived list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListRestore,
}

var listDeleteCmd = &cobra.Command{
	Use:   "delete [list-id]",
	Short: "Delete a list; its tasks move to the inbox",
	Args:  cobra.ExactArgs(1),
	RunE:  runListDelete,
}

func init() {
	listCmd.AddCommand(listAddCmd)
	listCmd.AddCommand(listShowCmd)
	listCmd.AddCommand(listRenameCmd)
	listCmd.AddCommand(listArchiveCmd)
	listCmd.AddCommand(listRestoreCmd)
	listCmd.AddCommand(listDeleteCmd)

	listAddCmd.Flags().String("color", "", "Display color, e.g. #5B9BD5")
	listShowCmd.Flags().Bool("archived", false, "Include archived lists")
}

func runListAdd(cmd *cobra.Command, args []string) error {
	color, _ := cmd.Flags().GetString("color")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	l := &model.List{Name: strings.Join(args, " "), Color: color}
	if err := e.store.CreateList(cmd.Context(), l); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created list %s  %s\n", l.ID, l.Name)
	return nil
}

func runListShow(cmd *cobra.Command, args []string) error {
	archived, _ := cmd.Flags().GetBool("archived")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	lists, err := e.store.GetLists(cmd.Context(), archived)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(lists) == 0 {
		fmt.Fprintln(out, "No lists.")
		return nil
	}
	for _, l := range lists {
		suffix := ""
		if l.Archived {
			suffix = "  (archived)"
		}
		fmt.Fprintf(out, "%s  %s%s\n", l.ID, l.Name, suffix)
	}
	return nil
}

func runListRename(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	l, err := e.store.GetListByID(ctx, args[0])
	if err != nil {
		return err
	}
	l.Name = strings.Join(args[1:], " ")
	if err := e.store.UpdateList(ctx, *l); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", l.ID, l.Name)
	return nil
}

func runListArchive(cmd *cobra.Command, args []string) error {
	return setListArchived(cmd, args[0], true)
}

func runListRestore(cmd *cobra.Command, args []string) error {
	return setListArchived(cmd, args[0], false)
}

func setListArchived(cmd *cobra.Command, id string, archived bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	verb := "Archived"
	if archived {
		err = e.store.ArchiveList(cmd.Context(), id)
	} else {
		verb = "Restored"
		err = e.store.RestoreList(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, id)
	return nil
}

func runListDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.DeleteList(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %s\n", args[0])
	return nil
}
