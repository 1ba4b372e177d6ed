package todos

import (
	"fmt"
	"strconv"

	"github.com/crucial707/hci-todo/cmd/cli/client"
	"github.com/crucial707/hci-todo/cmd/cli/output"
	"github.com/spf13/cobra"
)

type todo struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	IsComplete bool   `json:"isComplete"`
}

type todoInput struct {
	Name       string `json:"name"`
	IsComplete bool   `json:"isComplete"`
}

// ==========================
// Init Todos
// ==========================
func InitTodos(rootCmd *cobra.Command) {

	todosCmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Manage todo items",
	}

	todosCmd.AddCommand(
		listTodosCmd(),
		getTodoCmd(),
		createTodoCmd(),
		updateTodoCmd(),
		deleteTodoCmd(),
	)

	rootCmd.AddCommand(todosCmd)
}

func itemPath(arg string) (string, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return "", fmt.Errorf("invalid todo id %q", arg)
	}
	return "/todoitems/" + strconv.Itoa(id), nil
}

func doneMark(done bool) string {
	if done {
		return "yes"
	}
	return "no"
}

// ==========================
// LIST
// ==========================
func listTodosCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []todo
			if _, err := client.Call("GET", "/todoitems", nil, &items, true); err != nil {
				return err
			}

			if asJSON {
				return output.PrintJSON(items)
			}

			rows := make([][]interface{}, 0, len(items))
			for _, t := range items {
				rows = append(rows, []interface{}{t.ID, t.Name, doneMark(t.IsComplete)})
			}
			output.RenderTable([]string{"ID", "Name", "Done"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

// ==========================
// GET
// ==========================
func getTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := itemPath(args[0])
			if err != nil {
				return err
			}

			var t todo
			if _, err := client.Call("GET", path, nil, &t, true); err != nil {
				return err
			}
			return output.PrintJSON(t)
		},
	}
}

// ==========================
// CREATE
// ==========================
func createTodoCmd() *cobra.Command {
	var name string
	var done bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			var t todo
			if _, err := client.Call("POST", "/todoitems", todoInput{Name: name, IsComplete: done}, &t, true); err != nil {
				return err
			}

			fmt.Printf("Created todo %d: %s\n", t.ID, t.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "todo name")
	cmd.Flags().BoolVar(&done, "done", false, "mark as complete")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// ==========================
// UPDATE (unset flags keep the current values)
// ==========================
func updateTodoCmd() *cobra.Command {
	var name string
	var done bool

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := itemPath(args[0])
			if err != nil {
				return err
			}

			var current todo
			if _, err := client.Call("GET", path, nil, &current, true); err != nil {
				return err
			}
			in := todoInput{Name: current.Name, IsComplete: current.IsComplete}
			if cmd.Flags().Changed("name") {
				in.Name = name
			}
			if cmd.Flags().Changed("done") {
				in.IsComplete = done
			}

			if _, err := client.Call("PUT", path, in, nil, true); err != nil {
				return err
			}

			fmt.Printf("Updated todo %d\n", current.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().BoolVar(&done, "done", false, "completion flag")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := itemPath(args[0])
			if err != nil {
				return err
			}

			if _, err := client.Call("DELETE", path, nil, nil, true); err != nil {
				return err
			}

			fmt.Println("Todo deleted")
			return nil
		},
	}
}
