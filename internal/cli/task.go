package cli

import (
	"strings"

	"github.com/modtrackin/modtrackin/internal/controller"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/models"
)

type TaskCmd struct {
	Add    TaskAddCmd    `cmd:"" help:"Add a task."`
	List   TaskListCmd   `cmd:"" help:"List tasks, newest first."`
	Edit   TaskEditCmd   `cmd:"" help:"Edit a task."`
	Done   TaskDoneCmd   `cmd:"" help:"Mark a task as completed."`
	Delete TaskDeleteCmd `cmd:"" help:"Delete a task."`
}

func taskID(t models.Task) string { return t.ID }

// findTask resolves ref against the controller's current list.
func findTask(c *controller.TaskController, ref string) (models.Task, error) {
	return matchID(c.State().Tasks, taskID, ref, "task")
}

func (ctx *Context) taskController() (*controller.TaskController, error) {
	if _, err := ctx.requireUser(); err != nil {
		return nil, err
	}
	return controller.NewTaskController(ctx.Ctx, ctx.Tasks(), ctx.Oracle, nil), nil
}

type TaskAddCmd struct {
	Title       string `arg:"" help:"Task title."`
	Description string `short:"d" help:"Longer description."`
	Category    string `short:"c" help:"Category." default:"🎓 Académica"`
	Priority    string `short:"p" help:"Priority: Alta, Media or Baja." default:"Baja"`
	Due         string `help:"Due date (YYYY-MM-DD, today or yesterday)."`
	Reminder    string `help:"Free-form reminder text."`
}

func (cmd *TaskAddCmd) Run(ctx *Context) error {
	priority, err := models.ParsePriority(cmd.Priority)
	if err != nil {
		return apperrors.Invalid("priority", err.Error())
	}
	due := ""
	if cmd.Due != "" {
		if due, err = ctx.resolveDay(cmd.Due); err != nil {
			return err
		}
	}

	c, err := ctx.taskController()
	if err != nil {
		return err
	}
	defer c.Close()

	c.OpenNew()
	c.Edit(func(e *controller.TaskEditor) {
		e.Title = cmd.Title
		e.Description = cmd.Description
		e.Category = cmd.Category
		e.Priority = priority
		e.DueDate = due
		e.Reminder = cmd.Reminder
	})
	if err := c.Save(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Task added: %s\n", strings.TrimSpace(cmd.Title))
	return nil
}

type TaskListCmd struct {
	Pending bool   `help:"Only show tasks that are not completed."`
	Due     string `help:"Only show tasks due on this date."`
}

func (cmd *TaskListCmd) Run(ctx *Context) error {
	if _, err := ctx.requireUser(); err != nil {
		return err
	}

	var (
		tasks []models.Task
		err   error
	)
	if cmd.Due != "" {
		day, derr := ctx.resolveDay(cmd.Due)
		if derr != nil {
			return derr
		}
		tasks, err = ctx.Tasks().DueBetween(ctx.Ctx, day, day)
	} else {
		tasks, err = ctx.Tasks().List(ctx.Ctx)
	}
	if err != nil {
		return err
	}

	var rows [][]string
	for _, t := range tasks {
		if cmd.Pending && t.IsCompleted {
			continue
		}
		rows = append(rows, []string{
			shortID(t.ID),
			check(t.IsCompleted),
			t.Title,
			string(t.Priority),
			t.Category,
			t.DueDate,
		})
	}
	if len(rows) == 0 {
		ctx.println("No tasks found.")
		return nil
	}
	ctx.println(renderTable([]string{"ID", "", "Title", "Priority", "Category", "Due"}, rows))
	return nil
}

type TaskEditCmd struct {
	ID          string `arg:"" help:"Task id or unique prefix."`
	Title       string `help:"New title."`
	Description string `help:"New description."`
	Category    string `help:"New category."`
	Priority    string `help:"New priority."`
	Due         string `help:"New due date."`
	ClearDue    bool   `help:"Remove the due date."`
	Reminder    string `help:"New reminder text."`
}

func (cmd *TaskEditCmd) Run(ctx *Context) error {
	c, err := ctx.taskController()
	if err != nil {
		return err
	}
	defer c.Close()

	task, err := findTask(c, cmd.ID)
	if err != nil {
		return err
	}

	var priority models.Priority
	if cmd.Priority != "" {
		if priority, err = models.ParsePriority(cmd.Priority); err != nil {
			return apperrors.Invalid("priority", err.Error())
		}
	}
	due := ""
	if cmd.Due != "" {
		if due, err = ctx.resolveDay(cmd.Due); err != nil {
			return err
		}
	}

	c.OpenEdit(task)
	c.Edit(func(e *controller.TaskEditor) {
		if cmd.Title != "" {
			e.Title = cmd.Title
		}
		if cmd.Description != "" {
			e.Description = cmd.Description
		}
		if cmd.Category != "" {
			e.Category = cmd.Category
		}
		if priority != "" {
			e.Priority = priority
		}
		if due != "" {
			e.DueDate = due
		}
		if cmd.ClearDue {
			e.DueDate = ""
		}
		if cmd.Reminder != "" {
			e.Reminder = cmd.Reminder
		}
	})
	if err := c.Save(ctx.Ctx); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Task updated: %s\n", shortID(task.ID))
	return nil
}

type TaskDoneCmd struct {
	ID   string `arg:"" help:"Task id or unique prefix."`
	Undo bool   `help:"Mark the task as not completed instead."`
}

func (cmd *TaskDoneCmd) Run(ctx *Context) error {
	c, err := ctx.taskController()
	if err != nil {
		return err
	}
	defer c.Close()

	task, err := findTask(c, cmd.ID)
	if err != nil {
		return err
	}
	if task.IsCompleted == !cmd.Undo {
		ctx.printf("Task %q is already in that state.\n", task.Title)
		return nil
	}
	if err := c.ToggleCompletion(ctx.Ctx, task); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	if cmd.Undo {
		ctx.printf("✓ Reopened: %s\n", task.Title)
	} else {
		ctx.printf("✓ Completed: %s\n", task.Title)
	}
	return nil
}

type TaskDeleteCmd struct {
	ID  string `arg:"" help:"Task id or unique prefix."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (cmd *TaskDeleteCmd) Run(ctx *Context) error {
	c, err := ctx.taskController()
	if err != nil {
		return err
	}
	defer c.Close()

	task, err := findTask(c, cmd.ID)
	if err != nil {
		return err
	}
	ok, err := confirm("Delete task \""+task.Title+"\"?", cmd.Yes)
	if err != nil || !ok {
		if err == nil {
			ctx.println("Delete cancelled.")
		}
		return err
	}
	if err := c.Delete(ctx.Ctx, task.ID); err != nil {
		return uiError(c.State().ErrorMessage, err)
	}
	ctx.printf("✓ Task deleted: %s\n", task.Title)
	return nil
}
