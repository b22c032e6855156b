package command

import (
	"context"
	"fmt"
)

// Command represents a reversible unit of work.
type Command interface {
	// Execute applies the command. It is called once by Manager.Execute and
	// again by each Manager.Redo.
	Execute(ctx context.Context) error

	// Undo reverses exactly the change made by the last Execute.
	Undo(ctx context.Context) error

	// Description returns a human-readable description of the command.
	Description() string
}

// Func is a Command built from a pair of functions.
type Func struct {
	description string
	exec        func(ctx context.Context) error
	undo        func(ctx context.Context) error
}

// NewFunc creates a command from an execute and an undo function.
// Both functions are required.
func NewFunc(description string, exec, undo func(ctx context.Context) error) *Func {
	if exec == nil || undo == nil {
		panic("command: NewFunc requires both execute and undo functions")
	}
	return &Func{
		description: description,
		exec:        exec,
		undo:        undo,
	}
}

// Execute runs the execute function.
func (f *Func) Execute(ctx context.Context) error {
	return f.exec(ctx)
}

// Undo runs the undo function.
func (f *Func) Undo(ctx context.Context) error {
	return f.undo(ctx)
}

// Description returns the description given to NewFunc.
func (f *Func) Description() string {
	return f.description
}

// CompoundCommand groups multiple commands as one undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// NewCompoundCommand creates a new compound command.
func NewCompoundCommand(name string, commands ...Command) *CompoundCommand {
	return &CompoundCommand{
		Name:     name,
		Commands: commands,
	}
}

// Execute runs all commands in order. If one fails, the commands already
// executed are undone in reverse order before the error is returned.
func (c *CompoundCommand) Execute(ctx context.Context) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(ctx)
			}
			return fmt.Errorf("compound command %q step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverses all commands in reverse order.
func (c *CompoundCommand) Undo(ctx context.Context) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(ctx); err != nil {
			return fmt.Errorf("undo compound command %q step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description returns the compound command's name.
func (c *CompoundCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d operations", len(c.Commands))
}

// Add adds a command to the compound command.
func (c *CompoundCommand) Add(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}

// IsEmpty returns true if the compound command has no commands.
func (c *CompoundCommand) IsEmpty() bool {
	return len(c.Commands) == 0
}
