// Package command provides reversible edit commands and the undo/redo
// manager that sequences them.
//
// # Commands
//
// A Command captures one reversible mutation. Execute applies it and Undo
// reverses exactly what Execute applied. Implementations capture whatever
// prior state they need at construction time or on first execution:
//
//	cmd, err := command.NewPropertyCommand(obj, scene.PropName, "North field")
//	if err != nil {
//	    return err
//	}
//
// Built-in commands:
//   - PropertyCommand: assigns one keyed property of a Target
//   - CompoundCommand: runs several commands as one undo unit
//   - Func: adapts a pair of functions
//
// # Manager
//
// Manager executes commands and keeps bounded undo and redo stacks:
//
//	m := command.NewManager(command.WithMaxCommands(100))
//	if err := m.Execute(ctx, cmd); err != nil {
//	    return err
//	}
//	m.Undo(ctx)
//	m.Redo(ctx)
//
// Executing a new command clears the redo stack. When a stack grows past its
// capacity the oldest entry is dropped and can no longer be undone.
//
// Manager is itself observable. Its canUndo and canRedo properties are
// republished after every call that changes a stack, so controls can bind
// their enabled state directly:
//
//	observable.Watch(m, command.PropCanUndo, undoButton.SetEnabled)
//
// # Grouping
//
// Commands executed between BeginGroup and EndGroup undo as a single unit:
//
//	err := m.Transaction(ctx, "Align row", func(ctx context.Context) error {
//	    // ... several m.Execute calls ...
//	})
package command
