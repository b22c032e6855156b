package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/heliocanvas/internal/command"
	"github.com/dshills/heliocanvas/internal/edit"
	"github.com/dshills/heliocanvas/internal/scene"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *edit.Editor) {
	t.Helper()
	ed := edit.NewEditor(scene.New(), command.NewManager(), nil)
	e := New(ed, opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e, ed
}

func TestCanvas_CreateSetUndo(t *testing.T) {
	ctx := context.Background()
	e, ed := newTestEngine(t)

	err := e.DoString(ctx, `
		local id = canvas.create("heliostat", {name = "H1", position = {x = 1, y = 0, z = 2}})
		canvas.set(id, "name", "North")
		assert(canvas.get("North", "position").z == 2)
		assert(canvas.can_undo())
		canvas.undo()
		assert(canvas.get(id, "name") == "H1")
		assert(canvas.can_redo())
	`)
	if err != nil {
		t.Fatal(err)
	}

	objs := ed.Scene().Objects()
	if len(objs) != 1 || objs[0].Name() != "H1" {
		t.Fatalf("objects = %v", objs)
	}
	if ed.History().UndoCount() != 1 || ed.History().RedoCount() != 1 {
		t.Errorf("undo=%d redo=%d", ed.History().UndoCount(), ed.History().RedoCount())
	}
}

func TestCanvas_Group(t *testing.T) {
	ctx := context.Background()
	e, ed := newTestEngine(t)

	err := e.DoString(ctx, `
		local h = canvas.create("heliostat", {name = "H"})
		canvas.group("Row", function()
			for i = 1, 3 do canvas.duplicate(h) end
			canvas.move(h, {0, 0, 9})
		end)
		assert(#canvas.objects() == 4)
		local hist = canvas.history()
		assert(hist[#hist] == "Row", hist[#hist])
		canvas.undo()
		assert(#canvas.objects() == 1)
	`)
	if err != nil {
		t.Fatal(err)
	}
	if ed.History().UndoCount() != 1 {
		t.Errorf("UndoCount = %d, want 1", ed.History().UndoCount())
	}
}

func TestCanvas_GroupErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	e, ed := newTestEngine(t)

	err := e.DoString(ctx, `
		canvas.group("Broken", function()
			canvas.create("receiver", {name = "R"})
			error("stop")
		end)
	`)
	if err == nil || !strings.Contains(err.Error(), "stop") {
		t.Fatalf("err = %v, want script error", err)
	}
	if ed.Scene().Len() != 0 || ed.History().CanUndo() || ed.History().IsGrouping() {
		t.Error("failed group left state behind")
	}
}

func TestCanvas_Errors(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	tests := []struct {
		name string
		code string
		want string
	}{
		{"unknown kind", `canvas.create("mirror")`, "unknown object kind"},
		{"missing object", `canvas.delete("ghost")`, "object not found"},
		{"bad value", `local id = canvas.create("receiver"); canvas.set(id, "resolutionE", "high")`, "invalid value"},
		{"bad position", `local id = canvas.create("heliostat"); canvas.move(id, {1, 2})`, "3 components"},
		{"no io", `io.open("/etc/passwd")`, "non-table"},
		{"no require", `require("os")`, "non-function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.DoString(ctx, tt.code)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestEngine_Print(t *testing.T) {
	var out bytes.Buffer
	e, _ := newTestEngine(t, WithOutput(&out))

	if err := e.DoString(context.Background(), `print("objects", #canvas.objects())`); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "objects\t0\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEngine_Timeout(t *testing.T) {
	e, _ := newTestEngine(t, WithTimeout(50*time.Millisecond))

	err := e.DoString(context.Background(), `while true do end`)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestEngine_DoFileAndClose(t *testing.T) {
	ctx := context.Background()
	e, ed := newTestEngine(t)
	path := filepath.Join(t.TempDir(), "layout.lua")
	if err := os.WriteFile(path, []byte(`canvas.create("lightSource", {numberOfRays = 200})`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := e.DoFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	obj := ed.Scene().Objects()[0]
	if v, _ := obj.Get(scene.PropNumberOfRays); v != 200 {
		t.Errorf("numberOfRays = %v", v)
	}

	_ = e.Close()
	if err := e.DoString(ctx, `x = 1`); !errors.Is(err, ErrClosed) {
		t.Errorf("after close err = %v", err)
	}
}
