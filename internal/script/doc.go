// Package script runs Lua automation against a scene.
//
// Scripts see a sandboxed runtime (base, table, string and math libraries
// only) and a global "canvas" module whose edits go through the editor's
// history, so every scripted change can be undone:
//
//	local h = canvas.create("heliostat", {name = "H1", position = {x = 0, y = 0, z = 10}})
//	canvas.set(h, "name", "North")
//	canvas.group("Row", function()
//	    for i = 1, 3 do canvas.duplicate(h) end
//	end)
//	canvas.undo()
//
// Objects are referred to by ID string or by name.
package script
