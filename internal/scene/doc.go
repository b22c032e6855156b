// Package scene holds the plain-data model of a heliostat field layout:
// heliostats, receivers and light sources, and the Scene that contains them.
//
// Every object is observable. Each tracked attribute has a typed setter
// (SetName, SetPosition, ...) that stores the value and publishes it to the
// attribute's subscribers. Set dispatches a keyed write to the same setter
// and is what command.PropertyCommand uses, so every write is observed
// regardless of how it was made.
//
// Objects are not safe for concurrent mutation. Edits are expected to go
// through a command.Manager, which serializes them.
package scene
