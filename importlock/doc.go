// Package importlock implements spec §5's single global import lock:
// "multiple native threads are permitted but attempt to acquire a single
// import lock before running code that could trigger module
// initialization." Every module name additionally gets its own
// initialize-once guard (sync.Once-shaped) so two threads racing to
// import the same module converge on one initializer run and one module
// object, per scenario F.
//
// Grounded in runtimetables.Modules' double-checked-locking
// GetOrInit (the same "run the native initializer exactly once, callers
// that lose the race block until it is done" contract), pulled out into
// its own package because the spec calls the import lock out as a
// distinct entity from the modules dict: the lock serializes execution
// role across threads even when the module being imported has no
// native initializer of its own, the modules dict only serializes
// initializer execution for a given name.
package importlock
