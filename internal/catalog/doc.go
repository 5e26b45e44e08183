// Package catalog owns the persisted set of cataloged movies.
//
// The Store is the single owner of catalog state: every mutation (Insert,
// Update, AssociateFile, Remove, LogWatch) is serialized behind one mutex and
// written through to a JSON array before it becomes visible, with a file lock
// guarding against a second cinelog process writing at the same time. A
// failed write rolls the in-memory change back, so a crash loses at most the
// in-flight operation.
//
// Invariants: ids are unique, at most one entry references a given file path,
// and AddedAt never changes once set. Loading a file that cannot be parsed or
// breaks those invariants fails with services.ErrCorruptStore instead of
// discarding data.
package catalog
