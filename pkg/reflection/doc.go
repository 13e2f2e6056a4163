/*
Package reflection provides type-checked accessors over foreign objects whose
exact shape is not known at compile time.

Handlers use it to read fields, call methods and getters of module objects
authored elsewhere. Lookups walk embedded structs breadth-first, resolve an
unexported backing field when an exported name was requested as a field, and
reject ambiguous selectors the same way the Go compiler does. Every failure is
reported as a *domain.AbandonError, so a mismatch ends only the module that
triggered it:

	fld, err := reflection.Field[[]string](obj, "wires")
	if err != nil {
		return err
	}
	wires, err := fld.Get(reflection.NotEmpty[string]())

Accessors are resolved once per (type, member) pair and cached; the same
accessor can read any object of the resolved type through GetFrom.
*/
package reflection
