// Package catalog holds the static question definitions, loaded from YAML and
// looked up by identifier. It also owns the question text template syntax:
// positional placeholders {0}, {1}, ... where {0} always names the module.
package catalog
