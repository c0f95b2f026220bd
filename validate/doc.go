/*
Package validate checks formulas before they reach the query compiler.

Validation runs in two passes. ValidateSource inspects the raw text for
denylisted injection patterns and control characters, before any
parsing, so hostile input is rejected even when it does not lex.
Validate walks a parsed AST and enforces structural ceilings (nesting
depth, call count), resolves every function against the registry
(arity, named parameters, argument types) and every field reference
against the FieldCatalog.

Errors and warnings are kept separate in the Result: an unknown field
fails validation, while an unusually deep field path only warns. The
denylist never echoes the matched pattern back in its message.

# Usage

	v := validate.New(validate.DefaultOptions())

	if r := v.ValidateSource(text); !r.Valid {
		return r
	}
	root, _ := formula.ParseText(text)
	result := v.Validate(root, catalog)
*/
package validate
