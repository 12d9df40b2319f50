// Package schema defines the immutable form description consumed by the
// conditional evaluator, the field validator, and the form session: ordered
// sections of typed fields, their validation rules, their conditional rules,
// and the engine settings embedded in the definition. Schemas come from the
// fluent builder in this package, from pkg/schema/loader (JSON/YAML
// definitions), or from pkg/openapi (OpenAPI request bodies). Display strings
// are sanitized to plain text during normalization so downstream rendering
// layers never receive markup.
package schema
