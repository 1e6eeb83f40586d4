// Package logging wires log/slog into reelmatch's console and JSON output
// conventions.
//
// New builds a logger from Options (level, format, output paths); the
// console handler renders compact key=value lines with the component name
// folded into the message prefix, while the JSON handler emits ts/level/msg
// records for machine consumption. Attr helpers (String, Int, Error, ...)
// keep call sites terse, and WithContext threads run, batch, and correlation
// identifiers from a context into every record.
//
// Use NewComponentLogger to tag a subsystem's logger once instead of
// repeating the component field at each call site.
package logging
