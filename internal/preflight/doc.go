// Package preflight provides readiness checks for the external services
// and filesystem paths that reelmatch depends on.
//
// These checks back the CLI surfaces:
//   - "reelmatch config check" runs RunAll and reports every result, so a
//     broken key or unwritable directory shows up before the first run.
//   - "reelmatch status" uses individual check functions
//     (CheckDirectoryAccess) to display path health alongside daemon state.
//
// Each check is gated by its config toggle -- unconfigured features are
// skipped.
package preflight
