// Package checker holds the check modules moodscan runs against a target.
//
// Architecture overview:
//
//   - Every module implements module.Module: Check decides whether the target is
//     vulnerable and Exploit demonstrates the issue when the operator asks for it.
//   - Builtin returns the compiled-in modules. They only use the session handed
//     to them through the ScanContext, so cookies from an authenticated scan and
//     operator headers apply to every request.
//   - ExternalModule adapts community modules written in any language. A module
//     is a command described by a definition file; it receives the target URL and
//     version and prints a JSON verdict on stdout.
//   - DirectorySource discovers definition files (.json, .yaml, .yml) and reports
//     each broken definition as its own ModuleLoadError.
package checker
