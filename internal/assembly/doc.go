// Package assembly reads build metadata out of .NET binary modules without
// loading them. It understands just enough of the PE format and the ECMA-335
// metadata tables to list assembly-level custom attributes and decode the
// informational version string the .NET build embeds its source commit in.
package assembly
