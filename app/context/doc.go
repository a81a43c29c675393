// Package context holds the dependencies shared by the app, cli and web server
// packages: I/O streams, filesystem, configuration, database and version
// metadata. It's separate from app so that cli can import it.
package context
