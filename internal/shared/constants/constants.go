package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// DefaultHTTPTimeout bounds every single request sent to the target.
	DefaultHTTPTimeout = 10 * time.Second
	// DefaultModuleTimeout bounds one check module invocation.
	DefaultModuleTimeout = 60 * time.Second
	// DefaultUserAgent is sent unless a random or custom agent is requested.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.45 Safari/537.36"
	// BodyReadLimitBytes caps how much of a response body is buffered.
	BodyReadLimitBytes = 4 << 20
)

const (
	// CorpusFilename holds the official vulnerability corpus.
	CorpusFilename = "vulndb.json"
	// CatalogFilename holds the plugin and theme catalog.
	CatalogFilename = "plugins.json"
	// BackupSuffix is appended to a data file before it is replaced.
	BackupSuffix = ".old"
)
