package schema

// Custom string types for type safety.
type (
	// DatabaseBackend represents the relational backend holding commits and files.
	DatabaseBackend string

	// FileSource represents how the set of files to extract is enumerated.
	FileSource string

	// LogFormat represents the structured log output format.
	LogFormat string

	// OutputFormat represents how query and status results are printed.
	OutputFormat string

	// CoordinatorState represents the lifecycle stage of a populate run.
	CoordinatorState string
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// All file sources supported.
const (
	TreeSource FileSource = "tree" // default, files tracked at HEAD
	WalkSource FileSource = "walk" // every regular file under the work tree
)

// All log formats supported.
const (
	TextLog LogFormat = "text" // default
	JSONLog LogFormat = "json"
)

// All output formats supported.
const (
	TableOut OutputFormat = "table" // default
	JSONOut  OutputFormat = "json"
	CSVOut   OutputFormat = "csv"
)

// Coordinator states in the order a run moves through them.
const (
	StateIdle              CoordinatorState = "idle"
	StateRootHistoryLoaded CoordinatorState = "root-history-loaded"
	StateDispatched        CoordinatorState = "dispatched"
	StateAllJoined         CoordinatorState = "all-joined"
	StateDone              CoordinatorState = "done"
)

// Persistence operations, used to label batch failures.
const (
	OpCommits   = "commits"
	OpFiles     = "files"
	OpRelations = "relations"
)

// RootPath is the pathspec used to read the history of the whole repository.
const RootPath = "."

// MySQLMaxPathLength is the widest file path, in characters, the MySQL schema can store.
const MySQLMaxPathLength = 700

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidFileSources lists all valid file sources.
var ValidFileSources = map[FileSource]struct{}{
	TreeSource: {},
	WalkSource: {},
}

// ValidOutputFormats lists all valid output formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	TableOut: {},
	JSONOut:  {},
	CSVOut:   {},
}

// ValidLogFormats lists all valid log formats.
var ValidLogFormats = map[LogFormat]struct{}{
	TextLog: {},
	JSONLog: {},
}
