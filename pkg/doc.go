// Package pkg provides the libraries behind plugtower, a package manager for
// git-hosted plugins.
//
// # Overview
//
// Packages are declared in spec files. Each spec names a repository, an
// optional branch or tag, the repositories it depends on and commands to run
// after it is cloned. Plugtower resolves the declarations into a dependency
// graph, plans the work against the install root and the manifest, and runs
// the git operations in parallel.
//
// # Architecture
//
//	spec files
//	    ↓
//	[spec]      parse and normalize declarations
//	    ↓
//	[resolve]   deduplicate, expand dependencies, detect cycles
//	    ↓
//	[plan]      compare with the install root and the manifest, settle directory collisions
//	    ↓
//	[pipeline]  dependency batch → barrier → main layers
//	    ↓
//	[scheduler] bounded worker pool, abort, progress sink
//	    ↓
//	[vcs]       git clone / fetch / checkout, post-install commands
//	    ↓
//	[manifest]  single-writer store of what is installed
//
// # Main Packages
//
//   - [spec]: PackageSpec, repository and branch normalization, TOML/YAML spec files
//   - [resolve]: the resolved package set and its [dag] graph
//   - [plan]: install, removal and update candidates, orphan computation
//   - [scheduler]: Execute, Run, Report and the Sink interface
//   - [vcs]: the process runner and git command variants
//   - [manifest]: the persisted manifest and its Store
//   - [pipeline]: the Install, Update and Remove operations
//   - [config]: the config file and XDG defaults
//   - [dag]: a small directed graph with cycle detection and DOT/SVG output
//   - [io]: JSON export of the dependency graph
//   - [errors]: coded errors and input validation
//   - [observability]: hooks for runs, tasks and manifest writes
//   - [buildinfo]: version information set via ldflags
//
// [spec]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/spec
// [resolve]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/resolve
// [plan]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/plan
// [scheduler]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/scheduler
// [vcs]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/vcs
// [manifest]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/manifest
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/config
// [dag]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/dag
// [io]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/io
// [errors]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/plugtower/pkg/buildinfo
package pkg
