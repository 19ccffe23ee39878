// Package cli is the admindata command-line client.
//
// NewApp builds the whole object graph once: the local cache database, one
// store and data source per entity type, the REST client, the connectivity
// monitor and the third-party bridge. Run executes a single command given on
// the command line, or starts an interactive REPL when none is given, while
// a background watcher reports online/offline transitions.
//
// Commands:
//
//	list <collection> [page=N] [size=N] [filter=field:term|field=value] [sort=field:dir]
//	create <collection> [json]
//	update <collection> [json]
//	delete <collection> <id>
//	seed <collection> [file.json]
//	countries
//	tree
//	status
//	purge
package cli
