// Package ps persists database snapshots in a Git repository using go-git.
// Each Save commits one JSON file per table plus the engine configuration,
// so history is inspectable with ordinary Git tooling.
//
// # Memory Store
//
// For testing or ephemeral instances:
//
//	store, err := ps.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # File Store
//
// For durable storage:
//
//	store, err := ps.NewFileStore("/path/to/data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Export and Import
//
// Snapshots can also move as a single JSON document over local files, HTTP
// or S3:
//
//	ps.ExportSnapshot(database, "s3://bucket/backup.json", s3cfg)
//	database, err := ps.ImportSnapshot("https://example.com/backup.json", nil)
package ps
