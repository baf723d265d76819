// Package docconv converts office documents to PDF by delegating rendering
// to an external headless office engine (LibreOffice by default).
//
// # Quick Start
//
// Create a converter, convert a document, and close when done:
//
//	conv, err := docconv.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, "report.docx", payload)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer result.Close()
//
// The result references the converted artifact on disk; Close releases the
// per-job workspace, so call it only after you are done reading.
//
// # Conversion Pipeline
//
// Each job moves through these stages:
//
//  1. Admission (extension allow-list, size ceiling) via the Gatekeeper
//  2. Workspace allocation (unique scratch directory per job)
//  3. Engine invocation with a hard wall-clock timeout
//  4. Artifact verification (zero exit alone is not success)
//  5. Workspace release on every exit path
//
// # Concurrency
//
// A fixed pool of worker slots bounds how many engine processes run at
// once. Jobs beyond the pool size wait in a FIFO queue. Each slot owns an
// isolated engine profile directory, because the office engine keeps
// per-profile state that is not safe for concurrent headless use.
//
// Use options to size the pool:
//
//	conv, err := docconv.New(
//	    docconv.WithWorkers(4),
//	    docconv.WithTimeout(2 * time.Minute),
//	)
//
// # Batch Conversion
//
// ConvertBatch fans a slice of files out over the same pool and returns
// outcomes aligned to input order. One file's failure never affects its
// siblings.
//
// # Engine Requirements
//
// Conversion requires a LibreOffice-compatible binary (soffice) on PATH,
// runnable without a display. Use WithEngineBinary to point at a custom
// install.
package docconv
