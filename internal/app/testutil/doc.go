// Package testutil provides shared fakes and fixtures for package tests.
//
//   - MockProvider: scripted provider.TranscriptionProvider keyed by file name
//   - ScriptedFetcher: storage.Fetcher with per-key failure scripts and call counts
//   - MockWorkItemDAO: in-memory repository.WorkItemDAO with error injection
//   - SetupTestStore: migrated SQLite store in a temp dir
//   - WAV and key fixtures
//
// All fakes are safe for concurrent use.
package testutil
