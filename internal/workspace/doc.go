// Package workspace composes the aggregate store, the optimistic engine and
// the generation controller into one editing session.
//
// A Workspace owns the current project. Opening a project fetches and
// sanitizes it, persists the choice in the journal, and makes it the target
// of every intent. Non-optimistic calls (project and scene creation, asset
// CRUD, chat, concept extraction) live here too and merge their results into
// the store only while the project they were issued for is still current.
//
// User-visible failures from the engine and the controller land in a bounded
// history exposed by Failures and are forwarded to notifications.
package workspace
