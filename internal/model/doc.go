// Package model defines the project aggregate shared by the store, the
// optimistic mutation engine, and the generation controller.
//
// A Project owns an ordered list of Scenes and unordered sets of Characters
// and Locations. Scenes own their Shots. Helpers in this package keep the
// aggregate's structural invariants: dense scene ordering, unique shot
// numbers, and children that always match their parent identifiers.
package model
