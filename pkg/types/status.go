// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// FileStatus records what a command did with one directory entry.
type FileStatus string

const (
	StatusConverted FileStatus = "converted"
	StatusMoved     FileStatus = "moved"
	StatusSkipped   FileStatus = "skipped"
	StatusPlanned   FileStatus = "planned"
	StatusFailed    FileStatus = "failed"
)

// ErrDestinationExists is returned under CollisionError when the target
// path is already taken.
var ErrDestinationExists = errors.New("destination already exists")
