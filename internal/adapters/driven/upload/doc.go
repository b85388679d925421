// Package upload provides driven.UploadSource implementations.
//
// Sources:
//   - StaticSource: an in-memory upload set edited by the caller
//   - DirectorySource: the files under a directory, optionally watched
//     for changes with fsnotify
package upload
