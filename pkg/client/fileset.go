package client

import "github.com/tyemirov/claimrelay/pkg/attachments"

// FileSet is an ordered attachment list. Two files with the same name and size
// are treated as the same file.
type FileSet struct {
	files []attachments.File
}

// Add appends files not already present and reports how many were accepted.
func (fileSet *FileSet) Add(files ...attachments.File) int {
	added := 0
	for _, candidate := range files {
		if fileSet.contains(candidate.Name, candidate.Size()) {
			continue
		}
		fileSet.files = append(fileSet.files, candidate)
		added++
	}
	return added
}

// Remove drops the file matching name and size.
func (fileSet *FileSet) Remove(name string, size int64) bool {
	for index, existing := range fileSet.files {
		if existing.Name == name && existing.Size() == size {
			fileSet.files = append(fileSet.files[:index], fileSet.files[index+1:]...)
			return true
		}
	}
	return false
}

// Files returns a copy of the list in insertion order.
func (fileSet *FileSet) Files() []attachments.File {
	return append([]attachments.File(nil), fileSet.files...)
}

func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// TotalSize is a client-side hint only; the relay enforces no limit.
func (fileSet *FileSet) TotalSize() int64 {
	var total int64
	for _, file := range fileSet.files {
		total += file.Size()
	}
	return total
}

func (fileSet *FileSet) Clear() {
	fileSet.files = nil
}

func (fileSet *FileSet) contains(name string, size int64) bool {
	for _, existing := range fileSet.files {
		if existing.Name == name && existing.Size() == size {
			return true
		}
	}
	return false
}
