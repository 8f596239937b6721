package relocate

// SetCopyForTests overrides the file copy used by relocations.
func SetCopyForTests(fn func(src, dst string, preserveMetadata bool) error) func() {
	previous := copyFile
	copyFile = fn
	return func() {
		copyFile = previous
	}
}

// SetHashForTests overrides the digest function used by relocations.
func SetHashForTests(fn func(path, algorithm string) string) func() {
	previous := hashFile
	hashFile = fn
	return func() {
		hashFile = previous
	}
}
