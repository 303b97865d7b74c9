package interfaces

// Archive is an opened presentation package
type Archive interface {
	// EntryNames returns every entry name in lexical order
	EntryNames() []string
	Has(name string) bool
	ReadText(name string) (string, error)
	ReadBytes(name string) ([]byte, error)
}

// ArchiveOpener opens raw package bytes
type ArchiveOpener func(data []byte) (Archive, error)
