package imagestore

import (
	"regexp"

	"github.com/google/uuid"
)

const keyPrefix = "refImages/"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// objectKey строит ключ вида refImages/<uuid>_<имя>, где в имени остаются
// только латиница, цифры, точка, дефис и подчёркивание.
func objectKey(filename string) string {
	if filename == "" {
		filename = "image"
	}
	return keyPrefix + uuid.NewString() + "_" + unsafeFilenameChars.ReplaceAllString(filename, "_")
}
