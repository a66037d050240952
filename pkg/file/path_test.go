package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "/media/movie.srt", ReplaceExt("/media/movie.mp4", ".srt"))
	assert.Equal(t, "/media/movie.srt", ReplaceExt("/media/movie.mp4", "srt"))
	assert.Equal(t, "/media/archive.tar.srt", ReplaceExt("/media/archive.tar.gz", ".srt"))
	assert.Equal(t, "/media/noext.srt", ReplaceExt("/media/noext", ".srt"))
	assert.Equal(t, "/media/.hidden.srt", ReplaceExt("/media/.hidden", ".srt"))
	assert.Equal(t, "", ReplaceExt("", ".srt"))
}
