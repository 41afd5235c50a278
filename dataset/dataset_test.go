package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/vision-bench/go-bench/config"
)

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	mat := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer mat.Close()
	require.True(t, gocv.IMWrite(path, mat), "writing %s", path)
}

func TestNewDiscoversImagesOnly(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "a.jpg"))
	writeTestImage(t, filepath.Join(dir, "b.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	d, err := New(config.Data{Path: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"a.jpg", "b.png"}, d.Files())
}

func TestNewHonorsExplicitFileList(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "a.jpg"))
	writeTestImage(t, filepath.Join(dir, "b.jpg"))

	d, err := New(config.Data{Path: dir, Files: []string{"b.jpg"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"b.jpg"}, d.Files())
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(config.Data{})
	assert.ErrorContains(t, err, "path cannot be empty")
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(config.Data{Path: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestAtDecodesImage(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "a.png"))

	d, err := New(config.Data{Path: dir})
	require.NoError(t, err)

	item, err := d.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	assert.Equal(t, "a.png", item.Name)
	assert.Equal(t, 320, item.Image.Cols())
	assert.Equal(t, 240, item.Image.Rows())
	assert.Nil(t, item.Regions)
}

func TestAtOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "a.jpg"))

	d, err := New(config.Data{Path: dir})
	require.NoError(t, err)

	_, err = d.At(1)
	assert.ErrorContains(t, err, "out of range")
	_, err = d.At(-1)
	assert.Error(t, err)
}

func TestAtDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not an image"), 0o644))

	d, err := New(config.Data{Path: dir})
	require.NoError(t, err)

	_, err = d.At(0)
	assert.ErrorContains(t, err, "failed to decode")
}

func TestLabelsLoadedAsRegionRows(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "face.png"))
	label := "10 20 30 40 0.9\n50 60 70 80 0.8\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "face.txt"), []byte(label), 0o644))

	d, err := New(config.Data{Path: dir, UseLabel: true})
	require.NoError(t, err)

	item, err := d.At(0)
	require.NoError(t, err)
	defer item.Image.Close()

	require.Len(t, item.Regions, 2)
	assert.Equal(t, []float32{10, 20, 30, 40, 0.9}, item.Regions[0])
	assert.Equal(t, []float32{50, 60, 70, 80, 0.8}, item.Regions[1])
}

func TestLabelsMissingFileFailsConstruction(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "face.png"))

	_, err := New(config.Data{Path: dir, UseLabel: true})
	assert.ErrorContains(t, err, "label for face.png")
}

func TestLabelsMalformedValue(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, filepath.Join(dir, "face.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "face.txt"), []byte("10 twenty"), 0o644))

	_, err := New(config.Data{Path: dir, UseLabel: true})
	assert.Error(t, err)
}
