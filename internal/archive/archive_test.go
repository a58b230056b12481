package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func layout(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"include/foo.h":                   "foo",
		"include/bar.tcc":                 "bar",
		"include/concurrent-utils/lock.h": "lock",
	} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func readTar(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	files := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.True(t, hdr.ModTime.Equal(epoch), "%s has mtime %v", hdr.Name, hdr.ModTime)
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[hdr.Name] = string(data)
	}
	return files
}

var wantFiles = map[string]string{
	"include/foo.h":                   "foo",
	"include/bar.tcc":                 "bar",
	"include/concurrent-utils/lock.h": "lock",
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"out.tar.zst": TarZst,
		"out.TZST":    TarZst,
		"out.tar.xz":  TarXz,
		"out.tar":     Tar,
		"out.zip":     Zip,
		"out":         Dir,
		"out.tar.gz":  Dir,
	}
	for dest, want := range tests {
		assert.Equal(t, want, FormatOf(dest), dest)
	}
}

func TestWriteTarZst(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "pkg.tar.zst")
	require.NoError(t, Write(layout(t), dest))

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()
	assert.Equal(t, wantFiles, readTar(t, zr))
}

func TestWriteTarXz(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "pkg.tar.xz")
	require.NoError(t, Write(layout(t), dest))

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	xr, err := xz.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, wantFiles, readTar(t, xr))
}

func TestWriteZip(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "pkg.zip")
	require.NoError(t, Write(layout(t), dest))

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	got := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		got[f.Name] = string(data)
	}
	assert.Equal(t, wantFiles, got)
}

func TestWriteDir(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Write(layout(t), dest))
	data, err := os.ReadFile(filepath.Join(dest, "include", "concurrent-utils", "lock.h"))
	require.NoError(t, err)
	assert.Equal(t, "lock", string(data))
}

func TestArchivesAreReproducible(t *testing.T) {
	for _, format := range []Format{Tar, TarZst, TarXz, Zip} {
		t.Run(string(format), func(t *testing.T) {
			var a, b bytes.Buffer
			require.NoError(t, WriteTo(&a, layout(t), format))
			require.NoError(t, WriteTo(&b, layout(t), format))
			assert.Equal(t, a.Bytes(), b.Bytes())
		})
	}
}

func TestWriteToUnknownFormat(t *testing.T) {
	assert.Error(t, WriteTo(io.Discard, t.TempDir(), Format("rar")))
}
