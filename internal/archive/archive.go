// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive exports an install layout as a directory or an archive.
// Archives are reproducible: entries are sorted and carry no timestamps or
// ownership.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Format is an export format.
type Format string

const (
	Dir    Format = "dir"
	Zip    Format = "zip"
	Tar    Format = "tar"
	TarZst Format = "tar.zst"
	TarXz  Format = "tar.xz"
)

var suffixes = []struct {
	suffix string
	format Format
}{
	{".tar.zst", TarZst},
	{".tzst", TarZst},
	{".tar.xz", TarXz},
	{".txz", TarXz},
	{".tar", Tar},
	{".zip", Zip},
}

// epoch is the modification time of every archive entry.
var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// FormatOf returns the format implied by the extension of dest. Anything
// without a known archive extension is a directory.
func FormatOf(dest string) Format {
	lower := strings.ToLower(dest)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format
		}
	}
	return Dir
}

// Write exports the tree at src to dest in the format implied by dest.
func Write(src, dest string) error {
	format := FormatOf(dest)
	if format == Dir {
		return os.CopyFS(dest, os.DirFS(src))
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	err = WriteTo(f, src, format)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

// WriteTo writes the tree at src to w as an archive of the given format.
func WriteTo(w io.Writer, src string, format Format) error {
	switch format {
	case Zip:
		return zipDir(w, src)
	case Tar:
		return tarDir(w, src)
	case TarZst:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return err
		}
		if err := tarDir(zw, src); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case TarXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return err
		}
		if err := tarDir(xw, src); err != nil {
			xw.Close()
			return err
		}
		return xw.Close()
	}
	return fmt.Errorf("unsupported archive format %q", format)
}

// walk visits the regular files and directories under src in lexical
// order with their slash-separated relative paths.
func walk(src string, fn func(rel, path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() && info.Mode()&fs.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), path, info)
	})
}

func tarDir(w io.Writer, src string) error {
	tw := tar.NewWriter(w)
	err := walk(src, func(rel, path string, info fs.FileInfo) error {
		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			var err error
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = rel
		if info.IsDir() {
			hdr.Name += "/"
		}
		hdr.ModTime, hdr.AccessTime, hdr.ChangeTime = epoch, time.Time{}, time.Time{}
		hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""
		hdr.Format = tar.FormatPAX
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(tw, path)
	})
	if err != nil {
		return err
	}
	return tw.Close()
}

func zipDir(w io.Writer, src string) error {
	zw := zip.NewWriter(w)
	err := walk(src, func(rel, path string, info fs.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = rel
		header.Method = zip.Deflate
		header.Modified = epoch

		writer, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_, err = io.WriteString(writer, link)
			return err
		}
		return copyFile(writer, path)
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
